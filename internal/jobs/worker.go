package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/semaphore"

	"github.com/amelendez141/Golf-App-sub001/internal/domain"
	"github.com/amelendez141/Golf-App-sub001/internal/metrics"
	"github.com/amelendez141/Golf-App-sub001/internal/platform/correlation"
)

// dequeueTimeout bounds each BLPOP so the worker notices cancellation.
const dequeueTimeout = 2 * time.Second

// Handler processes one job delivery. A nil return acknowledges the job;
// an error triggers retry and eventually the dead-letter list. Handlers
// must be idempotent.
type Handler func(ctx context.Context, job *Job) error

// Worker consumes one job class, dispatching to registered handlers with
// bounded concurrency.
type Worker struct {
	queue    *Queue
	class    string
	clock    clockwork.Clock
	sem      *semaphore.Weighted
	handlers map[string]Handler

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	stopped chan struct{}
}

// NewWorker creates a worker for the class with at most concurrency handlers
// in flight.
func NewWorker(queue *Queue, class string, concurrency int64, clock clockwork.Clock) *Worker {
	if concurrency <= 0 {
		concurrency = 5
	}
	return &Worker{
		queue:    queue,
		class:    class,
		clock:    clock,
		sem:      semaphore.NewWeighted(concurrency),
		handlers: make(map[string]Handler),
		stopped:  make(chan struct{}),
	}
}

// Register binds a handler to a job type. Must be called before Start.
func (w *Worker) Register(typ string, h Handler) {
	w.handlers[typ] = h
}

// Start runs the dequeue loop in a goroutine until Stop is called or ctx is
// cancelled.
func (w *Worker) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer close(w.stopped)
		w.run(ctx)
	}()

	slog.Info("Worker started", "class", w.class)
}

func (w *Worker) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		job, err := w.queue.Dequeue(ctx, w.class, dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("Dequeue failed", "class", w.class, "error", err)
			w.clock.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}

		if err := w.sem.Acquire(ctx, 1); err != nil {
			// Shutting down with a job already popped: push it back so it
			// is not lost.
			w.requeue(job)
			return
		}

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			defer w.sem.Release(1)
			w.process(ctx, job)
		}()
	}
}

// process runs one delivery. The job's context is detached from the loop
// context so an in-flight handler finishes during shutdown.
func (w *Worker) process(ctx context.Context, job *Job) {
	job.Attempts++

	jobCtx := context.WithoutCancel(ctx)
	if job.CorrelationID != "" {
		jobCtx = correlation.WithID(jobCtx, job.CorrelationID)
	} else {
		jobCtx = correlation.Ensure(jobCtx)
	}

	metrics.WorkerInFlight.WithLabelValues(w.class).Inc()
	defer metrics.WorkerInFlight.WithLabelValues(w.class).Dec()

	handler, ok := w.handlers[job.Type]
	if !ok {
		// No handler can ever succeed; retrying is pointless.
		w.finish(jobCtx, job, fmt.Errorf("no handler registered for type %q", job.Type), true)
		return
	}

	started := w.clock.Now()
	err := handler(jobCtx, job)
	metrics.JobHandlerDuration.WithLabelValues(job.Type).Observe(w.clock.Since(started).Seconds())

	if err != nil && isMissingEntity(err) {
		// The subject disappeared between enqueue and delivery. Nothing to
		// notify about; acknowledge.
		slog.InfoContext(jobCtx, "Job target no longer exists, skipping",
			"class", w.class, "type", job.Type, "job_id", job.ID, "reason", err)
		err = nil
	}

	w.finish(jobCtx, job, err, false)
}

func (w *Worker) finish(ctx context.Context, job *Job, err error, permanent bool) {
	if err == nil {
		metrics.JobsProcessedTotal.WithLabelValues(w.class, "success").Inc()
		if ackErr := w.queue.Ack(ctx, job); ackErr != nil {
			// The handler succeeded; a redelivery after the next recovery is
			// absorbed by handler idempotency.
			slog.ErrorContext(ctx, "Ack failed",
				"class", w.class, "job_id", job.ID, "error", ackErr)
		}
		return
	}

	if permanent || job.Attempts >= job.MaxAttempts {
		metrics.JobsProcessedTotal.WithLabelValues(w.class, "dead").Inc()
		if killErr := w.queue.Kill(ctx, job, err); killErr != nil {
			slog.ErrorContext(ctx, "Dead-lettering failed, job lost",
				"class", w.class, "job_id", job.ID, "error", killErr)
		}
		return
	}

	metrics.JobsProcessedTotal.WithLabelValues(w.class, "retry").Inc()
	slog.WarnContext(ctx, "Job attempt failed",
		"class", w.class, "type", job.Type, "job_id", job.ID,
		"attempt", job.Attempts, "max_attempts", job.MaxAttempts, "error", err)
	if retryErr := w.queue.Retry(ctx, job); retryErr != nil {
		slog.ErrorContext(ctx, "Retry scheduling failed, job lost",
			"class", w.class, "job_id", job.ID, "error", retryErr)
	}
}

func (w *Worker) requeue(job *Job) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.queue.Retry(ctx, job); err != nil {
		slog.Error("Requeue on shutdown failed, job lost",
			"class", w.class, "job_id", job.ID, "error", err)
	}
}

// Stop halts dequeueing and waits up to grace for in-flight handlers.
// Returns false if the grace period expired with handlers still running.
func (w *Worker) Stop(grace time.Duration) bool {
	w.mu.Lock()
	cancel := w.cancel
	w.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("Worker stopped", "class", w.class)
		return true
	case <-time.After(grace):
		slog.Warn("Worker grace period expired with handlers in flight", "class", w.class)
		return false
	}
}

func isMissingEntity(err error) bool {
	return errors.Is(err, domain.ErrGolferNotFound) || errors.Is(err, domain.ErrTeeTimeNotFound)
}

package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"

	"github.com/amelendez141/Golf-App-sub001/internal/platform/correlation"
	"github.com/amelendez141/Golf-App-sub001/internal/metrics"
)

const (
	// maxBackoff caps exponential retry delay.
	maxBackoff = 15 * time.Minute
	// backoffJitter is the relative jitter applied to retry delays to avoid
	// synchronized redelivery bursts.
	backoffJitter = 0.1
)

func readyKey(class string) string      { return "jobs:" + class + ":ready" }
func processingKey(class string) string { return "jobs:" + class + ":processing" }
func delayedKey(class string) string    { return "jobs:" + class + ":delayed" }
func deadKey(class string) string       { return "jobs:" + class + ":dead" }
func idemKey(key string) string         { return "jobs:idem:" + key }

// promoteDueScript atomically moves delayed jobs whose readyAt has passed
// onto the ready list, preserving delay order.
// KEYS: [1]=delayed zset, [2]=ready list. ARGV: [1]=now_ms, [2]=batch limit
var promoteDueScript = redis.NewScript(`
local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, ARGV[2])
if #due == 0 then return 0 end
for _, job in ipairs(due) do
  redis.call('RPUSH', KEYS[2], job)
end
redis.call('ZREM', KEYS[1], unpack(due))
return #due
`)

// Options tunes queue retry policy. Zero values fall back to defaults.
type Options struct {
	MaxAttempts int
	BaseBackoff time.Duration
}

func (o Options) normalized() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}
	if o.BaseBackoff <= 0 {
		o.BaseBackoff = 30 * time.Second
	}
	return o
}

// Queue is the durable job queue. Jobs live in Redis; the queue survives
// process restarts and delivers at least once.
type Queue struct {
	rdb   *redis.Client
	clock clockwork.Clock
	opts  Options
}

// NewQueue creates a queue on the given Redis client.
func NewQueue(rdb *redis.Client, clock clockwork.Clock, opts Options) *Queue {
	return &Queue{rdb: rdb, clock: clock, opts: opts.normalized()}
}

// Enqueue pushes a job onto the ready list of its class.
func (q *Queue) Enqueue(ctx context.Context, class, typ string, payload any) (uuid.UUID, error) {
	job, raw, err := q.build(ctx, class, typ, payload)
	if err != nil {
		return uuid.Nil, err
	}

	if err := q.rdb.RPush(ctx, readyKey(class), raw).Err(); err != nil {
		return uuid.Nil, fmt.Errorf("enqueue %s job: %w", class, err)
	}

	metrics.JobsEnqueuedTotal.WithLabelValues(class).Inc()
	slog.DebugContext(ctx, "Job enqueued", "class", class, "type", typ, "job_id", job.ID)
	return job.ID, nil
}

// EnqueueUnique enqueues unless a job with the same idempotency key was
// enqueued within ttl. Returns false without error when suppressed.
//
// The key is claimed before the push, so a crash in between suppresses the
// job for ttl. Schedulers re-scan on every tick, which bounds the loss to
// jobs whose window closes within the ttl.
func (q *Queue) EnqueueUnique(ctx context.Context, class, typ string, payload any, key string, ttl time.Duration) (bool, error) {
	claimed, err := q.rdb.SetNX(ctx, idemKey(key), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim idempotency key %q: %w", key, err)
	}
	if !claimed {
		metrics.JobsDuplicateSuppressedTotal.WithLabelValues(class).Inc()
		return false, nil
	}

	if _, err := q.Enqueue(ctx, class, typ, payload); err != nil {
		// Release the claim so the next scan can retry the push.
		q.rdb.Del(context.WithoutCancel(ctx), idemKey(key))
		return false, err
	}
	return true, nil
}

// Dequeue blocks up to timeout for the next ready job of the class. Returns
// (nil, nil) when the timeout elapses with nothing ready.
//
// The job is moved onto the processing list rather than popped outright, so
// a crash mid-handler leaves a Redis copy that Recover puts back on the
// ready list at the next startup. Ack, Retry, and Kill clear that copy.
func (q *Queue) Dequeue(ctx context.Context, class string, timeout time.Duration) (*Job, error) {
	raw, err := q.rdb.BLMove(ctx, readyKey(class), processingKey(class), "LEFT", "RIGHT", timeout).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dequeue %s job: %w", class, err)
	}

	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		// Undecodable envelopes would wedge the processing list forever.
		q.rdb.LRem(context.WithoutCancel(ctx), processingKey(class), 1, raw)
		return nil, fmt.Errorf("decode %s job: %w", class, err)
	}
	job.raw = []byte(raw)
	return &job, nil
}

// Ack removes a completed job's delivery from the processing list.
func (q *Queue) Ack(ctx context.Context, job *Job) error {
	if job.raw == nil {
		return nil
	}
	if err := q.rdb.LRem(ctx, processingKey(job.Class), 1, job.raw).Err(); err != nil {
		return fmt.Errorf("ack job %s: %w", job.ID, err)
	}
	return nil
}

// Recover moves deliveries stranded on the processing list by a previous
// process back onto the ready list, preserving their order. Call at startup,
// before workers begin dequeueing.
func (q *Queue) Recover(ctx context.Context, class string) (int, error) {
	recovered := 0
	for {
		// Popping from the right and pushing left keeps the oldest stranded
		// delivery at the head of the ready list.
		err := q.rdb.LMove(ctx, processingKey(class), readyKey(class), "RIGHT", "LEFT").Err()
		if errors.Is(err, redis.Nil) {
			return recovered, nil
		}
		if err != nil {
			return recovered, fmt.Errorf("recover %s jobs: %w", class, err)
		}
		recovered++
	}
}

// Retry reschedules a failed job onto the delayed set with exponential
// backoff and jitter based on how many attempts it has already consumed.
func (q *Queue) Retry(ctx context.Context, job *Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.ID, err)
	}

	backoff := q.backoff(job.Attempts)
	readyAt := q.clock.Now().Add(backoff)

	err = q.rdb.ZAdd(ctx, delayedKey(job.Class), redis.Z{
		Score:  float64(readyAt.UnixMilli()),
		Member: raw,
	}).Err()
	if err != nil {
		return fmt.Errorf("delay job %s: %w", job.ID, err)
	}
	q.clearProcessing(ctx, job)

	slog.InfoContext(ctx, "Job scheduled for retry",
		"class", job.Class, "type", job.Type, "job_id", job.ID,
		"attempt", job.Attempts, "backoff", backoff)
	return nil
}

// Kill parks a job on the dead-letter list for operator inspection.
func (q *Queue) Kill(ctx context.Context, job *Job, cause error) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.ID, err)
	}

	if err := q.rdb.LPush(ctx, deadKey(job.Class), raw).Err(); err != nil {
		return fmt.Errorf("dead-letter job %s: %w", job.ID, err)
	}
	q.clearProcessing(ctx, job)

	metrics.JobsDeadLetteredTotal.WithLabelValues(job.Class).Inc()
	slog.ErrorContext(ctx, "Job dead-lettered",
		"class", job.Class, "type", job.Type, "job_id", job.ID,
		"attempts", job.Attempts, "error", cause)
	return nil
}

// PromoteDue moves delayed jobs whose time has come onto the ready list.
// Returns the number promoted.
func (q *Queue) PromoteDue(ctx context.Context, class string, limit int) (int, error) {
	nowMs := q.clock.Now().UnixMilli()
	n, err := promoteDueScript.Run(ctx, q.rdb,
		[]string{delayedKey(class), readyKey(class)},
		strconv.FormatInt(nowMs, 10),
		strconv.Itoa(limit),
	).Int()
	if err != nil {
		return 0, fmt.Errorf("promote due %s jobs: %w", class, err)
	}
	return n, nil
}

// RunPromoter promotes due jobs for the class at the given interval until
// ctx is cancelled.
func (q *Queue) RunPromoter(ctx context.Context, class string, interval time.Duration) {
	ticker := q.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if _, err := q.PromoteDue(ctx, class, 100); err != nil && ctx.Err() == nil {
				slog.Error("Promoter tick failed", "class", class, "error", err)
			}
		}
	}
}

// DeadLetters returns up to limit dead jobs of the class, newest first,
// without removing them.
func (q *Queue) DeadLetters(ctx context.Context, class string, limit int) ([]Job, error) {
	raws, err := q.rdb.LRange(ctx, deadKey(class), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read %s dead letters: %w", class, err)
	}

	out := make([]Job, 0, len(raws))
	for _, raw := range raws {
		var job Job
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			return nil, fmt.Errorf("decode dead %s job: %w", class, err)
		}
		out = append(out, job)
	}
	return out, nil
}

// clearProcessing removes the as-popped envelope once the delivery outcome
// is durably recorded elsewhere. A crash before this leaves a processing
// copy; Recover re-readies it, and idempotent handlers absorb the duplicate.
func (q *Queue) clearProcessing(ctx context.Context, job *Job) {
	if job.raw == nil {
		return
	}
	if err := q.rdb.LRem(context.WithoutCancel(ctx), processingKey(job.Class), 1, job.raw).Err(); err != nil {
		slog.ErrorContext(ctx, "Failed to clear processing entry",
			"class", job.Class, "job_id", job.ID, "error", err)
	}
}

func (q *Queue) build(ctx context.Context, class, typ string, payload any) (*Job, []byte, error) {
	rawPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("encode %s payload: %w", typ, err)
	}

	job := &Job{
		ID:          uuid.New(),
		Class:       class,
		Type:        typ,
		Payload:     rawPayload,
		EnqueuedAt:  q.clock.Now().UTC(),
		Attempts:    0,
		MaxAttempts: q.opts.MaxAttempts,
	}
	if id, ok := correlation.ID(ctx); ok {
		job.CorrelationID = id
	}

	raw, err := json.Marshal(job)
	if err != nil {
		return nil, nil, fmt.Errorf("encode job envelope: %w", err)
	}
	return job, raw, nil
}

// backoff computes the delay before the given (1-based) retry, doubling per
// attempt with a cap and ±10% jitter.
func (q *Queue) backoff(attempts int) time.Duration {
	d := q.opts.BaseBackoff
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= maxBackoff {
			d = maxBackoff
			break
		}
	}

	jitter := time.Duration((rand.Float64()*2 - 1) * backoffJitter * float64(d))
	return d + jitter
}

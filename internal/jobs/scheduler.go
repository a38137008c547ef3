package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/samber/lo"

	"github.com/amelendez141/Golf-App-sub001/internal/domain"
	"github.com/amelendez141/Golf-App-sub001/internal/matching"
	"github.com/amelendez141/Golf-App-sub001/internal/metrics"
	"github.com/amelendez141/Golf-App-sub001/internal/platform/correlation"
)

// reminderWindows are the lead times at which participants get a reminder.
// Ordered longest first so a near-term tee time still gets both keys claimed.
var reminderWindows = []struct {
	Label string
	Lead  time.Duration
}{
	{"24h", 24 * time.Hour},
	{"2h", 2 * time.Hour},
}

// reminderIdemTTL outlives the longest window so a key cannot expire while
// its tee time is still inside the window.
const reminderIdemTTL = 48 * time.Hour

// ReminderScheduler periodically scans upcoming tee times and enqueues one
// reminder job per active participant per window. Idempotency keys make the
// scan safe to repeat.
type ReminderScheduler struct {
	teeTimes domain.TeeTimeRepository
	queue    *Queue
	clock    clockwork.Clock
	interval time.Duration
}

// NewReminderScheduler creates a reminder scheduler scanning at interval.
func NewReminderScheduler(teeTimes domain.TeeTimeRepository, queue *Queue, clock clockwork.Clock, interval time.Duration) *ReminderScheduler {
	return &ReminderScheduler{teeTimes: teeTimes, queue: queue, clock: clock, interval: interval}
}

// Run scans immediately, then at every interval until ctx is cancelled.
// Ticks are synchronous, so scans never overlap.
func (s *ReminderScheduler) Run(ctx context.Context) {
	s.tick(ctx)

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.tick(ctx)
		}
	}
}

func (s *ReminderScheduler) tick(ctx context.Context) {
	ctx = correlation.Ensure(ctx)
	started := s.clock.Now()
	defer func() {
		metrics.SchedulerTickDuration.WithLabelValues("reminders").Observe(s.clock.Since(started).Seconds())
	}()

	if err := s.scan(ctx); err != nil && ctx.Err() == nil {
		slog.ErrorContext(ctx, "Reminder scan failed", "error", err)
	}
}

func (s *ReminderScheduler) scan(ctx context.Context) error {
	now := s.clock.Now()

	for _, window := range reminderWindows {
		teeTimes, err := s.teeTimes.ListStartingBetween(ctx, now, now.Add(window.Lead))
		if err != nil {
			return fmt.Errorf("list tee times in %s window: %w", window.Label, err)
		}

		for i := range teeTimes {
			if err := s.remind(ctx, &teeTimes[i], window.Label); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *ReminderScheduler) remind(ctx context.Context, teeTime *domain.TeeTime, window string) error {
	participants, err := s.teeTimes.ListParticipants(ctx, teeTime.ID)
	if err != nil {
		return fmt.Errorf("list participants of %s: %w", teeTime.ID, err)
	}

	for _, p := range participants {
		if p.Status != domain.ParticipantActive {
			continue
		}

		key := fmt.Sprintf("reminder:%s:%s:%s", teeTime.ID, window, p.GolferID)
		enqueued, err := s.queue.EnqueueUnique(ctx, ClassReminders, TypeTeeTimeReminder, ReminderPayload{
			GolferID:  p.GolferID,
			TeeTimeID: teeTime.ID,
			Window:    window,
		}, key, reminderIdemTTL)
		if err != nil {
			return err
		}
		if enqueued {
			slog.DebugContext(ctx, "Reminder enqueued",
				"tee_time_id", teeTime.ID, "golfer_id", p.GolferID, "window", window)
		}
	}
	return nil
}

const (
	// digestRecommendations caps suggested open tee times per digest.
	digestRecommendations = 5
	// digestPoolLimit bounds the candidate pool read per digest run.
	digestPoolLimit = 200
	// digestIdemTTL outlives one digest period.
	digestIdemTTL = 8 * 24 * time.Hour
)

// DigestScheduler enqueues a weekly digest job per opted-in golfer,
// combining their upcoming commitments with recommended open tee times.
// Golfers with nothing to show are skipped entirely.
type DigestScheduler struct {
	golfers  domain.GolferRepository
	teeTimes domain.TeeTimeRepository
	engine   *matching.Engine
	queue    *Queue
	clock    clockwork.Clock
	interval time.Duration
}

// NewDigestScheduler creates a digest scheduler running at interval.
func NewDigestScheduler(golfers domain.GolferRepository, teeTimes domain.TeeTimeRepository, engine *matching.Engine, queue *Queue, clock clockwork.Clock, interval time.Duration) *DigestScheduler {
	return &DigestScheduler{
		golfers:  golfers,
		teeTimes: teeTimes,
		engine:   engine,
		queue:    queue,
		clock:    clock,
		interval: interval,
	}
}

// Run scans immediately, then at every interval until ctx is cancelled. The
// idempotency key carries the ISO week, so restarting mid-week never sends a
// second digest.
func (s *DigestScheduler) Run(ctx context.Context) {
	s.tick(ctx)

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.tick(ctx)
		}
	}
}

func (s *DigestScheduler) tick(ctx context.Context) {
	ctx = correlation.Ensure(ctx)
	started := s.clock.Now()
	defer func() {
		metrics.SchedulerTickDuration.WithLabelValues("digest").Observe(s.clock.Since(started).Seconds())
	}()

	if err := s.scan(ctx); err != nil && ctx.Err() == nil {
		slog.ErrorContext(ctx, "Digest scan failed", "error", err)
	}
}

func (s *DigestScheduler) scan(ctx context.Context) error {
	now := s.clock.Now()

	golfers, err := s.golfers.ListDigestOptIns(ctx)
	if err != nil {
		return fmt.Errorf("list digest opt-ins: %w", err)
	}
	if len(golfers) == 0 {
		return nil
	}

	pool, err := s.teeTimes.ListUpcomingOpen(ctx, now, digestPoolLimit)
	if err != nil {
		return fmt.Errorf("list open tee times: %w", err)
	}

	year, week := now.UTC().ISOWeek()

	for i := range golfers {
		golfer := &golfers[i]

		upcoming, err := s.teeTimes.ListUpcomingForGolfer(ctx, golfer.ID, now)
		if err != nil {
			return fmt.Errorf("list upcoming for golfer %s: %w", golfer.ID, err)
		}
		upcomingIDs := lo.Map(upcoming, func(t domain.TeeTime, _ int) uuid.UUID { return t.ID })

		results := s.engine.ScoreTeeTimesForGolfer(golfer, pool, matching.Options{
			Limit:      digestRecommendations,
			ExcludeIDs: upcomingIDs,
		})
		recommendedIDs := lo.Map(results, func(r matching.Result, _ int) uuid.UUID { return r.TeeTimeID })

		if len(upcomingIDs) == 0 && len(recommendedIDs) == 0 {
			continue
		}

		key := fmt.Sprintf("digest:%s:%d-W%02d", golfer.ID, year, week)
		if _, err := s.queue.EnqueueUnique(ctx, ClassReminders, TypeWeeklyDigest, DigestPayload{
			GolferID:       golfer.ID,
			UpcomingIDs:    upcomingIDs,
			RecommendedIDs: recommendedIDs,
		}, key, digestIdemTTL); err != nil {
			return err
		}
	}
	return nil
}

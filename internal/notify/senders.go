package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/amelendez141/Golf-App-sub001/internal/domain"
	"github.com/amelendez141/Golf-App-sub001/internal/metrics"
	"github.com/amelendez141/Golf-App-sub001/internal/platform/retry"
	"github.com/amelendez141/Golf-App-sub001/internal/realtime"
)

// InAppSender persists a notification row and pushes it live to any open
// sessions of the recipient. Persisting is idempotent on the notification
// id, so job redelivery never duplicates the row or the live event.
type InAppSender struct {
	repo        domain.NotificationRepository
	broadcaster *realtime.Broadcaster
}

// NewInAppSender creates the in-app notification channel.
func NewInAppSender(repo domain.NotificationRepository, broadcaster *realtime.Broadcaster) *InAppSender {
	return &InAppSender{repo: repo, broadcaster: broadcaster}
}

func (s *InAppSender) Name() string { return "in_app" }

// Send persists the notification and, when it was actually new, publishes a
// NOTIFICATION event to the recipient's sessions.
func (s *InAppSender) Send(ctx context.Context, n domain.Notification) error {
	created, err := s.repo.Create(ctx, n)
	if err != nil {
		metrics.NotificationSendsTotal.WithLabelValues(s.Name(), "failure").Inc()
		return fmt.Errorf("persist notification %s: %w", n.ID, err)
	}
	metrics.NotificationSendsTotal.WithLabelValues(s.Name(), "success").Inc()

	if !created {
		return nil
	}

	s.broadcaster.Publish(ctx, realtime.ToActor(n.GolferID), realtime.Event{
		Type: realtime.EventNotification,
		Payload: map[string]any{
			"id":    n.ID,
			"kind":  n.Kind,
			"title": n.Title,
			"body":  n.Body,
		},
	})
	return nil
}

// Deliverer performs the raw delivery of one notification over an external
// channel (push gateway, mail relay).
type Deliverer func(ctx context.Context, n domain.Notification) error

// GatedSender wraps an external delivery channel with a circuit breaker and
// bounded retry. A tripped breaker fails fast instead of piling timeouts
// onto a dead provider.
type GatedSender struct {
	name    string
	deliver Deliverer
	breaker *gobreaker.CircuitBreaker
	policy  retry.Policy
}

func newGatedSender(name string, deliver Deliverer) *GatedSender {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: name,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		Timeout: 30 * time.Second,
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Notification channel breaker state changed",
				"channel", name, "from", from.String(), "to", to.String())
		},
	})

	return &GatedSender{
		name:    name,
		deliver: deliver,
		breaker: breaker,
		policy: retry.Policy{
			MaxAttempts:      3,
			InitialBackoff:   200 * time.Millisecond,
			RateLimitBackoff: 2 * time.Second,
		},
	}
}

// NewPushSender creates the push notification channel.
func NewPushSender(deliver Deliverer) *GatedSender { return newGatedSender("push", deliver) }

// NewEmailSender creates the email notification channel.
func NewEmailSender(deliver Deliverer) *GatedSender { return newGatedSender("email", deliver) }

func (s *GatedSender) Name() string { return s.name }

// Send delivers through the breaker with bounded retry per attempt window.
func (s *GatedSender) Send(ctx context.Context, n domain.Notification) error {
	_, err := s.breaker.Execute(func() (any, error) {
		return nil, retry.DoVoid(ctx, s.policy, classifySendError, func() error {
			return s.deliver(ctx, n)
		})
	})
	if err != nil {
		metrics.NotificationSendsTotal.WithLabelValues(s.name, "failure").Inc()
		return fmt.Errorf("send %s notification %s: %w", s.name, n.ID, err)
	}

	metrics.NotificationSendsTotal.WithLabelValues(s.name, "success").Inc()
	return nil
}

func classifySendError(err error) retry.Action {
	var permanent *retry.PermanentError
	if errors.As(err, &permanent) {
		return retry.Stop
	}
	return retry.Retry
}

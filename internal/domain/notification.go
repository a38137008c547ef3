package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Notification is a single user-facing message produced by a job handler.
// ID is derived deterministically from the job so redelivery of the same job
// produces the same notification id (channel-side deduplication).
type Notification struct {
	ID        uuid.UUID
	GolferID  uuid.UUID
	Kind      string
	Title     string
	Body      string
	CreatedAt time.Time
}

// ChannelSender delivers a notification over one channel (push, email, in-app).
// Senders own their failure mode; the worker treats a send as fire-and-forget
// beyond logging.
type ChannelSender interface {
	Name() string
	Send(ctx context.Context, n Notification) error
}

// NotificationRepository persists in-app notifications. Create reports whether
// a row was actually inserted; a duplicate id is a no-op (idempotent under
// job redelivery).
type NotificationRepository interface {
	Create(ctx context.Context, n Notification) (created bool, err error)
}

package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Job classes. Each class has its own ready/delayed/dead keys and worker.
const (
	ClassNotifications = "notifications"
	ClassReminders     = "reminders"
)

// Notification job types.
const (
	TypeNewMatch         = "NEW_MATCH"
	TypeSlotJoined       = "SLOT_JOINED"
	TypeSlotLeft         = "SLOT_LEFT"
	TypeSlotFilled       = "SLOT_FILLED"
	TypeTeeTimeCancelled = "TEE_TIME_CANCELLED"
	TypeTeeTimeUpdated   = "TEE_TIME_UPDATED"
	TypeMessageReceived  = "MESSAGE_RECEIVED"
	TypeWelcome          = "WELCOME"
)

// Reminder job types.
const (
	TypeTeeTimeReminder = "TEE_TIME_REMINDER"
	TypeWeeklyDigest    = "WEEKLY_DIGEST"
)

// Job is the queue envelope. Attempts counts deliveries including the
// current one; MaxAttempts is stamped at enqueue time so in-flight jobs keep
// their policy across config changes.
type Job struct {
	ID            uuid.UUID       `json:"id"`
	Class         string          `json:"class"`
	Type          string          `json:"type"`
	Payload       json.RawMessage `json:"payload"`
	EnqueuedAt    time.Time       `json:"enqueuedAt"`
	Attempts      int             `json:"attempts"`
	MaxAttempts   int             `json:"maxAttempts"`
	CorrelationID string          `json:"correlationId,omitempty"`

	// raw is the envelope exactly as it sits on the processing list, kept so
	// Ack/Retry/Kill can remove that entry.
	raw []byte
}

// Unmarshal decodes the job payload into dst.
func (j *Job) Unmarshal(dst any) error {
	if err := json.Unmarshal(j.Payload, dst); err != nil {
		return fmt.Errorf("decode %s payload: %w", j.Type, err)
	}
	return nil
}

// NotificationPayload is the payload for all notification-class jobs except
// WELCOME. Unused fields stay zero for types that do not need them.
type NotificationPayload struct {
	GolferID  uuid.UUID `json:"golferId"`
	TeeTimeID uuid.UUID `json:"teeTimeId"`
	ActorID   uuid.UUID `json:"actorId,omitempty"` // who joined/left/messaged
	Message   string    `json:"message,omitempty"`
}

// WelcomePayload is the payload for WELCOME jobs.
type WelcomePayload struct {
	GolferID uuid.UUID `json:"golferId"`
}

// ReminderPayload is the payload for TEE_TIME_REMINDER jobs.
type ReminderPayload struct {
	GolferID  uuid.UUID `json:"golferId"`
	TeeTimeID uuid.UUID `json:"teeTimeId"`
	Window    string    `json:"window"` // "24h" or "2h"
}

// DigestPayload is the payload for WEEKLY_DIGEST jobs. Tee time ids only;
// the handler re-reads current state so stale digests never show cancelled
// rounds.
type DigestPayload struct {
	GolferID       uuid.UUID   `json:"golferId"`
	UpcomingIDs    []uuid.UUID `json:"upcomingIds"`
	RecommendedIDs []uuid.UUID `json:"recommendedIds"`
}

package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TeeTime is a bookable round with open slots.
type TeeTime struct {
	ID                uuid.UUID
	HostID            uuid.UUID
	HostIndustry      string
	CourseName        string
	Location          *Location
	StartTime         time.Time
	PreferredIndustry string // empty means the host stated no preference
	RequiredTier      SkillTier
	MaxPlayers        int
	BookedPlayers     int
	Cancelled         bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// OpenSlots returns the number of unfilled player slots.
func (t *TeeTime) OpenSlots() int {
	open := t.MaxPlayers - t.BookedPlayers
	if open < 0 {
		return 0
	}
	return open
}

// Participant links a golfer to a tee time.
type Participant struct {
	TeeTimeID uuid.UUID
	GolferID  uuid.UUID
	Status    string // "active" or "left"
	JoinedAt  time.Time
}

const ParticipantActive = "active"

// TeeTimeRepository is the persistence read interface for tee times.
type TeeTimeRepository interface {
	// GetByID returns ErrTeeTimeNotFound when no row exists.
	GetByID(ctx context.Context, id uuid.UUID) (*TeeTime, error)
	// ListUpcomingOpen returns non-cancelled tee times starting after now
	// with at least one open slot, ordered by start time, up to limit.
	ListUpcomingOpen(ctx context.Context, now time.Time, limit int) ([]TeeTime, error)
	// ListStartingBetween returns non-cancelled tee times with a start time
	// in [from, to).
	ListStartingBetween(ctx context.Context, from, to time.Time) ([]TeeTime, error)
	// ListParticipants returns all participants of a tee time.
	ListParticipants(ctx context.Context, teeTimeID uuid.UUID) ([]Participant, error)
	// ListUpcomingForGolfer returns non-cancelled tee times the golfer
	// actively participates in, starting after now.
	ListUpcomingForGolfer(ctx context.Context, golferID uuid.UUID, now time.Time) ([]TeeTime, error)
}

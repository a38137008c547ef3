package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SkillTier is a golfer's self-declared playing level. Tee times may require a
// tier; TierAny accepts everyone.
type SkillTier string

const (
	TierAny          SkillTier = "ANY"
	TierBeginner     SkillTier = "BEGINNER"
	TierIntermediate SkillTier = "INTERMEDIATE"
	TierAdvanced     SkillTier = "ADVANCED"
)

// Location is a named locality with coordinates. A nil *Location means the
// golfer or course never provided one.
type Location struct {
	City      string  `json:"city"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Golfer is the platform user being matched and notified.
type Golfer struct {
	ID          uuid.UUID
	DisplayName string
	Email       string
	Industry    string
	Tier        SkillTier
	Location    *Location
	DigestOptIn bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// GolferRepository is the persistence read interface for golfers.
type GolferRepository interface {
	// GetByID returns ErrGolferNotFound when no row exists.
	GetByID(ctx context.Context, id uuid.UUID) (*Golfer, error)
	// ListCandidates returns up to limit golfers eligible for matching,
	// excluding the given ids.
	ListCandidates(ctx context.Context, limit int, exclude []uuid.UUID) ([]Golfer, error)
	// ListDigestOptIns returns golfers who opted into the weekly digest.
	ListDigestOptIns(ctx context.Context) ([]Golfer, error)
}

package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/amelendez141/Golf-App-sub001/internal/domain"
)

// InsertTestGolfer writes a golfer row directly, bypassing the repository.
func InsertTestGolfer(t *testing.T, db *DB, g domain.Golfer) domain.Golfer {
	t.Helper()

	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if g.DisplayName == "" {
		g.DisplayName = "Golfer " + g.ID.String()[:8]
	}
	if g.Email == "" {
		g.Email = g.ID.String()[:8] + "@example.com"
	}
	if g.Tier == "" {
		g.Tier = domain.TierAny
	}

	var city *string
	var lat, lon *float64
	if g.Location != nil {
		city, lat, lon = &g.Location.City, &g.Location.Latitude, &g.Location.Longitude
	}

	_, err := db.Pool.Exec(context.Background(),
		`INSERT INTO golfers (id, display_name, email, industry, tier, city, latitude, longitude, digest_opt_in)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		g.ID, g.DisplayName, g.Email, g.Industry, g.Tier, city, lat, lon, g.DigestOptIn)
	require.NoError(t, err)
	return g
}

// InsertTestTeeTime writes a tee time row directly.
func InsertTestTeeTime(t *testing.T, db *DB, tt domain.TeeTime) domain.TeeTime {
	t.Helper()

	if tt.ID == uuid.Nil {
		tt.ID = uuid.New()
	}
	if tt.CourseName == "" {
		tt.CourseName = "Test Course"
	}
	if tt.RequiredTier == "" {
		tt.RequiredTier = domain.TierAny
	}
	if tt.MaxPlayers == 0 {
		tt.MaxPlayers = 4
	}
	if tt.StartTime.IsZero() {
		tt.StartTime = time.Now().UTC().Add(24 * time.Hour)
	}

	var city *string
	var lat, lon *float64
	if tt.Location != nil {
		city, lat, lon = &tt.Location.City, &tt.Location.Latitude, &tt.Location.Longitude
	}

	_, err := db.Pool.Exec(context.Background(),
		`INSERT INTO tee_times (id, host_id, course_name, city, latitude, longitude, start_time,
		                        preferred_industry, required_tier, max_players, booked_players, cancelled)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		tt.ID, tt.HostID, tt.CourseName, city, lat, lon, tt.StartTime,
		tt.PreferredIndustry, tt.RequiredTier, tt.MaxPlayers, tt.BookedPlayers, tt.Cancelled)
	require.NoError(t, err)
	return tt
}

// AddTestParticipant links a golfer to a tee time with the given status.
func AddTestParticipant(t *testing.T, db *DB, teeTimeID, golferID uuid.UUID, status string) {
	t.Helper()

	_, err := db.Pool.Exec(context.Background(),
		`INSERT INTO participants (tee_time_id, golfer_id, status) VALUES ($1, $2, $3)`,
		teeTimeID, golferID, status)
	require.NoError(t, err)
}

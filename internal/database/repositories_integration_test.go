package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amelendez141/Golf-App-sub001/internal/domain"
)

func TestGolferRepo_GetByID(t *testing.T) {
	db := setupDB(t)
	repo := NewGolferRepo(db)
	ctx := context.Background()

	seeded := InsertTestGolfer(t, db, domain.Golfer{
		Industry: "TECH",
		Tier:     domain.TierIntermediate,
		Location: &domain.Location{City: "Austin", Latitude: 30.2672, Longitude: -97.7431},
	})

	golfer, err := repo.GetByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, golfer.ID)
	assert.Equal(t, "TECH", golfer.Industry)
	assert.Equal(t, domain.TierIntermediate, golfer.Tier)
	require.NotNil(t, golfer.Location)
	assert.Equal(t, "Austin", golfer.Location.City)
	assert.InDelta(t, 30.2672, golfer.Location.Latitude, 0.0001)
}

func TestGolferRepo_GetByID_NotFound(t *testing.T) {
	db := setupDB(t)
	repo := NewGolferRepo(db)

	golfer, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrGolferNotFound)
	assert.Nil(t, golfer)
}

func TestGolferRepo_NilLocation(t *testing.T) {
	db := setupDB(t)
	repo := NewGolferRepo(db)

	seeded := InsertTestGolfer(t, db, domain.Golfer{Industry: "FINANCE"})

	golfer, err := repo.GetByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Nil(t, golfer.Location)
}

func TestGolferRepo_ListCandidates(t *testing.T) {
	db := setupDB(t)
	repo := NewGolferRepo(db)
	ctx := context.Background()

	a := InsertTestGolfer(t, db, domain.Golfer{})
	b := InsertTestGolfer(t, db, domain.Golfer{})
	c := InsertTestGolfer(t, db, domain.Golfer{})

	golfers, err := repo.ListCandidates(ctx, 10, []uuid.UUID{b.ID})
	require.NoError(t, err)
	require.Len(t, golfers, 2)
	ids := []uuid.UUID{golfers[0].ID, golfers[1].ID}
	assert.Contains(t, ids, a.ID)
	assert.Contains(t, ids, c.ID)

	limited, err := repo.ListCandidates(ctx, 1, nil)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestGolferRepo_ListDigestOptIns(t *testing.T) {
	db := setupDB(t)
	repo := NewGolferRepo(db)

	optedIn := InsertTestGolfer(t, db, domain.Golfer{DigestOptIn: true})
	InsertTestGolfer(t, db, domain.Golfer{DigestOptIn: false})

	golfers, err := repo.ListDigestOptIns(context.Background())
	require.NoError(t, err)
	require.Len(t, golfers, 1)
	assert.Equal(t, optedIn.ID, golfers[0].ID)
}

func TestTeeTimeRepo_GetByID(t *testing.T) {
	db := setupDB(t)
	repo := NewTeeTimeRepo(db)

	host := InsertTestGolfer(t, db, domain.Golfer{Industry: "LEGAL"})
	seeded := InsertTestTeeTime(t, db, domain.TeeTime{
		HostID:            host.ID,
		CourseName:        "Pebble Creek",
		PreferredIndustry: "TECH",
		MaxPlayers:        4,
		BookedPlayers:     1,
	})

	teeTime, err := repo.GetByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pebble Creek", teeTime.CourseName)
	assert.Equal(t, "LEGAL", teeTime.HostIndustry, "host industry must be joined in")
	assert.Equal(t, 3, teeTime.OpenSlots())
}

func TestTeeTimeRepo_GetByID_NotFound(t *testing.T) {
	db := setupDB(t)
	repo := NewTeeTimeRepo(db)

	teeTime, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrTeeTimeNotFound)
	assert.Nil(t, teeTime)
}

func TestTeeTimeRepo_ListUpcomingOpen(t *testing.T) {
	db := setupDB(t)
	repo := NewTeeTimeRepo(db)
	now := time.Now().UTC()

	host := InsertTestGolfer(t, db, domain.Golfer{})
	open := InsertTestTeeTime(t, db, domain.TeeTime{HostID: host.ID, StartTime: now.Add(24 * time.Hour)})
	InsertTestTeeTime(t, db, domain.TeeTime{HostID: host.ID, StartTime: now.Add(24 * time.Hour), MaxPlayers: 4, BookedPlayers: 4})
	InsertTestTeeTime(t, db, domain.TeeTime{HostID: host.ID, StartTime: now.Add(24 * time.Hour), Cancelled: true})
	InsertTestTeeTime(t, db, domain.TeeTime{HostID: host.ID, StartTime: now.Add(-time.Hour)})

	teeTimes, err := repo.ListUpcomingOpen(context.Background(), now, 10)
	require.NoError(t, err)
	require.Len(t, teeTimes, 1, "full, cancelled and past tee times are excluded")
	assert.Equal(t, open.ID, teeTimes[0].ID)
}

func TestTeeTimeRepo_ListStartingBetween(t *testing.T) {
	db := setupDB(t)
	repo := NewTeeTimeRepo(db)
	now := time.Now().UTC()

	host := InsertTestGolfer(t, db, domain.Golfer{})
	inside := InsertTestTeeTime(t, db, domain.TeeTime{HostID: host.ID, StartTime: now.Add(10 * time.Hour)})
	InsertTestTeeTime(t, db, domain.TeeTime{HostID: host.ID, StartTime: now.Add(30 * time.Hour)})

	teeTimes, err := repo.ListStartingBetween(context.Background(), now, now.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, teeTimes, 1)
	assert.Equal(t, inside.ID, teeTimes[0].ID)
}

func TestTeeTimeRepo_Participants(t *testing.T) {
	db := setupDB(t)
	repo := NewTeeTimeRepo(db)
	ctx := context.Background()

	host := InsertTestGolfer(t, db, domain.Golfer{})
	player := InsertTestGolfer(t, db, domain.Golfer{})
	leaver := InsertTestGolfer(t, db, domain.Golfer{})
	teeTime := InsertTestTeeTime(t, db, domain.TeeTime{HostID: host.ID})

	AddTestParticipant(t, db, teeTime.ID, player.ID, domain.ParticipantActive)
	AddTestParticipant(t, db, teeTime.ID, leaver.ID, "left")

	participants, err := repo.ListParticipants(ctx, teeTime.ID)
	require.NoError(t, err)
	assert.Len(t, participants, 2)

	upcoming, err := repo.ListUpcomingForGolfer(ctx, player.ID, time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, teeTime.ID, upcoming[0].ID)

	// A left participant has no upcoming rounds here.
	upcoming, err = repo.ListUpcomingForGolfer(ctx, leaver.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.Empty(t, upcoming)
}

func TestNotificationRepo_CreateIsIdempotent(t *testing.T) {
	db := setupDB(t)
	repo := NewNotificationRepo(db)
	ctx := context.Background()

	golfer := InsertTestGolfer(t, db, domain.Golfer{})
	n := domain.Notification{
		ID:        uuid.New(),
		GolferID:  golfer.ID,
		Kind:      "WELCOME",
		Title:     "Welcome to the club",
		Body:      "Hi!",
		CreatedAt: time.Now().UTC(),
	}

	created, err := repo.Create(ctx, n)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Create(ctx, n)
	require.NoError(t, err)
	assert.False(t, created, "duplicate id must be a no-op")

	var count int
	err = db.Pool.QueryRow(ctx, `SELECT count(*) FROM notifications`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

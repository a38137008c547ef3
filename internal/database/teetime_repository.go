package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/amelendez141/Golf-App-sub001/internal/domain"
)

type TeeTimeRepo struct {
	db *DB
}

var _ domain.TeeTimeRepository = (*TeeTimeRepo)(nil)

func NewTeeTimeRepo(db *DB) *TeeTimeRepo {
	return &TeeTimeRepo{db: db}
}

// teeTimeColumns joins the host's industry in so affinity scoring never
// needs a second query.
const teeTimeColumns = `t.id, t.host_id, g.industry, t.course_name, t.city, t.latitude,
	t.longitude, t.start_time, t.preferred_industry, t.required_tier, t.max_players,
	t.booked_players, t.cancelled, t.created_at, t.updated_at`

const teeTimeFrom = ` FROM tee_times t JOIN golfers g ON g.id = t.host_id `

func (r *TeeTimeRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.TeeTime, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+teeTimeColumns+teeTimeFrom+`WHERE t.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("query tee time %s: %w", id, err)
	}

	teeTime, err := pgx.CollectExactlyOneRow(rows, scanTeeTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTeeTimeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &teeTime, nil
}

func (r *TeeTimeRepo) ListUpcomingOpen(ctx context.Context, now time.Time, limit int) ([]domain.TeeTime, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+teeTimeColumns+teeTimeFrom+`
		 WHERE NOT t.cancelled
		   AND t.start_time > $1
		   AND t.booked_players < t.max_players
		 ORDER BY t.start_time
		 LIMIT $2`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("query open tee times: %w", err)
	}
	return pgx.CollectRows(rows, scanTeeTime)
}

func (r *TeeTimeRepo) ListStartingBetween(ctx context.Context, from, to time.Time) ([]domain.TeeTime, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+teeTimeColumns+teeTimeFrom+`
		 WHERE NOT t.cancelled
		   AND t.start_time >= $1
		   AND t.start_time < $2
		 ORDER BY t.start_time`, from, to)
	if err != nil {
		return nil, fmt.Errorf("query tee times between %s and %s: %w", from, to, err)
	}
	return pgx.CollectRows(rows, scanTeeTime)
}

func (r *TeeTimeRepo) ListParticipants(ctx context.Context, teeTimeID uuid.UUID) ([]domain.Participant, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT tee_time_id, golfer_id, status, joined_at
		 FROM participants
		 WHERE tee_time_id = $1
		 ORDER BY joined_at`, teeTimeID)
	if err != nil {
		return nil, fmt.Errorf("query participants of %s: %w", teeTimeID, err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Participant, error) {
		var p domain.Participant
		err := row.Scan(&p.TeeTimeID, &p.GolferID, &p.Status, &p.JoinedAt)
		return p, err
	})
}

func (r *TeeTimeRepo) ListUpcomingForGolfer(ctx context.Context, golferID uuid.UUID, now time.Time) ([]domain.TeeTime, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+teeTimeColumns+teeTimeFrom+`
		 JOIN participants p ON p.tee_time_id = t.id
		 WHERE p.golfer_id = $1
		   AND p.status = 'active'
		   AND NOT t.cancelled
		   AND t.start_time > $2
		 ORDER BY t.start_time`, golferID, now)
	if err != nil {
		return nil, fmt.Errorf("query upcoming tee times for %s: %w", golferID, err)
	}
	return pgx.CollectRows(rows, scanTeeTime)
}

func scanTeeTime(row pgx.CollectableRow) (domain.TeeTime, error) {
	var t domain.TeeTime
	var city *string
	var lat, lon *float64

	err := row.Scan(&t.ID, &t.HostID, &t.HostIndustry, &t.CourseName, &city, &lat, &lon,
		&t.StartTime, &t.PreferredIndustry, &t.RequiredTier, &t.MaxPlayers,
		&t.BookedPlayers, &t.Cancelled, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return domain.TeeTime{}, err
	}

	t.Location = buildLocation(city, lat, lon)
	return t, nil
}

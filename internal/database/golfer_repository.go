package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/amelendez141/Golf-App-sub001/internal/domain"
)

type GolferRepo struct {
	db *DB
}

var _ domain.GolferRepository = (*GolferRepo)(nil)

func NewGolferRepo(db *DB) *GolferRepo {
	return &GolferRepo{db: db}
}

const golferColumns = `id, display_name, email, industry, tier, city, latitude, longitude,
	digest_opt_in, created_at, updated_at`

func (r *GolferRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Golfer, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+golferColumns+` FROM golfers WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("query golfer %s: %w", id, err)
	}

	golfer, err := pgx.CollectExactlyOneRow(rows, scanGolfer)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrGolferNotFound
	}
	if err != nil {
		return nil, err
	}
	return &golfer, nil
}

func (r *GolferRepo) ListCandidates(ctx context.Context, limit int, exclude []uuid.UUID) ([]domain.Golfer, error) {
	if exclude == nil {
		// ALL(NULL) is NULL, which would match nothing.
		exclude = []uuid.UUID{}
	}
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+golferColumns+` FROM golfers
		 WHERE id != ALL($1)
		 ORDER BY created_at DESC
		 LIMIT $2`, exclude, limit)
	if err != nil {
		return nil, fmt.Errorf("query candidate golfers: %w", err)
	}
	return pgx.CollectRows(rows, scanGolfer)
}

func (r *GolferRepo) ListDigestOptIns(ctx context.Context) ([]domain.Golfer, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+golferColumns+` FROM golfers WHERE digest_opt_in`)
	if err != nil {
		return nil, fmt.Errorf("query digest opt-ins: %w", err)
	}
	return pgx.CollectRows(rows, scanGolfer)
}

func scanGolfer(row pgx.CollectableRow) (domain.Golfer, error) {
	var g domain.Golfer
	var city *string
	var lat, lon *float64

	err := row.Scan(&g.ID, &g.DisplayName, &g.Email, &g.Industry, &g.Tier,
		&city, &lat, &lon, &g.DigestOptIn, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return domain.Golfer{}, err
	}

	g.Location = buildLocation(city, lat, lon)
	return g, nil
}

// buildLocation folds the nullable location columns into a *Location,
// returning nil when nothing was provided.
func buildLocation(city *string, lat, lon *float64) *domain.Location {
	if city == nil && lat == nil {
		return nil
	}

	loc := &domain.Location{}
	if city != nil {
		loc.City = *city
	}
	if lat != nil && lon != nil {
		loc.Latitude = *lat
		loc.Longitude = *lon
	}
	return loc
}

package database

import (
	"context"
	"fmt"

	"github.com/amelendez141/Golf-App-sub001/internal/domain"
)

type NotificationRepo struct {
	db *DB
}

var _ domain.NotificationRepository = (*NotificationRepo)(nil)

func NewNotificationRepo(db *DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

// Create inserts the notification, treating a duplicate id as a no-op.
// Returns whether a row was actually written.
func (r *NotificationRepo) Create(ctx context.Context, n domain.Notification) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`INSERT INTO notifications (id, golfer_id, kind, title, body, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO NOTHING`,
		n.ID, n.GolferID, n.Kind, n.Title, n.Body, n.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert notification %s: %w", n.ID, err)
	}
	return tag.RowsAffected() == 1, nil
}

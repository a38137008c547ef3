package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amelendez141/Golf-App-sub001/internal/domain"
)

type fakeGolferRepo struct {
	golfers map[uuid.UUID]domain.Golfer
}

func (f *fakeGolferRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Golfer, error) {
	g, ok := f.golfers[id]
	if !ok {
		return nil, domain.ErrGolferNotFound
	}
	return &g, nil
}

func (f *fakeGolferRepo) ListCandidates(context.Context, int, []uuid.UUID) ([]domain.Golfer, error) {
	return nil, nil
}

func (f *fakeGolferRepo) ListDigestOptIns(context.Context) ([]domain.Golfer, error) {
	return nil, nil
}

type fakeTeeTimeRepo struct {
	teeTimes map[uuid.UUID]domain.TeeTime
}

func (f *fakeTeeTimeRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.TeeTime, error) {
	t, ok := f.teeTimes[id]
	if !ok {
		return nil, domain.ErrTeeTimeNotFound
	}
	return &t, nil
}

func (f *fakeTeeTimeRepo) ListUpcomingOpen(context.Context, time.Time, int) ([]domain.TeeTime, error) {
	return nil, nil
}

func (f *fakeTeeTimeRepo) ListStartingBetween(context.Context, time.Time, time.Time) ([]domain.TeeTime, error) {
	return nil, nil
}

func (f *fakeTeeTimeRepo) ListParticipants(context.Context, uuid.UUID) ([]domain.Participant, error) {
	return nil, nil
}

func (f *fakeTeeTimeRepo) ListUpcomingForGolfer(context.Context, uuid.UUID, time.Time) ([]domain.TeeTime, error) {
	return nil, nil
}

// captureSender records every notification it is asked to send.
type captureSender struct {
	name string
	err  error

	mu   sync.Mutex
	sent []domain.Notification
}

func (c *captureSender) Name() string { return c.name }

func (c *captureSender) Send(_ context.Context, n domain.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, n)
	return nil
}

func (c *captureSender) all() []domain.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Notification(nil), c.sent...)
}

// memoryNotificationRepo is an in-memory NotificationRepository with the
// same duplicate-id semantics as the database table.
type memoryNotificationRepo struct {
	mu        sync.Mutex
	rows      map[uuid.UUID]domain.Notification
	createErr error
}

func newMemoryNotificationRepo() *memoryNotificationRepo {
	return &memoryNotificationRepo{rows: make(map[uuid.UUID]domain.Notification)}
}

func (m *memoryNotificationRepo) Create(_ context.Context, n domain.Notification) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return false, m.createErr
	}
	if _, exists := m.rows[n.ID]; exists {
		return false, nil
	}
	m.rows[n.ID] = n
	return true, nil
}

package realtime

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/amelendez141/Golf-App-sub001/internal/metrics"
)

type sessionSet map[*Session]struct{}

// Registry is the in-memory index of live sessions, their room memberships,
// and their liveness timestamps. A single lock guards both directions of the
// room index, so membership and a session's own room set can never diverge.
type Registry struct {
	clock clockwork.Clock

	mu       sync.RWMutex
	sessions sessionSet
	rooms    map[string]sessionSet
	actors   map[uuid.UUID]sessionSet
	roomsOf  map[*Session]map[string]struct{}
	lastSeen map[*Session]time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry(clock clockwork.Clock) *Registry {
	return &Registry{
		clock:    clock,
		sessions: make(sessionSet),
		rooms:    make(map[string]sessionSet),
		actors:   make(map[uuid.UUID]sessionSet),
		roomsOf:  make(map[*Session]map[string]struct{}),
		lastSeen: make(map[*Session]time.Time),
	}
}

// Add registers a session under its actor id.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[s]; exists {
		return
	}
	r.sessions[s] = struct{}{}
	r.roomsOf[s] = make(map[string]struct{})
	r.lastSeen[s] = r.clock.Now()

	if r.actors[s.ActorID] == nil {
		r.actors[s.ActorID] = make(sessionSet)
	}
	r.actors[s.ActorID][s] = struct{}{}

	metrics.RealtimeConnectedSessions.Set(float64(len(r.sessions)))
}

// Remove unregisters a session and clears it from every room it was in.
// Idempotent: removing an unknown session is a no-op.
func (r *Registry) Remove(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(s)
}

func (r *Registry) removeLocked(s *Session) {
	if _, exists := r.sessions[s]; !exists {
		return
	}

	for room := range r.roomsOf[s] {
		r.leaveRoomLocked(s, room)
	}

	delete(r.sessions, s)
	delete(r.roomsOf, s)
	delete(r.lastSeen, s)

	if set := r.actors[s.ActorID]; set != nil {
		delete(set, s)
		if len(set) == 0 {
			delete(r.actors, s.ActorID)
		}
	}

	metrics.RealtimeConnectedSessions.Set(float64(len(r.sessions)))
	metrics.RealtimeActiveRooms.Set(float64(len(r.rooms)))
}

// Subscribe adds a session to a room. Subscribing an unregistered session or
// subscribing twice is a no-op.
func (r *Registry) Subscribe(s *Session, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[s]; !exists {
		return
	}
	if r.rooms[room] == nil {
		r.rooms[room] = make(sessionSet)
	}
	r.rooms[room][s] = struct{}{}
	r.roomsOf[s][room] = struct{}{}

	metrics.RealtimeActiveRooms.Set(float64(len(r.rooms)))
}

// Unsubscribe removes a session from a room. A room with no members left is
// torn down entirely.
func (r *Registry) Unsubscribe(s *Session, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[s]; !exists {
		return
	}
	r.leaveRoomLocked(s, room)
	metrics.RealtimeActiveRooms.Set(float64(len(r.rooms)))
}

func (r *Registry) leaveRoomLocked(s *Session, room string) {
	delete(r.roomsOf[s], room)
	if set := r.rooms[room]; set != nil {
		delete(set, s)
		if len(set) == 0 {
			delete(r.rooms, room)
		}
	}
}

// MembersOf returns a snapshot of the sessions subscribed to a room.
func (r *Registry) MembersOf(room string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return collect(r.rooms[room])
}

// ConnectionsOf returns a snapshot of the sessions owned by an actor.
func (r *Registry) ConnectionsOf(actorID uuid.UUID) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return collect(r.actors[actorID])
}

// All returns a snapshot of every registered session.
func (r *Registry) All() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return collect(r.sessions)
}

// RoomsOf returns a snapshot of the rooms a session is subscribed to.
func (r *Registry) RoomsOf(s *Session) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]string, 0, len(r.roomsOf[s]))
	for room := range r.roomsOf[s] {
		rooms = append(rooms, room)
	}
	return rooms
}

// TouchLiveness records a liveness signal for a session.
func (r *Registry) TouchLiveness(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[s]; exists {
		r.lastSeen[s] = r.clock.Now()
	}
}

// SweepStale removes every session without a liveness signal within maxAge,
// closing its transport. This is the liveness failure path, not an error:
// swept sessions are ordinary disconnects. Returns the number removed.
func (r *Registry) SweepStale(maxAge time.Duration) int {
	cutoff := r.clock.Now().Add(-maxAge)

	r.mu.Lock()
	var stale []*Session
	for s, seen := range r.lastSeen {
		if seen.Before(cutoff) {
			stale = append(stale, s)
		}
	}
	for _, s := range stale {
		r.removeLocked(s)
	}
	r.mu.Unlock()

	for _, s := range stale {
		s.CloseWithReason(1000, "liveness timeout")
		metrics.RealtimeStaleSweptTotal.Inc()
		slog.Info("Swept stale session", "actor_id", s.ActorID.String())
	}
	return len(stale)
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func collect(set sessionSet) []*Session {
	out := make([]*Session, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	return out
}

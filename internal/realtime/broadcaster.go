package realtime

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/amelendez141/Golf-App-sub001/internal/metrics"
	"github.com/amelendez141/Golf-App-sub001/internal/platform/correlation"
)

type targetKind int

const (
	targetRoom targetKind = iota
	targetActor
	targetActors
	targetAll
)

// Target selects the recipients of a publish call.
type Target struct {
	kind   targetKind
	room   string
	actors []uuid.UUID
}

// ToRoom targets every session subscribed to a room.
func ToRoom(room string) Target { return Target{kind: targetRoom, room: room} }

// ToActor targets every session of one actor.
func ToActor(actorID uuid.UUID) Target { return Target{kind: targetActor, actors: []uuid.UUID{actorID}} }

// ToActors targets every session of a set of actors.
func ToActors(actorIDs ...uuid.UUID) Target { return Target{kind: targetActors, actors: actorIDs} }

// ToAll targets every registered session.
func ToAll() Target { return Target{kind: targetAll} }

func (t Target) label() string {
	switch t.kind {
	case targetRoom:
		return "room"
	case targetActor:
		return "actor"
	case targetActors:
		return "actors"
	default:
		return "all"
	}
}

// Delivery reports the per-recipient outcome of a publish call.
type Delivery struct {
	Delivered int
	Dropped   int
}

// Broadcaster fans events out to registry-known recipients. Delivery is
// fire-and-forget: a recipient over the high-water mark is counted dropped
// and never retried, and a slow consumer never delays the rest.
type Broadcaster struct {
	registry *Registry
	clock    clockwork.Clock
}

// NewBroadcaster creates a broadcaster over the given registry.
func NewBroadcaster(registry *Registry, clock clockwork.Clock) *Broadcaster {
	return &Broadcaster{registry: registry, clock: clock}
}

// Publish serializes the event once and offers it to every resolved
// recipient's outbound buffer.
func (b *Broadcaster) Publish(ctx context.Context, target Target, event Event) Delivery {
	if event.Timestamp.IsZero() {
		event.Timestamp = b.clock.Now()
	}
	if event.CorrelationID == "" {
		if id, ok := correlation.ID(ctx); ok {
			event.CorrelationID = id
		}
	}

	data, err := json.Marshal(event)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to marshal event", "type", event.Type, "error", err)
		return Delivery{}
	}

	var delivery Delivery
	for _, s := range b.resolve(target) {
		if s.TryEnqueue(data) {
			delivery.Delivered++
		} else {
			delivery.Dropped++
		}
	}

	label := target.label()
	metrics.BroadcastDeliveredTotal.WithLabelValues(label).Add(float64(delivery.Delivered))
	metrics.BroadcastDroppedTotal.WithLabelValues(label).Add(float64(delivery.Dropped))

	if delivery.Dropped > 0 {
		slog.DebugContext(ctx, "Publish dropped slow recipients",
			"type", event.Type,
			"target", label,
			"delivered", delivery.Delivered,
			"dropped", delivery.Dropped,
		)
	}
	return delivery
}

func (b *Broadcaster) resolve(target Target) []*Session {
	switch target.kind {
	case targetRoom:
		return b.registry.MembersOf(target.room)
	case targetActor, targetActors:
		var out []*Session
		seen := make(map[*Session]struct{})
		for _, id := range target.actors {
			for _, s := range b.registry.ConnectionsOf(id) {
				if _, dup := seen[s]; !dup {
					seen[s] = struct{}{}
					out = append(out, s)
				}
			}
		}
		return out
	default:
		return b.registry.All()
	}
}

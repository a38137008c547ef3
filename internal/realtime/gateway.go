package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/amelendez141/Golf-App-sub001/internal/domain"
	"github.com/amelendez141/Golf-App-sub001/internal/metrics"
)

// RoomFeed is the global feed room every session is auto-subscribed to.
const RoomFeed = "feed"

// IndustryRoom returns the default profile-scoped room for an industry.
func IndustryRoom(industry string) string {
	return "industry:" + industry
}

const maxRoomNameLength = 64

// Gateway accepts upgraded WebSocket connections, authenticates them, and
// runs their read loops. A connection moves through
// connecting -> authenticating -> (active | rejected) -> closed, and all its
// state transitions happen on its own read goroutine, so registry mutations
// for one connection are never interleaved.
type Gateway struct {
	registry *Registry
	verifier domain.CredentialVerifier
	clock    clockwork.Clock

	livenessWindow time.Duration
	sweepInterval  time.Duration
}

// NewGateway creates a gateway over the given registry and verifier.
func NewGateway(registry *Registry, verifier domain.CredentialVerifier, clock clockwork.Clock, livenessWindow, sweepInterval time.Duration) *Gateway {
	return &Gateway{
		registry:       registry,
		verifier:       verifier,
		clock:          clock,
		livenessWindow: livenessWindow,
		sweepInterval:  sweepInterval,
	}
}

// HandleConnection runs the full lifecycle of one upgraded connection:
// authenticate, register, auto-subscribe, read until close, unregister.
// It blocks until the connection is gone.
func (g *Gateway) HandleConnection(ctx context.Context, conn *websocket.Conn, credential string) {
	if credential == "" {
		g.reject(conn, CloseMissingCredential, "no credential supplied", "missing")
		return
	}

	identity, err := g.verifier.Verify(ctx, credential)
	if err != nil {
		slog.InfoContext(ctx, "Rejected connection", "reason", "invalid credential", "error", err)
		g.reject(conn, CloseInvalidCredential, "invalid or expired credential", "invalid")
		return
	}

	var session *Session
	session = NewSession(conn, IdentityInfo{
		ActorID:     identity.ActorID,
		DisplayName: identity.DisplayName,
		Industry:    identity.Industry,
	}, g.clock, func() {
		g.registry.TouchLiveness(session)
	})

	g.registry.Add(session)
	slog.InfoContext(ctx, "Session connected", "actor_id", identity.ActorID.String())

	g.sendJSON(session, connectedMessage{
		Type:      "connected",
		ActorID:   identity.ActorID.String(),
		Timestamp: g.clock.Now(),
	})

	// Baseline rooms: clients never subscribe to these manually.
	g.registry.Subscribe(session, RoomFeed)
	if identity.Industry != "" {
		g.registry.Subscribe(session, IndustryRoom(identity.Industry))
	}

	g.readLoop(ctx, session)

	g.registry.Remove(session)
	session.Close()
	slog.InfoContext(ctx, "Session disconnected", "actor_id", identity.ActorID.String())
}

func (g *Gateway) reject(conn *websocket.Conn, code int, reason, label string) {
	metrics.RealtimeAuthFailuresTotal.WithLabelValues(label).Inc()
	closeMsg := websocket.FormatCloseMessage(code, reason)
	_ = conn.SetWriteDeadline(g.clock.Now().Add(writeDeadline))
	_ = conn.WriteMessage(websocket.CloseMessage, closeMsg)
	_ = conn.Close()
}

func (g *Gateway) readLoop(ctx context.Context, session *Session) {
	for {
		_, data, err := session.connection.ReadMessage()
		if err != nil {
			return
		}
		session.writer.updateReadDeadline()
		g.dispatch(ctx, session, data)
	}
}

// dispatch routes one inbound control message. All failures here are client
// errors answered with an error reply; the connection stays open.
func (g *Gateway) dispatch(ctx context.Context, session *Session, data []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		g.sendError(session, CodeInvalidJSON, "message is not valid JSON")
		return
	}

	switch msg.Type {
	case "":
		g.sendError(session, CodeMissingType, "message has no type field")
	case "subscribe":
		g.handleSubscribe(session, msg.Room)
	case "unsubscribe":
		g.handleUnsubscribe(session, msg.Room)
	case "ping":
		g.handlePing(session, msg.Timestamp)
	default:
		slog.DebugContext(ctx, "Unknown message type", "type", msg.Type, "actor_id", session.ActorID.String())
		g.sendError(session, CodeUnknownMessageType, "unknown message type: "+msg.Type)
	}
}

func (g *Gateway) handleSubscribe(session *Session, room string) {
	if !validRoomName(room) {
		g.sendError(session, CodeInvalidRoom, "invalid room name")
		return
	}
	g.registry.Subscribe(session, room)
	g.sendJSON(session, subscriptionMessage{Type: "subscribed", Room: room})
}

func (g *Gateway) handleUnsubscribe(session *Session, room string) {
	if !validRoomName(room) {
		g.sendError(session, CodeInvalidRoom, "invalid room name")
		return
	}
	g.registry.Unsubscribe(session, room)
	g.sendJSON(session, subscriptionMessage{Type: "unsubscribed", Room: room})
}

func (g *Gateway) handlePing(session *Session, clientTimestamp *int64) {
	g.registry.TouchLiveness(session)
	g.sendJSON(session, pongMessage{
		Type:            "pong",
		Timestamp:       g.clock.Now(),
		ClientTimestamp: clientTimestamp,
	})
}

func (g *Gateway) sendError(session *Session, code, message string) {
	metrics.RealtimeProtocolErrorsTotal.WithLabelValues(code).Inc()
	g.sendJSON(session, errorMessage{Type: "error", Code: code, Message: message})
}

func (g *Gateway) sendJSON(session *Session, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to marshal control message", "error", err)
		return
	}
	_ = session.TryEnqueue(data)
}

// RunSweeper periodically removes sessions without a liveness signal within
// the configured window. Blocks until ctx is cancelled.
func (g *Gateway) RunSweeper(ctx context.Context) {
	ticker := g.clock.NewTicker(g.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			if n := g.registry.SweepStale(g.livenessWindow); n > 0 {
				slog.Info("Liveness sweep removed sessions", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Shutdown closes every live session with a best-effort going-away notice.
func (g *Gateway) Shutdown(reason string) {
	sessions := g.registry.All()
	for _, s := range sessions {
		g.registry.Remove(s)
		s.CloseWithReason(websocket.CloseGoingAway, reason)
	}
	slog.Info("Gateway shutdown complete", "closed_sessions", len(sessions))
}

func validRoomName(room string) bool {
	if room == "" || len(room) > maxRoomNameLength {
		return false
	}
	for _, r := range room {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == ':' || r == '-' || r == '_' || r == '.':
		default:
			return false
		}
	}
	return strings.TrimSpace(room) == room
}

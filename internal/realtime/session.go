package realtime

import (
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
)

// Session is one live connection of an authenticated golfer. One golfer may
// hold several concurrent sessions (multi-device); each has its own writer.
type Session struct {
	ActorID     uuid.UUID
	DisplayName string
	Industry    string

	connection *websocket.Conn
	writer     *sessionWriter
}

// NewSession wraps an upgraded connection for a verified identity. onPong is
// invoked whenever the transport answers a keepalive ping.
func NewSession(connection *websocket.Conn, identity IdentityInfo, clock clockwork.Clock, onPong func()) *Session {
	s := &Session{
		ActorID:     identity.ActorID,
		DisplayName: identity.DisplayName,
		Industry:    identity.Industry,
		connection:  connection,
	}
	s.writer = newSessionWriter(connection, clock, onPong)
	return s
}

// IdentityInfo is the subset of a verified identity a session carries.
type IdentityInfo struct {
	ActorID     uuid.UUID
	DisplayName string
	Industry    string
}

// TryEnqueue buffers an outbound message, reporting false on backpressure.
func (s *Session) TryEnqueue(msg []byte) bool {
	return s.writer.TryEnqueue(msg)
}

// Close tears down the transport without a close frame.
func (s *Session) Close() {
	s.writer.stop()
}

// CloseWithReason sends a close frame with the given code before closing.
func (s *Session) CloseWithReason(code int, reason string) {
	s.writer.stopGraceful(code, reason)
}

package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

var testUpgrader = ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

func testIdentity() IdentityInfo {
	return IdentityInfo{ActorID: uuid.New(), DisplayName: "Test", Industry: "TECH"}
}

// newSessionPair spins up a WebSocket pair and wraps the server side in a
// Session. The server side drains inbound frames so close handshakes and
// pings keep working.
func newSessionPair(t *testing.T, clock clockwork.Clock, identity IdentityInfo) (*Session, *ws.Conn) {
	t.Helper()

	sessionCh := make(chan *Session, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		s := NewSession(conn, identity, clock, nil)
		sessionCh <- s
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}))
	t.Cleanup(server.Close)

	client, _, err := ws.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	var session *Session
	select {
	case session = <-sessionCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server-side session")
	}
	t.Cleanup(session.Close)

	return session, client
}

// checkIndexConsistency asserts the bidirectional room index invariant: every
// room a session claims lists the session, and every listed member claims the
// room.
func checkIndexConsistency(t *testing.T, r *Registry) {
	t.Helper()

	r.mu.RLock()
	defer r.mu.RUnlock()

	for s, rooms := range r.roomsOf {
		for room := range rooms {
			_, ok := r.rooms[room][s]
			require.True(t, ok, "session claims room %q but room does not list it", room)
		}
	}
	for room, members := range r.rooms {
		require.NotEmpty(t, members, "room %q exists with no members", room)
		for s := range members {
			_, ok := r.roomsOf[s][room]
			require.True(t, ok, "room %q lists a session that does not claim it", room)
		}
	}
}

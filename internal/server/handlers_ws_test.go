package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amelendez141/Golf-App-sub001/internal/auth"
	"github.com/amelendez141/Golf-App-sub001/internal/config"
	"github.com/amelendez141/Golf-App-sub001/internal/matching"
	"github.com/amelendez141/Golf-App-sub001/internal/realtime"
)

const wsTestSecret = "ws-test-jwt-secret-ws-test-jwt-32ch"

func TestHandshakeCredential(t *testing.T) {
	tests := []struct {
		name   string
		header string
		query  string
		want   string
	}{
		{"bearer header only", "Bearer header-token", "", "header-token"},
		{"query only", "", "query-token", "query-token"},
		{"header wins over query", "Bearer header-token", "query-token", "header-token"},
		{"non-bearer header falls back to query", "Basic dXNlcg==", "query-token", "query-token"},
		{"empty bearer falls back to query", "Bearer ", "query-token", "query-token"},
		{"nothing supplied", "", "", ""},
	}

	e := echo.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/ws"
			if tt.query != "" {
				target += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			c := e.NewContext(req, httptest.NewRecorder())

			assert.Equal(t, tt.want, handshakeCredential(c))
		})
	}
}

// newWebSocketServer wires a real gateway and verifier behind the edge so a
// handshake exercises the full upgrade-then-authenticate path. The clock is
// pinned at wall time so connection deadlines behave.
func newWebSocketServer(t *testing.T) *httptest.Server {
	t.Helper()

	clock := clockwork.NewFakeClockAt(time.Now())
	registry := realtime.NewRegistry(clock)
	gateway := realtime.NewGateway(registry, auth.NewVerifier(wsTestSecret), clock, 2*time.Minute, 30*time.Second)

	cfg := &config.Config{
		Port:                    "0",
		InternalAPIToken:        testInternalToken,
		JWTSecret:               wsTestSecret,
		MaxWebSocketConnections: 10,
		MaxConnectionsPerIP:     5,
	}
	srv := NewServer(cfg, Deps{
		Registry:    registry,
		Gateway:     gateway,
		Broadcaster: realtime.NewBroadcaster(registry, clock),
		Engine:      matching.NewEngine(clock),
		Clock:       clock,
	})

	ts := httptest.NewServer(srv.echo)
	t.Cleanup(ts.Close)
	return ts
}

func signWebSocketToken(t *testing.T, actorID uuid.UUID) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		DisplayName: "Jordan",
		Industry:    "TECH",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actorID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
	signed, err := token.SignedString([]byte(wsTestSecret))
	require.NoError(t, err)
	return signed
}

func dialWebSocket(t *testing.T, ts *httptest.Server, path string, header http.Header) *ws.Conn {
	t.Helper()
	conn, _, err := ws.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+path, header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readConnected(t *testing.T, conn *ws.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var msg struct {
		Type    string `json:"type"`
		ActorID string `json:"actorId"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "connected", msg.Type)
	return msg.ActorID
}

func TestWebSocket_BearerHeaderCredential(t *testing.T) {
	ts := newWebSocketServer(t)
	actorID := uuid.New()

	header := http.Header{}
	header.Set(echo.HeaderAuthorization, "Bearer "+signWebSocketToken(t, actorID))
	conn := dialWebSocket(t, ts, "/ws", header)

	assert.Equal(t, actorID.String(), readConnected(t, conn))
}

func TestWebSocket_QueryParamCredential(t *testing.T) {
	ts := newWebSocketServer(t)
	actorID := uuid.New()

	conn := dialWebSocket(t, ts, "/ws?token="+signWebSocketToken(t, actorID), nil)

	assert.Equal(t, actorID.String(), readConnected(t, conn))
}

func TestWebSocket_MissingCredentialCloseCode(t *testing.T) {
	ts := newWebSocketServer(t)

	conn := dialWebSocket(t, ts, "/ws", nil)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	_, _, err := conn.ReadMessage()
	var closeErr *ws.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, realtime.CloseMissingCredential, closeErr.Code)
}

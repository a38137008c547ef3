package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// handleWebSocket upgrades the connection and hands it to the gateway.
// Connection limits are enforced before the upgrade (plain HTTP 429);
// credential failures happen after it (websocket close codes), so clients
// can always distinguish "try later" from "fix your token".
func (s *Server) handleWebSocket(c echo.Context) error {
	ip := c.RealIP()

	ok, scope := s.limits.Acquire(ip)
	if !ok {
		slog.Debug("Connection rejected by limiter", "ip", ip, "scope", scope)
		return echo.NewHTTPError(http.StatusTooManyRequests, "connection limit reached")
	}

	credential := handshakeCredential(c)

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.limits.Release(ip)
		// Upgrade already wrote the HTTP error response.
		return nil
	}

	defer s.limits.Release(ip)
	s.deps.Gateway.HandleConnection(c.Request().Context(), conn, credential)
	return nil
}

// handshakeCredential extracts the client credential from the upgrade
// request: an Authorization Bearer header wins, the token query parameter is
// the fallback for clients that cannot set headers on websocket dials.
func handshakeCredential(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		if token = strings.TrimSpace(token); token != "" {
			return token
		}
	}
	return c.QueryParam("token")
}

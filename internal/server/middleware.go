package server

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/amelendez141/Golf-App-sub001/internal/platform/correlation"
)

// internalTokenHeader carries the shared secret for the /internal surface.
const internalTokenHeader = "X-Internal-Token"

// requireInternalToken rejects internal API calls without the shared secret.
// It also threads a correlation ID into the request context so events and
// jobs triggered here are traceable end to end.
func (s *Server) requireInternalToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := c.Request().Header.Get(internalTokenHeader)
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.config.InternalAPIToken)) != 1 {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid internal token")
		}

		ctx := correlation.Ensure(c.Request().Context())
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

func (s *Server) handleLiveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"uptime":  s.deps.Clock.Since(s.startTime).Seconds(),
		"clients": s.deps.Registry.Len(),
	})
}

func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	checks := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"postgres", s.deps.DB.HealthCheck},
		{"redis", func(ctx context.Context) error { return s.deps.Redis.Ping(ctx).Err() }},
	}

	for _, check := range checks {
		if err := check.fn(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status":       "unhealthy",
				"failed_check": check.name,
				"error":        err.Error(),
			})
		}
	}

	jobsStatus := "ok"
	if s.deps.Queue == nil {
		jobsStatus = "degraded"
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"jobs":   jobsStatus,
	})
}

package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints (no auth)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Realtime entry point. Credential checks happen after the upgrade so
	// the client gets a proper websocket close code.
	s.echo.GET("/ws", s.handleWebSocket)

	// Internal API for the rest of the platform.
	internal := s.echo.Group("/internal", s.requireInternalToken)
	internal.POST("/events", s.handlePublishEvent)
	internal.POST("/jobs", s.handleEnqueueJob)
	internal.GET("/matches/golfers/:id", s.handleMatchesForGolfer)
	internal.GET("/matches/teetimes/:id", s.handleMatchesForTeeTime)
}

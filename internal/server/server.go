package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"

	"github.com/amelendez141/Golf-App-sub001/internal/config"
	"github.com/amelendez141/Golf-App-sub001/internal/database"
	"github.com/amelendez141/Golf-App-sub001/internal/domain"
	"github.com/amelendez141/Golf-App-sub001/internal/jobs"
	"github.com/amelendez141/Golf-App-sub001/internal/matching"
	"github.com/amelendez141/Golf-App-sub001/internal/realtime"
)

// attempts per second and burst for new websocket handshakes per IP.
const (
	handshakeRate  = 10.0
	handshakeBurst = 10
)

// Deps bundles everything the HTTP edge serves. Queue is nil when the job
// backend probe failed at startup; job endpoints then return 503.
type Deps struct {
	Registry    *realtime.Registry
	Gateway     *realtime.Gateway
	Broadcaster *realtime.Broadcaster
	Engine      *matching.Engine
	Golfers     domain.GolferRepository
	TeeTimes    domain.TeeTimeRepository
	Queue       *jobs.Queue
	DB          *database.DB
	Redis       *goredis.Client
	Clock       clockwork.Clock
}

type Server struct {
	echo      *echo.Echo
	config    *config.Config
	deps      Deps
	limits    *ConnectionLimits
	upgrader  websocket.Upgrader
	startTime time.Time
}

func NewServer(cfg *config.Config, deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(requestLogger())

	srv := &Server{
		echo:   e,
		config: cfg,
		deps:   deps,
		limits: NewConnectionLimits(cfg.MaxWebSocketConnections, cfg.MaxConnectionsPerIP, handshakeRate, handshakeBurst),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		startTime: deps.Clock.Now(),
	}

	srv.registerRoutes()
	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting HTTP server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// requestLogger logs completed requests through slog, skipping the noisy
// health and metrics scrapes.
func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			p := c.Path()
			return p == "/metrics" || p == "/health/live" || p == "/health/ready"
		},
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("Request handled",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			)
			return nil
		},
	})
}

package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"text"`

	// Credential verification for realtime handshakes.
	JWTSecret string `env:"JWT_SECRET"`

	// Shared secret required by the /internal API surface.
	InternalAPIToken string `env:"INTERNAL_API_TOKEN"`

	// Realtime limits.
	MaxWebSocketConnections int64         `env:"MAX_WEBSOCKET_CONNECTIONS" default:"10000"`
	MaxConnectionsPerIP     int           `env:"MAX_CONNECTIONS_PER_IP" default:"20"`
	LivenessWindow          time.Duration `env:"LIVENESS_WINDOW" default:"2m"`
	SweepInterval           time.Duration `env:"SWEEP_INTERVAL" default:"30s"`

	// Job pipeline tuning. Retry count and backoff are operational knobs,
	// not business rules.
	JobMaxAttempts    int           `env:"JOB_MAX_ATTEMPTS" default:"5"`
	JobRetryBackoff   time.Duration `env:"JOB_RETRY_BACKOFF" default:"30s"`
	WorkerConcurrency int64         `env:"WORKER_CONCURRENCY" default:"5"`
	WorkerGracePeriod time.Duration `env:"WORKER_GRACE_PERIOD" default:"30s"`

	// Scheduler cadences.
	ReminderInterval time.Duration `env:"REMINDER_INTERVAL" default:"15m"`
	DigestInterval   time.Duration `env:"DIGEST_INTERVAL" default:"168h"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := map[string]string{
		"DATABASE_URL":       cfg.DatabaseURL,
		"REDIS_URL":          cfg.RedisURL,
		"JWT_SECRET":         cfg.JWTSecret,
		"INTERNAL_API_TOKEN": cfg.InternalAPIToken,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	if len(cfg.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters, got %d", len(cfg.JWTSecret))
	}
	if cfg.JobMaxAttempts < 1 {
		return fmt.Errorf("JOB_MAX_ATTEMPTS must be >= 1, got %d", cfg.JobMaxAttempts)
	}
	if cfg.WorkerConcurrency < 1 {
		return fmt.Errorf("WORKER_CONCURRENCY must be >= 1, got %d", cfg.WorkerConcurrency)
	}
	if cfg.LivenessWindow < cfg.SweepInterval {
		return fmt.Errorf("LIVENESS_WINDOW (%s) must not be shorter than SWEEP_INTERVAL (%s)", cfg.LivenessWindow, cfg.SweepInterval)
	}

	return nil
}

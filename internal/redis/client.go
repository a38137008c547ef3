package redis

import (
	"fmt"

	"github.com/redis/go-redis/v9"
)

// NewClient creates an instrumented go-redis client from a URL
// (e.g. "redis://localhost:6379"). The connection is lazy; callers that need
// to verify reachability ping it themselves.
func NewClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opts)
	rdb.AddHook(&MetricsHook{})
	return rdb, nil
}

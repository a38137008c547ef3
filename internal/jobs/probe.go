package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"

	"github.com/amelendez141/Golf-App-sub001/internal/domain"
)

// minRedisMajor is the oldest Redis major version the queue scripts were
// validated against.
const minRedisMajor = 6

// Probe verifies the queue backend is reachable and recent enough, returning
// a ready Queue. On failure it returns an error wrapping
// domain.ErrJobsUnavailable so the caller can start in degraded mode instead
// of crash-looping.
func Probe(ctx context.Context, rdb *redis.Client, clock clockwork.Clock, opts Options) (*Queue, error) {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(probeCtx).Err(); err != nil {
		return nil, fmt.Errorf("%w: ping failed: %w", domain.ErrJobsUnavailable, err)
	}

	info, err := rdb.Info(probeCtx, "server").Result()
	if err != nil {
		return nil, fmt.Errorf("%w: server info failed: %w", domain.ErrJobsUnavailable, err)
	}

	version := parseRedisVersion(info)
	if major := majorVersion(version); major > 0 && major < minRedisMajor {
		return nil, fmt.Errorf("%w: redis %s is older than %d.x", domain.ErrJobsUnavailable, version, minRedisMajor)
	}

	queue := NewQueue(rdb, clock, opts)

	// Deliveries stranded mid-handler by the previous process go back on the
	// ready list before any worker starts.
	for _, class := range []string{ClassNotifications, ClassReminders} {
		n, err := queue.Recover(probeCtx, class)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrJobsUnavailable, err)
		}
		if n > 0 {
			slog.Info("Recovered stranded jobs", "class", class, "count", n)
		}
	}

	slog.Info("Job queue backend ready", "redis_version", version)
	return queue, nil
}

func parseRedisVersion(info string) string {
	for _, line := range strings.Split(info, "\n") {
		if v, ok := strings.CutPrefix(line, "redis_version:"); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func majorVersion(version string) int {
	major, _, _ := strings.Cut(version, ".")
	n, err := strconv.Atoi(major)
	if err != nil {
		return 0
	}
	return n
}

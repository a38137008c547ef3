// Package metrics defines the Prometheus collectors for the coordination
// service. Collectors are package-level and auto-registered via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Realtime metrics
var (
	// RealtimeConnectedSessions tracks live WebSocket sessions on this instance.
	RealtimeConnectedSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_connected_sessions",
			Help: "Number of live WebSocket sessions",
		},
	)

	// RealtimeActiveRooms tracks rooms with at least one member.
	RealtimeActiveRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_active_rooms",
			Help: "Number of rooms with at least one subscribed session",
		},
	)

	// RealtimeAuthFailuresTotal counts rejected handshakes by reason.
	RealtimeAuthFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_auth_failures_total",
			Help: "Rejected WebSocket handshakes by reason (missing/invalid)",
		},
		[]string{"reason"},
	)

	// RealtimeProtocolErrorsTotal counts non-fatal inbound message errors by code.
	RealtimeProtocolErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_protocol_errors_total",
			Help: "Non-fatal inbound message errors by error code",
		},
		[]string{"code"},
	)

	// RealtimeStaleSweptTotal counts sessions removed by the liveness sweeper.
	RealtimeStaleSweptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "realtime_stale_swept_total",
			Help: "Sessions forcibly removed after missing liveness signals",
		},
	)
)

// Broadcaster metrics
var (
	// BroadcastDeliveredTotal counts messages enqueued to session writers.
	BroadcastDeliveredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_delivered_total",
			Help: "Messages delivered to session outbound buffers by target kind",
		},
		[]string{"target"},
	)

	// BroadcastDroppedTotal counts messages skipped due to backpressure.
	BroadcastDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_dropped_total",
			Help: "Messages dropped because a recipient buffer was over the high-water mark",
		},
		[]string{"target"},
	)
)

// Job pipeline metrics
var (
	// JobsEnqueuedTotal counts enqueued jobs by class.
	JobsEnqueuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_enqueued_total",
			Help: "Jobs enqueued by class",
		},
		[]string{"class"},
	)

	// JobsDuplicateSuppressedTotal counts idempotent enqueues that were no-ops.
	JobsDuplicateSuppressedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_duplicate_suppressed_total",
			Help: "Unique enqueues suppressed because the idempotency key was already set",
		},
		[]string{"class"},
	)

	// JobsProcessedTotal counts finished job attempts by class and outcome.
	JobsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_processed_total",
			Help: "Job attempts by class and outcome (success/retry/dead)",
		},
		[]string{"class", "outcome"},
	)

	// JobsDeadLetteredTotal counts jobs parked after exhausting retries.
	JobsDeadLetteredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_dead_lettered_total",
			Help: "Jobs moved to the dead-letter list by class",
		},
		[]string{"class"},
	)

	// JobHandlerDuration tracks handler execution time by payload type.
	JobHandlerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "job_handler_duration_seconds",
			Help:    "Job handler execution duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"type"},
	)

	// WorkerInFlight tracks currently executing handlers by class.
	WorkerInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_in_flight_jobs",
			Help: "Currently executing job handlers by class",
		},
		[]string{"class"},
	)

	// SchedulerTickDuration tracks scan durations by scheduler.
	SchedulerTickDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scheduler_tick_duration_seconds",
			Help:    "Scheduler scan duration in seconds",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30},
		},
		[]string{"scheduler"},
	)
)

// Matching metrics
var (
	// MatchRequestsTotal counts scoring requests by direction.
	MatchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_requests_total",
			Help: "Matching engine scoring requests by direction",
		},
		[]string{"direction"},
	)

	// MatchScoringDuration tracks full pool scoring latency.
	MatchScoringDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "match_scoring_duration_seconds",
			Help:    "Time to score and rank a candidate pool",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5},
		},
	)
)

// Connection limiting metrics
var (
	// ConnectionLimitRejectedTotal counts upgrades rejected before handshake.
	ConnectionLimitRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connection_limit_rejected_total",
			Help: "WebSocket upgrades rejected by connection limiting, by scope",
		},
		[]string{"scope"},
	)
)

// Database metrics
var (
	// DBQueryDuration tracks query latency by statement verb.
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds by statement verb",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"query"},
	)

	// DBErrorsTotal counts failed queries by statement verb.
	DBErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_errors_total",
			Help: "Database query errors by statement verb",
		},
		[]string{"query"},
	)
)

// Redis metrics
var (
	// RedisCommandsTotal counts executed commands by operation and status.
	RedisCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_commands_total",
			Help: "Redis commands executed by operation and status",
		},
		[]string{"operation", "status"},
	)

	// RedisCommandDuration tracks command latency by operation.
	RedisCommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_command_duration_seconds",
			Help:    "Redis command duration in seconds by operation",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .5, 1},
		},
		[]string{"operation"},
	)

	// RedisDialErrorsTotal counts failed connection attempts.
	RedisDialErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redis_dial_errors_total",
			Help: "Failed Redis connection attempts",
		},
	)
)

// Notification channel metrics
var (
	// NotificationSendsTotal counts channel send attempts by channel and status.
	NotificationSendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_sends_total",
			Help: "Notification channel send attempts by channel and status",
		},
		[]string{"channel", "status"},
	)
)

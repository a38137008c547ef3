package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/amelendez141/Golf-App-sub001/internal/auth"
	"github.com/amelendez141/Golf-App-sub001/internal/config"
	"github.com/amelendez141/Golf-App-sub001/internal/database"
	"github.com/amelendez141/Golf-App-sub001/internal/domain"
	"github.com/amelendez141/Golf-App-sub001/internal/jobs"
	"github.com/amelendez141/Golf-App-sub001/internal/logging"
	"github.com/amelendez141/Golf-App-sub001/internal/matching"
	"github.com/amelendez141/Golf-App-sub001/internal/notify"
	"github.com/amelendez141/Golf-App-sub001/internal/realtime"
	"github.com/amelendez141/Golf-App-sub001/internal/redis"
	"github.com/amelendez141/Golf-App-sub001/internal/server"
)

const promoteInterval = time.Second

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *database.DB {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := db.ApplySchema(ctx); err != nil {
		slog.Error("Failed to apply schema", "error", err)
		os.Exit(1)
	}

	return db
}

func setupRedis(cfg *config.Config) *goredis.Client {
	client, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to create Redis client", "error", err)
		os.Exit(1)
	}
	return client
}

// setupJobs probes the job backend. A failed probe degrades job processing
// instead of blocking startup: the realtime plane stays up and the edge
// reports jobs as degraded until a restart.
func setupJobs(redisClient *goredis.Client, clock clockwork.Clock, cfg *config.Config) *jobs.Queue {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	queue, err := jobs.Probe(ctx, redisClient, clock, jobs.Options{
		MaxAttempts: cfg.JobMaxAttempts,
		BaseBackoff: cfg.JobRetryBackoff,
	})
	if err != nil {
		slog.Warn("Job backend probe failed, running without job processing", "error", err)
		return nil
	}
	return queue
}

// jobPlane holds everything that only exists when the job backend is up.
type jobPlane struct {
	workers []*jobs.Worker
}

func startJobPlane(ctx context.Context, queue *jobs.Queue, cfg *config.Config, clock clockwork.Clock,
	golfers domain.GolferRepository, teeTimes domain.TeeTimeRepository, engine *matching.Engine,
	notifier *notify.Notifier) *jobPlane {

	notifWorker := jobs.NewWorker(queue, jobs.ClassNotifications, cfg.WorkerConcurrency, clock)
	notifier.RegisterNotificationHandlers(notifWorker)
	notifWorker.Start(ctx)

	reminderWorker := jobs.NewWorker(queue, jobs.ClassReminders, cfg.WorkerConcurrency, clock)
	notifier.RegisterReminderHandlers(reminderWorker)
	reminderWorker.Start(ctx)

	go queue.RunPromoter(ctx, jobs.ClassNotifications, promoteInterval)
	go queue.RunPromoter(ctx, jobs.ClassReminders, promoteInterval)

	reminders := jobs.NewReminderScheduler(teeTimes, queue, clock, cfg.ReminderInterval)
	go reminders.Run(ctx)

	digests := jobs.NewDigestScheduler(golfers, teeTimes, engine, queue, clock, cfg.DigestInterval)
	go digests.Run(ctx)

	return &jobPlane{workers: []*jobs.Worker{notifWorker, reminderWorker}}
}

func (p *jobPlane) stop(grace time.Duration) {
	for _, w := range p.workers {
		if !w.Stop(grace) {
			slog.Warn("Worker grace period expired with jobs in flight")
		}
	}
}

// stubDeliverer logs the delivery instead of calling a real provider. The
// push gateway and mail relay integrations plug in here.
func stubDeliverer(channel string) notify.Deliverer {
	return func(ctx context.Context, n domain.Notification) error {
		slog.InfoContext(ctx, "Notification delivered",
			"channel", channel, "golfer_id", n.GolferID, "kind", n.Kind)
		return nil
	}
}

func runGracefulShutdown(cancel context.CancelFunc, srv *server.Server, gateway *realtime.Gateway,
	plane *jobPlane, redisClient *goredis.Client, db *database.DB, grace time.Duration) <-chan struct{} {

	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		// Stop producing new work first, then drain, then close transports.
		cancel()
		if plane != nil {
			plane.stop(grace)
		}

		gateway.Shutdown("server shutting down")

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelShutdown()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		if err := redisClient.Close(); err != nil {
			slog.Error("Redis close error", "error", err)
		}
		db.Close()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.Init(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	db := setupDB(cfg)
	redisClient := setupRedis(cfg)

	golfers := database.NewGolferRepo(db)
	teeTimes := database.NewTeeTimeRepo(db)
	notifications := database.NewNotificationRepo(db)

	registry := realtime.NewRegistry(clock)
	broadcaster := realtime.NewBroadcaster(registry, clock)
	gateway := realtime.NewGateway(registry, auth.NewVerifier(cfg.JWTSecret), clock, cfg.LivenessWindow, cfg.SweepInterval)
	engine := matching.NewEngine(clock)

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go gateway.RunSweeper(runCtx)

	queue := setupJobs(redisClient, clock, cfg)

	var plane *jobPlane
	if queue != nil {
		inApp := notify.NewInAppSender(notifications, broadcaster)
		channels := []domain.ChannelSender{
			notify.NewPushSender(stubDeliverer("push")),
			notify.NewEmailSender(stubDeliverer("email")),
		}
		notifier := notify.NewNotifier(golfers, teeTimes, inApp, channels, clock)
		plane = startJobPlane(runCtx, queue, cfg, clock, golfers, teeTimes, engine, notifier)
	}

	srv := server.NewServer(cfg, server.Deps{
		Registry:    registry,
		Gateway:     gateway,
		Broadcaster: broadcaster,
		Engine:      engine,
		Golfers:     golfers,
		TeeTimes:    teeTimes,
		Queue:       queue,
		DB:          db,
		Redis:       redisClient,
		Clock:       clock,
	})

	done := runGracefulShutdown(cancel, srv, gateway, plane, redisClient, db, cfg.WorkerGracePeriod)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}

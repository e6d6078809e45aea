package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sitewarden-dev/sitewarden/db"
	"github.com/sitewarden-dev/sitewarden/internal/alerts"
	"github.com/sitewarden-dev/sitewarden/internal/checks"
	"github.com/sitewarden-dev/sitewarden/internal/config"
	"github.com/sitewarden-dev/sitewarden/internal/handlers"
	"github.com/sitewarden-dev/sitewarden/internal/queue"
	"github.com/sitewarden-dev/sitewarden/internal/router"
	"github.com/sitewarden-dev/sitewarden/internal/scheduler"
	"github.com/sitewarden-dev/sitewarden/internal/services"
	"github.com/sitewarden-dev/sitewarden/pkg/logger"
)

func main() {
	// .env is optional; real deployments configure via environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Env); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	if err := db.ConnectDatabase(cfg.Database.DSN()); err != nil {
		logger.Fatal("failed to connect to database", logger.Err(err))
	}
	if err := db.MigrateDatabase(); err != nil {
		logger.Fatal("failed to migrate database", logger.Err(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dispatcher := services.NewWebhookDispatcher(cfg.Notify.DiscordWebhook, cfg.Notify.SlackWebhook)
	go dispatcher.Run(ctx)

	alertService := alerts.NewService(db.DB,
		alerts.WithThreshold(cfg.Scheduler.FailureThreshold),
		alerts.WithNotifier(dispatcher),
	)
	commandQueue := queue.NewService(db.DB)

	sched := scheduler.New(db.DB, checks.NewRegistry(), alertService,
		scheduler.WithParallelism(cfg.Scheduler.Parallelism),
		scheduler.WithTickInterval(cfg.Scheduler.TickInterval()),
	)
	go sched.Run(ctx)
	go runQueueMaintenance(ctx, commandQueue, cfg.Queue)

	handlers.Setup(commandQueue, alertService, sched, cfg.Queue.DedupWindow())

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router.New(cfg),
	}

	go func() {
		logger.Info("server listening", logger.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", logger.Err(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", logger.Err(err))
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// runQueueMaintenance periodically reschedules retryable failures and
// purges terminal commands past retention.
func runQueueMaintenance(ctx context.Context, q *queue.Service, cfg config.QueueConfig) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			retried, err := q.RetryFailed(ctx, cfg.MaxRetries, cfg.BackoffMultiplier, cfg.BaseDelay())
			if err != nil {
				logger.Error("queue retry sweep failed", logger.Err(err))
			} else if retried > 0 {
				logger.Info("rescheduled failed commands", logger.Int("count", retried))
			}

			deleted, err := q.Cleanup(ctx, cfg.RetentionDays)
			if err != nil {
				logger.Error("queue cleanup failed", logger.Err(err))
			} else if deleted > 0 {
				logger.Info("purged old commands", logger.Int64("count", deleted))
			}
		}
	}
}

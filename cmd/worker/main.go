package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/yukikurage/kanban-board-api/internal/app"
	"github.com/yukikurage/kanban-board-api/internal/config"
	"github.com/yukikurage/kanban-board-api/internal/database"
	"github.com/yukikurage/kanban-board-api/internal/jobs"
	"github.com/yukikurage/kanban-board-api/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.New(cfg.AppEnv)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if !cfg.RedisEnabled() {
		logger.Fatal("the worker requires REDIS_HOST")
	}

	logger.Info("starting maintenance worker")

	db, err := database.Connect(cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() { _ = database.Close(db) }()

	application := app.New(cfg, logger, db, nil)

	srv := jobs.NewServer(cfg)
	mux := asynq.NewServeMux()
	jobs.NewHandler(application.Audit, application.Invitations, logger).RegisterHandlers(mux)

	scheduler, err := jobs.NewScheduler(cfg)
	if err != nil {
		logger.Fatal("failed to create scheduler", zap.Error(err))
	}

	if err := srv.Start(mux); err != nil {
		logger.Fatal("failed to start worker", zap.Error(err))
	}
	if err := scheduler.Start(); err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}

	logger.Info("worker started",
		zap.String("audit_cleanup_cron", cfg.AuditCleanupCron),
		zap.Int("audit_retention_days", cfg.AuditRetentionDays),
		zap.String("invitation_sweep_cron", cfg.InvitationSweepCron),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker")
	scheduler.Shutdown()
	srv.Shutdown()
	logger.Info("worker stopped")
}

package jobs

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/yukikurage/kanban-board-api/internal/config"
)

func redisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
	}
}

func NewClient(cfg *config.Config) *asynq.Client {
	return asynq.NewClient(redisOpt(cfg))
}

func NewServer(cfg *config.Config) *asynq.Server {
	concurrency := cfg.WorkerConcurrency
	if concurrency <= 0 {
		concurrency = 5
	}

	return asynq.NewServer(redisOpt(cfg), asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueMaintenance: 1,
		},
	})
}

// NewScheduler registers the periodic maintenance tasks.
func NewScheduler(cfg *config.Config) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(redisOpt(cfg), &asynq.SchedulerOpts{
		Location: time.UTC,
	})

	cleanup, err := NewAuditCleanupTask(cfg.AuditRetentionDays)
	if err != nil {
		return nil, err
	}
	if _, err := scheduler.Register(cfg.AuditCleanupCron, cleanup); err != nil {
		return nil, fmt.Errorf("register audit cleanup: %w", err)
	}
	if _, err := scheduler.Register(cfg.InvitationSweepCron, NewInvitationExpiryTask()); err != nil {
		return nil, fmt.Errorf("register invitation expiry: %w", err)
	}

	return scheduler, nil
}

package main

import (
	"context"
	"fmt"

	"github.com/hromada/backoffice/internal/app"
	"github.com/hromada/backoffice/internal/config"
	"github.com/hromada/backoffice/internal/infra/jobs"
	"github.com/hromada/backoffice/pkg/logger"
)

// Workers holds the background workers.
type Workers struct {
	JobWorker *jobs.Worker
	Scheduler *app.MaintenanceScheduler
}

// WorkerDeps contains dependencies needed to create workers.
type WorkerDeps struct {
	Config   *config.Config
	Log      *logger.Logger
	Services *Services
}

// NewWorkers initializes the workers enabled in the config.
func NewWorkers(deps *WorkerDeps) (*Workers, error) {
	cfg := deps.Config
	log := deps.Log
	svc := deps.Services

	w := &Workers{}

	if cfg.Jobs.Enabled {
		w.JobWorker = jobs.NewWorker(jobs.WorkerConfig{
			RedisAddr:     cfg.Redis.Addr(),
			RedisPassword: cfg.Redis.Password,
			RedisDB:       cfg.Redis.DB,
			Concurrency:   cfg.Jobs.Concurrency,
		}, svc.SearchLog, log)
		log.Info("job worker initialized", "concurrency", cfg.Jobs.Concurrency)
	}

	if cfg.Scheduler.Enabled {
		var publisher app.RegistryPublisher
		if cfg.Storage.Enabled {
			publisher = svc.Registry
		}

		scheduler, err := app.NewMaintenanceScheduler(publisher, svc.SearchLog, app.MaintenanceSchedulerConfig{
			PublishSchedule: cfg.Scheduler.PublishSchedule,
			PruneSchedule:   cfg.Scheduler.PruneSchedule,
			Retention:       cfg.Scheduler.SearchLogRetention,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create maintenance scheduler: %w", err)
		}
		w.Scheduler = scheduler
		log.Info("maintenance scheduler initialized",
			"publish_schedule", cfg.Scheduler.PublishSchedule,
			"prune_schedule", cfg.Scheduler.PruneSchedule,
			"retention", cfg.Scheduler.SearchLogRetention,
		)
	}

	return w, nil
}

// Start starts all initialized workers.
func (w *Workers) Start(_ context.Context, log *logger.Logger) error {
	if w.JobWorker != nil {
		if err := w.JobWorker.Start(); err != nil {
			return fmt.Errorf("failed to start job worker: %w", err)
		}
		log.Info("job worker started")
	}
	if w.Scheduler != nil {
		w.Scheduler.Start()
		log.Info("maintenance scheduler started")
	}
	return nil
}

// Stop stops all workers.
func (w *Workers) Stop(log *logger.Logger) {
	if w.Scheduler != nil {
		w.Scheduler.Stop()
		log.Info("maintenance scheduler stopped")
	}
	if w.JobWorker != nil {
		w.JobWorker.Stop()
		log.Info("job worker stopped")
	}
}

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hromada/backoffice/pkg/logger"
)

// RegistryPublisher publishes all published registries.
type RegistryPublisher interface {
	PublishAll(ctx context.Context) ([]*PublishResult, error)
}

// SearchLogPruner removes search log entries past their retention.
type SearchLogPruner interface {
	Prune(ctx context.Context, retention time.Duration) (int64, error)
}

// MaintenanceSchedulerConfig holds configuration for the scheduler.
type MaintenanceSchedulerConfig struct {
	// PublishSchedule is the cron expression of the snapshot run. Empty
	// disables publication.
	PublishSchedule string

	// PruneSchedule is the cron expression of the retention run. Empty
	// disables pruning.
	PruneSchedule string

	// Retention is how long search log entries are kept.
	Retention time.Duration

	// JobTimeout bounds a single run (default: 30 minutes).
	JobTimeout time.Duration
}

// MaintenanceScheduler runs periodic registry publication and search log
// retention.
type MaintenanceScheduler struct {
	cron      *cron.Cron
	publisher RegistryPublisher
	pruner    SearchLogPruner
	config    MaintenanceSchedulerConfig
	logger    *logger.Logger
}

// NewMaintenanceScheduler creates a scheduler and registers its jobs. Either
// collaborator may be nil to skip its job.
func NewMaintenanceScheduler(
	publisher RegistryPublisher,
	pruner SearchLogPruner,
	cfg MaintenanceSchedulerConfig,
	log *logger.Logger,
) (*MaintenanceScheduler, error) {
	if cfg.JobTimeout == 0 {
		cfg.JobTimeout = 30 * time.Minute
	}

	s := &MaintenanceScheduler{
		cron:      cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
		publisher: publisher,
		pruner:    pruner,
		config:    cfg,
		logger:    log.With("component", "maintenance_scheduler"),
	}

	if publisher != nil && cfg.PublishSchedule != "" {
		if _, err := s.cron.AddFunc(cfg.PublishSchedule, s.safeRun("publish_registries", s.publishRegistries)); err != nil {
			return nil, fmt.Errorf("invalid publish schedule %q: %w", cfg.PublishSchedule, err)
		}
	}
	if pruner != nil && cfg.PruneSchedule != "" {
		if _, err := s.cron.AddFunc(cfg.PruneSchedule, s.safeRun("prune_search_logs", s.pruneSearchLogs)); err != nil {
			return nil, fmt.Errorf("invalid prune schedule %q: %w", cfg.PruneSchedule, err)
		}
	}

	return s, nil
}

// Start starts the scheduler.
func (s *MaintenanceScheduler) Start() {
	s.cron.Start()
	s.logger.Info("maintenance scheduler started",
		"jobs", len(s.cron.Entries()),
		"publish_schedule", s.config.PublishSchedule,
		"prune_schedule", s.config.PruneSchedule,
	)
}

// Stop stops the scheduler and waits for running jobs.
func (s *MaintenanceScheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("maintenance scheduler stopped")
}

// safeRun wraps a job with a timeout and panic recovery so a single failing
// run doesn't stop the scheduler.
func (s *MaintenanceScheduler) safeRun(name string, job func(ctx context.Context)) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("maintenance job panicked", "job", name, "panic", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.config.JobTimeout)
		defer cancel()

		start := time.Now()
		job(ctx)
		s.logger.Debug("maintenance job finished", "job", name, "duration", time.Since(start))
	}
}

func (s *MaintenanceScheduler) publishRegistries(ctx context.Context) {
	results, err := s.publisher.PublishAll(ctx)
	if err != nil {
		s.logger.Error("scheduled registry publication failed", "published", len(results), "error", err)
		return
	}
	s.logger.Info("scheduled registry publication completed", "published", len(results))
}

func (s *MaintenanceScheduler) pruneSearchLogs(ctx context.Context) {
	n, err := s.pruner.Prune(ctx, s.config.Retention)
	if err != nil {
		s.logger.Error("scheduled search log pruning failed", "error", err)
		return
	}
	s.logger.Info("scheduled search log pruning completed", "deleted", n)
}

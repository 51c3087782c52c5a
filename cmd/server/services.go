package main

import (
	"context"
	"fmt"

	"github.com/hromada/backoffice/internal/app"
	"github.com/hromada/backoffice/internal/config"
	"github.com/hromada/backoffice/internal/infra/jobs"
	"github.com/hromada/backoffice/internal/infra/storage"
	"github.com/hromada/backoffice/pkg/domain/registry"
	"github.com/hromada/backoffice/pkg/domain/searchlog"
	"github.com/hromada/backoffice/pkg/logger"
	"github.com/hromada/backoffice/pkg/validator"
)

// Services holds all application services.
type Services struct {
	Debtor    *app.DebtorService
	Charge    *app.ChargeService
	Receipt   *app.ReceiptService
	CNAP      *app.CNAPService
	Registry  *app.RegistryService
	SearchLog *app.SearchLogService
}

// ServiceDeps contains dependencies needed to create services.
type ServiceDeps struct {
	Config *config.Config
	Log    *logger.Logger
	Repos  *Repositories
	// JobClient queues search log entries. Without it searches are recorded
	// inline.
	JobClient *jobs.Client
}

// NewServices initializes all application services.
func NewServices(ctx context.Context, deps *ServiceDeps) (*Services, error) {
	cfg := deps.Config
	log := deps.Log
	repos := deps.Repos
	v := validator.New()

	s := &Services{
		SearchLog: app.NewSearchLogService(repos.SearchLog, log),
	}

	var auditor *app.SearchAuditor
	if cfg.Jobs.RecordSearches {
		var recorder searchlog.Recorder = s.SearchLog
		if deps.JobClient != nil {
			recorder = deps.JobClient
		}
		auditor = app.NewSearchAuditor(recorder, log)
		log.Info("search audit enabled", "queued", deps.JobClient != nil)
	}

	var publisher registry.Publisher
	if cfg.Storage.Enabled {
		p, err := storage.NewS3Publisher(ctx, cfg.Storage, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize snapshot storage: %w", err)
		}
		publisher = p
		log.Info("snapshot storage initialized", "bucket", cfg.Storage.Bucket, "compress", cfg.Storage.Compress)
	}

	s.Debtor = app.NewDebtorService(repos.Debtor, v, auditor, log)
	s.Charge = app.NewChargeService(repos.Charge, v, auditor, log)
	s.Receipt = app.NewReceiptService(repos.Receipt, v, auditor, log)
	s.CNAP = app.NewCNAPService(repos.CNAPService, repos.CNAPAccount, v, auditor, log)
	s.Registry = app.NewRegistryService(repos.Registry, publisher, cfg.Storage.Prefix, v, auditor, log)

	return s, nil
}

package main

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hromada/backoffice/internal/infra/http/handler"
	"github.com/hromada/backoffice/internal/infra/http/routes"
	"github.com/hromada/backoffice/internal/infra/postgres"
	"github.com/hromada/backoffice/internal/infra/redis"
	"github.com/hromada/backoffice/pkg/logger"
)

// HandlerDeps contains dependencies needed to create handlers.
type HandlerDeps struct {
	Log         *logger.Logger
	DB          *postgres.DB
	RedisClient *redis.Client // nil when Redis is not used
	Services    *Services
}

// NewHandlers creates the HTTP handlers.
func NewHandlers(deps *HandlerDeps) routes.Handlers {
	log := deps.Log
	svc := deps.Services

	healthOpts := []handler.HealthHandlerOption{handler.WithDatabase(deps.DB)}
	if deps.RedisClient != nil {
		healthOpts = append(healthOpts, handler.WithRedis(deps.RedisClient))
	}

	return routes.Handlers{
		Health:    handler.NewHealthHandler(healthOpts...),
		Debtor:    handler.NewDebtorHandler(svc.Debtor, log),
		Charge:    handler.NewChargeHandler(svc.Charge, log),
		Receipt:   handler.NewReceiptHandler(svc.Receipt, log),
		CNAP:      handler.NewCNAPHandler(svc.CNAP, log),
		Registry:  handler.NewRegistryHandler(svc.Registry, log),
		SearchLog: handler.NewSearchLogHandler(svc.SearchLog, log),
		Metrics:   promhttp.Handler(),
	}
}

package main

import (
	"context"
	"flag"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hromada/backoffice/internal/config"
	"github.com/hromada/backoffice/internal/infra/http"
	"github.com/hromada/backoffice/internal/infra/http/routes"
	"github.com/hromada/backoffice/internal/infra/jobs"
	"github.com/hromada/backoffice/internal/infra/postgres"
	"github.com/hromada/backoffice/internal/infra/redis"
	"github.com/hromada/backoffice/pkg/logger"
)

// Command line flags.
var (
	showRoutes  = flag.Bool("routes", false, "Print all registered routes and exit")
	routeFormat = flag.String("route-format", "table", "Route output format: table, json, yaml")
	routeMethod = flag.String("route-method", "", "Filter routes by HTTP method")
	routePath   = flag.String("route-path", "", "Filter routes containing this path")
)

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	ctx := context.Background()

	// ==========================================================================
	// Configuration & Logger
	// ==========================================================================
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.DefaultConfig()).Error("failed to load configuration", "error", err)
		return 1
	}

	log := initLogger(cfg)
	log.Info("starting application", "app", cfg.App.Name, "env", cfg.App.Env)

	// ==========================================================================
	// Infrastructure
	// ==========================================================================
	db, err := postgres.New(&cfg.Database)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		return 1
	}
	defer closeWithLog(db, "database", log)
	log.Info("database connected")

	// Redis carries the job queue and the shared rate limiter. It is not
	// dialed when neither is enabled.
	var redisClient *redis.Client
	if needsRedis(cfg) {
		redisClient, err = redis.New(&cfg.Redis, log)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			return 1
		}
		defer closeWithLog(redisClient, "redis", log)
		stopPoolStats := redis.StartPoolStatsCollector(ctx, redisClient, 15*time.Second)
		defer stopPoolStats()
		log.Info("redis connected")
	}

	// ==========================================================================
	// Repositories & Services
	// ==========================================================================
	repos := NewRepositories(db)

	var jobClient *jobs.Client
	if redisClient != nil && cfg.Jobs.RecordSearches {
		jobClient = jobs.NewClient(jobs.ClientConfig{
			RedisAddr:     cfg.Redis.Addr(),
			RedisPassword: cfg.Redis.Password,
			RedisDB:       cfg.Redis.DB,
		}, log)
		defer closeWithLog(jobClient, "job client", log)
	}

	services, err := NewServices(ctx, &ServiceDeps{
		Config:    cfg,
		Log:       log,
		Repos:     repos,
		JobClient: jobClient,
	})
	if err != nil {
		log.Error("failed to initialize services", "error", err)
		return 1
	}
	log.Info("services initialized")

	// ==========================================================================
	// HTTP Server
	// ==========================================================================
	var serverOpts []http.ServerOption
	if redisClient != nil && cfg.RateLimit.Distributed {
		limiter, err := redis.NewRateLimiter(redisClient, "ratelimit:api", rateLimitPerWindow(cfg.RateLimit), cfg.RateLimit.Window, log)
		if err != nil {
			log.Error("failed to create distributed rate limiter", "error", err)
			return 1
		}
		serverOpts = append(serverOpts, http.WithDistributedLimiter(redis.NewMiddlewareAdapter(limiter)))
	}

	server := http.NewServer(cfg, log, serverOpts...)
	routes.Register(server.Router(), NewHandlers(&HandlerDeps{
		Log:         log,
		DB:          db,
		RedisClient: redisClient,
		Services:    services,
	}))

	if *showRoutes {
		filters := http.RouteFilters{Method: *routeMethod, Path: *routePath}
		if err := http.PrintRoutes(os.Stdout, http.CollectRoutes(server.Router()), *routeFormat, filters); err != nil {
			log.Error("failed to print routes", "error", err)
			return 1
		}
		return 0
	}

	// ==========================================================================
	// Workers
	// ==========================================================================
	workers, err := NewWorkers(&WorkerDeps{
		Config:   cfg,
		Log:      log,
		Services: services,
	})
	if err != nil {
		log.Error("failed to initialize workers", "error", err)
		return 1
	}
	if err := workers.Start(ctx, log); err != nil {
		log.Error("failed to start workers", "error", err)
		return 1
	}

	// ==========================================================================
	// Start Server
	// ==========================================================================
	go func() {
		if err := server.Start(); err != nil {
			log.Error("server error", "error", err)
		}
	}()
	log.Info("application started", "http_addr", cfg.Server.Addr())

	// ==========================================================================
	// Graceful Shutdown
	// ==========================================================================
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop the server first so that no new searches are queued.
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
		return 1
	}

	workers.Stop(log)

	log.Info("application stopped")
	return 0
}

func initLogger(cfg *config.Config) *logger.Logger {
	var log *logger.Logger
	if cfg.IsProduction() {
		//nolint:gosec // G115: validated non-negative in config.Validate()
		threshold := uint64(cfg.Log.SamplingThreshold)
		log = logger.New(logger.Config{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
			Output: os.Stdout,
			Sampling: logger.SamplingConfig{
				Enabled:             cfg.Log.SamplingEnabled,
				Tick:                time.Second,
				Threshold:           threshold,
				Rate:                cfg.Log.SamplingRate,
				ErrorRate:           cfg.Log.ErrorSamplingRate,
				NeverSampleMessages: []string{"search recorded", "registry published"},
				EnableMetrics:       true,
			},
		})
	} else {
		log = logger.NewDevelopment()
	}
	log.SetDefault()
	return log
}

func needsRedis(cfg *config.Config) bool {
	return cfg.Jobs.Enabled || cfg.Jobs.RecordSearches || (cfg.RateLimit.Enabled && cfg.RateLimit.Distributed)
}

// rateLimitPerWindow converts the per-second rate into a budget for the
// sliding window.
func rateLimitPerWindow(cfg config.RateLimitConfig) int {
	n := int(math.Ceil(cfg.RequestsPerSec * cfg.Window.Seconds()))
	if n < 1 {
		n = 1
	}
	return n
}

type closer interface {
	Close() error
}

func closeWithLog(c closer, name string, log *logger.Logger) {
	if err := c.Close(); err != nil {
		log.Error("failed to close "+name, "error", err)
	}
}

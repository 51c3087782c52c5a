package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hromada/backoffice/internal/config"
	"github.com/hromada/backoffice/internal/infra/http/middleware"
	"github.com/hromada/backoffice/pkg/logger"
)

// Server is the API's HTTP server.
type Server struct {
	httpServer   *http.Server
	router       Router
	config       *config.Config
	logger       *logger.Logger
	limiter      middleware.DistributedLimiter
	cleanupFuncs []func()
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithRouter sets a custom router implementation.
func WithRouter(r Router) ServerOption {
	return func(s *Server) {
		s.router = r
	}
}

// WithDistributedLimiter rate limits through a limiter shared by all
// instances. It takes effect when distributed rate limiting is enabled in
// the config.
func WithDistributedLimiter(l middleware.DistributedLimiter) ServerOption {
	return func(s *Server) {
		s.limiter = l
	}
}

// NewServer creates the HTTP server with the global middleware chain
// installed. Routes are registered on Router() afterwards.
func NewServer(cfg *config.Config, log *logger.Logger, opts ...ServerOption) *Server {
	s := &Server{
		config: cfg,
		logger: log,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.router == nil {
		s.router = NewChiRouter()
	}

	securityCfg := middleware.SecurityHeadersConfig{
		HSTSEnabled:           cfg.IsProduction(),
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
	}

	// Order matters: recovery first, so a panic anywhere below still
	// produces a JSON 500 with the request id.
	s.router.Use(
		middleware.RecoveryWithConfig(log, cfg.IsProduction()),
		middleware.RequestID(),
		middleware.SecurityHeadersWithConfig(securityCfg),
		middleware.CORS(&cfg.CORS),
		middleware.Decompress(middleware.DefaultDecompressConfig()),
		middleware.BodyLimit(cfg.Server.MaxBodySize),
		s.rateLimit(),
		middleware.Timeout(cfg.Server.RequestTimeout),
		middleware.Metrics(),
		middleware.LoggerWithConfig(log, middleware.LoggerConfig{
			SkipPaths:            middleware.DefaultLoggerConfig().SkipPaths,
			SlowRequestThreshold: time.Duration(cfg.Log.SlowRequestSeconds) * time.Second,
		}),
	)

	s.httpServer = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           s.router.Handler(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       time.Minute,
	}

	return s
}

func (s *Server) rateLimit() Middleware {
	rl := &s.config.RateLimit
	if rl.Enabled && rl.Distributed && s.limiter != nil {
		s.logger.Info("using distributed rate limiter", "limit", s.limiter.Limit(), "window", rl.Window)
		return middleware.DistributedRateLimit(middleware.DistributedRateLimitConfig{
			Limiter:  s.limiter,
			Logger:   s.logger,
			SkipFunc: middleware.SkipProbes,
		})
	}

	mw, stop := middleware.RateLimitWithStop(rl, s.logger)
	s.cleanupFuncs = append(s.cleanupFuncs, stop)
	return mw
}

// Router returns the router for registering handlers.
func (s *Server) Router() Router {
	return s.router
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router.Handler()
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.config.Server.Addr())

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	for _, cleanup := range s.cleanupFuncs {
		cleanup()
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hromada/backoffice/internal/config"
	redisinfra "github.com/hromada/backoffice/internal/infra/redis"
	"github.com/hromada/backoffice/pkg/apierror"
	"github.com/hromada/backoffice/pkg/logger"
)

// visitorTTL is how long an idle client keeps its token bucket.
const visitorTTL = 3 * time.Minute

// RateLimiter implements a per-IP token bucket limiter held in memory.
type RateLimiter struct {
	visitors map[string]*visitor
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	cleanup  time.Duration
	log      *logger.Logger
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a new rate limiter and starts its cleanup loop.
func NewRateLimiter(cfg *config.RateLimitConfig, log *logger.Logger) *RateLimiter {
	cleanup := cfg.CleanupInterval
	if cleanup <= 0 {
		cleanup = time.Minute
	}

	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate.Limit(cfg.RequestsPerSec),
		burst:    cfg.Burst,
		cleanup:  cleanup,
		log:      log,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}

	go rl.cleanupVisitors()

	return rl
}

// Stop stops the cleanup goroutine and waits for it to exit.
// Safe to call multiple times.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.done)
	})
	<-rl.stopped
}

func (rl *RateLimiter) getVisitor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(rl.rate, rl.burst)
		rl.visitors[ip] = &visitor{limiter: limiter, lastSeen: time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func (rl *RateLimiter) cleanupVisitors() {
	ticker := time.NewTicker(rl.cleanup)
	defer ticker.Stop()
	defer close(rl.stopped)

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.mu.Lock()
			for ip, v := range rl.visitors {
				if time.Since(v.lastSeen) > visitorTTL {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Middleware returns the rate limiting middleware.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := getClientIP(r)
			limiter := rl.getVisitor(ip)

			tokens := limiter.Tokens()
			remaining := int(math.Max(0, math.Floor(tokens)-1))

			resetTime := time.Now()
			if missing := float64(rl.burst) - tokens; missing > 0 && rl.rate > 0 {
				resetTime = resetTime.Add(time.Duration(missing / float64(rl.rate) * float64(time.Second)))
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.burst))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

			if !limiter.Allow() {
				rl.log.WithContext(r.Context()).Warn("rate limit exceeded",
					"ip", ip,
					"path", r.URL.Path,
				)
				RateLimitedTotal.WithLabelValues("memory").Inc()

				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Retry-After", "1")
				apierror.RateLimitExceeded().WriteJSON(w, GetRequestID(r.Context()))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitWithStop creates a rate limiting middleware and returns a stop
// function to call during graceful shutdown.
func RateLimitWithStop(cfg *config.RateLimitConfig, log *logger.Logger) (func(http.Handler) http.Handler, func()) {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler {
			return next
		}, func() {}
	}

	rl := NewRateLimiter(cfg, log)
	return rl.Middleware(), rl.Stop
}

// getClientIP extracts the client IP. chi's RealIP middleware has already
// rewritten RemoteAddr from X-Real-IP or X-Forwarded-For when the router
// runs it; the headers are checked here for handlers mounted without it.
func getClientIP(r *http.Request) string {
	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		return strings.TrimSpace(xrip)
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// DistributedLimiter is a rate limiter shared by all API instances.
type DistributedLimiter interface {
	Allow(ctx context.Context, key string) (*redisinfra.MiddlewareRateLimitResult, error)
	Limit() int
}

var _ DistributedLimiter = (*redisinfra.MiddlewareAdapter)(nil)

// DistributedRateLimitConfig configures the distributed rate limit middleware.
type DistributedRateLimitConfig struct {
	Limiter DistributedLimiter
	// KeyFunc extracts the rate limit key. Defaults to the client IP.
	KeyFunc  func(r *http.Request) string
	Logger   *logger.Logger
	SkipFunc func(r *http.Request) bool
}

// DistributedRateLimit limits requests through a Redis sliding window.
// When Redis is unavailable requests are let through.
func DistributedRateLimit(cfg DistributedRateLimitConfig) func(http.Handler) http.Handler {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = getClientIP
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.SkipFunc != nil && cfg.SkipFunc(r) {
				next.ServeHTTP(w, r)
				return
			}

			key := cfg.KeyFunc(r)
			result, err := cfg.Limiter.Allow(r.Context(), key)
			if err != nil {
				cfg.Logger.WithContext(r.Context()).Error("distributed rate limit check failed",
					"error", err,
					"key", key,
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limiter.Limit()))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				retryAfter := int(math.Ceil(time.Until(result.RetryAt).Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

				cfg.Logger.WithContext(r.Context()).Warn("distributed rate limit exceeded",
					"key", key,
					"retry_at", result.RetryAt,
				)
				RateLimitedTotal.WithLabelValues("redis").Inc()

				apierror.RateLimitExceeded().WriteJSON(w, GetRequestID(r.Context()))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SkipProbes skips health, readiness and metrics endpoints.
func SkipProbes(r *http.Request) bool {
	switch r.URL.Path {
	case "/health", "/ready", "/metrics":
		return true
	}
	return false
}

package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/hromada/backoffice/pkg/logger"
)

// allowScript checks and consumes one request token atomically.
var allowScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local window_ms = tonumber(ARGV[3])
	local limit = tonumber(ARGV[4])
	local request_id = ARGV[5]

	-- Remove expired entries
	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local count = redis.call('ZCARD', key)

	if count < limit then
		redis.call('ZADD', key, now, request_id)
		redis.call('PEXPIRE', key, window_ms)
		return {1, limit - count - 1, now + window_ms}
	else
		-- Oldest entry decides when a slot frees up
		local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
		local retry_at = oldest[2] and (tonumber(oldest[2]) + window_ms) or (now + window_ms)
		return {0, 0, retry_at}
	end
`)

// RateLimiter implements distributed rate limiting using Redis.
// It uses the sliding window log algorithm with sorted sets, so all API
// instances share one budget per key.
type RateLimiter struct {
	client    *Client
	keyPrefix string
	limit     int
	window    time.Duration
	logger    *logger.Logger
}

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	// Allowed indicates if the request is permitted.
	Allowed bool

	// Remaining is the number of requests left in the current window.
	Remaining int

	// ResetAt is when the rate limit window resets.
	ResetAt time.Time

	// RetryAt is when the client should retry (only set when not allowed).
	RetryAt time.Time
}

// NewRateLimiter creates a new distributed rate limiter.
func NewRateLimiter(client *Client, prefix string, limit int, window time.Duration, log *logger.Logger) (*RateLimiter, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if prefix == "" {
		return nil, errors.New("key prefix is required")
	}
	if limit <= 0 {
		return nil, errors.New("limit must be positive")
	}
	if window <= 0 {
		return nil, errors.New("window must be positive")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}

	return &RateLimiter{
		client:    client,
		keyPrefix: prefix,
		limit:     limit,
		window:    window,
		logger:    log,
	}, nil
}

// buildKey creates the full rate limit key with prefix.
func (rl *RateLimiter) buildKey(key string) string {
	return fmt.Sprintf("%s:%s", rl.keyPrefix, key)
}

// Allow checks if a request is allowed and consumes one token atomically.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (*RateLimitResult, error) {
	if key == "" {
		return nil, errors.New("key is required")
	}

	now := time.Now()
	windowStart := now.Add(-rl.window)

	result, err := allowScript.Run(ctx, rl.client.client, []string{rl.buildKey(key)},
		now.UnixMilli(), windowStart.UnixMilli(), rl.window.Milliseconds(), rl.limit, uuid.NewString()).Slice()
	observeOperation("ratelimit_allow", now, err)
	if err != nil {
		return nil, fmt.Errorf("rate limit check: %w", err)
	}

	res, err := parseAllowResult(result)
	if err != nil {
		return nil, err
	}

	recordRateLimit(rl.keyPrefix, res.Allowed)
	if !res.Allowed {
		rl.logger.Debug("rate limit exceeded", "key", key, "retry_at", res.RetryAt)
	}
	return res, nil
}

// parseAllowResult decodes the {allowed, remaining, reset_ms} script reply.
func parseAllowResult(reply []any) (*RateLimitResult, error) {
	if len(reply) != 3 {
		return nil, fmt.Errorf("rate limit check: unexpected reply length %d", len(reply))
	}

	values := make([]int64, 3)
	for i, v := range reply {
		n, ok := v.(int64)
		if !ok {
			return nil, fmt.Errorf("rate limit check: unexpected reply element %T", v)
		}
		values[i] = n
	}

	res := &RateLimitResult{
		Allowed:   values[0] == 1,
		Remaining: int(values[1]),
		ResetAt:   time.UnixMilli(values[2]),
	}
	if !res.Allowed {
		res.RetryAt = res.ResetAt
	}
	return res, nil
}

// Limit returns the configured maximum requests per window.
func (rl *RateLimiter) Limit() int {
	return rl.limit
}

// Window returns the configured time window duration.
func (rl *RateLimiter) Window() time.Duration {
	return rl.window
}

// MiddlewareAdapter wraps RateLimiter to implement the middleware interface.
type MiddlewareAdapter struct {
	limiter *RateLimiter
}

// MiddlewareRateLimitResult is the result type expected by the middleware.
type MiddlewareRateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
	RetryAt   time.Time
}

// NewMiddlewareAdapter creates an adapter for use with the HTTP middleware.
func NewMiddlewareAdapter(rl *RateLimiter) *MiddlewareAdapter {
	return &MiddlewareAdapter{limiter: rl}
}

// Allow checks if a request is allowed and returns the result in middleware format.
func (a *MiddlewareAdapter) Allow(ctx context.Context, key string) (*MiddlewareRateLimitResult, error) {
	result, err := a.limiter.Allow(ctx, key)
	if err != nil {
		return nil, err
	}

	return &MiddlewareRateLimitResult{
		Allowed:   result.Allowed,
		Remaining: result.Remaining,
		ResetAt:   result.ResetAt,
		RetryAt:   result.RetryAt,
	}, nil
}

// Limit returns the configured maximum requests per window.
func (a *MiddlewareAdapter) Limit() int {
	return a.limiter.Limit()
}

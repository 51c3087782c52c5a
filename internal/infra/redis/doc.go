// Package redis provides the Redis integration of the back office.
//
// Redis serves two purposes:
//   - Client: connection management with pooling and connect retries. The
//     same server hosts the background job queue.
//   - RateLimiter: a sliding window limiter shared by all API instances,
//     used when RATE_LIMIT_DISTRIBUTED is set.
//
// # Rate limiting
//
// Each key is a sorted set of request timestamps. A Lua script drops entries
// older than the window, counts the rest and admits the request when the
// count is below the limit, so check and update are atomic:
//
//	rl, err := redis.NewRateLimiter(client, "ratelimit:api", 600, time.Minute, log)
//	result, err := rl.Allow(ctx, "ip:10.0.0.1")
//	if !result.Allowed {
//		// respond 429, retry at result.RetryAt
//	}
//
// # Metrics
//
// Operation durations, rate limit decisions and pool statistics are exported
// under the backoffice_redis_* Prometheus names.
package redis

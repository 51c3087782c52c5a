package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "backoffice"

var (
	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "redis",
			Name:      "operation_duration_seconds",
			Help:      "Duration of Redis operations in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation", "status"},
	)

	// poolConnections mirrors redis.PoolStats, one series per stat.
	poolConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "redis",
			Name:      "pool_stats",
			Help:      "Connection pool statistics reported by the Redis client",
		},
		[]string{"stat"},
	)

	rateLimitDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "redis",
			Name:      "ratelimit_decisions_total",
			Help:      "Rate limiter decisions by limiter and outcome",
		},
		[]string{"limiter", "allowed"},
	)
)

func observeOperation(operation string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	operationDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
}

func recordRateLimit(limiter string, allowed bool) {
	rateLimitDecisions.WithLabelValues(limiter, strconv.FormatBool(allowed)).Inc()
}

func updatePoolStats(client *Client) {
	if client == nil {
		return
	}
	stats := client.PoolStats()
	if stats == nil {
		return
	}

	for stat, v := range map[string]uint32{
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
		"stale_conns": stats.StaleConns,
	} {
		poolConnections.WithLabelValues(stat).Set(float64(v))
	}
}

// StartPoolStatsCollector refreshes the pool gauges every interval until the
// returned function is called or ctx ends.
func StartPoolStatsCollector(ctx context.Context, client *Client, interval time.Duration) func() {
	if interval <= 0 {
		interval = 15 * time.Second
	}

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				updatePoolStats(client)
			}
		}
	}()
	return cancel
}

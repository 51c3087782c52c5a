package logger

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	logsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: "logger",
			Name:      "logs_processed_total",
			Help:      "Total number of log records seen by the sampler",
		},
		[]string{"level"},
	)

	logsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: "logger",
			Name:      "logs_dropped_total",
			Help:      "Total number of log records dropped by sampling",
		},
		[]string{"level"},
	)
)

func observeProcessed(level slog.Level) {
	logsProcessedTotal.WithLabelValues(levelLabel(level)).Inc()
}

func observeDropped(level slog.Level) {
	logsDroppedTotal.WithLabelValues(levelLabel(level)).Inc()
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warn"
	case level >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}

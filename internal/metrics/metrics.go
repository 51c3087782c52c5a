package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Database metrics
var (
	// DBQueriesTotal tracks queries by repository operation and outcome
	DBQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_queries_total",
			Help: "Total number of database queries by operation and status",
		},
		[]string{"operation", "status"},
	)

	// DBQueryDuration tracks query duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)
)

// List metrics
var (
	// ListResultSize tracks the number of rows returned per list request
	ListResultSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "list_result_size",
			Help:    "Number of items returned by list and search requests",
			Buckets: []float64{0, 1, 5, 10, 16, 25, 50, 100},
		},
		[]string{"module", "mode"},
	)
)

// Search log metrics
var (
	// SearchLogsEnqueued tracks search log tasks handed to the queue
	SearchLogsEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "searchlog_enqueued_total",
			Help: "Total number of search log tasks enqueued by status",
		},
		[]string{"status"},
	)

	// SearchLogsProcessed tracks search log tasks persisted by the worker
	SearchLogsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "searchlog_processed_total",
			Help: "Total number of search log tasks processed by status",
		},
		[]string{"status"},
	)

	// SearchLogsPruned tracks entries removed by retention
	SearchLogsPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "searchlog_pruned_total",
			Help: "Total number of search log entries removed by retention",
		},
	)
)

// Registry metrics
var (
	// RegistryPublications tracks snapshot publications by status
	RegistryPublications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_publications_total",
			Help: "Total number of registry snapshot publications by status",
		},
		[]string{"status"},
	)

	// RegistryPublishedRecords tracks records written to snapshots
	RegistryPublishedRecords = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "registry_published_records_total",
			Help: "Total number of records written to registry snapshots",
		},
	)
)

// Status label values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ObserveQuery records a finished query.
func ObserveQuery(operation string, start time.Time, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	DBQueriesTotal.WithLabelValues(operation, status).Inc()
	DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// ObserveList records the size of a list result.
func ObserveList(module, mode string, n int) {
	ListResultSize.WithLabelValues(module, mode).Observe(float64(n))
}

// Status returns the status label for err.
func Status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}

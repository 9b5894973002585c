package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediadex_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediadex_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediadex_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediadex_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediadex_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediadex_db_transaction_duration_seconds",
			Help:    "Database transaction duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"outcome"}, // "commit", "rollback"
	)

	DBRowsAffected = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediadex_db_rows_affected",
			Help:    "Rows affected by write operations",
			Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediadex_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Sync metrics
var (
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediadex_sync_runs_total",
			Help: "Total number of sync runs by mode",
		},
		[]string{"mode"},
	)

	SyncIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediadex_sync_running",
			Help: "Whether a sync run is currently in progress (1 or 0)",
		},
	)

	SyncLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediadex_sync_last_run_timestamp",
			Help: "Timestamp of the last completed sync run",
		},
	)

	SyncLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediadex_sync_last_run_duration_seconds",
			Help: "Duration of the last completed sync run in seconds",
		},
	)

	SyncItemsProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediadex_sync_items_processed_total",
			Help: "Total number of items processed by sync runs",
		},
	)

	SyncItemsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediadex_sync_items_deleted_total",
			Help: "Total number of items removed from the index",
		},
	)

	SyncErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediadex_sync_errors_total",
			Help: "Total number of sync errors",
		},
	)

	SyncItemsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediadex_sync_items_skipped_total",
			Help: "Total number of sidecar records skipped during sync",
		},
	)

	SyncParallelWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediadex_sync_parallel_workers",
			Help: "Number of parallel workers used by the current sync phase",
		},
	)
)

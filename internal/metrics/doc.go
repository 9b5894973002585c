// Package metrics provides Prometheus instrumentation for mediadex.
//
// All metrics are prefixed with "mediadex_" to avoid naming collisions
// with other applications and are registered with the default registry
// via promauto. To expose them, mount promhttp.Handler() on your
// metrics endpoint.
//
// # Metric Categories
//
// ## HTTP Metrics
//
// Track HTTP request performance and error rates:
//   - HTTPRequestsTotal: Counter of total requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//
// ## Database Metrics
//
// Monitor index query performance and storage:
//   - DBQueryTotal: Counter of queries by operation and status
//   - DBQueryDuration: Histogram of query duration by operation
//   - DBTransactionDuration: Histogram of batch transaction duration
//   - DBRowsAffected: Histogram of rows written per operation
//   - DBConnectionsOpen: Gauge of open database connections
//
// ## Sync Metrics
//
// Track library synchronization runs:
//   - SyncRunsTotal: Counter of runs by mode and status
//   - SyncIsRunning: Gauge indicating an active run
//   - SyncLastRunTimestamp: Gauge of last run completion time
//   - SyncLastRunDuration: Gauge of last run duration
//   - SyncItemsProcessed: Counter of records written
//   - SyncItemsDeleted: Counter of index rows removed
//   - SyncItemsSkipped: Counter of records skipped as invalid
//   - SyncErrors: Counter of per-item failures
//   - SyncParallelWorkers: Gauge of configured worker ceilings by stage
//
// # Recording Metrics
//
// To record metrics from other packages, import this package and use
// the exported metric variables:
//
//	metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/items", "200").Inc()
//	metrics.DBQueryDuration.WithLabelValues("search").Observe(0.123)
//	metrics.DBConnectionsOpen.Set(5)
//
// # Prometheus Queries
//
// Request rate by endpoint:
//
//	sum(rate(mediadex_http_requests_total[5m])) by (path)
//
// P95 response time:
//
//	histogram_quantile(0.95, sum(rate(mediadex_http_request_duration_seconds_bucket[5m])) by (le))
//
// Query latency by operation:
//
//	histogram_quantile(0.95, sum(rate(mediadex_db_query_duration_seconds_bucket[5m])) by (le, operation))
//
// Sync failure rate:
//
//	sum(rate(mediadex_sync_runs_total{status="failed"}[1h])) / sum(rate(mediadex_sync_runs_total[1h]))
package metrics

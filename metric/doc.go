// Package metric provides Prometheus metrics for taskql.
//
// A MetricsRegistry owns a private prometheus.Registry (never the global
// default) holding the service metrics plus the Go runtime and process
// collectors. The gateway mounts Handler() at /metrics.
//
// Exported series:
//
//	taskql_graphql_operations_total{operation,status}
//	taskql_graphql_operation_duration_seconds{operation}
//	taskql_errors_total{operation,code}
//	taskql_events_published_total{subject,status}
//	taskql_health_status{component}
//	taskql_nats_connected
//
// Usage:
//
//	registry := metric.NewMetricsRegistry()
//	registry.CoreMetrics().RecordOperation("addTask", true, time.Since(start))
//	mux.Handle("/metrics", registry.Handler())
package metric

// Package observability provides a Prometheus extension for lanes. The
// MetricsExtension implements lifecycle hooks to record per-type counters
// for enqueue, completion, failure, retry, dead-letter, reclamation and
// requeue events, and mirrors each periodic metrics snapshot into gauges.
//
// For per-execution OpenTelemetry tracing and metrics, see the middleware
// package: middleware.Tracing() and middleware.Metrics().
package observability

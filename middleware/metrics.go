package middleware

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/lanes"
	"github.com/xraph/lanes/job"
)

// FailureReason classifies a failed attempt as "timeout", "panic" or
// "handler".
func FailureReason(err error) string {
	switch {
	case errors.Is(err, lanes.ErrJobTimeout):
		return "timeout"
	case errors.Is(err, lanes.ErrHandlerPanic):
		return "panic"
	default:
		return "handler"
	}
}

// meterName is the instrumentation scope name for lanes metrics.
const meterName = "github.com/xraph/lanes"

// Metrics returns middleware that records per-attempt execution metrics
// using the global OTel MeterProvider. Without a configured provider the
// instruments are noops.
//
// Instruments:
//   - lanes.job.duration (Float64Histogram): attempt time in seconds,
//     with attributes job_type, priority, status ("ok" or "error") and,
//     for failures, reason (see [FailureReason])
//   - lanes.job.executions (Int64Counter): attempts, same attributes
func Metrics() Middleware {
	return MetricsWithMeter(otel.Meter(meterName))
}

// MetricsWithMeter returns metrics middleware using the provided meter.
func MetricsWithMeter(meter metric.Meter) Middleware {
	// OTel returns noop instruments alongside any error.
	duration, _ := meter.Float64Histogram(
		"lanes.job.duration",
		metric.WithDescription("Duration of job attempts in seconds"),
		metric.WithUnit("s"),
	)
	executions, _ := meter.Int64Counter(
		"lanes.job.executions",
		metric.WithDescription("Total number of job attempts"),
		metric.WithUnit("{execution}"),
	)

	return func(ctx context.Context, j *job.Job, next Handler) error {
		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start).Seconds()

		kv := []attribute.KeyValue{
			attribute.String("job_type", j.Type),
			attribute.String("priority", j.Priority.String()),
		}
		if err == nil {
			kv = append(kv, attribute.String("status", "ok"))
		} else {
			kv = append(kv,
				attribute.String("status", "error"),
				attribute.String("reason", FailureReason(err)),
			)
		}
		attrs := metric.WithAttributes(kv...)

		duration.Record(ctx, elapsed, attrs)
		executions.Add(ctx, 1, attrs)

		return err
	}
}

package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/lanes/job"
)

// tracerName is the instrumentation scope name for lanes tracing.
const tracerName = "github.com/xraph/lanes"

// Tracing returns middleware that wraps each attempt in an OpenTelemetry
// span using the global TracerProvider.
//
// Span attributes: lanes.job.id, lanes.job.type, lanes.job.priority,
// lanes.job.attempt, lanes.worker.id and lanes.job.tags. A failed attempt
// also gets lanes.job.failure (see [FailureReason]) and, when retries
// remain, lanes.job.retries_left.
func Tracing() Middleware {
	return TracingWithTracer(otel.Tracer(tracerName))
}

// TracingWithTracer returns tracing middleware using the provided tracer.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		ctx, span := tracer.Start(ctx, "lanes.job.execute",
			trace.WithAttributes(
				attribute.String("lanes.job.id", j.ID.String()),
				attribute.String("lanes.job.type", j.Type),
				attribute.String("lanes.job.priority", j.Priority.String()),
				attribute.Int("lanes.job.attempt", j.RetryCount+1),
				attribute.String("lanes.worker.id", j.OwnerWorkerID.String()),
				attribute.StringSlice("lanes.job.tags", j.Tags),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("lanes.job.failure", FailureReason(err)))
			if left := j.MaxRetries - j.RetryCount; left > 0 {
				span.SetAttributes(attribute.Int("lanes.job.retries_left", left))
			}
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return err
	}
}

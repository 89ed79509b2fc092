package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/xraph/lanes"
	"github.com/xraph/lanes/job"
)

// Logging logs each attempt. Failures that will be retried log at Warn and
// the final failing attempt at Error; successes log at Info.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		attrs := []slog.Attr{
			slog.String("job_id", j.ID.String()),
			slog.String("job_type", j.Type),
			slog.String("priority", j.Priority.String()),
			slog.Int("attempt", j.RetryCount+1),
		}
		logger.LogAttrs(ctx, slog.LevelDebug, "job attempt started", attrs...)

		start := time.Now()
		err := next(ctx)
		attrs = append(attrs, slog.Duration("elapsed", time.Since(start)))

		if err == nil {
			logger.LogAttrs(ctx, slog.LevelInfo, "job attempt succeeded", attrs...)
			return nil
		}

		msg := "job attempt failed"
		if errors.Is(err, lanes.ErrJobTimeout) {
			msg = "job attempt timed out"
		}
		level := slog.LevelWarn
		if j.RetryCount >= j.MaxRetries {
			level = slog.LevelError
		}
		attrs = append(attrs,
			slog.Int("retries_left", max(j.MaxRetries-j.RetryCount, 0)),
			slog.String("error", err.Error()),
		)
		logger.LogAttrs(ctx, level, msg, attrs...)
		return err
	}
}

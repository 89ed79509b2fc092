package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/lanes"
	"github.com/xraph/lanes/job"
)

// Timeout returns middleware that races the rest of the chain against the
// job's Timeout. When the timer wins, the attempt fails with
// lanes.ErrJobTimeout and the handler's context is cancelled; a handler
// that ignores its context keeps running in the background and its result
// is discarded. Jobs with a zero Timeout run unbounded.
func Timeout(logger *slog.Logger) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		if j.Timeout <= 0 {
			return next(ctx)
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			done <- next(ctx)
		}()

		timer := time.NewTimer(j.Timeout)
		defer timer.Stop()

		select {
		case err := <-done:
			return err
		case <-timer.C:
			logger.Warn("job timed out",
				slog.String("job_id", j.ID.String()),
				slog.String("job_type", j.Type),
				slog.Duration("timeout", j.Timeout),
			)
			return fmt.Errorf("%w after %s", lanes.ErrJobTimeout, j.Timeout)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/xraph/lanes"
	"github.com/xraph/lanes/job"
)

// Recover turns a panic in the rest of the chain into a failed attempt.
// The returned error wraps lanes.ErrHandlerPanic and, when the panic value
// is itself an error, that error too, so the attempt is retried like any
// other failure.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			logger.LogAttrs(ctx, slog.LevelError, "job handler panicked",
				slog.String("job_id", j.ID.String()),
				slog.String("job_type", j.Type),
				slog.String("worker_id", j.OwnerWorkerID.String()),
				slog.Int("attempt", j.RetryCount+1),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			if perr, ok := r.(error); ok {
				err = fmt.Errorf("%w in %s attempt %d: %w", lanes.ErrHandlerPanic, j.Type, j.RetryCount+1, perr)
				return
			}
			err = fmt.Errorf("%w in %s attempt %d: %v", lanes.ErrHandlerPanic, j.Type, j.RetryCount+1, r)
		}()
		return next(ctx)
	}
}

package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/lanes"
	"github.com/xraph/lanes/job"
	"github.com/xraph/lanes/middleware"
)

// Executor runs a single attempt of a job through middleware and the
// registered handler. It does not change job state; the caller decides
// what the outcome means.
type Executor struct {
	registry *job.Registry
	mw       middleware.Middleware
	logger   *slog.Logger
}

// NewExecutor creates an Executor. mws wrap every attempt, outermost
// first.
func NewExecutor(registry *job.Registry, logger *slog.Logger, mws ...middleware.Middleware) *Executor {
	return &Executor{
		registry: registry,
		mw:       middleware.Chain(mws...),
		logger:   logger,
	}
}

// Execute runs one attempt of j and returns its duration and error.
// A job type with no handler fails with lanes.ErrNoHandler.
func (e *Executor) Execute(ctx context.Context, j *job.Job) (elapsed time.Duration, err error) {
	handler, ok := e.registry.Get(j.Type)
	if !ok {
		return 0, fmt.Errorf("%w: %q", lanes.ErrNoHandler, j.Type)
	}

	start := time.Now()
	defer func() {
		elapsed = time.Since(start)
		if r := recover(); r != nil {
			e.logger.Error("job middleware panicked",
				slog.String("job_id", j.ID.String()),
				slog.String("job_type", j.Type),
				slog.Any("panic", r),
			)
			err = fmt.Errorf("%w: job %s: %v", lanes.ErrHandlerPanic, j.Type, r)
		}
	}()

	terminal := func(ctx context.Context) error {
		return handler(ctx, j)
	}
	return 0, e.mw(ctx, j, terminal)
}

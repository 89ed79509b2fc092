// Package middleware provides composable middleware for job execution.
//
// A [Middleware] is a function that wraps a job handler. Middleware are
// composed into a chain using [Chain] and applied around each attempt.
// They are applied right-to-left: the first middleware in the slice is the
// outermost wrapper.
//
//	// logging → timeout → recover → handler
//	chain := middleware.Chain(
//	    middleware.Logging(logger),
//	    middleware.Timeout(logger),
//	    middleware.Recover(logger),
//	)
//
// # Built-in Middleware
//
//   - [Logging]: logs job type, attempt, duration and outcome
//   - [Recover]: catches panics and converts them to errors
//   - [Timeout]: races the handler against the job's timeout
//   - [Tracing]: wraps execution in an OpenTelemetry span
//   - [Metrics]: records per-type duration and outcome with OpenTelemetry
//
// [Timeout] runs the rest of the chain on its own goroutine, so [Recover]
// must sit inside it to catch panics from the handler.
//
// # Writing Custom Middleware
//
//	func MyMiddleware() middleware.Middleware {
//	    return func(ctx context.Context, j *job.Job, next middleware.Handler) error {
//	        // pre-processing
//	        err := next(ctx)
//	        // post-processing
//	        return err
//	    }
//	}
//
// Middleware MUST call next to continue the chain unless intentionally
// short-circuiting.
package middleware

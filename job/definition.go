package job

import "context"

// Definition is a typed job definition with a handler function.
// T is the payload type (must be JSON-serializable).
type Definition[T any] struct {
	// Name is the job type this definition handles.
	Name string

	// Handler processes the decoded payload.
	Handler func(ctx context.Context, payload T) error

	// Opts are the submission defaults for this type.
	Opts []Option
}

// NewDefinition creates a typed job definition. opts become the
// submission defaults applied before per-call options.
func NewDefinition[T any](name string, handler func(ctx context.Context, payload T) error, opts ...Option) *Definition[T] {
	return &Definition[T]{
		Name:    name,
		Handler: handler,
		Opts:    opts,
	}
}

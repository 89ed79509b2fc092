package job

import (
	"fmt"
	"time"

	"github.com/xraph/lanes"
	"github.com/xraph/lanes/id"
)

// Options configures a single submission.
type Options struct {
	// Priority determines dequeue ordering. Lower values are dispatched first.
	Priority Priority

	// MaxRetries is the number of retries allowed after the first attempt.
	MaxRetries int

	// Delay postpones the first attempt. Ignored when RunAt is set.
	Delay time.Duration

	// RunAt schedules the first attempt at an absolute time.
	RunAt time.Time

	// Timeout bounds each attempt. Zero uses the manager default.
	Timeout time.Duration

	// Dependencies must all be completed before the job is dispatched.
	Dependencies []id.JobID

	// Tags are free-form labels.
	Tags []string
}

// DefaultOptions returns Options with the documented defaults.
func DefaultOptions() Options {
	return Options{
		Priority:   PriorityNormal,
		MaxRetries: 3,
	}
}

// Option is a functional option for configuring a submission.
type Option func(*Options)

// Apply returns base with opts applied in order.
func Apply(base Options, opts ...Option) Options {
	for _, opt := range opts {
		opt(&base)
	}
	return base
}

// Validate reports the first invalid option.
func (o Options) Validate() error {
	switch {
	case !o.Priority.Valid():
		return fmt.Errorf("%w: %d", lanes.ErrInvalidPriority, o.Priority)
	case o.MaxRetries < 0:
		return fmt.Errorf("%w: max retries must not be negative", lanes.ErrInvalidOption)
	case o.Delay < 0:
		return fmt.Errorf("%w: delay must not be negative", lanes.ErrInvalidOption)
	case o.Timeout < 0:
		return fmt.Errorf("%w: timeout must not be negative", lanes.ErrInvalidOption)
	}
	for _, dep := range o.Dependencies {
		if dep.IsNil() {
			return fmt.Errorf("%w: empty dependency id", lanes.ErrInvalidOption)
		}
	}
	return nil
}

// ScheduledAt resolves the first eligible dispatch time relative to now.
func (o Options) ScheduledAt(now time.Time) time.Time {
	if !o.RunAt.IsZero() {
		return o.RunAt
	}
	return now.Add(o.Delay)
}

// WithPriority sets the job priority.
func WithPriority(p Priority) Option {
	return func(o *Options) { o.Priority = p }
}

// WithMaxRetries sets the maximum number of retries.
func WithMaxRetries(n int) Option {
	return func(o *Options) { o.MaxRetries = n }
}

// WithDelay postpones the first attempt by d.
func WithDelay(d time.Duration) Option {
	return func(o *Options) { o.Delay = d }
}

// WithRunAt schedules the first attempt at t.
func WithRunAt(t time.Time) Option {
	return func(o *Options) { o.RunAt = t }
}

// WithTimeout sets the per-attempt execution deadline.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = d }
}

// WithDependencies adds jobs that must complete before this one runs.
func WithDependencies(ids ...id.JobID) Option {
	return func(o *Options) { o.Dependencies = append(o.Dependencies, ids...) }
}

// WithTags adds free-form labels.
func WithTags(tags ...string) Option {
	return func(o *Options) { o.Tags = append(o.Tags, tags...) }
}

package notify

import (
	"log/slog"
	"time"

	"github.com/xraph/lanes/job"
)

// Option configures an Extension.
type Option func(*Extension)

// PayloadFunc replaces the default data of one event type. It receives
// the default payload and returns the value placed in Envelope.Data.
type PayloadFunc func(data any) (any, error)

// WithEvents restricts the extension to the listed event types. By
// default every type in [Events] is forwarded. Unknown types are ignored.
func WithEvents(events ...string) Option {
	return func(e *Extension) {
		e.enabled = make(map[string]bool, len(events))
		for _, ev := range events {
			e.enabled[ev] = true
		}
	}
}

// WithPayloadFunc registers a custom payload builder for eventType.
func WithPayloadFunc(eventType string, fn PayloadFunc) Option {
	return func(e *Extension) {
		if e.payloads == nil {
			e.payloads = make(map[string]PayloadFunc)
		}
		e.payloads[eventType] = fn
	}
}

// WithJobOptions sets options applied to every delivery job, such as
// priority or retry budget.
func WithJobOptions(opts ...job.Option) Option {
	return func(e *Extension) { e.jobOpts = append(e.jobOpts, opts...) }
}

// WithHeaders adds static headers to every delivery.
func WithHeaders(h map[string]string) Option {
	return func(e *Extension) { e.headers = h }
}

// WithLogger sets the logger used for payload encoding failures.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extension) { e.logger = l }
}

// WithClock overrides the time source for Envelope.OccurredAt.
func WithClock(now func() time.Time) Option {
	return func(e *Extension) { e.now = now }
}

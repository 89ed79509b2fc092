package engine

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/lanes"
	"github.com/xraph/lanes/backoff"
	"github.com/xraph/lanes/ext"
	mw "github.com/xraph/lanes/middleware"
	"github.com/xraph/lanes/throttle"
)

// Option configures a Manager.
type Option func(*Manager)

// WithConfig replaces the default configuration.
func WithConfig(cfg lanes.Config) Option {
	return func(m *Manager) {
		m.cfg = cfg
	}
}

// WithLogger sets the logger used by the manager, its workers and the
// default middleware.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithBackoff sets the retry backoff strategy.
// If not set, backoff.DefaultStrategy(cfg.BaseBackoff, cfg.MaxBackoff) is used.
func WithBackoff(b backoff.Strategy) Option {
	return func(m *Manager) {
		m.backoff = b
	}
}

// WithMiddleware adds middleware inside the default chain, closest to the
// handler.
func WithMiddleware(mws ...mw.Middleware) Option {
	return func(m *Manager) {
		m.mws = append(m.mws, mws...)
	}
}

// WithExtension registers an extension with the manager.
func WithExtension(e ext.Extension) Option {
	return func(m *Manager) {
		m.pendingExts = append(m.pendingExts, e)
	}
}

// WithThrottle registers per-type rate limits and concurrency caps.
// Types not listed have no limits.
func WithThrottle(configs ...throttle.Config) Option {
	return func(m *Manager) {
		m.throttleConfigs = append(m.throttleConfigs, configs...)
	}
}

// WithClock overrides the time source. Scheduling, heartbeats, retention
// and metrics all read it.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithPrometheus registers the observability metrics extension with reg.
func WithPrometheus(reg prometheus.Registerer) Option {
	return func(m *Manager) {
		m.promRegisterer = reg
	}
}

// WithTracerProvider sets a custom OTel TracerProvider for the tracing
// middleware. If not set, the global otel.GetTracerProvider() is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(m *Manager) {
		m.tracerProvider = tp
	}
}

// WithMeterProvider sets a custom OTel MeterProvider for the metrics
// middleware. If not set, the global otel.GetMeterProvider() is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(m *Manager) {
		m.meterProvider = mp
	}
}

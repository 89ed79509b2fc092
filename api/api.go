package api

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xraph/lanes/cron"
	"github.com/xraph/lanes/engine"
	"github.com/xraph/lanes/stream"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// API serves the admin HTTP surface of a Manager.
type API struct {
	m        *engine.Manager
	token    string
	logger   *slog.Logger
	health   func(ctx context.Context) error
	gatherer prometheus.Gatherer
	broker   *stream.Broker
	sched    *cron.Scheduler
}

// Option configures an API.
type Option func(*API)

// WithToken requires "Authorization: Bearer <token>" on /v1 routes.
func WithToken(token string) Option {
	return func(a *API) { a.token = token }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *API) { a.logger = l }
}

// WithHealthCheck sets the check behind /healthz, typically the store's
// Ping.
func WithHealthCheck(fn func(ctx context.Context) error) Option {
	return func(a *API) { a.health = fn }
}

// WithGatherer serves /metrics from g instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(a *API) { a.gatherer = g }
}

// WithEventStream serves GET /v1/events from b as server-sent events.
// b must be registered as an extension of the same manager.
func WithEventStream(b *stream.Broker) Option {
	return func(a *API) { a.broker = b }
}

// WithScheduler serves the /v1/crons routes from s.
func WithScheduler(s *cron.Scheduler) Option {
	return func(a *API) { a.sched = s }
}

// New creates an API for m.
func New(m *engine.Manager, opts ...Option) *API {
	a := &API{
		m:        m,
		logger:   slog.Default(),
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handler builds the router.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestSize(maxBodyBytes))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", a.healthz)
	r.Handle("/metrics", promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Use(a.requireToken)

		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", a.submitJob)
			r.Get("/", a.listJobs)
			r.Get("/{jobID}", a.getJob)
		})
		r.Route("/workers", func(r chi.Router) {
			r.Post("/", a.registerWorker)
			r.Get("/", a.listWorkers)
			r.Delete("/{workerID}", a.deactivateWorker)
		})
		r.Route("/dlq", func(r chi.Router) {
			r.Get("/", a.listDeadLetters)
			r.Post("/{jobID}/retry", a.retryDeadJob)
		})
		r.Get("/metrics", a.metrics)
		r.Post("/reap", a.reap)
		if a.sched != nil {
			r.Route("/crons", func(r chi.Router) {
				r.Get("/", a.listCrons)
				r.Post("/{name}/enable", a.setCronEnabled(true))
				r.Post("/{name}/disable", a.setCronEnabled(false))
			})
		}
		if a.broker != nil {
			r.Get("/events", a.events)
		}
	})

	return r
}

// requireToken rejects requests without the configured bearer token.
func (a *API) requireToken(next http.Handler) http.Handler {
	if a.token == "" {
		return next
	}
	want := []byte(a.token)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			w.Header().Set("WWW-Authenticate", `Bearer realm="lanes"`)
			writeError(w, http.StatusUnauthorized, "missing or invalid bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) healthz(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	code := http.StatusOK
	if a.health != nil {
		if err := a.health(r.Context()); err != nil {
			a.logger.WarnContext(r.Context(), "healthz: store ping failed", slog.String("error", err.Error()))
			resp = HealthResponse{Status: "degraded", Store: "unavailable"}
			code = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, resp)
}

package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/lanes"
	"github.com/xraph/lanes/backoff"
	"github.com/xraph/lanes/dlq"
	"github.com/xraph/lanes/ext"
	"github.com/xraph/lanes/id"
	"github.com/xraph/lanes/job"
	"github.com/xraph/lanes/lane"
	mw "github.com/xraph/lanes/middleware"
	"github.com/xraph/lanes/observability"
	"github.com/xraph/lanes/throttle"
	"github.com/xraph/lanes/worker"
)

const instrumentationName = "github.com/xraph/lanes"

// Manager is the queue manager. It is safe for concurrent use.
type Manager struct {
	cfg        lanes.Config
	store      job.Store
	registry   *job.Registry
	extensions *ext.Registry
	backoff    backoff.Strategy
	throttle   *throttle.Manager
	executor   *worker.Executor
	logger     *slog.Logger
	now        func() time.Time

	// Option state consumed by New.
	mws             []mw.Middleware
	pendingExts     []ext.Extension
	throttleConfigs []throttle.Config
	promRegisterer  prometheus.Registerer
	tracerProvider  trace.TracerProvider
	meterProvider   metric.MeterProvider

	// mu guards everything below.
	mu      sync.Mutex
	jobs    map[id.JobID]*job.Job
	lanes   *lane.Set
	dead    *dlq.Queue
	workers map[id.WorkerID]*worker.Worker
	loops   map[id.WorkerID]*worker.Loop

	// pinned counts submissions between their dependency check and
	// indexing, per dependency. Retention never evicts a pinned job.
	pinned map[id.JobID]int

	submitted      int64
	failedAttempts int64
	completedTotal int64

	started bool
	closing bool

	// runCtx is handed to handlers; cancelling it aborts in-flight work.
	runCtx    context.Context
	cancelRun context.CancelFunc
	inflight  sync.WaitGroup
	loopWG    sync.WaitGroup

	bgStop   chan struct{}
	bgWG     sync.WaitGroup
	cancelBG context.CancelFunc
}

// New creates a Manager persisting to store.
func New(store job.Store, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", lanes.ErrInvalidConfig)
	}

	m := &Manager{
		cfg:      lanes.DefaultConfig(),
		store:    store,
		registry: job.NewRegistry(),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := m.cfg.Validate(); err != nil {
		return nil, err
	}
	if m.backoff == nil {
		m.backoff = backoff.DefaultStrategy(m.cfg.BaseBackoff, m.cfg.MaxBackoff)
	}

	m.extensions = ext.NewRegistry(m.logger)
	if m.promRegisterer != nil {
		m.extensions.Register(observability.NewMetricsExtension(m.promRegisterer))
	}
	for _, e := range m.pendingExts {
		m.extensions.Register(e)
	}
	m.pendingExts = nil

	m.throttle = throttle.NewManager(m.throttleConfigs...)

	// Build tracing middleware (custom provider or global).
	tracingMw := mw.Tracing()
	if m.tracerProvider != nil {
		tracingMw = mw.TracingWithTracer(m.tracerProvider.Tracer(instrumentationName))
	}

	// Build metrics middleware (custom provider or global).
	metricsMw := mw.Metrics()
	if m.meterProvider != nil {
		metricsMw = mw.MetricsWithMeter(m.meterProvider.Meter(instrumentationName))
	}

	// Default stack: tracing → metrics → logging → timeout → recover → user.
	// Timeout sits outside recover so a panic in an abandoned handler
	// goroutine is still caught.
	defaultMws := []mw.Middleware{
		tracingMw,
		metricsMw,
		mw.Logging(m.logger),
		mw.Timeout(m.logger),
		mw.Recover(m.logger),
	}
	allMws := make([]mw.Middleware, 0, len(defaultMws)+len(m.mws))
	allMws = append(allMws, defaultMws...)
	allMws = append(allMws, m.mws...)
	m.executor = worker.NewExecutor(m.registry, m.logger, allMws...)

	m.jobs = make(map[id.JobID]*job.Job)
	m.lanes = lane.New()
	m.dead = dlq.New(m.cfg.DeadLetterCapacity)
	m.workers = make(map[id.WorkerID]*worker.Worker)
	m.loops = make(map[id.WorkerID]*worker.Loop)
	m.pinned = make(map[id.JobID]int)
	m.runCtx, m.cancelRun = context.WithCancel(context.Background())
	m.bgStop = make(chan struct{})

	return m, nil
}

// Register registers a typed job definition with the manager.
func Register[T any](m *Manager, def *job.Definition[T]) {
	job.RegisterDefinition(m.registry, def)
}

// Enqueue JSON-encodes payload and submits it as a def.Name job. The
// definition's default options are applied before opts.
func Enqueue[T any](ctx context.Context, m *Manager, def *job.Definition[T], payload T, opts ...job.Option) (id.JobID, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return id.JobID{}, fmt.Errorf("marshal payload for job %q: %w", def.Name, err)
	}

	all := make([]job.Option, 0, len(def.Opts)+len(opts))
	all = append(all, def.Opts...)
	all = append(all, opts...)
	return m.AddJob(ctx, def.Name, data, all...)
}

// RegisterJobHandler installs h for jobType, replacing any earlier handler.
func (m *Manager) RegisterJobHandler(jobType string, h job.HandlerFunc) {
	m.registry.Register(jobType, h)
}

// AddJob validates and persists a new job, then makes it visible to
// workers. Nothing is enqueued when persistence fails.
func (m *Manager) AddJob(ctx context.Context, jobType string, payload []byte, opts ...job.Option) (id.JobID, error) {
	jobType = strings.TrimSpace(jobType)
	if jobType == "" {
		return id.JobID{}, lanes.ErrEmptyJobType
	}
	if !m.registry.Has(jobType) {
		return id.JobID{}, fmt.Errorf("%w: %q", lanes.ErrNoHandler, jobType)
	}
	if len(payload) > 0 && !json.Valid(payload) {
		return id.JobID{}, fmt.Errorf("%w: payload is not valid JSON", lanes.ErrInvalidOption)
	}

	o := job.Apply(job.Options{
		Priority:   job.PriorityNormal,
		MaxRetries: m.cfg.DefaultMaxRetries,
	}, opts...)
	if err := o.Validate(); err != nil {
		return id.JobID{}, err
	}

	now := m.now()
	j := &job.Job{
		ID:           id.NewJobID(),
		Type:         jobType,
		Priority:     o.Priority,
		Status:       job.StatusPending,
		Dependencies: compactIDs(o.Dependencies),
		Tags:         slices.Compact(slices.Sorted(slices.Values(o.Tags))),
		CreatedAt:    now,
		UpdatedAt:    now,
		ScheduledAt:  o.ScheduledAt(now),
		MaxRetries:   o.MaxRetries,
		Timeout:      o.Timeout,
		Version:      1,
	}
	if len(payload) > 0 {
		j.Payload = json.RawMessage(slices.Clone(payload))
	}
	if j.Timeout == 0 {
		j.Timeout = m.cfg.JobTimeout
	}

	m.mu.Lock()
	if m.closing {
		m.mu.Unlock()
		return id.JobID{}, lanes.ErrShuttingDown
	}
	for _, dep := range j.Dependencies {
		if _, ok := m.jobs[dep]; !ok {
			m.mu.Unlock()
			return id.JobID{}, fmt.Errorf("%w: %s", lanes.ErrDependencyNotFound, dep)
		}
	}
	m.pinLocked(j.Dependencies, 1)
	m.mu.Unlock()

	if err := m.store.Upsert(ctx, j.Clone()); err != nil {
		m.mu.Lock()
		m.pinLocked(j.Dependencies, -1)
		m.mu.Unlock()
		return id.JobID{}, fmt.Errorf("lanes/engine: persist job: %w", err)
	}

	m.mu.Lock()
	m.pinLocked(j.Dependencies, -1)
	m.jobs[j.ID] = j
	m.lanes.Push(j)
	m.submitted++
	snap := j.Clone()
	m.wakeLocked()
	m.mu.Unlock()

	m.logger.Debug("job enqueued",
		slog.String("job_id", j.ID.String()),
		slog.String("job_type", j.Type),
		slog.String("priority", j.Priority.String()),
		slog.Time("scheduled_at", j.ScheduledAt),
	)
	m.extensions.EmitJobEnqueued(ctx, snap)

	return j.ID, nil
}

// RegisterWorker creates a worker for the given job types and starts its
// dispatch loop. A type of worker.AnyType accepts every job type.
func (m *Manager) RegisterWorker(name string, types []string, concurrency int) (id.WorkerID, error) {
	w, err := worker.New(name, types, concurrency, m.now())
	if err != nil {
		return id.WorkerID{}, err
	}

	m.mu.Lock()
	if m.closing {
		m.mu.Unlock()
		return id.WorkerID{}, lanes.ErrShuttingDown
	}
	loop := worker.NewLoop(m.runCtx, w.ID, m, m.executor, m.cfg.PollInterval, &m.inflight, m.logger)
	m.workers[w.ID] = w
	m.loops[w.ID] = loop
	m.loopWG.Add(1)
	info := w.Info()
	m.mu.Unlock()

	go func() {
		defer m.loopWG.Done()
		loop.Run()
	}()

	m.logger.Info("worker registered",
		slog.String("worker_id", w.ID.String()),
		slog.String("name", w.Name),
		slog.Any("types", info.SupportedTypes),
		slog.Int("concurrency", w.Concurrency),
	)
	m.extensions.EmitWorkerRegistered(m.runCtx, info)

	return w.ID, nil
}

// DeactivateWorker stops dispatching to a worker. Jobs it is already
// processing run to completion and are recorded normally.
func (m *Manager) DeactivateWorker(workerID id.WorkerID) error {
	m.mu.Lock()
	w, ok := m.workers[workerID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", lanes.ErrWorkerNotFound, workerID)
	}
	w.Active = false
	loop := m.loops[workerID]
	delete(m.loops, workerID)
	m.mu.Unlock()

	if loop != nil {
		loop.Stop()
	}

	m.logger.Info("worker deactivated", slog.String("worker_id", workerID.String()))
	return nil
}

// Throttle returns the per-type admission manager.
func (m *Manager) Throttle() *throttle.Manager { return m.throttle }

// Extensions returns the extension registry.
func (m *Manager) Extensions() *ext.Registry { return m.extensions }

// Registry returns the job handler registry.
func (m *Manager) Registry() *job.Registry { return m.registry }

// Config returns the manager's configuration.
func (m *Manager) Config() lanes.Config { return m.cfg }

// wakeLocked nudges every dispatch loop. m.mu must be held.
func (m *Manager) wakeLocked() {
	for _, l := range m.loops {
		l.Wake()
	}
}

// persist writes a snapshot. Failures are logged and the in-memory state
// is kept.
func (m *Manager) persist(ctx context.Context, j *job.Job) {
	if err := m.store.Upsert(ctx, j); err != nil {
		m.logger.Error("failed to persist job",
			slog.String("job_id", j.ID.String()),
			slog.String("status", string(j.Status)),
			slog.String("error", err.Error()),
		)
	}
}

// pinLocked adjusts the retention pins on deps by delta. m.mu must be held.
func (m *Manager) pinLocked(deps []id.JobID, delta int) {
	for _, dep := range deps {
		if n := m.pinned[dep] + delta; n > 0 {
			m.pinned[dep] = n
		} else {
			delete(m.pinned, dep)
		}
	}
}

func compactIDs(ids []id.JobID) []id.JobID {
	var out []id.JobID
	for _, jobID := range ids {
		if !slices.Contains(out, jobID) {
			out = append(out, jobID)
		}
	}
	return out
}

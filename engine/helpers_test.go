package engine_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xraph/lanes"
	"github.com/xraph/lanes/engine"
	"github.com/xraph/lanes/id"
	"github.com/xraph/lanes/job"
	"github.com/xraph/lanes/store/memory"
	"github.com/xraph/lanes/worker"
)

// ──────────────────────────────────────────────────
// Test payloads
// ──────────────────────────────────────────────────

type emailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fastConfig shortens every interval so tests finish quickly.
func fastConfig() lanes.Config {
	cfg := lanes.DefaultConfig()
	cfg.PollInterval = 10 * time.Millisecond
	cfg.HeartbeatInterval = 10 * time.Millisecond
	cfg.BaseBackoff = 10 * time.Millisecond
	cfg.CleanupInterval = time.Hour
	cfg.MetricsInterval = time.Hour
	return cfg
}

func newManager(t *testing.T, s job.Store, opts ...engine.Option) *engine.Manager {
	t.Helper()

	all := append([]engine.Option{
		engine.WithConfig(fastConfig()),
		engine.WithLogger(discardLogger()),
	}, opts...)

	m, err := engine.New(s, all...)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	t.Cleanup(func() { _ = m.Shutdown(time.Second) })
	return m
}

func start(t *testing.T, m *engine.Manager) {
	t.Helper()
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
}

func registerWorker(t *testing.T, m *engine.Manager, name string, concurrency int, types ...string) id.WorkerID {
	t.Helper()
	wid, err := m.RegisterWorker(name, types, concurrency)
	if err != nil {
		t.Fatalf("RegisterWorker: %v", err)
	}
	return wid
}

func addJob(t *testing.T, m *engine.Manager, jobType string, opts ...job.Option) id.JobID {
	t.Helper()
	jobID, err := m.AddJob(context.Background(), jobType, []byte(`{}`), opts...)
	if err != nil {
		t.Fatalf("AddJob(%q): %v", jobType, err)
	}
	return jobID
}

// waitFor polls cond until it holds or five seconds pass.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func waitStatus(t *testing.T, m *engine.Manager, jobID id.JobID, want job.Status) *job.Job {
	t.Helper()
	var last *job.Job
	waitFor(t, "job "+jobID.String()+" to become "+string(want), func() bool {
		j, err := m.GetJobStatus(jobID)
		if err != nil {
			return false
		}
		last = j
		return j.Status == want
	})
	return last
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// failingStore wraps a memory store and fails writes while fail is set.
type failingStore struct {
	*memory.Store
	fail atomic.Bool
}

var errStoreDown = errors.New("store down")

func (s *failingStore) Upsert(ctx context.Context, j *job.Job) error {
	if s.fail.Load() {
		return errStoreDown
	}
	return s.Store.Upsert(ctx, j)
}

// ──────────────────────────────────────────────────
// Lifecycle tracker extension
// ──────────────────────────────────────────────────

type lifecycleTracker struct {
	enqueued   atomic.Int32
	started    atomic.Int32
	completed  atomic.Int32
	failed     atomic.Int32
	retrying   atomic.Int32
	dead       atomic.Int32
	reclaimed  atomic.Int32
	requeued   atomic.Int32
	registered atomic.Int32
	lost       atomic.Int32
	shutdown   atomic.Bool
}

func (e *lifecycleTracker) Name() string { return "lifecycle-tracker" }

func (e *lifecycleTracker) OnJobEnqueued(_ context.Context, _ *job.Job) error {
	e.enqueued.Add(1)
	return nil
}

func (e *lifecycleTracker) OnJobStarted(_ context.Context, _ *job.Job) error {
	e.started.Add(1)
	return nil
}

func (e *lifecycleTracker) OnJobCompleted(_ context.Context, _ *job.Job, _ time.Duration) error {
	e.completed.Add(1)
	return nil
}

func (e *lifecycleTracker) OnJobFailed(_ context.Context, _ *job.Job, _ error) error {
	e.failed.Add(1)
	return nil
}

func (e *lifecycleTracker) OnJobRetrying(_ context.Context, _ *job.Job, _ int, _ time.Time) error {
	e.retrying.Add(1)
	return nil
}

func (e *lifecycleTracker) OnJobDead(_ context.Context, _ *job.Job, _ error) error {
	e.dead.Add(1)
	return nil
}

func (e *lifecycleTracker) OnJobReclaimed(_ context.Context, _ *job.Job, _ id.WorkerID) error {
	e.reclaimed.Add(1)
	return nil
}

func (e *lifecycleTracker) OnJobRequeued(_ context.Context, _ *job.Job) error {
	e.requeued.Add(1)
	return nil
}

func (e *lifecycleTracker) OnWorkerRegistered(_ context.Context, _ worker.Info) error {
	e.registered.Add(1)
	return nil
}

func (e *lifecycleTracker) OnWorkerLost(_ context.Context, _ worker.Info) error {
	e.lost.Add(1)
	return nil
}

func (e *lifecycleTracker) OnShutdown(_ context.Context) error {
	e.shutdown.Store(true)
	return nil
}

// stallingStore wraps a memory store and blocks the first write of a
// processing record until its context is done, the way a hung database
// call behaves.
type stallingStore struct {
	*memory.Store
	stalled atomic.Bool
	entered chan struct{}
}

func newStallingStore() *stallingStore {
	return &stallingStore{Store: memory.New(), entered: make(chan struct{})}
}

func (s *stallingStore) Upsert(ctx context.Context, j *job.Job) error {
	if j.Status == job.StatusProcessing && s.stalled.CompareAndSwap(false, true) {
		close(s.entered)
		<-ctx.Done()
		return ctx.Err()
	}
	return s.Store.Upsert(ctx, j)
}

func (s *stallingStore) waitEntered(t *testing.T) {
	t.Helper()
	select {
	case <-s.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("claim never reached the store")
	}
}

// gatedStore wraps a memory store and holds writes of jobs that have
// dependencies until release is closed.
type gatedStore struct {
	*memory.Store
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedStore() *gatedStore {
	return &gatedStore{Store: memory.New(), entered: make(chan struct{}), release: make(chan struct{})}
}

func (s *gatedStore) Upsert(ctx context.Context, j *job.Job) error {
	if len(j.Dependencies) > 0 {
		s.once.Do(func() { close(s.entered) })
		<-s.release
	}
	return s.Store.Upsert(ctx, j)
}

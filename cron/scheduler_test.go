package cron_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/xraph/lanes"
	"github.com/xraph/lanes/cron"
	"github.com/xraph/lanes/engine"
	"github.com/xraph/lanes/id"
	"github.com/xraph/lanes/job"
	"github.com/xraph/lanes/store/memory"
)

// enqueueSpy tracks AddJob calls.
type enqueueSpy struct {
	mu    sync.Mutex
	calls []enqueueCall
	err   error
}

type enqueueCall struct {
	Type    string
	Payload string
	Opts    int
}

func (e *enqueueSpy) AddJob(_ context.Context, jobType string, payload []byte, opts ...job.Option) (id.JobID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return id.Nil, e.err
	}
	e.calls = append(e.calls, enqueueCall{Type: jobType, Payload: string(payload), Opts: len(opts)})
	return id.NewJobID(), nil
}

func (e *enqueueSpy) getCalls() []enqueueCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]enqueueCall(nil), e.calls...)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newScheduler(q cron.Enqueuer) (*cron.Scheduler, *clock) {
	c := &clock{now: time.Date(2026, 5, 4, 10, 0, 30, 0, time.UTC)}
	s := cron.NewScheduler(q,
		cron.WithClock(c.Now),
		cron.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	return s, c
}

func TestParseSchedule(t *testing.T) {
	for _, expr := range []string{"*/5 * * * *", "0 9 * * 1-5", "@hourly", "@every 30s"} {
		if _, err := cron.ParseSchedule(expr); err != nil {
			t.Errorf("ParseSchedule(%q): %v", expr, err)
		}
	}
	for _, expr := range []string{"", "* * * *", "0 0 0 * * *", "@fortnightly"} {
		if _, err := cron.ParseSchedule(expr); err == nil {
			t.Errorf("ParseSchedule(%q) succeeded", expr)
		}
	}
}

func TestSchedulerFiresDueEntries(t *testing.T) {
	spy := &enqueueSpy{}
	s, c := newScheduler(spy)

	if err := s.Add("every-minute", "* * * * *", "report.build", []byte(`{"kind":"daily"}`), job.WithPriority(job.PriorityLow)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	entries := s.Entries()
	if len(entries) != 1 {
		t.Fatalf("Entries = %d, want 1", len(entries))
	}
	want := time.Date(2026, 5, 4, 10, 1, 0, 0, time.UTC)
	if !entries[0].NextRunAt.Equal(want) {
		t.Errorf("NextRunAt = %v, want %v", entries[0].NextRunAt, want)
	}

	if n := s.RunDue(context.Background()); n != 0 {
		t.Fatalf("RunDue before schedule fired %d", n)
	}

	c.Advance(30 * time.Second)
	if n := s.RunDue(context.Background()); n != 1 {
		t.Fatalf("RunDue = %d, want 1", n)
	}

	calls := spy.getCalls()
	if len(calls) != 1 || calls[0].Type != "report.build" || calls[0].Payload != `{"kind":"daily"}` || calls[0].Opts != 1 {
		t.Fatalf("calls = %+v", calls)
	}

	e := s.Entries()[0]
	if e.LastRunAt == nil || !e.LastRunAt.Equal(want) {
		t.Errorf("LastRunAt = %v, want %v", e.LastRunAt, want)
	}
	if !e.NextRunAt.Equal(want.Add(time.Minute)) {
		t.Errorf("NextRunAt = %v, want %v", e.NextRunAt, want.Add(time.Minute))
	}
	if e.LastJobID == "" {
		t.Error("LastJobID not recorded")
	}

	// Same instant: nothing more is due.
	if n := s.RunDue(context.Background()); n != 0 {
		t.Errorf("second RunDue fired %d", n)
	}
}

func TestSchedulerCoalescesMissedRuns(t *testing.T) {
	spy := &enqueueSpy{}
	s, c := newScheduler(spy)
	_ = s.Add("tick", "@every 1m", "x", nil)

	c.Advance(10 * time.Minute)
	if n := s.RunDue(context.Background()); n != 1 {
		t.Errorf("RunDue after long gap = %d, want 1", n)
	}
}

func TestSchedulerRejectsInvalidEntries(t *testing.T) {
	s, _ := newScheduler(&enqueueSpy{})

	if err := s.Add("", "@hourly", "x", nil); err == nil {
		t.Error("empty name accepted")
	}
	if err := s.Add("a", "@hourly", "", nil); err == nil {
		t.Error("empty job type accepted")
	}
	if err := s.Add("a", "not a schedule", "x", nil); err == nil {
		t.Error("bad schedule accepted")
	}
	if err := s.Add("a", "@hourly", "x", []byte("{broken")); err == nil {
		t.Error("invalid JSON payload accepted")
	}
	if err := s.Add("a", "@hourly", "x", nil); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add("a", "@daily", "y", nil); !errors.Is(err, cron.ErrDuplicateEntry) {
		t.Errorf("duplicate Add = %v, want ErrDuplicateEntry", err)
	}
}

func TestSchedulerEnableDisableRemove(t *testing.T) {
	spy := &enqueueSpy{}
	s, c := newScheduler(spy)
	_ = s.Add("tick", "@every 1m", "x", nil)

	if err := s.SetEnabled("tick", false); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}
	c.Advance(5 * time.Minute)
	if n := s.RunDue(context.Background()); n != 0 {
		t.Errorf("disabled entry fired %d", n)
	}

	_ = s.SetEnabled("tick", true)
	if n := s.RunDue(context.Background()); n != 0 {
		t.Errorf("re-enabled entry replayed %d paused runs", n)
	}
	c.Advance(time.Minute)
	if n := s.RunDue(context.Background()); n != 1 {
		t.Errorf("re-enabled entry fired %d, want 1", n)
	}

	if err := s.Remove("tick"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := s.Remove("tick"); !errors.Is(err, cron.ErrEntryNotFound) {
		t.Errorf("second Remove = %v, want ErrEntryNotFound", err)
	}
	if err := s.SetEnabled("tick", true); !errors.Is(err, cron.ErrEntryNotFound) {
		t.Errorf("SetEnabled unknown = %v, want ErrEntryNotFound", err)
	}
}

func TestSchedulerEnqueueFailureAdvances(t *testing.T) {
	spy := &enqueueSpy{err: lanes.ErrNoHandler}
	s, c := newScheduler(spy)
	_ = s.Add("broken", "@every 1m", "missing", nil)

	c.Advance(time.Minute)
	if n := s.RunDue(context.Background()); n != 0 {
		t.Errorf("RunDue = %d, want 0", n)
	}
	e := s.Entries()[0]
	if e.LastError == "" {
		t.Error("LastError not recorded")
	}
	if n := s.RunDue(context.Background()); n != 0 {
		t.Errorf("failed entry retried immediately: %d", n)
	}
}

type reportInput struct {
	Format string `json:"format"`
}

func TestRegisterTypedDefinitionWithManager(t *testing.T) {
	cfg := lanes.DefaultConfig()
	cfg.PollInterval = 10 * time.Millisecond
	cfg.HeartbeatInterval = 10 * time.Millisecond
	m, err := engine.New(memory.New(),
		engine.WithConfig(cfg),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	t.Cleanup(func() { _ = m.Shutdown(time.Second) })

	got := make(chan string, 4)
	def := job.NewDefinition("report.build", func(_ context.Context, in reportInput) error {
		got <- in.Format
		return nil
	}, job.WithPriority(job.PriorityHigh))
	engine.Register(m, def)

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := m.RegisterWorker("w", []string{"report.build"}, 1); err != nil {
		t.Fatalf("RegisterWorker: %v", err)
	}

	s, c := newScheduler(m)
	if err := cron.Register(s, cron.Definition[reportInput]{
		Name:     "pdf-report",
		Schedule: "@every 1h",
		Job:      def,
		Payload:  reportInput{Format: "pdf"},
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	c.Advance(time.Hour)
	if n := s.RunDue(context.Background()); n != 1 {
		t.Fatalf("RunDue = %d, want 1", n)
	}

	select {
	case format := <-got:
		if format != "pdf" {
			t.Errorf("format = %q, want pdf", format)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled job never ran")
	}

	jobs := m.ListJobs()
	if len(jobs) != 1 || jobs[0].Priority != job.PriorityHigh {
		t.Errorf("jobs = %v, want one high-priority job", jobs)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := cron.NewScheduler(&enqueueSpy{},
		cron.WithTickInterval(5*time.Millisecond),
		cron.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

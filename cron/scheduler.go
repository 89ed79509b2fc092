package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"

	"github.com/xraph/lanes/id"
	"github.com/xraph/lanes/job"
)

// Scheduler errors.
var (
	ErrDuplicateEntry = errors.New("cron: entry already registered")
	ErrEntryNotFound  = errors.New("cron: entry not found")
)

// Enqueuer submits jobs. *engine.Manager satisfies it.
type Enqueuer interface {
	AddJob(ctx context.Context, jobType string, payload []byte, opts ...job.Option) (id.JobID, error)
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithTickInterval sets how often the scheduler checks for due entries.
func WithTickInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.tickInterval = d }
}

// WithLogger sets the scheduler logger.
func WithLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) { s.now = now }
}

// cronParser supports standard 5-field cron and descriptors like "@every 30s".
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor,
)

// ParseSchedule parses a cron expression.
func ParseSchedule(expr string) (cronlib.Schedule, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("cron: parse %q: %w", expr, err)
	}
	return sched, nil
}

// Scheduler fires cron entries on a tick loop.
type Scheduler struct {
	queue        Enqueuer
	logger       *slog.Logger
	now          func() time.Time
	tickInterval time.Duration

	mu      sync.Mutex
	entries map[string]*Entry
}

// NewScheduler creates a Scheduler that submits jobs through q.
func NewScheduler(q Enqueuer, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		queue:        q,
		logger:       slog.Default(),
		now:          time.Now,
		tickInterval: time.Second,
		entries:      make(map[string]*Entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add registers an enabled entry. The first run is the schedule's next
// activation after now.
func (s *Scheduler) Add(name, schedule, jobType string, payload []byte, opts ...job.Option) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("cron: entry name is required")
	}
	if jobType == "" {
		return errors.New("cron: job type is required")
	}
	if len(payload) > 0 && !json.Valid(payload) {
		return fmt.Errorf("cron: payload for %q is not valid JSON", name)
	}
	sched, err := ParseSchedule(schedule)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateEntry, name)
	}
	s.entries[name] = &Entry{
		Name:      name,
		Schedule:  schedule,
		JobType:   jobType,
		Payload:   json.RawMessage(slices.Clone(payload)),
		Enabled:   true,
		NextRunAt: sched.Next(s.now()).UTC(),
		opts:      opts,
		sched:     sched,
	}
	return nil
}

// Register adds a typed entry, applying the job definition's options.
func Register[T any](s *Scheduler, def Definition[T]) error {
	data, err := json.Marshal(def.Payload)
	if err != nil {
		return fmt.Errorf("cron: marshal payload for %q: %w", def.Name, err)
	}
	return s.Add(def.Name, def.Schedule, def.Job.Name, data, def.Job.Opts...)
}

// Remove deletes an entry.
func (s *Scheduler) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[name]; !ok {
		return fmt.Errorf("%w: %q", ErrEntryNotFound, name)
	}
	delete(s.entries, name)
	return nil
}

// SetEnabled pauses or resumes an entry. Resuming reschedules from now so
// paused runs are not replayed.
func (s *Scheduler) SetEnabled(name string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrEntryNotFound, name)
	}
	if enabled && !e.Enabled {
		e.NextRunAt = e.sched.Next(s.now()).UTC()
	}
	e.Enabled = enabled
	return nil
}

// Entries returns a snapshot of all entries ordered by name.
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	s.mu.Unlock()

	slices.SortFunc(out, func(a, b Entry) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Run fires due entries every tick until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("cron scheduler started", slog.Duration("tick_interval", s.tickInterval))

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("cron scheduler stopped")
			return nil
		case <-ticker.C:
			s.RunDue(ctx)
		}
	}
}

// RunDue submits a job for every enabled entry whose next run time has
// passed and returns how many were submitted.
func (s *Scheduler) RunDue(ctx context.Context) int {
	now := s.now().UTC()

	s.mu.Lock()
	var due []*Entry
	for _, e := range s.entries {
		if e.Enabled && !e.NextRunAt.After(now) {
			due = append(due, e)
		}
	}
	s.mu.Unlock()

	fired := 0
	for _, e := range due {
		if s.fire(ctx, e, now) {
			fired++
		}
	}
	return fired
}

// fire submits one run of e. The entry advances even when the submission
// fails so a broken entry cannot spin.
func (s *Scheduler) fire(ctx context.Context, e *Entry, now time.Time) bool {
	s.mu.Lock()
	jobType, payload, opts := e.JobType, e.Payload, e.opts
	s.mu.Unlock()

	jobID, err := s.queue.AddJob(ctx, jobType, payload, opts...)

	s.mu.Lock()
	ran := now
	e.LastRunAt = &ran
	e.NextRunAt = e.sched.Next(now).UTC()
	if err != nil {
		e.LastError = err.Error()
	} else {
		e.LastJobID = jobID.String()
		e.LastError = ""
	}
	next := e.NextRunAt
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("cron enqueue failed",
			slog.String("cron_name", e.Name),
			slog.String("job_type", jobType),
			slog.String("error", err.Error()),
		)
		return false
	}

	s.logger.Info("cron fired",
		slog.String("cron_name", e.Name),
		slog.String("job_type", jobType),
		slog.String("job_id", jobID.String()),
		slog.Time("next_run_at", next),
	)
	return true
}

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/xraph/lanes"
	"github.com/xraph/lanes/dlq"
	"github.com/xraph/lanes/id"
	"github.com/xraph/lanes/job"
)

// Start reloads unfinished jobs from the store and starts the cleanup and
// metrics loops. Background loops stop at Shutdown or when ctx is done.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	switch {
	case m.closing:
		m.mu.Unlock()
		return lanes.ErrShuttingDown
	case m.started:
		m.mu.Unlock()
		return lanes.ErrAlreadyStarted
	}
	m.started = true
	m.mu.Unlock()

	if err := m.reload(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	if m.closing {
		m.mu.Unlock()
		return lanes.ErrShuttingDown
	}
	bgCtx, cancel := context.WithCancel(ctx)
	m.cancelBG = cancel
	m.bgWG.Add(2)
	m.mu.Unlock()

	go m.runCleanup(bgCtx)
	go m.runMetrics(bgCtx)

	m.logger.Info("queue manager started",
		slog.Duration("poll_interval", m.cfg.PollInterval),
		slog.Duration("heartbeat_interval", m.cfg.HeartbeatInterval),
		slog.Int("dead_letter_capacity", m.cfg.DeadLetterCapacity),
	)
	return nil
}

// reload indexes the unfinished jobs found in the store. Processing and
// retrying records are normalised to pending since no worker owns them
// after a restart.
func (m *Manager) reload(ctx context.Context) error {
	records, err := m.store.QueryByStatus(ctx, job.StatusPending, job.StatusRetrying, job.StatusProcessing)
	if err != nil {
		return fmt.Errorf("lanes/engine: reload jobs: %w", err)
	}

	now := m.now()
	var normalised []*job.Job

	m.mu.Lock()
	for _, j := range records {
		if _, ok := m.jobs[j.ID]; ok {
			continue
		}
		if j.Status != job.StatusPending {
			if err := j.TransitionTo(job.StatusPending, now); err != nil {
				m.logger.Warn("skipping unrecoverable job",
					slog.String("job_id", j.ID.String()),
					slog.String("error", err.Error()),
				)
				continue
			}
			j.OwnerWorkerID = id.WorkerID{}
			normalised = append(normalised, j.Clone())
		}
		m.jobs[j.ID] = j
		m.lanes.Push(j)
	}
	missing := m.missingDependenciesLocked()
	m.mu.Unlock()

	for _, j := range normalised {
		m.persist(ctx, j)
	}

	restored := 0
	if len(missing) > 0 || m.cfg.RestoreDeadLetters {
		restored, err = m.reloadFinished(ctx, missing)
		if err != nil {
			return err
		}
	}

	m.mu.Lock()
	unresolved := m.missingDependenciesLocked()
	m.wakeLocked()
	m.mu.Unlock()

	for dep := range unresolved {
		m.logger.Warn("dependency not found in store, dependents will not run",
			slog.String("job_id", dep.String()),
		)
	}

	m.logger.Info("jobs recovered from store",
		slog.Int("unfinished", len(records)),
		slog.Int("normalised", len(normalised)),
		slog.Int("dead_letters", restored),
	)
	return nil
}

// reloadFinished indexes completed and dead records that unfinished jobs
// depend on and, when configured, refills the dead-letter queue. It
// returns the number of dead-letter entries restored.
func (m *Manager) reloadFinished(ctx context.Context, needed map[id.JobID]struct{}) (int, error) {
	records, err := m.store.QueryByStatus(ctx, job.StatusCompleted, job.StatusDead)
	if err != nil {
		return 0, fmt.Errorf("lanes/engine: reload finished jobs: %w", err)
	}

	// Oldest failures first so eviction keeps the newest.
	slices.SortStableFunc(records, func(a, b *job.Job) int {
		return finishedAt(a).Compare(finishedAt(b))
	})

	m.mu.Lock()
	defer m.mu.Unlock()

	restored := 0
	for _, j := range records {
		if _, ok := m.jobs[j.ID]; ok {
			continue
		}
		_, isDep := needed[j.ID]
		restoreDead := j.Status == job.StatusDead && m.cfg.RestoreDeadLetters
		if !isDep && !restoreDead {
			continue
		}

		m.jobs[j.ID] = j
		if !restoreDead {
			continue
		}
		restored++
		if evicted := m.dead.Push(dlq.NewEntry(j, finishedAt(j))); evicted != nil {
			restored--
			if _, dep := needed[evicted.Job.ID]; !dep {
				delete(m.jobs, evicted.Job.ID)
			}
		}
	}
	return restored, nil
}

// missingDependenciesLocked returns the dependency ids referenced by
// indexed jobs but absent from the index. m.mu must be held.
func (m *Manager) missingDependenciesLocked() map[id.JobID]struct{} {
	missing := make(map[id.JobID]struct{})
	for _, j := range m.jobs {
		for _, dep := range j.Dependencies {
			if _, ok := m.jobs[dep]; !ok {
				missing[dep] = struct{}{}
			}
		}
	}
	return missing
}

func finishedAt(j *job.Job) time.Time {
	if j.CompletedAt != nil {
		return *j.CompletedAt
	}
	return j.UpdatedAt
}

package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/lanes"
	"github.com/xraph/lanes/engine"
	"github.com/xraph/lanes/id"
	"github.com/xraph/lanes/job"
	"github.com/xraph/lanes/store/memory"
)

func seed(t *testing.T, s *memory.Store, jobType string, status job.Status) *job.Job {
	t.Helper()
	now := time.Now().Add(-time.Minute)
	j := &job.Job{
		ID:          id.NewJobID(),
		Type:        jobType,
		Priority:    job.PriorityNormal,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
		ScheduledAt: now,
		MaxRetries:  3,
		Timeout:     time.Second,
		Version:     3,
	}
	switch status {
	case job.StatusProcessing:
		j.StartedAt = &now
		j.OwnerWorkerID = id.NewWorkerID()
	case job.StatusRetrying:
		j.RetryCount = 1
		j.LastError = "previous attempt failed"
	case job.StatusCompleted, job.StatusDead:
		j.CompletedAt = &now
	}
	if err := s.Upsert(context.Background(), j); err != nil {
		t.Fatalf("seed Upsert: %v", err)
	}
	return j
}

func TestManager_CrashRecovery(t *testing.T) {
	s := memory.New()
	interrupted := seed(t, s, "resume", job.StatusProcessing)
	retrying := seed(t, s, "resume", job.StatusRetrying)
	pending := seed(t, s, "resume", job.StatusPending)

	m := newManager(t, s)
	m.RegisterJobHandler("resume", func(context.Context, *job.Job) error { return nil })
	start(t, m)

	for _, j := range []*job.Job{interrupted, retrying} {
		got, err := m.GetJobStatus(j.ID)
		if err != nil {
			t.Fatalf("recovered job %s not indexed: %v", j.ID, err)
		}
		if got.Status != job.StatusPending {
			t.Errorf("recovered %s status = %s, want pending", j.ID, got.Status)
		}
		if !got.OwnerWorkerID.IsNil() {
			t.Errorf("recovered %s still owned by %s", j.ID, got.OwnerWorkerID)
		}

		stored, err := s.GetJob(context.Background(), j.ID)
		if err != nil {
			t.Fatalf("GetJob: %v", err)
		}
		if stored.Status != job.StatusPending || stored.Version <= j.Version {
			t.Errorf("normalised record not persisted: status=%s version=%d", stored.Status, stored.Version)
		}
	}

	registerWorker(t, m, "w", 2, "resume")
	for _, j := range []*job.Job{interrupted, retrying, pending} {
		waitStatus(t, m, j.ID, job.StatusCompleted)
	}

	if r, _ := m.GetJobStatus(retrying.ID); r.RetryCount != 1 {
		t.Errorf("recovery reset retry count to %d, want 1", r.RetryCount)
	}
}

func TestManager_RecoveryResolvesCompletedDependencies(t *testing.T) {
	s := memory.New()
	done := seed(t, s, "step", job.StatusCompleted)
	child := seed(t, s, "step", job.StatusPending)
	child.Dependencies = []id.JobID{done.ID}
	child.Version++
	if err := s.Upsert(context.Background(), child); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	m := newManager(t, s)
	m.RegisterJobHandler("step", func(context.Context, *job.Job) error { return nil })
	start(t, m)

	if j, err := m.GetJobStatus(done.ID); err != nil || j.Status != job.StatusCompleted {
		t.Fatalf("completed dependency not indexed: %v", err)
	}

	registerWorker(t, m, "w", 1, "step")
	waitStatus(t, m, child.ID, job.StatusCompleted)
}

func TestManager_RestoreDeadLetters(t *testing.T) {
	s := memory.New()
	dead := seed(t, s, "revive", job.StatusDead)

	m := newManager(t, s)
	m.RegisterJobHandler("revive", func(context.Context, *job.Job) error { return nil })
	start(t, m)

	entries := m.ListDeadLetterJobs()
	if len(entries) != 1 || entries[0].ID != dead.ID {
		t.Fatalf("dead letters = %v, want [%s]", entries, dead.ID)
	}

	registerWorker(t, m, "w", 1, "revive")
	if !m.RetryDeadJob(context.Background(), dead.ID) {
		t.Fatal("RetryDeadJob returned false for restored entry")
	}
	waitStatus(t, m, dead.ID, job.StatusCompleted)
}

func TestManager_RestoreDeadLettersDisabled(t *testing.T) {
	s := memory.New()
	dead := seed(t, s, "revive", job.StatusDead)

	cfg := fastConfig()
	cfg.RestoreDeadLetters = false
	m := newManager(t, s, engine.WithConfig(cfg))
	start(t, m)

	if n := len(m.ListDeadLetterJobs()); n != 0 {
		t.Errorf("dead letters = %d, want 0", n)
	}
	if _, err := m.GetJobStatus(dead.ID); !errors.Is(err, lanes.ErrJobNotFound) {
		t.Errorf("unreferenced dead job indexed: %v", err)
	}
}

func TestManager_StartFailsWhenStoreFails(t *testing.T) {
	s := memory.New()
	_ = s.Close()

	m := newManager(t, s)
	if err := m.Start(context.Background()); !errors.Is(err, lanes.ErrStoreClosed) {
		t.Errorf("Start = %v, want ErrStoreClosed", err)
	}
}

func TestManager_PersistenceFailureDuringProcessingIsLogged(t *testing.T) {
	s := &failingStore{Store: memory.New()}
	m := newManager(t, s)
	m.RegisterJobHandler("x", func(context.Context, *job.Job) error { return nil })
	start(t, m)

	jobID := addJob(t, m, "x")
	s.fail.Store(true)
	registerWorker(t, m, "w", 1, "x")

	// In-memory state advances even though every write fails.
	waitStatus(t, m, jobID, job.StatusCompleted)

	stored, err := s.GetJob(context.Background(), jobID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if stored.Status != job.StatusPending {
		t.Errorf("stored status = %s, want pending (writes failed)", stored.Status)
	}
}

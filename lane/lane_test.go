package lane_test

import (
	"testing"
	"time"

	"github.com/xraph/lanes/id"
	"github.com/xraph/lanes/job"
	"github.com/xraph/lanes/lane"
)

func newJob(p job.Priority, at time.Time) *job.Job {
	return &job.Job{ID: id.NewJobID(), Type: "t", Priority: p, Status: job.StatusPending, ScheduledAt: at}
}

func acceptAll(*job.Job) bool { return true }

func TestTake_PriorityOrder(t *testing.T) {
	now := time.Now()
	s := lane.New()

	low := newJob(job.PriorityLow, now.Add(-3*time.Second))
	normal := newJob(job.PriorityNormal, now.Add(-2*time.Second))
	critical := newJob(job.PriorityCritical, now.Add(-time.Second))
	for _, j := range []*job.Job{low, normal, critical} {
		s.Push(j)
	}

	for _, want := range []*job.Job{critical, normal, low} {
		got, ok := s.Take(now, acceptAll)
		if !ok || got.ID != want.ID {
			t.Fatalf("Take = %v, want %v (%s)", got, want.ID, want.Priority)
		}
	}
	if _, ok := s.Take(now, acceptAll); ok {
		t.Fatal("expected empty set")
	}
}

func TestTake_ScheduledOrderWithinLane(t *testing.T) {
	now := time.Now()
	s := lane.New()

	later := newJob(job.PriorityHigh, now.Add(-time.Second))
	earlier := newJob(job.PriorityHigh, now.Add(-time.Minute))
	s.Push(later)
	s.Push(earlier)

	got, _ := s.Take(now, acceptAll)
	if got.ID != earlier.ID {
		t.Errorf("expected earliest scheduled job first")
	}
}

func TestTake_FIFOForEqualSchedule(t *testing.T) {
	now := time.Now()
	s := lane.New()

	var pushed []*job.Job
	for range 5 {
		j := newJob(job.PriorityNormal, now)
		pushed = append(pushed, j)
		s.Push(j)
	}
	for _, want := range pushed {
		got, _ := s.Take(now, acceptAll)
		if got.ID != want.ID {
			t.Fatalf("FIFO order broken")
		}
	}
}

func TestTake_SkipsFutureAndRejected(t *testing.T) {
	now := time.Now()
	s := lane.New()

	future := newJob(job.PriorityCritical, now.Add(time.Hour))
	rejected := newJob(job.PriorityHigh, now.Add(-time.Minute))
	rejected.Type = "other"
	accepted := newJob(job.PriorityBackground, now)
	s.Push(future)
	s.Push(rejected)
	s.Push(accepted)

	offered := map[id.JobID]bool{}
	got, ok := s.Take(now, func(j *job.Job) bool {
		offered[j.ID] = true
		return j.Type == "t"
	})
	if !ok || got.ID != accepted.ID {
		t.Fatalf("expected the background job, got %v", got)
	}
	if offered[future.ID] {
		t.Error("future job offered to predicate")
	}
	if !s.Contains(rejected.ID) || !s.Contains(future.ID) {
		t.Error("rejected or future job removed")
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
}

func TestPush_MovesExisting(t *testing.T) {
	now := time.Now()
	s := lane.New()

	j := newJob(job.PriorityLow, now)
	s.Push(j)
	j.Priority = job.PriorityCritical
	s.Push(j)

	if s.Len() != 1 || s.LenBy(job.PriorityLow) != 0 || s.LenBy(job.PriorityCritical) != 1 {
		t.Errorf("re-push did not move job: len=%d", s.Len())
	}
}

func TestRemoveAndNextAt(t *testing.T) {
	now := time.Now()
	s := lane.New()

	if _, ok := s.NextAt(); ok {
		t.Fatal("NextAt on empty set should report false")
	}

	a := newJob(job.PriorityNormal, now.Add(time.Minute))
	b := newJob(job.PriorityBackground, now.Add(time.Second))
	s.Push(a)
	s.Push(b)

	if next, _ := s.NextAt(); !next.Equal(b.ScheduledAt) {
		t.Errorf("NextAt = %v, want %v", next, b.ScheduledAt)
	}
	if !s.Remove(b.ID) || s.Remove(b.ID) {
		t.Error("Remove should succeed once")
	}
	if next, _ := s.NextAt(); !next.Equal(a.ScheduledAt) {
		t.Errorf("NextAt = %v, want %v", next, a.ScheduledAt)
	}

	var seen int
	s.Each(func(*job.Job) bool { seen++; return true })
	if seen != 1 {
		t.Errorf("Each visited %d", seen)
	}
}

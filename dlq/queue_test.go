package dlq_test

import (
	"testing"
	"time"

	"github.com/xraph/lanes/dlq"
	"github.com/xraph/lanes/id"
	"github.com/xraph/lanes/job"
)

func deadJob(jobType string) *job.Job {
	return &job.Job{
		ID:         id.NewJobID(),
		Type:       jobType,
		Status:     job.StatusDead,
		Payload:    []byte(`{"to":"alice@example.com"}`),
		RetryCount: 4,
		MaxRetries: 3,
		LastError:  "smtp timeout",
	}
}

func TestNewEntry_SnapshotsJob(t *testing.T) {
	j := deadJob("email.send")
	now := time.Now()

	e := dlq.NewEntry(j, now)
	if e.Error != "smtp timeout" {
		t.Errorf("Error = %q", e.Error)
	}
	if !e.FailedAt.Equal(now) {
		t.Errorf("FailedAt = %v", e.FailedAt)
	}

	j.LastError = "mutated"
	j.Payload[0] = '['
	if e.Job.LastError != "smtp timeout" || e.Job.Payload[0] != '{' {
		t.Error("entry shares memory with the job")
	}
}

func TestQueue_EvictsOldestWhenFull(t *testing.T) {
	q := dlq.New(2)
	a, b, c := deadJob("a"), deadJob("b"), deadJob("c")

	if ev := q.Push(dlq.NewEntry(a, time.Now())); ev != nil {
		t.Fatalf("unexpected eviction %v", ev.Job.ID)
	}
	if ev := q.Push(dlq.NewEntry(b, time.Now())); ev != nil {
		t.Fatalf("unexpected eviction %v", ev.Job.ID)
	}
	ev := q.Push(dlq.NewEntry(c, time.Now()))
	if ev == nil || ev.Job.ID != a.ID {
		t.Fatalf("expected %v evicted, got %v", a.ID, ev)
	}

	if q.Len() != 2 || q.Cap() != 2 {
		t.Errorf("Len=%d Cap=%d", q.Len(), q.Cap())
	}
	if _, ok := q.Get(a.ID); ok {
		t.Error("evicted entry still indexed")
	}

	entries := q.List(dlq.ListOpts{})
	if len(entries) != 2 || entries[0].Job.ID != b.ID || entries[1].Job.ID != c.ID {
		t.Errorf("List order wrong")
	}
}

func TestQueue_PushSameJobReplaces(t *testing.T) {
	q := dlq.New(3)
	j := deadJob("a")

	q.Push(dlq.NewEntry(j, time.Now()))
	j.LastError = "second failure"
	q.Push(dlq.NewEntry(j, time.Now()))

	if q.Len() != 1 {
		t.Fatalf("Len = %d, want 1", q.Len())
	}
	e, _ := q.Get(j.ID)
	if e.Error != "second failure" {
		t.Errorf("Error = %q", e.Error)
	}
}

func TestQueue_Remove(t *testing.T) {
	q := dlq.New(3)
	a, b := deadJob("a"), deadJob("b")
	q.Push(dlq.NewEntry(a, time.Now()))
	q.Push(dlq.NewEntry(b, time.Now()))

	e, ok := q.Remove(a.ID)
	if !ok || e.Job.ID != a.ID {
		t.Fatal("Remove did not return the entry")
	}
	if _, ok := q.Remove(a.ID); ok {
		t.Error("second Remove should report false")
	}
	if q.Len() != 1 {
		t.Errorf("Len = %d, want 1", q.Len())
	}
}

func TestQueue_ListFilters(t *testing.T) {
	q := dlq.New(10)
	for _, typ := range []string{"email", "webhook", "email", "email"} {
		q.Push(dlq.NewEntry(deadJob(typ), time.Now()))
	}

	if got := q.List(dlq.ListOpts{Type: "email"}); len(got) != 3 {
		t.Errorf("type filter: got %d, want 3", len(got))
	}
	if got := q.List(dlq.ListOpts{Type: "email", Offset: 1, Limit: 1}); len(got) != 1 {
		t.Errorf("offset/limit: got %d, want 1", len(got))
	}
	if got := q.List(dlq.ListOpts{Offset: 10}); len(got) != 0 {
		t.Errorf("offset past end: got %d", len(got))
	}
}

func TestQueue_MinimumCapacity(t *testing.T) {
	q := dlq.New(0)
	if q.Cap() != 1 {
		t.Errorf("Cap = %d, want 1", q.Cap())
	}
}

package worker_test

import (
	"errors"
	"testing"
	"time"

	"github.com/xraph/lanes"
	"github.com/xraph/lanes/id"
	"github.com/xraph/lanes/worker"
)

func TestNew_Validation(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name        string
		workerName  string
		types       []string
		concurrency int
	}{
		{"empty name", " ", []string{"a"}, 1},
		{"zero concurrency", "w", []string{"a"}, 0},
		{"no types", "w", nil, 1},
		{"blank types", "w", []string{"", "  "}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := worker.New(tt.workerName, tt.types, tt.concurrency, now)
			if !errors.Is(err, lanes.ErrInvalidWorker) {
				t.Errorf("expected ErrInvalidWorker, got %v", err)
			}
		})
	}
}

func TestWorker_SupportsAndCapacity(t *testing.T) {
	w, err := worker.New("mailer", []string{"email.send", "email.send", "sms.send"}, 2, time.Now())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if got := w.Types(); len(got) != 2 {
		t.Errorf("duplicate types not removed: %v", got)
	}
	if !w.Supports("email.send") || w.Supports("report.build") {
		t.Error("Supports mismatch")
	}

	a, b := id.NewJobID(), id.NewJobID()
	w.Assign(a)
	if !w.HasCapacity() {
		t.Error("expected capacity with 1/2 slots used")
	}
	w.Assign(b)
	if w.HasCapacity() {
		t.Error("expected no capacity with 2/2 slots used")
	}
	if !w.Owns(a) || w.ActiveCount() != 2 {
		t.Error("active set mismatch")
	}
	if !w.Release(a) || w.Release(a) {
		t.Error("Release should succeed exactly once")
	}

	w.Active = false
	if w.HasCapacity() {
		t.Error("inactive worker should report no capacity")
	}
}

func TestWorker_Wildcard(t *testing.T) {
	w, _ := worker.New("any", []string{worker.AnyType}, 1, time.Now())
	if !w.Supports("whatever") {
		t.Error("wildcard worker should support every type")
	}
}

func TestWorker_StatsAndStaleness(t *testing.T) {
	now := time.Now()
	w, _ := worker.New("w", []string{"a"}, 1, now)

	w.RecordSuccess(100 * time.Millisecond)
	w.RecordSuccess(300 * time.Millisecond)
	w.RecordFailure()

	info := w.Info()
	if info.Processed != 2 || info.Failed != 1 {
		t.Errorf("processed=%d failed=%d", info.Processed, info.Failed)
	}
	if info.AvgProcessingTimeMs != 200 {
		t.Errorf("avg = %v, want 200", info.AvgProcessingTimeMs)
	}

	if w.Stale(now.Add(3*time.Second), 3*time.Second) {
		t.Error("heartbeat exactly at the limit is not stale")
	}
	if !w.Stale(now.Add(3*time.Second+time.Millisecond), 3*time.Second) {
		t.Error("expected stale worker")
	}
	w.Heartbeat(now.Add(time.Minute))
	if w.Stale(now.Add(time.Minute), time.Second) {
		t.Error("fresh heartbeat should not be stale")
	}
}

package worker_test

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xraph/lanes/id"
	"github.com/xraph/lanes/job"
	"github.com/xraph/lanes/worker"
)

// fakeSource hands out queued jobs up to a concurrency bound.
type fakeSource struct {
	mu          sync.Mutex
	queue       []*job.Job
	active      int
	concurrency int
	maxActive   int
	heartbeats  int
	alive       bool
	finished    []id.JobID
}

func (s *fakeSource) Heartbeat(id.WorkerID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heartbeats++
	return s.alive
}

func (s *fakeSource) Claim(context.Context, id.WorkerID) (*job.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 || s.active >= s.concurrency {
		return nil, false
	}
	j := s.queue[0]
	s.queue = s.queue[1:]
	s.active++
	s.maxActive = max(s.maxActive, s.active)
	return j, true
}

func (s *fakeSource) Finish(_ context.Context, _ id.WorkerID, j *job.Job, _ time.Duration, _ error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active--
	s.finished = append(s.finished, j.ID)
}

func (s *fakeSource) push(j *job.Job) {
	s.mu.Lock()
	s.queue = append(s.queue, j)
	s.mu.Unlock()
}

func (s *fakeSource) snapshot() (finished, maxActive, heartbeats int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.finished), s.maxActive, s.heartbeats
}

func newLoop(src worker.Source, reg *job.Registry, interval time.Duration, inflight *sync.WaitGroup) *worker.Loop {
	exec := worker.NewExecutor(reg, slog.Default())
	return worker.NewLoop(context.Background(), id.NewWorkerID(), src, exec, interval, inflight, slog.Default())
}

func TestLoop_RespectsConcurrency(t *testing.T) {
	reg := job.NewRegistry()
	reg.Register("work", func(context.Context, *job.Job) error {
		time.Sleep(20 * time.Millisecond)
		return nil
	})

	src := &fakeSource{concurrency: 2, alive: true}
	for range 6 {
		src.push(&job.Job{ID: id.NewJobID(), Type: "work"})
	}

	var inflight sync.WaitGroup
	l := newLoop(src, reg, 5*time.Millisecond, &inflight)
	go l.Run()

	deadline := time.After(5 * time.Second)
	for {
		finished, _, _ := src.snapshot()
		if finished == 6 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("timed out: finished %d of 6", finished)
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}

	l.Stop()
	<-l.Done()
	inflight.Wait()

	if _, maxActive, _ := src.snapshot(); maxActive > 2 {
		t.Errorf("max active = %d, want <= 2", maxActive)
	}
}

func TestLoop_WakeTriggersClaim(t *testing.T) {
	reg := job.NewRegistry()
	var ran atomic.Bool
	reg.Register("work", func(context.Context, *job.Job) error {
		ran.Store(true)
		return nil
	})

	src := &fakeSource{concurrency: 1, alive: true}
	var inflight sync.WaitGroup
	l := newLoop(src, reg, time.Hour, &inflight)
	go l.Run()
	defer l.Stop()

	// The first tick found nothing; only a wake can pick this up in time.
	time.Sleep(10 * time.Millisecond)
	src.push(&job.Job{ID: id.NewJobID(), Type: "work"})
	l.Wake()

	deadline := time.After(2 * time.Second)
	for !ran.Load() {
		select {
		case <-deadline:
			t.Fatal("job not picked up after Wake")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func TestLoop_ExitsWhenInactive(t *testing.T) {
	src := &fakeSource{concurrency: 1, alive: false}
	var inflight sync.WaitGroup
	l := newLoop(src, job.NewRegistry(), time.Millisecond, &inflight)
	go l.Run()

	select {
	case <-l.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit for inactive worker")
	}
	if _, _, heartbeats := src.snapshot(); heartbeats != 1 {
		t.Errorf("heartbeats = %d, want 1", heartbeats)
	}

	// Stop after exit must not block.
	l.Stop()
}

// blockingSource parks Claim until release is closed.
type blockingSource struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *blockingSource) Heartbeat(id.WorkerID) bool { return true }

func (s *blockingSource) Claim(context.Context, id.WorkerID) (*job.Job, bool) {
	s.once.Do(func() { close(s.entered) })
	<-s.release
	return nil, false
}

func (s *blockingSource) Finish(context.Context, id.WorkerID, *job.Job, time.Duration, error) {}

func TestLoop_StopDoesNotWaitForClaim(t *testing.T) {
	src := &blockingSource{entered: make(chan struct{}), release: make(chan struct{})}
	var inflight sync.WaitGroup
	l := newLoop(src, job.NewRegistry(), time.Millisecond, &inflight)
	go l.Run()
	<-src.entered

	stopped := make(chan struct{})
	go func() {
		l.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on a loop stuck in Claim")
	}

	select {
	case <-l.Done():
		t.Fatal("loop exited while Claim was still blocked")
	default:
	}

	close(src.release)
	select {
	case <-l.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit after Claim returned")
	}
}

package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/lanes/id"
	"github.com/xraph/lanes/job"
)

// Source is the side of the queue manager a dispatch loop talks to.
type Source interface {
	// Heartbeat records liveness for the worker and reports whether it is
	// still active. The loop exits when it returns false.
	Heartbeat(workerID id.WorkerID) bool

	// Claim atomically takes the next eligible job for the worker, marks it
	// processing and returns a copy. It returns false when the worker is
	// full or nothing is eligible.
	Claim(ctx context.Context, workerID id.WorkerID) (*job.Job, bool)

	// Finish reports the outcome of an attempt.
	Finish(ctx context.Context, workerID id.WorkerID, j *job.Job, elapsed time.Duration, err error)
}

// Loop is the dispatch loop of one worker.
type Loop struct {
	workerID id.WorkerID
	source   Source
	executor *Executor
	interval time.Duration
	inflight *sync.WaitGroup
	ctx      context.Context
	logger   *slog.Logger

	wake     chan struct{}
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewLoop creates a dispatch loop. Handlers run with ctx, and every
// started attempt is tracked on inflight until Finish returns.
func NewLoop(
	ctx context.Context,
	workerID id.WorkerID,
	source Source,
	executor *Executor,
	interval time.Duration,
	inflight *sync.WaitGroup,
	logger *slog.Logger,
) *Loop {
	return &Loop{
		workerID: workerID,
		source:   source,
		executor: executor,
		interval: interval,
		inflight: inflight,
		ctx:      ctx,
		logger:   logger,
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run ticks until Stop is called or the worker is deactivated.
func (l *Loop) Run() {
	defer close(l.done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		if !l.tick() {
			return
		}
		select {
		case <-l.stop:
			return
		case <-ticker.C:
		case <-l.wake:
		}
	}
}

// Wake requests an immediate tick. It never blocks.
func (l *Loop) Wake() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Stop signals the loop to end and returns without waiting. A loop blocked
// in Claim exits once Claim returns; Done reports when it has. Attempts
// already started keep running and are tracked by the inflight group.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Done is closed when the loop has returned.
func (l *Loop) Done() <-chan struct{} { return l.done }

func (l *Loop) tick() bool {
	select {
	case <-l.stop:
		return false
	default:
	}

	if !l.source.Heartbeat(l.workerID) {
		l.logger.Info("worker inactive, dispatch loop exiting",
			slog.String("worker_id", l.workerID.String()),
		)
		return false
	}

	for {
		j, ok := l.source.Claim(l.ctx, l.workerID)
		if !ok {
			return true
		}
		l.inflight.Add(1)
		go l.execute(j)
	}
}

func (l *Loop) execute(j *job.Job) {
	defer l.inflight.Done()

	elapsed, err := l.executor.Execute(l.ctx, j)
	l.source.Finish(context.WithoutCancel(l.ctx), l.workerID, j, elapsed, err)
}

package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xraph/lanes/ext"
	"github.com/xraph/lanes/id"
	"github.com/xraph/lanes/job"
	"github.com/xraph/lanes/worker"
)

// Compile-time interface checks.
var (
	_ ext.Extension        = (*Broker)(nil)
	_ ext.JobEnqueued      = (*Broker)(nil)
	_ ext.JobStarted       = (*Broker)(nil)
	_ ext.JobCompleted     = (*Broker)(nil)
	_ ext.JobFailed        = (*Broker)(nil)
	_ ext.JobRetrying      = (*Broker)(nil)
	_ ext.JobDead          = (*Broker)(nil)
	_ ext.JobReclaimed     = (*Broker)(nil)
	_ ext.JobRequeued      = (*Broker)(nil)
	_ ext.WorkerRegistered = (*Broker)(nil)
	_ ext.WorkerLost       = (*Broker)(nil)
	_ ext.Shutdown         = (*Broker)(nil)
)

// DefaultBufferSize is the default per-subscriber event buffer.
const DefaultBufferSize = 256

// Broker receives lifecycle events as an extension and fans them out to
// subscribers via topic-based pub/sub.
type Broker struct {
	topics *TopicRegistry
	logger *slog.Logger
	now    func() time.Time

	subscribers sync.Map // subscriberID → *Subscriber
	nextID      atomic.Uint64

	totalPublished atomic.Int64
	totalDropped   atomic.Int64

	bufferSize int
}

// BrokerOption configures a Broker.
type BrokerOption func(*Broker)

// WithBufferSize sets the per-subscriber event buffer size.
func WithBufferSize(size int) BrokerOption {
	return func(b *Broker) { b.bufferSize = size }
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) BrokerOption {
	return func(b *Broker) { b.now = now }
}

// NewBroker creates a new stream broker.
func NewBroker(logger *slog.Logger, opts ...BrokerOption) *Broker {
	b := &Broker{
		topics:     NewTopicRegistry(),
		logger:     logger,
		now:        time.Now,
		bufferSize: DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name implements ext.Extension.
func (b *Broker) Name() string { return "stream-broker" }

// Subscribe creates a subscriber on the given topics. With no topics it
// receives the firehose. Call Unsubscribe when done.
func (b *Broker) Subscribe(topics ...string) (*Subscriber, error) {
	for _, t := range topics {
		if err := ValidateTopic(t); err != nil {
			return nil, err
		}
	}
	if len(topics) == 0 {
		topics = []string{TopicFirehose}
	}

	sub := newSubscriber(fmt.Sprintf("sub-%d", b.nextID.Add(1)), b.bufferSize)
	b.subscribers.Store(sub.ID(), sub)
	for _, t := range topics {
		b.topics.Subscribe(t, sub)
	}
	return sub, nil
}

// Unsubscribe removes a subscriber from all topics and closes it.
func (b *Broker) Unsubscribe(sub *Subscriber) {
	b.topics.UnsubscribeAll(sub.ID())
	if _, ok := b.subscribers.LoadAndDelete(sub.ID()); ok {
		sub.close()
	}
}

// BrokerStats contains broker metrics.
type BrokerStats struct {
	TopicCount      int   `json:"topic_count"`
	SubscriberCount int   `json:"subscriber_count"`
	TotalPublished  int64 `json:"total_published"`
	TotalDropped    int64 `json:"total_dropped"`
}

// Stats returns broker statistics.
func (b *Broker) Stats() BrokerStats {
	count := 0
	b.subscribers.Range(func(_, _ any) bool {
		count++
		return true
	})
	return BrokerStats{
		TopicCount:      b.topics.TopicCount(),
		SubscriberCount: count,
		TotalPublished:  b.totalPublished.Load(),
		TotalDropped:    b.totalDropped.Load(),
	}
}

func (b *Broker) publish(evt *Event) {
	delivered, dropped := b.topics.Broadcast(resolveTopics(evt), evt)
	b.totalPublished.Add(int64(delivered))
	if dropped > 0 {
		b.totalDropped.Add(int64(dropped))
		b.logger.Debug("stream: slow subscribers dropped event",
			slog.String("event", string(evt.Type)),
			slog.Int("dropped", dropped),
		)
	}
}

func (b *Broker) publishJob(t EventType, j *job.Job, data JobEventData) {
	data.JobID = j.ID.String()
	data.JobType = j.Type
	data.Priority = j.Priority.String()
	data.Status = string(j.Status)
	data.RetryCount = j.RetryCount
	b.publish(&Event{
		Type:      t,
		Timestamp: b.now().UTC(),
		JobType:   j.Type,
		Topic:     JobTopic(j.ID.String()),
		Data:      mustMarshal(data),
	})
}

func (b *Broker) publishWorker(t EventType, w worker.Info) {
	b.publish(&Event{
		Type:      t,
		Timestamp: b.now().UTC(),
		Data: mustMarshal(WorkerEventData{
			WorkerID:    w.ID.String(),
			Name:        w.Name,
			Types:       w.SupportedTypes,
			Concurrency: w.Concurrency,
		}),
	})
}

// mustMarshal panics on error; the payload types always encode.
func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic("stream: marshal event data: " + err.Error())
	}
	return data
}

// ── Job lifecycle hooks ─────────────────────────────

func (b *Broker) OnJobEnqueued(_ context.Context, j *job.Job) error {
	b.publishJob(EventJobEnqueued, j, JobEventData{})
	return nil
}

func (b *Broker) OnJobStarted(_ context.Context, j *job.Job) error {
	b.publishJob(EventJobStarted, j, JobEventData{})
	return nil
}

func (b *Broker) OnJobCompleted(_ context.Context, j *job.Job, elapsed time.Duration) error {
	b.publishJob(EventJobCompleted, j, JobEventData{ElapsedMs: elapsed.Milliseconds()})
	return nil
}

func (b *Broker) OnJobFailed(_ context.Context, j *job.Job, jobErr error) error {
	b.publishJob(EventJobFailed, j, JobEventData{Error: jobErr.Error()})
	return nil
}

func (b *Broker) OnJobRetrying(_ context.Context, j *job.Job, attempt int, nextRunAt time.Time) error {
	b.publishJob(EventJobRetrying, j, JobEventData{
		Attempt:   attempt,
		NextRunAt: nextRunAt.UTC().Format(time.RFC3339Nano),
	})
	return nil
}

func (b *Broker) OnJobDead(_ context.Context, j *job.Job, jobErr error) error {
	b.publishJob(EventJobDead, j, JobEventData{Error: jobErr.Error()})
	return nil
}

func (b *Broker) OnJobReclaimed(_ context.Context, j *job.Job, workerID id.WorkerID) error {
	b.publishJob(EventJobReclaimed, j, JobEventData{WorkerID: workerID.String()})
	return nil
}

func (b *Broker) OnJobRequeued(_ context.Context, j *job.Job) error {
	b.publishJob(EventJobRequeued, j, JobEventData{})
	return nil
}

// ── Worker lifecycle hooks ──────────────────────────

func (b *Broker) OnWorkerRegistered(_ context.Context, w worker.Info) error {
	b.publishWorker(EventWorkerRegistered, w)
	return nil
}

func (b *Broker) OnWorkerLost(_ context.Context, w worker.Info) error {
	b.publishWorker(EventWorkerLost, w)
	return nil
}

// ── Shutdown ────────────────────────────────────────

// OnShutdown closes every subscriber.
func (b *Broker) OnShutdown(_ context.Context) error {
	b.subscribers.Range(func(key, value any) bool {
		sub := value.(*Subscriber) //nolint:errcheck // sync.Map always stores *Subscriber
		b.topics.UnsubscribeAll(sub.ID())
		sub.close()
		b.subscribers.Delete(key)
		return true
	})
	b.logger.Info("stream broker shut down")
	return nil
}

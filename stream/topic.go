package stream

import (
	"fmt"
	"strings"
	"sync"
)

// Topic names follow a pattern:
//
//	job:<jobID>    events for a specific job
//	type:<name>    events for every job of one type
//	jobs           all job lifecycle events
//	workers        all worker lifecycle events
//	firehose       everything

const (
	TopicJobs     = "jobs"
	TopicWorkers  = "workers"
	TopicFirehose = "firehose"
)

// JobTopic returns the topic name for a specific job.
func JobTopic(jobID string) string { return "job:" + jobID }

// TypeTopic returns the topic name for a job type.
func TypeTopic(jobType string) string { return "type:" + jobType }

// TopicRegistry manages subscriber sets per topic.
// It is safe for concurrent use.
type TopicRegistry struct {
	mu     sync.RWMutex
	topics map[string]map[string]*Subscriber // topic → subscriberID → subscriber
}

// NewTopicRegistry creates an empty topic registry.
func NewTopicRegistry() *TopicRegistry {
	return &TopicRegistry{
		topics: make(map[string]map[string]*Subscriber),
	}
}

// Subscribe adds a subscriber to a topic, creating the topic if needed.
func (tr *TopicRegistry) Subscribe(topic string, sub *Subscriber) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	subs, ok := tr.topics[topic]
	if !ok {
		subs = make(map[string]*Subscriber)
		tr.topics[topic] = subs
	}
	subs[sub.ID()] = sub
}

// UnsubscribeAll removes a subscriber from every topic and drops topics
// left empty.
func (tr *TopicRegistry) UnsubscribeAll(subscriberID string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	for topic, subs := range tr.topics {
		delete(subs, subscriberID)
		if len(subs) == 0 {
			delete(tr.topics, topic)
		}
	}
}

// Broadcast sends evt once to every subscriber on any of topics and
// returns how many accepted it.
func (tr *TopicRegistry) Broadcast(topics []string, evt *Event) (delivered, dropped int) {
	tr.mu.RLock()
	seen := make(map[string]*Subscriber)
	for _, topic := range topics {
		for id, sub := range tr.topics[topic] {
			seen[id] = sub
		}
	}
	tr.mu.RUnlock()

	for _, sub := range seen {
		if sub.send(evt) {
			delivered++
		} else {
			dropped++
		}
	}
	return delivered, dropped
}

// TopicCount returns the number of active topics.
func (tr *TopicRegistry) TopicCount() int {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return len(tr.topics)
}

// SubscriberCount returns the number of subscribers on a topic.
func (tr *TopicRegistry) SubscriberCount(topic string) int {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return len(tr.topics[topic])
}

// resolveTopics returns all topics an event is published to.
func resolveTopics(evt *Event) []string {
	topics := []string{TopicFirehose}

	switch {
	case strings.HasPrefix(string(evt.Type), "job."):
		topics = append(topics, TopicJobs)
	case strings.HasPrefix(string(evt.Type), "worker."):
		topics = append(topics, TopicWorkers)
	}
	if evt.JobType != "" {
		topics = append(topics, TypeTopic(evt.JobType))
	}
	if evt.Topic != "" {
		topics = append(topics, evt.Topic)
	}
	return topics
}

// ValidateTopic checks whether a topic string is valid.
func ValidateTopic(topic string) error {
	switch topic {
	case TopicJobs, TopicWorkers, TopicFirehose:
		return nil
	}

	kind, name, ok := strings.Cut(topic, ":")
	if !ok || name == "" {
		return fmt.Errorf("stream: invalid topic %q", topic)
	}
	switch kind {
	case "job", "type":
		return nil
	default:
		return fmt.Errorf("stream: unknown topic kind %q", kind)
	}
}

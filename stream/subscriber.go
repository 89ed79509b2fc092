package stream

import "sync"

// Subscriber receives events from the topics it is subscribed to. Sends
// never block: an event that does not fit in the buffer is dropped.
type Subscriber struct {
	id string
	ch chan *Event

	mu     sync.RWMutex
	closed bool
}

func newSubscriber(id string, bufferSize int) *Subscriber {
	return &Subscriber{
		id: id,
		ch: make(chan *Event, bufferSize),
	}
}

// ID returns the subscriber identifier.
func (s *Subscriber) ID() string { return s.id }

// C returns the event channel. It is closed when the subscriber is
// removed or the broker shuts down.
func (s *Subscriber) C() <-chan *Event { return s.ch }

// send attempts a non-blocking delivery. It reports false when the
// subscriber is closed or its buffer is full.
func (s *Subscriber) send(evt *Event) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- evt:
		return true
	default:
		return false
	}
}

// close closes the channel. Safe to call multiple times.
func (s *Subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

package throttle

import (
	"sync"

	"golang.org/x/time/rate"
)

// Config defines admission limits for one job type.
type Config struct {
	// Type is the job type the limits apply to.
	Type string

	// MaxConcurrency limits how many jobs of this type may be processing
	// at once. Zero means no limit.
	MaxConcurrency int

	// RateLimit is the maximum sustained dispatches per second.
	// Zero disables rate limiting.
	RateLimit float64

	// RateBurst is the token-bucket burst size. Defaults to 1 when
	// RateLimit is set.
	RateBurst int
}

type typeState struct {
	config  Config
	limiter *rate.Limiter
	active  int
}

// Manager tracks admission state per job type. It is safe for concurrent
// use.
type Manager struct {
	mu    sync.Mutex
	types map[string]*typeState
}

// NewManager creates a Manager with the given configurations.
func NewManager(configs ...Config) *Manager {
	m := &Manager{types: make(map[string]*typeState, len(configs))}
	for _, cfg := range configs {
		m.types[cfg.Type] = newTypeState(cfg)
	}
	return m
}

func newTypeState(cfg Config) *typeState {
	ts := &typeState{config: cfg}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		ts.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return ts
}

// Acquire reports whether a job of jobType may start now. On success the
// active count is incremented and the caller must call Release later.
// The concurrency cap is checked before a rate token is spent.
func (m *Manager) Acquire(jobType string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	ts := m.types[jobType]
	if ts == nil {
		return true
	}
	if ts.config.MaxConcurrency > 0 && ts.active >= ts.config.MaxConcurrency {
		return false
	}
	if ts.limiter != nil && !ts.limiter.Allow() {
		return false
	}
	ts.active++
	return true
}

// Release returns a concurrency slot for jobType.
func (m *Manager) Release(jobType string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ts := m.types[jobType]; ts != nil && ts.active > 0 {
		ts.active--
	}
}

// Set installs or replaces the configuration for cfg.Type, keeping the
// current active count.
func (m *Manager) Set(cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ts := newTypeState(cfg)
	if existing := m.types[cfg.Type]; existing != nil {
		ts.active = existing.active
	}
	m.types[cfg.Type] = ts
}

// Remove drops the limits for jobType.
func (m *Manager) Remove(jobType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.types, jobType)
}

// Active returns how many jobs of jobType currently hold a slot.
func (m *Manager) Active(jobType string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ts := m.types[jobType]; ts != nil {
		return ts.active
	}
	return 0
}

// Configs returns the installed configurations.
func (m *Manager) Configs() []Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Config, 0, len(m.types))
	for _, ts := range m.types {
		out = append(out, ts.config)
	}
	return out
}

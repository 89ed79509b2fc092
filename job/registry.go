package job

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// HandlerFunc executes a job. A nil error marks the attempt successful.
type HandlerFunc func(ctx context.Context, j *Job) error

// Registry maps job types to handlers. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewRegistry creates an empty job registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]HandlerFunc),
	}
}

// Register installs h for jobType, replacing any earlier handler.
func (r *Registry) Register(jobType string, h HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[jobType] = h
}

// RegisterDefinition registers a typed job definition. The typed handler
// is wrapped in a closure that JSON-decodes the payload into T first.
//
// This is a package-level generic function because Go does not allow
// generic methods on non-generic receiver types.
func RegisterDefinition[T any](r *Registry, def *Definition[T]) {
	r.Register(def.Name, func(ctx context.Context, j *Job) error {
		var t T
		if len(j.Payload) > 0 {
			if err := json.Unmarshal(j.Payload, &t); err != nil {
				return fmt.Errorf("unmarshal payload for job %q: %w", def.Name, err)
			}
		}
		return def.Handler(ctx, t)
	})
}

// Get returns the handler for jobType.
func (r *Registry) Get(jobType string) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[jobType]
	return h, ok
}

// Has reports whether a handler is registered for jobType.
func (r *Registry) Has(jobType string) bool {
	_, ok := r.Get(jobType)
	return ok
}

// Types returns all registered job types, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

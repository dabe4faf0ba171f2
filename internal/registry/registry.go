// Package registry implements the handler lookup table workers
// consult before executing a task: a concurrency-safe map from task
// name to Handler, with non-blocking lookup semantics.
package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/relaytask/taskqueue/internal/metrics"
	"github.com/relaytask/taskqueue/internal/task"
)

// Handler executes the work named by a Signature and returns its result.
type Handler func(ctx context.Context, args []any, kwargs map[string]any) ([]byte, error)

// Registry maps task names to Handlers. Get uses TryRLock so a worker
// racing a concurrent Register never blocks: it fails fast with
// task.ErrRegistryBusy instead, per the non-blocking contract workers
// rely on to keep polling other tasks.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	metrics  *metrics.Metrics
}

// New returns an empty Registry recording contention against m.
func New(m *metrics.Metrics) *Registry {
	return &Registry{handlers: make(map[string]Handler), metrics: m}
}

// Register adds or replaces the handler for name.
func (r *Registry) Register(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[name] = h
}

// Get returns the handler registered for name. If the registry's lock
// is currently held (e.g. a concurrent Register), Get returns
// task.ErrRegistryBusy rather than blocking.
func (r *Registry) Get(name string) (Handler, error) {
	if !r.mu.TryRLock() {
		r.metrics.RecordRegistryBusy()
		return nil, task.ErrRegistryBusy
	}
	defer r.mu.RUnlock()

	h, ok := r.handlers[name]
	if !ok {
		return nil, task.HandlerNotFound(name)
	}
	return h, nil
}

// Names returns the sorted list of registered task names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

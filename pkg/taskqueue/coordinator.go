// Package taskqueue is the public façade over the queue/store/registry/
// worker internals: a Coordinator built via NewBuilder that lets
// callers register handlers, enqueue work, and inspect or await task
// results without touching the internal packages directly.
package taskqueue

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/relaytask/taskqueue/internal/metrics"
	"github.com/relaytask/taskqueue/internal/queue"
	"github.com/relaytask/taskqueue/internal/registry"
	"github.com/relaytask/taskqueue/internal/store"
	"github.com/relaytask/taskqueue/internal/task"
	"github.com/relaytask/taskqueue/internal/worker"
)

// Re-exported types so callers never need to import the internal
// packages directly.
type (
	Task      = task.Task
	Signature = task.Signature
	Status    = task.Status
	Error     = task.Error
	Handler   = registry.Handler
)

const (
	StatusPending   = task.StatusPending
	StatusRunning   = task.StatusRunning
	StatusCompleted = task.StatusCompleted
	StatusFailed    = task.StatusFailed
	StatusCancelled = task.StatusCancelled
)

// NewSignature builds a Signature, the (name, args, kwargs) triple
// enqueued as a task's payload.
func NewSignature(name string, args []any, kwargs map[string]interface{}) Signature {
	return task.NewSignature(name, args, kwargs)
}

// Coordinator is the top-level entry point: register handlers, enqueue
// tasks, start/stop the worker pool, and read back task state.
type Coordinator struct {
	queue    queue.Queue
	store    store.Store
	registry *registry.Registry
	pool     *worker.Pool
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

// RegisterHandler wires name to handler. Safe to call before or after Start.
func (c *Coordinator) RegisterHandler(name string, handler Handler) {
	c.registry.Register(name, handler)
}

// Enqueue creates a task from signature, mirrors it to the Store, and
// pushes it onto the Queue. Returns the generated task ID.
func (c *Coordinator) Enqueue(ctx context.Context, sig Signature, maxRetries int) (string, error) {
	payload, err := sig.ToBytes()
	if err != nil {
		return "", fmt.Errorf("failed to encode signature: %w", err)
	}

	t := task.New(sig.Name, payload, maxRetries)

	if err := c.store.Store(ctx, t); err != nil {
		return "", fmt.Errorf("failed to mirror task to store: %w", err)
	}
	if err := c.queue.Push(ctx, t); err != nil {
		return "", fmt.Errorf("failed to enqueue task: %w", err)
	}

	c.metrics.RecordTaskSubmission(sig.Name)
	c.log.Debug().Str("task_id", t.ID).Str("name", t.Name).Msg("task enqueued")
	return t.ID, nil
}

// Get reads a task's latest state. Per the Store-only read policy,
// this never consults the Queue: a task not yet mirrored to the Store
// cannot happen, since Enqueue mirrors before pushing.
func (c *Coordinator) Get(ctx context.Context, id string) (*Task, error) {
	return c.store.Load(ctx, id)
}

// List returns every task the Store currently knows about.
func (c *Coordinator) List(ctx context.Context) ([]*Task, error) {
	return c.store.List(ctx)
}

// Start spawns the worker pool.
func (c *Coordinator) Start(ctx context.Context) {
	c.pool.Start(ctx)
}

// Shutdown broadcasts a stop signal to every worker and waits for them
// to drain, bounded by the configured shutdown timeout.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	if err := c.pool.Shutdown(ctx); err != nil {
		return err
	}
	if err := c.queue.Close(); err != nil {
		return err
	}
	return c.store.Close()
}

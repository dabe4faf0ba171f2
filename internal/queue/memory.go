package queue

import (
	"context"
	"sync"

	"github.com/relaytask/taskqueue/internal/task"
)

// MemoryQueue is an in-process Queue backed by a map and a LIFO slice
// of pending IDs. Useful for the bundled examples and unit tests; not
// shared across processes.
type MemoryQueue struct {
	mu      sync.Mutex
	tasks   map[string]*task.Task
	pending []string
}

// NewMemoryQueue returns an empty in-memory queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		tasks: make(map[string]*task.Task),
	}
}

func (q *MemoryQueue) Push(_ context.Context, t *task.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.tasks[t.ID] = t.Clone()
	q.pending = append(q.pending, t.ID)
	return nil
}

func (q *MemoryQueue) Pop(_ context.Context) (*task.Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return nil, nil
	}

	last := len(q.pending) - 1
	id := q.pending[last]
	q.pending = q.pending[:last]

	t, ok := q.tasks[id]
	if !ok {
		return nil, nil
	}
	return t.Clone(), nil
}

func (q *MemoryQueue) GetByID(_ context.Context, id string) (*task.Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	t, ok := q.tasks[id]
	if !ok {
		return nil, nil
	}
	return t.Clone(), nil
}

func (q *MemoryQueue) Update(_ context.Context, t *task.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.tasks[t.ID] = t.Clone()
	return nil
}

func (q *MemoryQueue) Len(_ context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	return int64(len(q.pending)), nil
}

func (q *MemoryQueue) Close() error {
	return nil
}

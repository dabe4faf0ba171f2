// Package queue holds the pending-task queue, backed by either an
// in-memory map and slice (LIFO pop) or a Redis list (list-left-push,
// list-right-pop, FIFO pop) with per-task set/get mirror keys.
package queue

import (
	"context"

	"github.com/relaytask/taskqueue/internal/task"
)

// Queue is the pluggable backend behind a Coordinator. Push enqueues a
// task for eventual processing; Pop removes and returns the next
// ready task, or (nil, nil) if the queue is empty. GetByID and Update
// give workers a way to read/refresh a task's state without removing
// it from the queue.
type Queue interface {
	Push(ctx context.Context, t *task.Task) error
	Pop(ctx context.Context) (*task.Task, error)
	GetByID(ctx context.Context, id string) (*task.Task, error)
	Update(ctx context.Context, t *task.Task) error
	Len(ctx context.Context) (int64, error)
	Close() error
}

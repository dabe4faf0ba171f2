// Package store implements the durable result store a Coordinator
// mirrors every task into at enqueue time (spec §9 open question 1):
// reads always resolve against the store, never against the queue.
package store

import (
	"context"

	"github.com/relaytask/taskqueue/internal/task"
)

// Store is the pluggable backend behind a Coordinator's Get/List calls.
type Store interface {
	Store(ctx context.Context, t *task.Task) error
	Load(ctx context.Context, id string) (*task.Task, error)
	Update(ctx context.Context, t *task.Task) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*task.Task, error)
	Close() error
}

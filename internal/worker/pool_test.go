package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaytask/taskqueue/internal/metrics"
	"github.com/relaytask/taskqueue/internal/queue"
	"github.com/relaytask/taskqueue/internal/registry"
	"github.com/relaytask/taskqueue/internal/store"
	"github.com/relaytask/taskqueue/internal/task"
)

func TestPool_DrainsQueuedTasks(t *testing.T) {
	q := queue.NewMemoryQueue()
	s := store.NewMemoryStore()
	r := registry.New(metrics.New(nil))

	var completed int32
	r.Register("add", func(ctx context.Context, args []any, kwargs map[string]any) ([]byte, error) {
		atomic.AddInt32(&completed, 1)
		return []byte("ok"), nil
	})

	e := NewExecutor(q, s, r, task.ZeroBackoff(), metrics.New(nil))
	p := NewPool("test-pool", 4, q, e, 20*time.Millisecond, time.Second, metrics.New(nil))

	ctx := context.Background()
	for i := 0; i < 8; i++ {
		require.NoError(t, q.Push(ctx, newSignatureTask("add", 3)))
	}

	p.Start(ctx)

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&completed) == 8
	}, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, p.Shutdown(context.Background()))
}

func TestPool_ShutdownWithIdleWorkers(t *testing.T) {
	q := queue.NewMemoryQueue()
	s := store.NewMemoryStore()
	r := registry.New(metrics.New(nil))

	e := NewExecutor(q, s, r, task.ZeroBackoff(), metrics.New(nil))
	p := NewPool("idle-pool", 4, q, e, 20*time.Millisecond, time.Second, metrics.New(nil))

	p.Start(context.Background())

	err := p.Shutdown(context.Background())
	assert.NoError(t, err)
}

func TestPool_ShutdownTimeout(t *testing.T) {
	q := queue.NewMemoryQueue()
	s := store.NewMemoryStore()
	r := registry.New(metrics.New(nil))

	blocking := make(chan struct{})
	r.Register("slow", func(ctx context.Context, args []any, kwargs map[string]any) ([]byte, error) {
		<-blocking
		return []byte("ok"), nil
	})

	e := NewExecutor(q, s, r, task.ZeroBackoff(), metrics.New(nil))
	p := NewPool("slow-pool", 1, q, e, 10*time.Millisecond, 50*time.Millisecond, metrics.New(nil))

	ctx := context.Background()
	require.NoError(t, q.Push(ctx, newSignatureTask("slow", 0)))

	p.Start(ctx)
	time.Sleep(20 * time.Millisecond) // let the worker pick up the blocking task

	err := p.Shutdown(context.Background())
	assert.Equal(t, ErrShutdownTimeout, err)

	close(blocking)
}

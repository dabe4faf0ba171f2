package queue

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaytask/taskqueue/internal/task"
)

func TestMemoryQueue_PushPop(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()

	tsk := task.New("add", nil, 3)
	require.NoError(t, q.Push(ctx, tsk))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	popped, err := q.Pop(ctx)
	require.NoError(t, err)
	require.NotNil(t, popped)
	assert.Equal(t, tsk.ID, popped.ID)

	n, err = q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestMemoryQueue_Pop_Empty(t *testing.T) {
	q := NewMemoryQueue()
	popped, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Nil(t, popped)
}

func TestMemoryQueue_PopOrder_LIFO(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()

	first := task.New("a", nil, 0)
	second := task.New("b", nil, 0)
	require.NoError(t, q.Push(ctx, first))
	require.NoError(t, q.Push(ctx, second))

	popped, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, popped.ID)
}

func TestMemoryQueue_GetByID(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()

	tsk := task.New("add", nil, 3)
	require.NoError(t, q.Push(ctx, tsk))

	fetched, err := q.GetByID(ctx, tsk.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, tsk.Name, fetched.Name)

	missing, err := q.GetByID(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryQueue_Update(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()

	tsk := task.New("add", nil, 3)
	require.NoError(t, q.Push(ctx, tsk))

	tsk.Status = task.StatusRunning
	require.NoError(t, q.Update(ctx, tsk))

	fetched, err := q.GetByID(ctx, tsk.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusRunning, fetched.Status)
}

func TestMemoryQueue_Clone_Isolation(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()

	tsk := task.New("add", []byte("payload"), 3)
	require.NoError(t, q.Push(ctx, tsk))

	fetched, err := q.GetByID(ctx, tsk.ID)
	require.NoError(t, err)
	fetched.Payload[0] = 'X'

	again, err := q.GetByID(ctx, tsk.ID)
	require.NoError(t, err)
	assert.NotEqual(t, fetched.Payload[0], again.Payload[0])
}

func TestMemoryQueue_ConcurrentPushPop(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = q.Push(ctx, task.New("t", nil, 0))
		}()
	}
	wg.Wait()

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(50), n)
}

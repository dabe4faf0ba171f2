package taskqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFinished(t *testing.T, c *Coordinator, id string, timeout time.Duration) *Task {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		tsk, err := c.Get(context.Background(), id)
		require.NoError(t, err)
		if tsk != nil && tsk.IsFinished() {
			return tsk
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("task %s did not finish within %s", id, timeout)
	return nil
}

// S1 — happy path.
func TestCoordinator_HappyPath(t *testing.T) {
	c, err := NewBuilder(2).Build()
	require.NoError(t, err)

	c.RegisterHandler("add", func(ctx context.Context, args []any, kwargs map[string]any) ([]byte, error) {
		a := int(args[0].(float64))
		b := int(args[1].(float64))
		return []byte(fmt.Sprintf("%d", a+b)), nil
	})

	ctx := context.Background()
	c.Start(ctx)
	defer c.Shutdown(context.Background())

	id, err := c.Enqueue(ctx, NewSignature("add", []any{5, 3}, nil), 3)
	require.NoError(t, err)

	final := waitFinished(t, c, id, 2*time.Second)
	assert.Equal(t, StatusCompleted, final.Status)
	assert.Equal(t, []byte("8"), final.Result)
}

// S2 — retry then succeed.
func TestCoordinator_RetryThenSucceed(t *testing.T) {
	c, err := NewBuilder(1).Build()
	require.NoError(t, err)

	var attempts int
	var mu sync.Mutex
	c.RegisterHandler("flaky", func(ctx context.Context, args []any, kwargs map[string]any) ([]byte, error) {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		if n <= 2 {
			return nil, errors.New("transient")
		}
		return []byte("ok"), nil
	})

	ctx := context.Background()
	c.Start(ctx)
	defer c.Shutdown(context.Background())

	id, err := c.Enqueue(ctx, NewSignature("flaky", nil, nil), 3)
	require.NoError(t, err)

	final := waitFinished(t, c, id, 3*time.Second)
	assert.Equal(t, StatusCompleted, final.Status)
	assert.Equal(t, 2, final.Retries)
	assert.Equal(t, []byte("ok"), final.Result)
}

// S3 — retries exhausted.
func TestCoordinator_RetriesExhausted(t *testing.T) {
	c, err := NewBuilder(1).Build()
	require.NoError(t, err)

	c.RegisterHandler("bad", func(ctx context.Context, args []any, kwargs map[string]any) ([]byte, error) {
		return nil, errors.New("nope")
	})

	ctx := context.Background()
	c.Start(ctx)
	defer c.Shutdown(context.Background())

	id, err := c.Enqueue(ctx, NewSignature("bad", nil, nil), 1)
	require.NoError(t, err)

	final := waitFinished(t, c, id, 2*time.Second)
	assert.Equal(t, StatusFailed, final.Status)
	assert.Equal(t, 1, final.Retries)
	assert.Equal(t, "Task execution failed: nope", final.Reason)
}

// S4 — unknown handler.
func TestCoordinator_UnknownHandler(t *testing.T) {
	c, err := NewBuilder(1).Build()
	require.NoError(t, err)

	ctx := context.Background()
	c.Start(ctx)
	defer c.Shutdown(context.Background())

	id, err := c.Enqueue(ctx, NewSignature("missing", nil, nil), 3)
	require.NoError(t, err)

	final := waitFinished(t, c, id, 2*time.Second)
	assert.Equal(t, StatusFailed, final.Status)
	assert.Contains(t, final.Reason, "missing")
	assert.Equal(t, 0, final.Retries, "handler-not-found must not consume a retry")
}

// S5 — concurrent drain: wall-clock evidence of real parallelism.
func TestCoordinator_ConcurrentDrain(t *testing.T) {
	// A short poll interval keeps a worker that found the queue empty
	// before the first Enqueue from idling for the default 1s.
	c, err := NewBuilder(4).WithPollInterval(10 * time.Millisecond).Build()
	require.NoError(t, err)

	c.RegisterHandler("sleep1s", func(ctx context.Context, args []any, kwargs map[string]any) ([]byte, error) {
		time.Sleep(1 * time.Second)
		return []byte(""), nil
	})

	ctx := context.Background()
	start := time.Now()
	c.Start(ctx)
	defer c.Shutdown(context.Background())

	ids := make([]string, 8)
	for i := range ids {
		id, err := c.Enqueue(ctx, NewSignature("sleep1s", nil, nil), 0)
		require.NoError(t, err)
		ids[i] = id
	}

	for _, id := range ids {
		waitFinished(t, c, id, 3*time.Second)
	}

	assert.Less(t, time.Since(start), 3*time.Second)
}

// S6 — shutdown with idle workers.
func TestCoordinator_ShutdownWithIdleWorkers(t *testing.T) {
	c, err := NewBuilder(4).Build()
	require.NoError(t, err)

	c.Start(context.Background())
	time.Sleep(100 * time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- c.Shutdown(context.Background()) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not return within 2s")
	}
}

// Property 1: ID uniqueness.
func TestCoordinator_EnqueueIDsAreUnique(t *testing.T) {
	c, err := NewBuilder(1).Build()
	require.NoError(t, err)
	c.RegisterHandler("noop", func(ctx context.Context, args []any, kwargs map[string]any) ([]byte, error) {
		return nil, nil
	})

	ctx := context.Background()
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		id, err := c.Enqueue(ctx, NewSignature("noop", nil, nil), 0)
		require.NoError(t, err)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

// Property 5: handler isolation — a failing task does not poison a
// later task handled by a different, working handler.
func TestCoordinator_HandlerIsolation(t *testing.T) {
	c, err := NewBuilder(2).Build()
	require.NoError(t, err)

	c.RegisterHandler("explodes", func(ctx context.Context, args []any, kwargs map[string]any) ([]byte, error) {
		panic("boom")
	})
	c.RegisterHandler("stable", func(ctx context.Context, args []any, kwargs map[string]any) ([]byte, error) {
		return []byte("fine"), nil
	})

	ctx := context.Background()
	c.Start(ctx)
	defer c.Shutdown(context.Background())

	badID, err := c.Enqueue(ctx, NewSignature("explodes", nil, nil), 0)
	require.NoError(t, err)
	goodID, err := c.Enqueue(ctx, NewSignature("stable", nil, nil), 0)
	require.NoError(t, err)

	waitFinished(t, c, badID, 2*time.Second)
	good := waitFinished(t, c, goodID, 2*time.Second)
	assert.Equal(t, StatusCompleted, good.Status)
	assert.Equal(t, []byte("fine"), good.Result)
}

package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"

	"github.com/relaytask/taskqueue/internal/logger"
	"github.com/relaytask/taskqueue/internal/metrics"
	"github.com/relaytask/taskqueue/internal/queue"
	"github.com/relaytask/taskqueue/internal/registry"
	"github.com/relaytask/taskqueue/internal/store"
	"github.com/relaytask/taskqueue/internal/task"
)

// Executor runs a single task to completion of one attempt, per the
// six-step algorithm: mark Running, look up the handler, validate the
// payload's signature, invoke it, and on completion either mark the
// task Completed or requeue/Fail depending on remaining retries.
type Executor struct {
	queue       queue.Queue
	store       store.Store
	registry    *registry.Registry
	retryPolicy *task.RetryPolicy
	metrics     *metrics.Metrics
	log         zerolog.Logger
}

// NewExecutor builds an Executor. A nil retryPolicy defaults to
// task.ZeroBackoff(), the present immediate re-enqueue contract.
func NewExecutor(q queue.Queue, s store.Store, r *registry.Registry, retryPolicy *task.RetryPolicy, m *metrics.Metrics) *Executor {
	if retryPolicy == nil {
		retryPolicy = task.ZeroBackoff()
	}
	return &Executor{
		queue:       q,
		store:       s,
		registry:    r,
		retryPolicy: retryPolicy,
		metrics:     m,
		log:         logger.WithComponent("executor"),
	}
}

// Execute drives t through one attempt. It returns an error for any
// outcome other than a successful completion, but the error is
// "handled" (already reflected in t's status/Store/Queue state) except
// when the underlying Queue/Store itself fails or the registry lookup
// reports RegistryBusy.
func (e *Executor) Execute(ctx context.Context, t *task.Task) (err error) {
	log := logger.WithTask(t.ID)

	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			log.Error().
				Interface("panic", r).
				Str("stack", string(stack)).
				Msg("task handler panicked")
			err = e.fail(ctx, t, fmt.Sprintf("handler panicked: %v", r))
		}
	}()

	// Step 1: mark Running, mirror to Store.
	sm := task.NewStateMachine(t)
	if stateErr := sm.Start(); stateErr != nil {
		return stateErr
	}
	if storeErr := e.store.Update(ctx, t); storeErr != nil {
		return fmt.Errorf("failed to mirror running state: %w", storeErr)
	}

	// Step 2: look up the handler.
	handler, lookupErr := e.registry.Get(t.Name)
	if lookupErr != nil {
		var taskErr *task.Error
		if errors.As(lookupErr, &taskErr) && taskErr.Kind == task.KindHandlerNotFound {
			log.Warn().Msg("no handler registered for task")
			return e.fail(ctx, t, taskErr.Message)
		}
		// RegistryBusy and any other lookup error go back to the caller
		// unchanged; the task is not requeued and its Store record
		// stays Running.
		return lookupErr
	}

	// Step 3: deserialize payload as Signature, validate name match.
	sig, sigErr := task.SignatureFromBytes(t.Payload)
	if sigErr != nil {
		return e.fail(ctx, t, fmt.Sprintf("invalid signature: %v", sigErr))
	}
	if sig.Name != t.Name {
		return e.fail(ctx, t, task.ErrInvalidSignature.Message)
	}

	// Step 4: invoke the handler.
	start := time.Now()
	result, execErr := handler(ctx, sig.Args, sig.Kwargs)
	duration := time.Since(start)

	if execErr != nil {
		log.Warn().Err(execErr).Dur("duration", duration).Msg("task attempt failed")
		return e.retryOrFail(ctx, t, execErr)
	}

	// Step 5: success.
	if completeErr := sm.Complete(result); completeErr != nil {
		return completeErr
	}
	if storeErr := e.store.Update(ctx, t); storeErr != nil {
		return fmt.Errorf("failed to mirror completed state: %w", storeErr)
	}
	e.metrics.RecordTaskCompletion(t.Name, t.Status.String(), duration.Seconds())
	log.Debug().Dur("duration", duration).Msg("task completed")
	return nil
}

// retryOrFail implements step 6: requeue with an incremented retry
// count if attempts remain, else mark the task permanently Failed.
func (e *Executor) retryOrFail(ctx context.Context, t *task.Task, cause error) error {
	if t.CanRetry() {
		sm := task.NewStateMachine(t)
		if err := sm.Requeue(); err != nil {
			return err
		}
		// The Store is intentionally not updated here: the next
		// attempt's step 1 will overwrite it to Running.
		delay := e.retryPolicy.Delay(t.Retries - 1)
		if delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := e.queue.Push(ctx, t); err != nil {
			return fmt.Errorf("failed to requeue task: %w", err)
		}
		e.metrics.RecordTaskRetry(t.Name)
		return task.ExecutionError(cause.Error())
	}

	return e.fail(ctx, t, task.ExecutionError(cause.Error()).Message)
}

func (e *Executor) fail(ctx context.Context, t *task.Task, reason string) error {
	sm := task.NewStateMachine(t)
	if err := sm.Fail(reason); err != nil {
		return err
	}
	if err := e.store.Update(ctx, t); err != nil {
		return fmt.Errorf("failed to mirror failed state: %w", err)
	}
	e.metrics.RecordTaskCompletion(t.Name, t.Status.String(), 0)
	return errors.New(reason)
}

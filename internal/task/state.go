package task

import (
	"errors"
)

// Error definitions for task-level invariant violations.
var (
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrInvalidTaskData   = errors.New("invalid task data")
	ErrTaskNotFound      = errors.New("task not found")
)

// validTransitions defines the allowed status transitions, per the
// state machine in spec §4.5: no backward transition out of a terminal
// status (Completed, Failed, Cancelled).
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusRunning, StatusCancelled},
	StatusRunning:   {StatusCompleted, StatusFailed, StatusPending, StatusCancelled},
	StatusCompleted: {},
	StatusFailed:    {},
	StatusCancelled: {},
}

// CanTransitionTo reports whether a transition from s to target is legal.
func (s Status) CanTransitionTo(target Status) bool {
	for _, v := range validTransitions[s] {
		if v == target {
			return true
		}
	}
	return false
}

// StateMachine drives a single task through its lifecycle transitions.
// Every Executor attempt constructs one around the task it is running.
type StateMachine struct {
	task *Task
}

// NewStateMachine creates a state machine bound to task.
func NewStateMachine(t *Task) *StateMachine {
	return &StateMachine{task: t}
}

// Transition moves the task to target, or returns ErrInvalidTransition.
func (sm *StateMachine) Transition(target Status) error {
	if !sm.task.Status.CanTransitionTo(target) {
		return ErrInvalidTransition
	}
	sm.task.Status = target
	return nil
}

// Start transitions Pending -> Running (spec §4.5 step 1).
func (sm *StateMachine) Start() error {
	return sm.Transition(StatusRunning)
}

// Complete transitions Running -> Completed, recording the result
// (spec §4.5 step 5). result may be empty but not nil.
func (sm *StateMachine) Complete(result []byte) error {
	if err := sm.Transition(StatusCompleted); err != nil {
		return err
	}
	sm.task.Result = result
	sm.task.Reason = ""
	return nil
}

// Fail transitions Running -> Failed, recording reason. Used when
// retries are exhausted (spec §4.5 step 6, else branch) and for
// failures that are never retried (missing handler, invalid signature,
// handler panic).
func (sm *StateMachine) Fail(reason string) error {
	if err := sm.Transition(StatusFailed); err != nil {
		return err
	}
	sm.task.Reason = reason
	return nil
}

// Requeue transitions Running -> Pending and increments Retries, for
// the retry-with-attempts-remaining branch of spec §4.5 step 6.
func (sm *StateMachine) Requeue() error {
	if err := sm.Transition(StatusPending); err != nil {
		return err
	}
	sm.task.Retries++
	return nil
}

// Cancel transitions to Cancelled from any non-terminal status. Not
// reachable from the core dispatch flow; exists for external callers
// that mark a task cancelled out-of-band (spec §4.5, glossary).
func (sm *StateMachine) Cancel() error {
	return sm.Transition(StatusCancelled)
}

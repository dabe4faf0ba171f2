package task

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status represents the current state of a task.
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusCompleted
	StatusFailed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusRunning:
		return "Running"
	case StatusCompleted:
		return "Completed"
	case StatusFailed:
		return "Failed"
	case StatusCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Task represents a unit of deferred work in the queue.
//
// Reason is only meaningful when Status == StatusFailed; it is carried
// as a sibling field rather than folded into Status because Go has no
// tagged-union enum variant. The wire encoding (MarshalJSON) re-nests it
// to match the external {"Failed": "<reason>"} contract.
type Task struct {
	ID         string
	Name       string
	Payload    []byte
	Status     Status
	Reason     string
	CreatedAt  time.Time
	Retries    int
	MaxRetries int
	Result     []byte
}

// New creates a new Task with a fresh id and StatusPending.
func New(name string, payload []byte, maxRetries int) *Task {
	return &Task{
		ID:         uuid.New().String(),
		Name:       name,
		Payload:    payload,
		Status:     StatusPending,
		CreatedAt:  time.Now().UTC(),
		Retries:    0,
		MaxRetries: maxRetries,
	}
}

// String implements fmt.Stringer.
func (t *Task) String() string {
	return fmt.Sprintf("Task(%s, %s)", t.ID, t.Name)
}

// IsFinished reports whether the task has reached a terminal status.
func (t *Task) IsFinished() bool {
	return t.Status == StatusCompleted || t.Status == StatusFailed || t.Status == StatusCancelled
}

// IsReady reports whether the task is waiting to be picked up.
func (t *Task) IsReady() bool {
	return t.Status == StatusPending
}

// CanRetry reports whether another attempt is permitted under MaxRetries.
func (t *Task) CanRetry() bool {
	return t.Retries < t.MaxRetries
}

// Clone returns a deep copy safe to mutate independently of t.
func (t *Task) Clone() *Task {
	clone := *t
	if t.Payload != nil {
		clone.Payload = append([]byte(nil), t.Payload...)
	}
	if t.Result != nil {
		clone.Result = append([]byte(nil), t.Result...)
	}
	return &clone
}

// wireTask mirrors Task's external JSON shape, spec §6.
type wireTask struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Payload    []byte          `json:"payload"`
	Status     json.RawMessage `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	Retries    int             `json:"retries"`
	MaxRetries int             `json:"max_retries"`
	Result     []byte          `json:"result,omitempty"`
}

// MarshalJSON renders Status/Reason as the tagged wire form: bare
// strings for non-failed statuses, {"Failed":"<reason>"} otherwise.
func (t *Task) MarshalJSON() ([]byte, error) {
	var statusJSON []byte
	var err error
	if t.Status == StatusFailed {
		statusJSON, err = json.Marshal(map[string]string{"Failed": t.Reason})
	} else {
		statusJSON, err = json.Marshal(t.Status.String())
	}
	if err != nil {
		return nil, err
	}

	return json.Marshal(wireTask{
		ID:         t.ID,
		Name:       t.Name,
		Payload:    t.Payload,
		Status:     statusJSON,
		CreatedAt:  t.CreatedAt,
		Retries:    t.Retries,
		MaxRetries: t.MaxRetries,
		Result:     t.Result,
	})
}

// UnmarshalJSON parses the tagged wire form back into Status/Reason.
func (t *Task) UnmarshalJSON(data []byte) error {
	var w wireTask
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	status, reason, err := parseWireStatus(w.Status)
	if err != nil {
		return err
	}

	t.ID = w.ID
	t.Name = w.Name
	t.Payload = w.Payload
	t.Status = status
	t.Reason = reason
	t.CreatedAt = w.CreatedAt
	t.Retries = w.Retries
	t.MaxRetries = w.MaxRetries
	t.Result = w.Result
	return nil
}

func parseWireStatus(raw json.RawMessage) (Status, string, error) {
	var bare string
	if err := json.Unmarshal(raw, &bare); err == nil {
		switch bare {
		case "Pending":
			return StatusPending, "", nil
		case "Running":
			return StatusRunning, "", nil
		case "Completed":
			return StatusCompleted, "", nil
		case "Cancelled":
			return StatusCancelled, "", nil
		default:
			return 0, "", fmt.Errorf("task: unknown status %q", bare)
		}
	}

	var tagged struct {
		Failed string `json:"Failed"`
	}
	if err := json.Unmarshal(raw, &tagged); err != nil {
		return 0, "", fmt.Errorf("task: invalid status encoding: %w", err)
	}
	return StatusFailed, tagged.Failed, nil
}

// ToJSON serializes the task, matching the wire encoding of spec §6.
func (t *Task) ToJSON() ([]byte, error) {
	return json.Marshal(t)
}

// FromJSON deserializes a task produced by ToJSON.
func FromJSON(data []byte) (*Task, error) {
	var t Task
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

package task

import "fmt"

// Kind classifies an Error, per the stable taxonomy in spec §7.
type Kind int

const (
	KindExecutionError Kind = iota
	KindSerializationError
	KindNotFound
	KindMaxRetriesExceeded
	KindValidationError
	KindHandlerNotFound
	KindInvalidSignature
	KindRegistryBusy
	KindShutdownTimeout
	KindInvalidArgument
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindExecutionError:
		return "ExecutionError"
	case KindSerializationError:
		return "SerializationError"
	case KindNotFound:
		return "NotFound"
	case KindMaxRetriesExceeded:
		return "MaxRetriesExceeded"
	case KindValidationError:
		return "ValidationError"
	case KindHandlerNotFound:
		return "HandlerNotFound"
	case KindInvalidSignature:
		return "InvalidSignature"
	case KindRegistryBusy:
		return "RegistryBusy"
	case KindShutdownTimeout:
		return "ShutdownTimeout"
	case KindInvalidArgument:
		return "InvalidArgument"
	default:
		return "Other"
	}
}

// Error is the module's classified error type, carrying a stable Kind
// plus a human-readable message. Not every error is an *Error: backend
// failures are wrapped with fmt.Errorf, state transitions return
// ErrInvalidTransition, and the executor reports a failed task's reason
// as a plain error.
type Error struct {
	Kind    Kind
	Message string
	Err     error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Message == "" && e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds an *Error of the given kind.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an *Error of the given kind that wraps cause.
func Wrap(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Message: cause.Error(), Err: cause}
}

// ExecutionError reports a handler-level failure (retry-eligible).
func ExecutionError(msg string) *Error {
	return NewError(KindExecutionError, fmt.Sprintf("Task execution failed: %s", msg))
}

// HandlerNotFound reports no handler registered for name.
func HandlerNotFound(name string) *Error {
	return NewError(KindHandlerNotFound, fmt.Sprintf("no handler registered for task %q", name))
}

// ErrInvalidSignature reports payload.name != task.Name.
var ErrInvalidSignature = NewError(KindInvalidSignature, "signature name does not match task name")

// ErrMaxRetriesExceeded reports attempts exhausted.
var ErrMaxRetriesExceeded = NewError(KindMaxRetriesExceeded, "maximum retries exceeded")

// ErrRegistryBusy reports a contended registry write lock.
var ErrRegistryBusy = NewError(KindRegistryBusy, "handler registry is busy, try again")

// ErrShutdownTimeout reports workers that did not exit within the bound.
var ErrShutdownTimeout = NewError(KindShutdownTimeout, "workers did not exit before shutdown timeout")

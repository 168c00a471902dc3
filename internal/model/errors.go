package model

import "fmt"

// InputError reports malformed or missing input. Strategies surface it as a
// failed result rather than returning it.
type InputError struct {
	Messages []string
}

func (e *InputError) Error() string {
	if len(e.Messages) == 0 {
		return "invalid input"
	}
	return e.Messages[0]
}

// StorageError reports an adapter failure
type StorageError struct {
	Backend BackendType
	Op      string
	Message string
	Cause   error
}

// NewNotConnectedError returns the error raised by operations on a closed adapter
func NewNotConnectedError(backend BackendType, op string) *StorageError {
	return &StorageError{
		Backend: backend,
		Op:      op,
		Message: fmt.Sprintf("Database %s is not connected", backend),
	}
}

func (e *StorageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// UnknownModeError reports an unrecognized processing mode tag
type UnknownModeError struct {
	Mode ProcessingMode
}

func (e *UnknownModeError) Error() string {
	return fmt.Sprintf("Unknown processing mode: %s", e.Mode)
}

// UnknownBackendError reports an unrecognized backend tag
type UnknownBackendError struct {
	Backend BackendType
}

func (e *UnknownBackendError) Error() string {
	return fmt.Sprintf("Unknown database type: %s", e.Backend)
}

// ReconfigurationError wraps the cause of a failed adapter/strategy rebuild
type ReconfigurationError struct {
	Mode    ProcessingMode
	Backend BackendType
	Cause   error
}

func (e *ReconfigurationError) Error() string {
	return fmt.Sprintf("Failed to reconfigure pipeline: %v", e.Cause)
}

// Unwrap returns the underlying error
func (e *ReconfigurationError) Unwrap() error {
	return e.Cause
}

// ObserverFault reports an observer that panicked during Notify
type ObserverFault struct {
	ListenerID string
	Kind       EventKind
	Cause      error
}

func (e *ObserverFault) Error() string {
	return fmt.Sprintf("observer %s failed on %s event: %v", e.ListenerID, e.Kind, e.Cause)
}

// Unwrap returns the underlying error
func (e *ObserverFault) Unwrap() error {
	return e.Cause
}

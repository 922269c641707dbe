package callbridge

import (
	"errors"
	"fmt"
)

// Sentinel errors for bridge operations.
// These errors enable reliable error classification using errors.Is().

// Error classes. Every typed error below unwraps to one of these.
var (
	// ErrResolution indicates a host class, method or field could not be resolved.
	ErrResolution = errors.New("host resolution failed")

	// ErrInvocation indicates the boundary call itself failed.
	ErrInvocation = errors.New("host invocation failed")

	// ErrAttach indicates the calling thread could not be bound to the host runtime.
	ErrAttach = errors.New("thread attachment failed")
)

// Null-result errors.
var (
	// ErrNullConnection indicates the host returned no connection object.
	ErrNullConnection = errors.New("host returned null connection")

	// ErrNullObject indicates a null host object where a concrete one was required.
	ErrNullObject = errors.New("host returned null object")
)

// Lifecycle and argument errors.
var (
	// ErrHandleReleased indicates a handle was used after its owner released it.
	ErrHandleReleased = errors.New("handle already released")

	// ErrConnectionAttached indicates a connection already carries a host connection.
	ErrConnectionAttached = errors.New("connection already has a host connection")

	// ErrConnectionClosed indicates the native connection was already closed.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrNoCallContext indicates a call has no live call context.
	ErrNoCallContext = errors.New("call has no call context")

	// ErrInvalidMediaStream indicates a media stream cannot be exposed to the host.
	ErrInvalidMediaStream = errors.New("invalid media stream")

	// ErrClassNotCached indicates a class was requested that the descriptor cache never resolved.
	ErrClassNotCached = errors.New("class not in descriptor cache")

	// ErrAdapterClosed indicates the adapter owner was already closed.
	ErrAdapterClosed = errors.New("adapter closed")

	// ErrNilArgument indicates a required argument was nil.
	ErrNilArgument = errors.New("argument cannot be nil")

	// ErrInvalidConfig indicates a configuration value is unusable.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ResolutionError reports a host type or method that could not be resolved.
type ResolutionError struct {
	Target    string
	Method    string
	Signature string
	Err       error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s.%s%s: %v", e.Target, e.Method, e.Signature, e.Err)
}

// Unwrap exposes both ErrResolution and the underlying cause.
func (e *ResolutionError) Unwrap() []error {
	return []error{ErrResolution, e.Err}
}

// InvocationError reports a failed boundary call.
type InvocationError struct {
	Method    string
	Signature string
	Err       error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("call %s%s: %v", e.Method, e.Signature, e.Err)
}

// Unwrap exposes both ErrInvocation and the underlying cause.
func (e *InvocationError) Unwrap() []error {
	return []error{ErrInvocation, e.Err}
}

// AttachError reports a thread that could not be bound to the host runtime.
type AttachError struct {
	ThreadID int
	Err      error
}

func (e *AttachError) Error() string {
	return fmt.Sprintf("attach thread %d: %v", e.ThreadID, e.Err)
}

// Unwrap exposes both ErrAttach and the underlying cause.
func (e *AttachError) Unwrap() []error {
	return []error{ErrAttach, e.Err}
}

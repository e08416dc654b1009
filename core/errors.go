package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArity is returned when a positional argument list is shorter
	// (or longer) than the shape of its operation allows.
	ErrInvalidArity = errors.New("invalid arity")
	// ErrInvalidArgument is returned when a positional argument or a record
	// field does not have the type its operation expects.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnknownOperation is returned for an Operation outside the intercepted set.
	ErrUnknownOperation = errors.New("unknown operation")
)

// HookError reports a failure raised while a hook phase was running.
//
// It carries the operation and the phase so the caller can tell which hook
// broke the call. Failures of the wrapped collection method itself are never
// wrapped in a HookError.
type HookError struct {
	Operation Operation
	Kind      Kind
	Event     Event
	Err       error
}

func newHookError(hc HookContext, err error) *HookError {
	return &HookError{Operation: hc.Operation, Kind: hc.Kind, Event: hc.Event, Err: err}
}

func (e *HookError) Error() string {
	return fmt.Sprintf("mongol: %s hook failed on %s: %v", e.Event, e.Operation, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }

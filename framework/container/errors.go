package container

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by lookups and publishes on a closed container.
	ErrClosed = errors.New("container: closed")

	// ErrInterrupted is matched by InterruptedError.
	ErrInterrupted = errors.New("container: construction interrupted")
)

// Phase names the construction step that failed.
type Phase string

const (
	PhaseFactory       Phase = "factory"
	PhaseInject        Phase = "inject"
	PhasePostConstruct Phase = "post-construct"
	PhaseRefresh       Phase = "refresh"
)

// ConstructionError reports a failed component. Everything built before it
// has already been torn down; Cleanup holds the teardown errors, if any.
type ConstructionError struct {
	Component string
	Phase     Phase
	Err       error
	Cleanup   error
}

func (e *ConstructionError) Error() string {
	msg := fmt.Sprintf("container: %s: %s failed: %v", e.Component, e.Phase, e.Err)
	if e.Cleanup != nil {
		msg += fmt.Sprintf(" (teardown: %v)", e.Cleanup)
	}
	return msg
}

func (e *ConstructionError) Unwrap() error { return e.Err }

// IsFactoryFailure reports whether err is a construction error raised while
// building the instance (factory, settings or setters).
func IsFactoryFailure(err error) bool {
	var ce *ConstructionError
	return errors.As(err, &ce) && (ce.Phase == PhaseFactory || ce.Phase == PhaseInject)
}

// IsHookFailure reports whether err is a construction error raised by a
// post-construct hook or a refresh listener.
func IsHookFailure(err error) bool {
	var ce *ConstructionError
	return errors.As(err, &ce) && (ce.Phase == PhasePostConstruct || ce.Phase == PhaseRefresh)
}

// InterruptedError reports a stop requested through the Stopper. It is a
// deliberate stop, not a ConstructionError.
type InterruptedError struct {
	Constructed int
	Cleanup     error
}

func (e *InterruptedError) Error() string {
	msg := fmt.Sprintf("container: construction interrupted after %d components", e.Constructed)
	if e.Cleanup != nil {
		msg += fmt.Sprintf(" (teardown: %v)", e.Cleanup)
	}
	return msg
}

func (e *InterruptedError) Is(target error) bool { return target == ErrInterrupted }

// TeardownError is one failure during teardown. Teardown keeps going after
// it; all of them are combined with multierr.
type TeardownError struct {
	Component string
	Err       error
}

func (e *TeardownError) Error() string {
	return fmt.Sprintf("container: teardown %s: %v", e.Component, e.Err)
}

func (e *TeardownError) Unwrap() error { return e.Err }

// ListenerError is returned by PublishEvent when a listener fails.
type ListenerError struct {
	Component string
	Event     any
	Err       error
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("container: listener %s on %T: %v", e.Component, e.Event, e.Err)
}

func (e *ListenerError) Unwrap() error { return e.Err }

// guard runs fn and turns a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

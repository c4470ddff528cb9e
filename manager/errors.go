package manager

import (
	"errors"
	"fmt"
)

// BootstrapKind classifies a fatal bootstrap failure.
type BootstrapKind uint8

const (
	KindClockSync BootstrapKind = iota + 1
	KindConfigStore
	KindPassiveUnset
	KindVersionParams
	KindRegistration
)

func (k BootstrapKind) String() string {
	switch k {
	case KindClockSync:
		return "clock sync"
	case KindConfigStore:
		return "config store"
	case KindPassiveUnset:
		return "passive mode"
	case KindVersionParams:
		return "version params"
	case KindRegistration:
		return "registration"
	default:
		return fmt.Sprintf("BootstrapKind(%d)", uint8(k))
	}
}

// ErrPassiveUnset means no passive-mode value exists after overrides were applied.
var ErrPassiveUnset = errors.New("passive mode is not set")

// BootstrapError aborts startup before the lifecycle loop runs.
type BootstrapError struct {
	Kind BootstrapKind
	Err  error
}

func (e *BootstrapError) Error() string {
	return fmt.Sprintf("bootstrap failed (%s): %v", e.Kind, e.Err)
}

func (e *BootstrapError) Unwrap() error { return e.Err }

// IsBootstrapKind reports whether err is a BootstrapError of kind k.
func IsBootstrapKind(err error, k BootstrapKind) bool {
	var be *BootstrapError
	return errors.As(err, &be) && be.Kind == k
}

// RuntimeError is a panic recovered from the lifecycle loop.
type RuntimeError struct {
	Value any
	stack []byte
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("lifecycle loop panicked: %v", e.Value)
}

func (e *RuntimeError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Stack is the goroutine stack at the point of the panic.
func (e *RuntimeError) Stack() []byte { return e.stack }

// LoopError is any failure after the lifecycle loop started, including a
// failed power action. By the time Run returns one, the error has been
// reported and every worker stopped.
type LoopError struct {
	Err error
}

func (e *LoopError) Error() string { return e.Err.Error() }

func (e *LoopError) Unwrap() error { return e.Err }

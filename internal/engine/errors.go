package engine

import (
	"errors"

	"tern/internal/object"
)

// ErrorKind groups the Go-level failures of the host surface.
type ErrorKind string

const (
	ErrInit     ErrorKind = "init"
	ErrEval     ErrorKind = "eval"
	ErrModule   ErrorKind = "module"
	ErrRuntime  ErrorKind = "runtime"
	ErrInternal ErrorKind = "internal"
)

// Error is returned for failures that are not script faults, such as a
// released context or an unknown module key. Script faults are always
// *object.Exception.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return string(e.Kind) + ": " + e.Message
	}
	if e.Cause != nil {
		return string(e.Kind) + ": " + e.Cause.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// ErrContextReleased is the cause of every call on a released context.
var ErrContextReleased = errors.New("context released")

func released() error {
	return &Error{Kind: ErrInit, Message: "context released", Cause: ErrContextReleased}
}

// asException turns a loader or pipeline failure into the script
// exception reported to the host. Exceptions pass through unchanged.
func asException(kind object.ErrorKind, err error) *object.Exception {
	var exc *object.Exception
	if errors.As(err, &exc) {
		return exc
	}
	return object.ThrowError(kind, "%s", err.Error())
}

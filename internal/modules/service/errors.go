package service

import (
	"errors"
	"fmt"
)

// Kind is the closed set of failures a service call can report.
type Kind int

const (
	KindUnauthorized Kind = iota + 1
	KindForbidden
	KindNotFound
	KindInvalidTransition
	KindInvalidState
	KindDependencyFailure
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindInvalidState:
		return "invalid_state"
	case KindDependencyFailure:
		return "dependency_failure"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

var (
	ErrUnauthorized = newError(KindUnauthorized, "authentication required", nil)
	ErrForbidden    = newError(KindForbidden, "only the group owner can manage live sessions", nil)
)

// dependency wraps a store or collaborator failure.
func dependency(msg string, err error) error {
	return newError(KindDependencyFailure, msg, err)
}

// KindOf returns the kind of err, or KindDependencyFailure for foreign errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindDependencyFailure
}

// resultLabel names err for metrics.
func resultLabel(err error) string {
	if err == nil {
		return "success"
	}
	return KindOf(err).String()
}

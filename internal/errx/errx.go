// Package errx provides operation-tagged errors with a small set of kinds.
//
// Kinds cover client input problems and storage faults only. Outcomes of the
// concurrency protocol (conflict, gone, not found) are ordinary results of the
// link service and never travel as errors.
package errx

import (
	"errors"
	"fmt"
)

type Kind uint8

const (
	Unknown Kind = iota
	// NotFound is a lookup miss at the store boundary.
	NotFound
	// Invalid is malformed or rejected client input.
	Invalid
	// PreconditionRequired marks a mutation sent without a version token.
	PreconditionRequired
	// Unavailable is a storage fault.
	Unavailable
	Internal
)

type Error struct {
	Op   string
	Kind Kind
	Err  error
}

// E wraps err with an operation name and kind. A nil err yields nil.
func E(op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{
		Op:   op,
		Kind: kind,
		Err:  err,
	}
}

// Wrap re-tags err with op while keeping the kind already attached to it.
func Wrap(op string, err error) error {
	return E(op, KindOf(err), err)
}

// String returns the string representation of the error kind.
func (k Kind) String() string {
	switch k {
	case Unknown:
		return "Unknown"
	case NotFound:
		return "NotFound"
	case Invalid:
		return "Invalid"
	case PreconditionRequired:
		return "PreconditionRequired"
	case Unavailable:
		return "Unavailable"
	case Internal:
		return "Internal"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op
	}
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the outermost kind attached to err, or Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

func OpOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// Cause strips every errx layer from err and returns what is underneath.
// Handlers use it to show clients the reason without operation names.
func Cause(err error) error {
	var e *Error
	for errors.As(err, &e) && e.Err != nil {
		err = e.Err
	}
	return err
}

// Package errs implements the error taxonomy used across the command and
// gateway layers: a small set of typed kinds plus a wrapping *Error that
// keeps the underlying cause available via errors.Unwrap, following the
// teacher's fmt.Errorf("...: %w", err) wrapping idiom but adding a Kind so
// callers can classify an error without string-matching its message.
package errs

import (
	"errors"
	"fmt"
)

// Kind enumerates the seven error categories a command can fail with.
type Kind int

const (
	Unknown Kind = iota
	NotFound
	InvalidArgument
	TypeMismatch
	ConstraintViolation
	LayoutFailure
	ImportParse
	IO
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case InvalidArgument:
		return "invalid_argument"
	case TypeMismatch:
		return "type_mismatch"
	case ConstraintViolation:
		return "constraint_violation"
	case LayoutFailure:
		return "layout_failure"
	case ImportParse:
		return "import_parse"
	case IO:
		return "io"
	default:
		return "unknown"
	}
}

// Error is a kinded, wrapped error.
type Error struct {
	kind    Kind
	message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.cause }

// Kind returns the error's classification.
func (e *Error) Kind() Kind { return e.kind }

// New creates a kinded error with no underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

// Wrap creates a kinded error wrapping cause, following the teacher's
// fmt.Errorf("%s: %w", message, err) convention but attaching a Kind.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{kind: kind, message: message, cause: cause}
}

// KindOf returns the Kind of err if it (or something it wraps) is an *Error,
// and Unknown otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return Unknown
}

// Is reports whether err's classification equals kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

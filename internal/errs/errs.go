// Package errs defines the error taxonomy shared by the graph builder,
// memory planner and filter orchestrator: a small closed set of error
// kinds, each surfaced synchronously from the call that caused it.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a fatal error raised anywhere in the engine.
type Kind int

const (
	// InvalidArgument covers bad weight rank, unsupported layout, or an
	// invalid feature combination supplied by the caller.
	InvalidArgument Kind = iota
	// InvalidOperation covers missing inputs, image-format mismatches, or
	// calling execute before commit.
	InvalidOperation
	// LogicError covers add-after-finalize and chain-constraint
	// violations: programmer errors in how the graph is driven.
	LogicError
	// ModelBuildError covers exhaustion of the tile-subdivision loop: no
	// tile grid fits even at an unbounded budget.
	ModelBuildError
	// Warning covers an unknown parameter name or a type mismatch on a
	// setter. Warnings are logged, never returned.
	Warning
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid argument"
	case InvalidOperation:
		return "invalid operation"
	case LogicError:
		return "logic error"
	case ModelBuildError:
		return "model build error"
	case Warning:
		return "warning"
	default:
		return "unknown error"
	}
}

// Error is a Kind-tagged error. The underlying cause (if any) is
// preserved by github.com/pkg/errors so callers can still unwrap or
// print a stack trace in diagnostics builds.
type Error struct {
	Kind Kind
	err  error
}

func (e *Error) Error() string { return e.err.Error() }

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.err }

// New creates a Kind-tagged error from a message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, err: errors.Errorf("%s: %s", kind, fmt.Sprintf(format, args...))}
}

// Wrap tags an existing error with a Kind, preserving it as the cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, err: errors.Wrapf(err, "%s: %s", kind, fmt.Sprintf(format, args...))}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

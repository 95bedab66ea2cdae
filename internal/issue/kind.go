// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
)

// Kind sentinels classify every error the daemon reports. Components wrap
// them with context; callers test with errors.Is.
var (
	// ErrNotFound covers a missing bottle, recipe, resource or runtime companion tool.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput covers malformed names, parameters and recipe documents.
	ErrInvalidInput = errors.New("invalid input")
	// ErrIO covers directory and file operation failures.
	ErrIO = errors.New("i/o failure")
	// ErrLaunchFailure means an external process could not be started.
	ErrLaunchFailure = errors.New("launch failure")
	// ErrNonFatalExit means an external process started but exited non-zero.
	ErrNonFatalExit = errors.New("non-zero exit")
)

// KindError attaches a kind sentinel and an operation to an underlying cause.
type KindError struct {
	Kind error
	Op   string
	Err  error
}

// Error returns "<op>: <cause>" or "<op>: <kind>" when there is no cause.
func (e *KindError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *KindError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Wrap classifies err under kind with the given operation description.
// A nil err yields a KindError carrying only the kind.
func Wrap(kind error, op string, err error) error {
	return &KindError{Kind: kind, Op: op, Err: err}
}

// NotFound reports a missing entity, e.g. NotFound("bottle", id).
func NotFound(what string, id any) error {
	return &KindError{Kind: ErrNotFound, Op: fmt.Sprintf("%s %v", what, id), Err: errors.New("not found")}
}

// InvalidInput reports a rejected input with a formatted reason.
func InvalidInput(format string, args ...any) error {
	return &KindError{Kind: ErrInvalidInput, Op: "invalid input", Err: fmt.Errorf(format, args...)}
}

// IO wraps a filesystem failure.
func IO(op string, err error) error {
	return &KindError{Kind: ErrIO, Op: op, Err: err}
}

// KindOf returns a stable identifier for the kind of err, suitable for wire payloads.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrLaunchFailure):
		return "launch_failure"
	case errors.Is(err, ErrNonFatalExit):
		return "non_fatal_exit"
	case errors.Is(err, ErrIO):
		return "io"
	default:
		return "internal"
	}
}

// KindSentinel is the inverse of KindOf: it maps a wire kind back to its
// sentinel. Unknown kinds, including "internal", map to nil.
func KindSentinel(kind string) error {
	switch kind {
	case "not_found":
		return ErrNotFound
	case "invalid_input":
		return ErrInvalidInput
	case "launch_failure":
		return ErrLaunchFailure
	case "non_fatal_exit":
		return ErrNonFatalExit
	case "io":
		return ErrIO
	default:
		return nil
	}
}

// SPDX-License-Identifier: MPL-2.0

// Package types holds small value types shared between the daemon and its clients.
package types

import (
	"errors"
	"fmt"
	"strconv"
)

// NoExitCode marks a process that terminated without an exit status,
// typically because it was killed by a signal.
const NoExitCode ExitCode = -1

// ErrInvalidExitCode is the sentinel error wrapped by InvalidExitCodeError.
var ErrInvalidExitCode = errors.New("invalid exit code")

type (
	// ExitCode represents a process exit status code.
	// Exit codes are in the range 0-255 on POSIX systems; NoExitCode is the only
	// negative value allowed. The zero value (0) means success.
	ExitCode int

	// InvalidExitCodeError is returned when an ExitCode is outside the
	// valid range.
	InvalidExitCodeError struct {
		Value ExitCode
	}
)

// Error implements the error interface.
func (e *InvalidExitCodeError) Error() string {
	return fmt.Sprintf("invalid exit code %d (must be in range 0-255 or -1)", e.Value)
}

// Unwrap returns ErrInvalidExitCode so callers can use errors.Is for programmatic detection.
func (e *InvalidExitCodeError) Unwrap() error { return ErrInvalidExitCode }

// Validate returns an error if the ExitCode is outside the valid range.
func (c ExitCode) Validate() error {
	if c == NoExitCode {
		return nil
	}
	if c < 0 || c > 255 {
		return &InvalidExitCodeError{Value: c}
	}
	return nil
}

// IsSuccess returns true if the exit code indicates successful execution.
func (c ExitCode) IsSuccess() bool { return c == 0 }

// HasCode reports whether the process produced an exit status at all.
func (c ExitCode) HasCode() bool { return c != NoExitCode }

// String returns the decimal string representation of the ExitCode,
// or "none" for NoExitCode.
func (c ExitCode) String() string {
	if c == NoExitCode {
		return "none"
	}
	return strconv.Itoa(int(c))
}

// MarshalJSON encodes NoExitCode as null and every other value as a number.
func (c ExitCode) MarshalJSON() ([]byte, error) {
	if c == NoExitCode {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(int(c))), nil
}

// UnmarshalJSON accepts a number or null.
func (c *ExitCode) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = NoExitCode
		return nil
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("decode exit code %q: %w", data, err)
	}
	*c = ExitCode(n)
	return nil
}

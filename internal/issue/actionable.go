// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
)

// ActionableError is what the CLI shows a user when a command fails: the
// operation attempted, the resource involved, hints for fixing it and an
// optional catalog entry rendered in verbose mode.
//
//	err := issue.NewErrorContext().
//		WithOperation("connect to daemon").
//		WithResource(socketPath).
//		WithSuggestion("Start the daemon with 'alloy daemon'").
//		WithIssue(issue.DaemonUnreachableId).
//		Wrap(dialErr).
//		BuildError()
type ActionableError struct {
	// Operation is a verb phrase such as "create bottle" or "apply recipe".
	Operation string
	// Resource names the bottle, recipe, socket or file (optional).
	Resource    string
	Suggestions []string
	// Issue is zero when no catalog entry applies.
	Issue Id
	Cause error
}

// Error renders "cannot <operation> (<resource>): <cause>".
func (e *ActionableError) Error() string {
	msg := "cannot " + e.Operation
	if e.Resource != "" {
		msg += " (" + e.Resource + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ActionableError) Unwrap() error {
	return e.Cause
}

// Chain lists the cause and every error it wraps, outermost first. Joined
// errors contribute each of their members.
func (e *ActionableError) Chain() []error {
	var chain []error
	var walk func(error)
	walk = func(err error) {
		for err != nil {
			chain = append(chain, err)
			if joined, ok := err.(interface{ Unwrap() []error }); ok {
				for _, inner := range joined.Unwrap() {
					walk(inner)
				}
				return
			}
			err = errors.Unwrap(err)
		}
	}
	walk(e.Cause)
	return chain
}

// Format is the multi-line form printed by the CLI. Hints follow the message;
// verbose mode adds the cause chain with one level of indent per wrap.
//
//	cannot connect to daemon (/run/alloy.sock): dial unix: no such file
//	  hint: Start the daemon with 'alloy daemon'
//
//	caused by:
//	  dial unix: no such file
//	    no such file
func (e *ActionableError) Format(verbose bool) string {
	var b strings.Builder
	b.WriteString(e.Error())

	for _, s := range e.Suggestions {
		b.WriteString("\n  hint: ")
		b.WriteString(s)
	}

	if verbose {
		if chain := e.Chain(); len(chain) > 0 {
			b.WriteString("\n\ncaused by:")
			for depth, err := range chain {
				b.WriteString("\n  ")
				b.WriteString(strings.Repeat("  ", depth))
				b.WriteString(err.Error())
			}
		}
	}
	return b.String()
}

// ErrorContext accumulates the fields of an ActionableError.
type ErrorContext struct {
	err ActionableError
}

func NewErrorContext() *ErrorContext {
	return &ErrorContext{}
}

func (c *ErrorContext) WithOperation(op string) *ErrorContext {
	c.err.Operation = op
	return c
}

func (c *ErrorContext) WithResource(res string) *ErrorContext {
	c.err.Resource = res
	return c
}

// WithSuggestion appends hints in the order given.
func (c *ErrorContext) WithSuggestion(hints ...string) *ErrorContext {
	c.err.Suggestions = append(c.err.Suggestions, hints...)
	return c
}

// WithIssue links a catalog entry. Ids missing from the catalog are dropped.
func (c *ErrorContext) WithIssue(id Id) *ErrorContext {
	if Get(id) != nil {
		c.err.Issue = id
	}
	return c
}

func (c *ErrorContext) Wrap(err error) *ErrorContext {
	c.err.Cause = err
	return c
}

// Build returns nil when no operation was set.
func (c *ErrorContext) Build() *ActionableError {
	if c.err.Operation == "" {
		return nil
	}
	ae := c.err
	ae.Suggestions = append([]string(nil), c.err.Suggestions...)
	return &ae
}

// BuildError is Build typed as error, so a missing operation yields a true nil.
func (c *ErrorContext) BuildError() error {
	if ae := c.Build(); ae != nil {
		return ae
	}
	return nil
}

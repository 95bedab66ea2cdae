// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/siliconalloy/alloy/internal/issue"
	"github.com/siliconalloy/alloy/pkg/types"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
)

// ExitError carries the process exit code out of a RunE handler. Execute
// exits with Code; when Err is nil the failure was already shown to the user
// and the error handler stays quiet.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return "exit status " + e.Code.String()
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// exitCodeOf maps a command error to the process exit status.
func exitCodeOf(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Code.HasCode() {
		return int(exitErr.Code)
	}
	return 1
}

// errorHandler renders command failures for fang.
func (a *App) errorHandler(w io.Writer, _ fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		fmt.Fprintln(w, ErrorStyle.Render("Error:"), err.Error())
		return
	}

	fmt.Fprintln(w, ErrorStyle.Render("Error:"), ae.Format(a.verbose))
	if a.verbose && ae.Issue != 0 {
		fmt.Fprintln(w)
		renderIssue(w, ae.Issue)
	}
}

// renderIssue prints a catalog entry rendered as markdown.
func renderIssue(w io.Writer, id issue.Id) {
	entry := issue.Get(id)
	if entry == nil {
		return
	}
	rendered, err := entry.Render("dark")
	if err != nil {
		log.Warn("failed to render issue catalog entry", "issue", id, "error", err)
		return
	}
	fmt.Fprint(w, rendered)
}

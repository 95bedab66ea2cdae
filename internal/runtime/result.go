// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"github.com/siliconalloy/alloy/pkg/types"
)

// Result is the outcome of a launched process. Output is never captured;
// only the exit status matters to callers.
type Result struct {
	ExitCode types.ExitCode
}

// Success reports a zero exit status.
func (r Result) Success() bool {
	return r.ExitCode.IsSuccess()
}

// NewExitCodeResult wraps a process exit status.
func NewExitCodeResult(code int) Result {
	if code < 0 {
		return Result{ExitCode: types.NoExitCode}
	}
	return Result{ExitCode: types.ExitCode(code)}
}

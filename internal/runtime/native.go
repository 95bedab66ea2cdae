// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"slices"

	"github.com/siliconalloy/alloy/internal/issue"
	"github.com/siliconalloy/alloy/pkg/types"
)

type (
	// Request describes one synchronous process launch.
	Request struct {
		// Path is the executable to start.
		Path string
		// Args follow Path on the command line.
		Args []string
		// Dir is the working directory, normally the bottle prefix.
		Dir string
		// Env is layered over the host and launcher environment (see EnvBuilder).
		Env types.Env
	}

	// Launcher starts a process and waits for it to exit. A process that
	// starts and exits non-zero is a Result, not an error; an error means the
	// process could not be started and wraps issue.ErrLaunchFailure.
	Launcher interface {
		Launch(ctx context.Context, req Request) (Result, error)
	}

	// NativeLauncher runs processes on the host, optionally behind a
	// translator prefix such as ["arch", "-x86_64"].
	NativeLauncher struct {
		// Translator is prepended to every command line when non-empty.
		Translator []string
		// Env builds the process environment.
		Env EnvBuilder
		// Stdout and Stderr receive process output; nil discards it.
		Stdout io.Writer
		Stderr io.Writer
	}
)

// NewNativeLauncher returns a launcher with the given translator prefix and
// WINEDEBUG value. An empty debug value leaves WINEDEBUG to the host.
func NewNativeLauncher(translator []string, debug string) *NativeLauncher {
	l := &NativeLauncher{Translator: slices.Clone(translator)}
	if debug != "" {
		l.Env.Base = types.Env{{Key: DebugEnvVar, Value: debug}}
	}
	return l
}

// Command returns the argv the launcher would execute for req.
func (l *NativeLauncher) Command(req Request) []string {
	argv := make([]string, 0, len(l.Translator)+1+len(req.Args))
	argv = append(argv, l.Translator...)
	argv = append(argv, req.Path)
	return append(argv, req.Args...)
}

// Launch starts the process and waits for it. ctx is only consulted before
// the process starts; once running, the process is never cancelled.
func (l *NativeLauncher) Launch(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{ExitCode: types.NoExitCode}, issue.Wrap(issue.ErrLaunchFailure, "launch "+req.Path, err)
	}

	argv := l.Command(req)
	//nolint:gosec // executable path comes from the bottle record or a recipe
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = req.Dir
	cmd.Env = l.Env.Build(req.Env)
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr

	err := cmd.Run()
	if err == nil {
		return NewExitCodeResult(0), nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return NewExitCodeResult(exitErr.ExitCode()), nil
	}
	return Result{ExitCode: types.NoExitCode}, issue.Wrap(issue.ErrLaunchFailure, "launch "+req.Path, err)
}

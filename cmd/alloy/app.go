// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/siliconalloy/alloy/internal/config"
	"github.com/siliconalloy/alloy/internal/issue"
	"github.com/siliconalloy/alloy/internal/rpc"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: every Cobra handler receives an App and reaches
	// the daemon and the configuration through it.
	App struct {
		Config config.Provider
		Dial   Dialer
		stdout io.Writer
		stderr io.Writer

		// global flag values, bound by NewRootCommand
		configPath string
		socketPath string
		verbose    bool
		jsonOutput bool
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		Dial   Dialer
		Stdout io.Writer
		Stderr io.Writer
	}

	// Caller performs one request/response exchange with the daemon.
	Caller interface {
		Call(ctx context.Context, method string, params, out any) error
	}

	// Dialer returns a Caller bound to a daemon socket.
	Dialer func(socketPath string) Caller
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Dial == nil {
		deps.Dial = func(socketPath string) Caller { return rpc.NewClient(socketPath) }
	}

	return &App{
		Config: deps.Config,
		Dial:   deps.Dial,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}, nil
}

// loadConfig loads configuration honoring the --config flag.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	return a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.configPath})
}

// resolveSocket returns the --socket flag value or the configured socket path.
func (a *App) resolveSocket(ctx context.Context) (string, error) {
	if a.socketPath != "" {
		return a.socketPath, nil
	}
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return "", err
	}
	return cfg.SocketPath, nil
}

// call sends one request to the daemon and turns failures into actionable
// errors. resource names what the method operates on ("bottle", "recipe",
// "runtime") and selects the catalog entry shown in verbose mode.
func (a *App) call(ctx context.Context, method, resource string, params, out any) error {
	socket, err := a.resolveSocket(ctx)
	if err != nil {
		return err
	}

	err = a.Dial(socket).Call(ctx, method, params, out)
	if err == nil {
		return nil
	}

	if errors.Is(err, rpc.ErrDaemonUnreachable) {
		return issue.NewErrorContext().
			WithOperation("connect to daemon").
			WithResource(socket).
			WithIssue(issue.DaemonUnreachableId).
			WithSuggestion("Start the daemon with 'alloy daemon'").
			WithSuggestion(fmt.Sprintf("Point the client at another socket with --socket or %s", config.EnvSocket)).
			Wrap(err).
			BuildError()
	}

	ctxBuilder := issue.NewErrorContext().
		WithOperation(method).
		WithIssue(issue.ForKind(issue.KindOf(err), resource)).
		Wrap(err)
	if errors.Is(err, rpc.ErrInvalidParams) {
		ctxBuilder.WithSuggestion("Run the command with --help to see its required flags")
	}
	return ctxBuilder.BuildError()
}

// printJSON writes v as indented JSON, the --json output of every client command.
func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/siliconalloy/alloy/internal/bottle"
	"github.com/siliconalloy/alloy/internal/config"
	"github.com/siliconalloy/alloy/internal/daemon"
	"github.com/siliconalloy/alloy/internal/recipe"
	"github.com/siliconalloy/alloy/internal/rpc"
	"github.com/siliconalloy/alloy/internal/runtime"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newDaemonCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the bottle daemon in the foreground",
		Long: `Run the bottle daemon in the foreground.

The daemon discovers wine runtimes once at startup, serves requests on its
unix socket and stops on interrupt or SIGTERM, removing the socket file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			if app.socketPath != "" {
				cfg.SocketPath = app.socketPath
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runDaemon(ctx, cfg, app.stderr)
		},
	}
}

// runDaemon serves until ctx is cancelled or the server reports a failure.
func runDaemon(ctx context.Context, cfg *config.Config, stderr io.Writer) error {
	logger, closeLog, err := newDaemonLogger(cfg, stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	srv, err := newDaemonServer(cfg, logger)
	if err != nil {
		return err
	}
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case err, ok := <-srv.Err():
			if !ok {
				return nil
			}
			logger.Error("daemon failed", "error", err)
			return err
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		return srv.Stop()
	})
	return g.Wait()
}

// newDaemonServer assembles the service state from cfg and wraps it in an
// RPC server bound to the configured socket.
func newDaemonServer(cfg *config.Config, logger *log.Logger) (*rpc.Server, error) {
	store, err := bottle.NewStore(cfg.BottleDir(), bottle.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	runtimes, err := runtime.LoadCatalog(cfg.RuntimeDir, cfg.ExtraRuntime)
	if err != nil {
		return nil, err
	}
	if runtimes.Len() == 0 {
		logger.Warn("no wine runtimes discovered", "path", cfg.RuntimeDir)
	}
	logger.Info("runtime catalog loaded", "path", cfg.RuntimeDir, "count", runtimes.Len())

	launcher := runtime.NewNativeLauncher(cfg.Launcher.Translator, cfg.Launcher.Debug)

	svc := daemon.New(store, runtimes, recipe.NewCatalog(cfg.RecipeDir), launcher,
		daemon.WithLogger(logger),
		daemon.WithVersion(Version),
		daemon.WithTranslator(cfg.Launcher.Translator),
	)
	return rpc.NewServer(cfg.SocketPath, svc, rpc.WithLogger(logger)), nil
}

// newDaemonLogger writes to stderr and, when log_file is set, appends to
// the daemon log file as well.
func newDaemonLogger(cfg *config.Config, stderr io.Writer) (*log.Logger, func(), error) {
	level, err := log.ParseLevel(cfg.LogLevel.String())
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", config.ErrInvalidLogLevel, err)
	}

	w := stderr
	closeLog := func() {}
	if cfg.LogFile {
		if err := os.MkdirAll(cfg.LogDir(), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.LogFilePath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open daemon log: %w", err)
		}
		w = io.MultiWriter(stderr, f)
		closeLog = func() {
			if err := f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
				fmt.Fprintln(stderr, WarningStyle.Render("Warning:"), "close daemon log:", err)
			}
		}
	}

	logger := log.NewWithOptions(w, log.Options{
		Prefix:          "alloyd",
		ReportTimestamp: true,
		Level:           level,
	})
	return logger, closeLog, nil
}

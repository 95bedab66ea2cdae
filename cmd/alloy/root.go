// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the alloy command tree bound to app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "alloy",
		Short: "Manage isolated Windows environments on top of wine",
		Long: TitleStyle.Render("alloy") + SubtitleStyle.Render(" - bottles, runtimes and recipes for wine") + `

alloy talks to a local daemon that owns your bottles: isolated wine
prefixes bound to one wine runtime. Recipes provision a bottle with
installers, environment overrides and copied files.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Start the daemon:      alloy daemon
  2. Create a bottle:       alloy create "Steam" --wine-version 8.0
  3. Apply a recipe:        alloy recipes apply --bottle <id> --recipe steam
  4. Run a program in it:   alloy run <id> 'C:\Program Files (x86)\Steam\steam.exe'`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	flags.StringVar(&app.configPath, "config", "", "config file (default is <config dir>/silicon-alloy/config.cue)")
	flags.StringVar(&app.socketPath, "socket", "", "daemon socket path (overrides the configured socket)")
	flags.BoolVar(&app.jsonOutput, "json", false, "print daemon responses as JSON")

	rootCmd.AddCommand(
		newDaemonCommand(app),
		newInfoCommand(app),
		newListCommand(app),
		newCreateCommand(app),
		newDeleteCommand(app),
		newRunCommand(app),
		newRecipesCommand(app),
		newRuntimeCommand(app),
		newShortcutCommand(app),
		newConfigCommand(app),
	)

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute builds the command tree and runs it. It is called by main.main().
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error:"), err)
		os.Exit(1)
	}

	// fang overrides rootCmd.Version, so the version goes through WithVersion.
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(app.errorHandler),
	); err != nil {
		os.Exit(exitCodeOf(err))
	}
}

// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/siliconalloy/alloy/internal/config"
	"github.com/siliconalloy/alloy/internal/issue"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `alloy config` command tree.
// Subcommands that read configuration use the App's config.Provider.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage alloy configuration",
		Long: `Manage alloy configuration.

Configuration is stored in:
  - Linux: ~/.config/silicon-alloy/config.cue
  - macOS: ~/Library/Application Support/silicon-alloy/config.cue

SILICON_ALLOY_* environment variables take precedence over the file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.CreateDefaultConfig("")
			if err != nil {
				return fmt.Errorf("failed to create config: %w", err)
			}
			fmt.Fprintf(app.stdout, "%s Configuration at %s\n", okMark(), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			fmt.Fprintf(app.stdout, "Config directory: %s\n", cfgDir)
			fmt.Fprintf(app.stdout, "Config file: %s\n", defaultConfigFile(cfgDir))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		renderIssue(app.stderr, issue.ConfigLoadFailedId)
		return err
	}
	if app.jsonOutput {
		return app.printJSON(cfg)
	}

	w := app.stdout
	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)

	source := SubtitleStyle.Render("(using defaults)")
	if cfg.File != "" {
		source = cfg.File
	}
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), source)
	fmt.Fprintln(w)

	rows := []struct{ key, value string }{
		{"socket_path", cfg.SocketPath},
		{"data_dir", cfg.DataDir},
		{"runtime_dir", cfg.RuntimeDir},
		{"recipe_dir", cfg.RecipeDir},
		{"extra_runtime", cfg.ExtraRuntime},
		{"log_level", cfg.LogLevel.String()},
		{"log_file", fmt.Sprintf("%v", cfg.LogFile)},
	}
	for _, r := range rows {
		value := valueStyle.Render(r.value)
		if r.value == "" {
			value = SubtitleStyle.Render("(not set)")
		}
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render(r.key), value)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("launcher"))
	translator := SubtitleStyle.Render("(none)")
	if len(cfg.Launcher.Translator) > 0 {
		translator = valueStyle.Render(strings.Join(cfg.Launcher.Translator, " "))
	}
	fmt.Fprintf(w, "  translator: %s\n", translator)
	fmt.Fprintf(w, "  debug: %s\n", valueStyle.Render(cfg.Launcher.Debug))

	return nil
}

func defaultConfigFile(cfgDir string) string {
	return filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt)
}

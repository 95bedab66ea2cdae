// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/siliconalloy/alloy/internal/bottle"
	"github.com/siliconalloy/alloy/internal/daemon"
	"github.com/siliconalloy/alloy/internal/issue"
	"github.com/siliconalloy/alloy/internal/runtime"
	"github.com/siliconalloy/alloy/pkg/types"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newInfoCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show daemon version, directories and runtimes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var res daemon.InfoResult
			if err := app.call(cmd.Context(), daemon.MethodInfo, "", nil, &res); err != nil {
				return err
			}
			if app.jsonOutput {
				return app.printJSON(res)
			}

			w := app.stdout
			fmt.Fprintln(w, TitleStyle.Render("Silicon Alloy daemon"))
			fmt.Fprintln(w)
			printField(w, "version", res.Version)
			printField(w, "bottles", res.BottleRoot)
			printField(w, "runtimes", res.RuntimeDir)
			printField(w, "recipes", res.RecipeDir)
			fmt.Fprintln(w)
			printRuntimes(w, res.Runtimes)
			return nil
		},
	}
}

func newListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List bottles",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var res daemon.BottlesResult
			if err := app.call(cmd.Context(), daemon.MethodBottleList, "bottle", nil, &res); err != nil {
				return err
			}
			if app.jsonOutput {
				return app.printJSON(res)
			}

			if len(res.Bottles) == 0 {
				fmt.Fprintln(app.stdout, SubtitleStyle.Render("(no bottles)"))
				return nil
			}
			for _, rec := range res.Bottles {
				printBottle(app.stdout, rec)
			}
			return nil
		},
	}
}

func newCreateCommand(app *App) *cobra.Command {
	var p daemon.CreateParams

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a bottle",
		Long: `Create a bottle bound to a wine runtime.

The runtime is chosen from the daemon's runtime catalog by channel and
version; --wine-path selects an executable outside the catalog.`,
		Example: `  alloy create "Steam" --wine-version 8.0
  alloy create office --wine-version 9.0 --channel native-arm64
  alloy create dev --wine-version 9.1 --wine-path /opt/wine/bin/wine64`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.Name = args[0]

			var res daemon.BottleResult
			if err := app.call(cmd.Context(), daemon.MethodBottleCreate, "bottle", p, &res); err != nil {
				return err
			}
			if app.jsonOutput {
				return app.printJSON(res)
			}

			fmt.Fprintf(app.stdout, "%s Created bottle %s (%s)\n",
				okMark(), CmdStyle.Render(res.Bottle.Name), res.Bottle.ID)
			fmt.Fprintf(app.stdout, "  %s\n", VerboseStyle.Render(describeRuntime(res.Bottle.WineRuntime)))
			return nil
		},
	}

	cmd.Flags().StringVar(&p.WineVersion, "wine-version", "", "wine version to bind the bottle to (required)")
	cmd.Flags().StringVar(&p.WineLabel, "wine-label", "", "display label for the runtime")
	cmd.Flags().StringVar(&p.WinePath, "wine-path", "", "explicit wine64 executable, bypassing the catalog")
	cmd.Flags().StringVar(&p.Channel, "channel", "", "runtime channel (default "+runtime.DefaultChannel+")")
	_ = cmd.MarkFlagRequired("wine-version") //nolint:errcheck // flag is defined above

	return cmd
}

func newDeleteCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <bottle-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a bottle and its prefix",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBottleID(args[0])
			if err != nil {
				return err
			}

			var res daemon.DeleteResult
			if err := app.call(cmd.Context(), daemon.MethodBottleDelete, "bottle", daemon.DeleteParams{ID: id}, &res); err != nil {
				return err
			}
			if app.jsonOutput {
				return app.printJSON(res)
			}

			fmt.Fprintf(app.stdout, "%s Deleted bottle %s\n", okMark(), res.Deleted)
			return nil
		},
	}
}

func newRunCommand(app *App) *cobra.Command {
	var (
		envVars  []string
		envFiles []string
	)

	cmd := &cobra.Command{
		Use:   "run <bottle-id> <executable> [args...]",
		Short: "Run a Windows program inside a bottle",
		Long: `Run a Windows program inside a bottle and wait for it to exit.

The program's exit status becomes alloy's exit status. Environment
overrides from --env-file and --env apply to this launch only, after the
bottle's own overrides; later values win.`,
		Example: `  alloy run 0b6c... 'C:\Program Files (x86)\Steam\steam.exe' -silent
  alloy run --env DXVK_HUD=fps --env-file game.env 0b6c... setup.exe /S`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBottleID(args[0])
			if err != nil {
				return err
			}
			env, err := collectEnv(envFiles, envVars)
			if err != nil {
				return err
			}

			p := daemon.RunParams{ID: id, Executable: args[1], Args: args[2:], Env: env}
			return runInBottle(cmd.Context(), app, p)
		},
	}

	cmd.Flags().StringArrayVarP(&envVars, "env", "e", nil, "environment override KEY=VALUE (repeatable)")
	cmd.Flags().StringArrayVar(&envFiles, "env-file", nil, "dotenv file with overrides, suffix '?' if optional (repeatable)")
	// Flags go before the bottle id; everything after it belongs to the program.
	cmd.Flags().SetInterspersed(false)

	return cmd
}

func runInBottle(ctx context.Context, app *App, p daemon.RunParams) error {
	var res daemon.RunResult
	if err := app.call(ctx, daemon.MethodBottleRun, "bottle", p, &res); err != nil {
		return err
	}
	if app.jsonOutput {
		if err := app.printJSON(res); err != nil {
			return err
		}
	} else if res.Success {
		fmt.Fprintf(app.stdout, "%s %s exited successfully\n", okMark(), p.Executable)
	} else {
		fmt.Fprintf(app.stderr, "%s %s exited with status %s\n", warnMark(), p.Executable, res.ExitStatus)
	}

	if res.Success {
		return nil
	}
	code := res.ExitStatus
	if !code.HasCode() {
		code = 1
	}
	return &ExitError{Code: code}
}

// collectEnv reads env files in order and then applies --env assignments.
func collectEnv(files, assignments []string) (types.Env, error) {
	var env types.Env
	for _, path := range files {
		loaded, err := runtime.LoadEnvFile(path)
		if err != nil {
			return nil, issue.Wrap(issue.ErrInvalidInput, "load env file", err)
		}
		for _, v := range loaded {
			env = env.Set(v.Key, v.Value)
		}
	}
	for _, s := range assignments {
		v, err := runtime.ParseEnvAssignment(s)
		if err != nil {
			return nil, issue.Wrap(issue.ErrInvalidInput, "parse --env", err)
		}
		env = env.Set(v.Key, v.Value)
	}
	return env, nil
}

func parseBottleID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, issue.NewErrorContext().
			WithOperation("parse bottle id").
			WithResource(s).
			WithSuggestion("Use 'alloy list' to see bottle ids").
			Wrap(issue.Wrap(issue.ErrInvalidInput, "parse uuid", err)).
			BuildError()
	}
	return id, nil
}

func printBottle(w io.Writer, rec bottle.Record) {
	created := time.Unix(int64(rec.CreatedAt), 0).Format(time.DateTime) //nolint:gosec // seconds since epoch fit in int64
	fmt.Fprintf(w, "%s  %s\n", TitleStyle.Render(rec.Name), CmdStyle.Render(rec.ID.String()))
	fmt.Fprintf(w, "  %s  %s\n", VerboseStyle.Render(describeRuntime(rec.WineRuntime)), SubtitleStyle.Render("created "+created))
	for _, v := range rec.Environment {
		fmt.Fprintf(w, "  %s\n", SubtitleStyle.Render(v.String()))
	}
}

func describeRuntime(rt runtime.WineRuntime) string {
	if rt.Channel == "" {
		return fmt.Sprintf("%s: %s", rt.Label, rt.Wine64Path)
	}
	return fmt.Sprintf("%s [%s]: %s", rt.Label, rt.Channel, rt.Wine64Path)
}

func printField(w io.Writer, key, value string) {
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render(key+":"), value)
}

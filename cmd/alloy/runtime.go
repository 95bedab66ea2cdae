// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/siliconalloy/alloy/internal/daemon"
	"github.com/siliconalloy/alloy/internal/runtime"

	"github.com/spf13/cobra"
)

func newRuntimeCommand(app *App) *cobra.Command {
	runtimeCmd := &cobra.Command{
		Use:   "runtime",
		Short: "Inspect the wine runtimes known to the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	runtimeCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List discovered runtimes",
		Long: `List the runtimes the daemon discovered at startup.

Runtimes installed after the daemon started appear after a restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var res daemon.RuntimesResult
			if err := app.call(cmd.Context(), daemon.MethodRuntimeList, "runtime", nil, &res); err != nil {
				return err
			}
			if app.jsonOutput {
				return app.printJSON(res)
			}
			printRuntimes(app.stdout, res.Runtimes)
			return nil
		},
	})

	return runtimeCmd
}

func printRuntimes(w io.Writer, list []runtime.Descriptor) {
	fmt.Fprintln(w, TitleStyle.Render("Runtimes"))
	if len(list) == 0 {
		fmt.Fprintf(w, "  %s\n", SubtitleStyle.Render("(none discovered)"))
		return
	}
	for _, d := range list {
		fmt.Fprintf(w, "  %s %s %s\n", CmdStyle.Render(d.Label), SubtitleStyle.Render("["+d.Channel+"]"), d.Wine64Path)
		if d.Notes != "" {
			fmt.Fprintf(w, "    %s\n", VerboseStyle.Render(d.Notes))
		}
	}
}

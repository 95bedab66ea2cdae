// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/siliconalloy/alloy/internal/daemon"

	"github.com/spf13/cobra"
)

func newShortcutCommand(app *App) *cobra.Command {
	shortcutCmd := &cobra.Command{
		Use:   "shortcut",
		Short: "Manage desktop launchers for bottle programs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var (
		p        daemon.ShortcutParams
		bottleID string
	)
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an application bundle that runs a program in a bottle",
		Long: `Create an application bundle that launches a Windows program inside a
bottle with the bottle's environment overrides. An existing bundle with the
same name is replaced.`,
		Example: `  alloy shortcut create --bottle 0b6c... --name Steam \
    --executable 'C:\Program Files (x86)\Steam\steam.exe'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBottleID(bottleID)
			if err != nil {
				return err
			}
			p.BottleID = id

			var res daemon.ShortcutResult
			if err := app.call(cmd.Context(), daemon.MethodShortcutCreate, "bottle", p, &res); err != nil {
				return err
			}
			if app.jsonOutput {
				return app.printJSON(res)
			}

			fmt.Fprintf(app.stdout, "%s Created shortcut %s\n", okMark(), CmdStyle.Render(res.Shortcut))
			return nil
		},
	}
	createCmd.Flags().StringVar(&bottleID, "bottle", "", "bottle id (required)")
	createCmd.Flags().StringVar(&p.Name, "name", "", "display name of the shortcut (required)")
	createCmd.Flags().StringVar(&p.Executable, "executable", "", "Windows program to launch (required)")
	createCmd.Flags().StringVar(&p.Destination, "destination", "", "directory for the bundle (default ~/Applications/Silicon Alloy)")
	for _, name := range []string{"bottle", "name", "executable"} {
		_ = createCmd.MarkFlagRequired(name) //nolint:errcheck // flags are defined above
	}

	shortcutCmd.AddCommand(createCmd)
	return shortcutCmd
}

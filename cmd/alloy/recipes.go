// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/siliconalloy/alloy/internal/daemon"
	"github.com/siliconalloy/alloy/internal/recipe"
	"github.com/siliconalloy/alloy/pkg/types"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

type (
	// recipeView is the client-side form of a recipe.show result. Steps
	// carry a "type" discriminator plus the fields of their variant.
	recipeView struct {
		ID          string     `json:"id"`
		Name        string     `json:"name"`
		Description string     `json:"description,omitempty"`
		Steps       []stepView `json:"steps"`
	}

	stepView struct {
		Type      recipe.StepKind `json:"type"`
		Path      string          `json:"path,omitempty"`
		Args      []string        `json:"args,omitempty"`
		Version   string          `json:"version,omitempty"`
		Variables types.Env       `json:"variables,omitempty"`
		From      string          `json:"from,omitempty"`
		To        string          `json:"to,omitempty"`
	}

	recipeShowResult struct {
		Recipe recipeView `json:"recipe"`
	}
)

func newRecipesCommand(app *App) *cobra.Command {
	recipesCmd := &cobra.Command{
		Use:     "recipes",
		Aliases: []string{"recipe"},
		Short:   "List, inspect and apply provisioning recipes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	recipesCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List available recipes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var res daemon.RecipesResult
			if err := app.call(cmd.Context(), daemon.MethodRecipeList, "recipe", nil, &res); err != nil {
				return err
			}
			if app.jsonOutput {
				return app.printJSON(res)
			}

			if len(res.Recipes) == 0 {
				fmt.Fprintln(app.stdout, SubtitleStyle.Render("(no recipes)"))
				return nil
			}
			for _, s := range res.Recipes {
				fmt.Fprintf(app.stdout, "%s %s\n", TitleStyle.Render(s.Name), CmdStyle.Render("("+s.ID+")"))
				if s.Description != "" {
					fmt.Fprintf(app.stdout, "  %s\n", SubtitleStyle.Render(firstLine(s.Description)))
				}
			}
			return nil
		},
	})

	recipesCmd.AddCommand(&cobra.Command{
		Use:   "show <recipe-id>",
		Short: "Show a recipe's description and steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var res recipeShowResult
			if err := app.call(cmd.Context(), daemon.MethodRecipeShow, "recipe", daemon.RecipeParams{RecipeID: args[0]}, &res); err != nil {
				return err
			}
			if app.jsonOutput {
				return app.printJSON(res)
			}
			printRecipe(app.stdout, res.Recipe)
			return nil
		},
	})

	recipesCmd.AddCommand(newRecipeApplyCommand(app))

	return recipesCmd
}

func newRecipeApplyCommand(app *App) *cobra.Command {
	var (
		p        daemon.ApplyParams
		bottleID string
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a recipe to a bottle",
		Long: `Apply a recipe's steps to a bottle in order.

Steps that already ran keep their effects when a later step fails; the
bottle's environment overrides are only saved when every step succeeds.`,
		Example: `  alloy recipes apply --bottle 0b6c... --recipe dxvk`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBottleID(bottleID)
			if err != nil {
				return err
			}
			p.BottleID = id

			var res daemon.ApplyResult
			if err := app.call(cmd.Context(), daemon.MethodRecipeApply, "recipe", p, &res); err != nil {
				return err
			}
			if app.jsonOutput {
				return app.printJSON(res)
			}

			fmt.Fprintf(app.stdout, "%s Applied recipe %s to bottle %s\n",
				okMark(), CmdStyle.Render(res.Applied), id)
			return nil
		},
	}

	cmd.Flags().StringVar(&bottleID, "bottle", "", "target bottle id (required)")
	cmd.Flags().StringVar(&p.RecipeID, "recipe", "", "recipe id (required)")
	_ = cmd.MarkFlagRequired("bottle") //nolint:errcheck // flag is defined above
	_ = cmd.MarkFlagRequired("recipe") //nolint:errcheck // flag is defined above

	return cmd
}

func printRecipe(w io.Writer, r recipeView) {
	fmt.Fprintf(w, "%s %s\n", TitleStyle.Render(r.Name), CmdStyle.Render("("+r.ID+")"))

	if r.Description != "" {
		rendered, err := glamour.Render(r.Description, "dark")
		if err != nil {
			log.Warn("failed to render recipe description", "recipe", r.ID, "error", err)
			rendered = r.Description + "\n"
		}
		fmt.Fprint(w, rendered)
	} else {
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, labelStyle.Render("Steps:"))
	for i, s := range r.Steps {
		fmt.Fprintf(w, "  %d. %s %s\n", i+1, CmdStyle.Render(string(s.Type)), s.detail())
	}
}

// detail renders the variant fields of a step on one line.
func (s stepView) detail() string {
	switch s.Type {
	case recipe.KindRun:
		return strings.Join(append([]string{s.Path}, s.Args...), " ")
	case recipe.KindWineCfg:
		if s.Version != "" {
			return "version=" + s.Version
		}
	case recipe.KindEnv:
		return strings.Join(s.Variables.Strings(), " ")
	case recipe.KindCopy:
		return s.From + " -> " + s.To
	}
	return ""
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}

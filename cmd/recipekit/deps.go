// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/recipekit/recipekit/internal/deps"
	"github.com/recipekit/recipekit/pkg/recipe"

	"github.com/spf13/cobra"
)

func newDepsCommand(app *App, root *rootOptions) *cobra.Command {
	var phase string

	depsCmd := &cobra.Command{
		Use:   "deps <recipe|file.cue>",
		Short: "Check a recipe's declared dependencies on this host",
		Long: `Report whether each dependency the recipe declares resolves on PATH.
recipekit does not install dependencies; the command exits non-zero when
any are missing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := begin(cmd.Context(), app, root)
			if err != nil {
				return fail(cmd, app, nil, err)
			}
			p := recipe.DependencyPhase(phase)
			if err := p.Validate(); err != nil {
				return fail(cmd, app, inv, err)
			}
			r, err := resolveRecipe(args[0])
			if err != nil {
				return fail(cmd, app, inv, err)
			}

			report := app.Pipelines(inv.cfg, nil).CheckDeps(r, p)
			fmt.Fprintf(app.stdout, "%s %s (%s, %s)\n", TitleStyle.Render("Dependencies of"), r.Name(), report.Phase, report.GOOS)
			for _, st := range report.Statuses {
				fmt.Fprintf(app.stdout, "  %-12s %s\n", st.Dependency.Name, renderState(st))
			}
			if err := report.Err(); err != nil {
				return fail(cmd, app, inv, err)
			}
			return nil
		},
	}

	depsCmd.Flags().StringVar(&phase, "phase", string(recipe.PhaseBuild), "dependency phase to check (build or runtime)")
	return depsCmd
}

func renderState(st deps.Status) string {
	switch st.State {
	case deps.StateFound:
		return SuccessStyle.Render("found") + " " + SubtitleStyle.Render(st.Path)
	case deps.StateProvided:
		return SuccessStyle.Render("provided by " + st.Dependency.ProvidedBy)
	default:
		return WarningStyle.Render("missing") + " " + SubtitleStyle.Render("("+st.Command+")")
	}
}

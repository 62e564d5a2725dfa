// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/recipekit/recipekit/pkg/recipe"

	"github.com/spf13/cobra"
)

func newListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the built-in recipes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := recipe.Builtins()
			if err != nil {
				return fail(cmd, app, nil, err)
			}
			fmt.Fprintln(app.stdout, TitleStyle.Render("Built-in recipes"))
			for _, r := range all {
				fmt.Fprintf(app.stdout, "  %s %s  %s\n", CmdStyle.Render(r.Name().String()), r.Version(), SubtitleStyle.Render(r.Description().String()))
			}
			return nil
		},
	}
}

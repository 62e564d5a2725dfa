// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newTestCommand(app *App, root *rootOptions) *cobra.Command {
	var prefixFlag string

	testCmd := &cobra.Command{
		Use:   "test <recipe|file.cue>",
		Short: "Run the smoke test against an installed recipe",
		Long: `Run the installed binary's version command and check that its output
starts with the recipe's product name and the installed version.

The version is read from the install receipt; without one the recipe's
tag version is expected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			inv, err := begin(ctx, app, root)
			if err != nil {
				return fail(cmd, app, nil, err)
			}
			r, err := resolveRecipe(args[0])
			if err != nil {
				return fail(cmd, app, inv, err)
			}
			prefix, err := inv.prefixFor(prefixFlag)
			if err != nil {
				return fail(cmd, app, inv, err)
			}

			outcome, err := app.Pipelines(inv.cfg, nil).Test(ctx, r, prefix)
			if err != nil {
				return fail(cmd, app, inv, err)
			}
			fmt.Fprintf(app.stdout, "%s %s: %s\n", SuccessStyle.Render("✓"), outcome.Check.Binary, firstLine(outcome.Output))
			return nil
		},
	}

	testCmd.Flags().StringVar(&prefixFlag, "prefix", "", "installation prefix (default from config)")
	return testCmd
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}

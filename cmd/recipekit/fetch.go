// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/recipekit/recipekit/internal/fetch"
	"github.com/recipekit/recipekit/internal/pipeline"
	"github.com/recipekit/recipekit/pkg/types"

	"github.com/spf13/cobra"
)

func newFetchCommand(app *App, root *rootOptions) *cobra.Command {
	var head bool

	fetchCmd := &cobra.Command{
		Use:   "fetch <recipe|file.cue> <dir>",
		Short: "Check out a recipe's source without building it",
		Long: `Clone the recipe's source into dir, which must be empty or absent.

The pinned revision is verified exactly as during install: if the tag no
longer resolves to it the checkout is removed and the command fails.`,
		Args: cobra.ExactArgs(2),
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
			abs, err := filepath.Abs(args[1])
			if err != nil {
				return fail(cmd, app, inv, err)
			}
			dest := types.FilesystemPath(abs)

			var co *fetch.Checkout
			if head {
				ref, ok := r.Head()
				if !ok {
					return fail(cmd, app, inv, fmt.Errorf("%s: %w", r.Name(), pipeline.ErrNoHead))
				}
				co, err = app.Sources.FetchHead(ctx, ref, dest)
			} else {
				co, err = app.Sources.Fetch(ctx, r.Source(), dest)
			}
			if err != nil {
				return fail(cmd, app, inv, err)
			}

			fmt.Fprintf(app.stdout, "%s %s %s at %s\n", SuccessStyle.Render("✓"), co.Ref, CmdStyle.Render(co.Revision.String()), co.Dir)
			return nil
		},
	}

	fetchCmd.Flags().BoolVar(&head, "head", false, "check out the head branch instead of the pinned tag")
	return fetchCmd
}

func newVerifyCommand(app *App, root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <recipe|file.cue>",
		Short: "Check that the recipe's tag still resolves to its pinned revision",
		Long: `Ask the remote repository which commit the recipe's tag points at,
without cloning, and compare it with the pinned revision.`,
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

			src := r.Source()
			rev, err := app.Sources.Verify(ctx, src)
			if err != nil {
				return fail(cmd, app, inv, err)
			}
			if !src.Revision.IsPinned() {
				fmt.Fprintf(app.stdout, "%s %s resolves to %s %s\n", WarningStyle.Render("!"), src.Tag, CmdStyle.Render(rev.String()), SubtitleStyle.Render("(no revision pinned)"))
				return nil
			}
			fmt.Fprintf(app.stdout, "%s %s resolves to %s\n", SuccessStyle.Render("✓"), src.Tag, CmdStyle.Render(rev.String()))
			return nil
		},
	}
}

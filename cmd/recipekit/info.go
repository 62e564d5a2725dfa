// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/recipekit/recipekit/internal/install"
	"github.com/recipekit/recipekit/pkg/recipe"

	"github.com/spf13/cobra"
)

func newInfoCommand(app *App, root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info <recipe|file.cue>",
		Short: "Show a recipe's metadata and install state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := begin(cmd.Context(), app, root)
			if err != nil {
				return fail(cmd, app, nil, err)
			}
			r, err := resolveRecipe(args[0])
			if err != nil {
				return fail(cmd, app, inv, err)
			}

			renderRecipe(app.stdout, r)

			prefix, err := inv.prefixFor("")
			if err != nil {
				return nil //nolint:nilerr // install state is optional
			}
			receipt, err := install.ReadReceipt(prefix, r.Name())
			switch {
			case errors.Is(err, install.ErrNotInstalled):
				fmt.Fprintf(app.stdout, "\n%s %s\n", CmdStyle.Render("Installed:"), SubtitleStyle.Render("no"))
			case err != nil:
				return fail(cmd, app, inv, err)
			default:
				renderReceipt(app.stdout, prefix, receipt)
			}
			return nil
		},
	}
}

func renderRecipe(w io.Writer, r *recipe.Recipe) {
	field := func(key, value string) {
		if value == "" {
			value = SubtitleStyle.Render("(none)")
		}
		fmt.Fprintf(w, "%s %s\n", CmdStyle.Render(key+":"), value)
	}

	fmt.Fprintf(w, "%s %s\n", TitleStyle.Render(r.Name().String()), SubtitleStyle.Render(r.Description().String()))
	fmt.Fprintln(w)
	field("Product", r.ProductName())
	field("Version", r.Version().String())
	field("Homepage", r.Homepage())
	field("License", r.License())

	src := r.Source()
	field("Source", src.URL.String())
	field("Tag", src.Tag.String())
	field("Revision", src.Revision.String())
	if head, ok := r.Head(); ok {
		field("Head", head.URL.String()+" ("+head.Branch.String()+")")
	}

	build := r.Build()
	field("Artifact", build.Artifact.String())
	field("Linker flags", recipe.BuildParams{Version: r.Version(), BuildDate: recipe.Today()}.LinkerFlags(build))
	field("Smoke test", strings.Join(append([]string{build.Artifact.String()}, r.Test().Args...), " "))
	field("Expects", fmt.Sprintf("%q", r.ExpectedPrefix(r.Version())))

	if len(r.Dependencies()) > 0 {
		fmt.Fprintf(w, "%s\n", CmdStyle.Render("Dependencies:"))
		for _, d := range r.Dependencies() {
			line := fmt.Sprintf("  - %s (%s)", d.Name, d.Phase)
			if d.ProvidedBy != "" {
				line += " " + SubtitleStyle.Render("provided by "+d.ProvidedBy)
			}
			fmt.Fprintln(w, line)
		}
	}
}

func renderReceipt(w io.Writer, prefix install.Prefix, rc *install.Receipt) {
	fmt.Fprintf(w, "\n%s %s %s\n", CmdStyle.Render("Installed:"), SuccessStyle.Render(rc.Version), SubtitleStyle.Render("in "+prefix.Root().String()))
	if rc.Revision != "" {
		fmt.Fprintf(w, "  revision:  %s\n", rc.Revision)
	}
	fmt.Fprintf(w, "  built:     %s\n", rc.BuildDate)
	fmt.Fprintf(w, "  installed: %s\n", rc.InstalledAt.Format("2006-01-02 15:04:05 MST"))
	for _, f := range rc.Files {
		fmt.Fprintf(w, "  file:      %s\n", f)
	}
}

// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/recipekit/recipekit/internal/deps"
	"github.com/recipekit/recipekit/internal/pipeline"
	"github.com/recipekit/recipekit/pkg/recipe"

	"github.com/spf13/cobra"
)

type installOptions struct {
	prefix      string
	head        bool
	skipTest    bool
	keepSandbox bool
	dryRun      bool
	strictDeps  bool
}

func newInstallCommand(app *App, root *rootOptions) *cobra.Command {
	opts := &installOptions{}

	installCmd := &cobra.Command{
		Use:   "install <recipe|file.cue>",
		Short: "Fetch, build, install and smoke-test a recipe",
		Long: `Fetch the recipe's pinned source, build it with the Go toolchain, install
the artifact into the prefix and run the smoke test.

With --head the recipe's branch is built instead of the pinned tag, and the
version becomes HEAD-<short commit>.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd, app, root, opts, args[0])
		},
	}

	installCmd.Flags().StringVar(&opts.prefix, "prefix", "", "installation prefix (default from config)")
	installCmd.Flags().BoolVar(&opts.head, "head", false, "build the head branch instead of the pinned tag")
	installCmd.Flags().BoolVar(&opts.skipTest, "skip-test", false, "do not run the smoke test after installing")
	installCmd.Flags().BoolVar(&opts.keepSandbox, "keep-sandbox", false, "keep the build sandbox for inspection")
	installCmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "print the steps without executing them")
	installCmd.Flags().BoolVar(&opts.strictDeps, "strict-deps", false, "fail when declared dependencies are missing")

	return installCmd
}

func runInstall(cmd *cobra.Command, app *App, root *rootOptions, opts *installOptions, ref string) error {
	ctx := cmd.Context()

	inv, err := begin(ctx, app, root)
	if err != nil {
		return fail(cmd, app, nil, err)
	}
	r, err := resolveRecipe(ref)
	if err != nil {
		return fail(cmd, app, inv, err)
	}
	prefix, err := inv.prefixFor(opts.prefix)
	if err != nil {
		return fail(cmd, app, inv, err)
	}

	p := app.Pipelines(inv.cfg, inv.buildOutput())
	req := pipeline.Request{
		Recipe:      r,
		Prefix:      prefix,
		Head:        opts.head,
		SkipTest:    opts.skipTest,
		KeepSandbox: opts.keepSandbox,
		StrictDeps:  opts.strictDeps || inv.cfg.Deps.Strict,
	}

	if opts.dryRun {
		plan, planErr := p.Plan(req)
		if planErr != nil {
			return fail(cmd, app, inv, planErr)
		}
		renderPlan(app.stdout, r, plan)
		return nil
	}

	fmt.Fprintf(app.stdout, "%s %s\n", TitleStyle.Render("Installing"), r.Name())
	res, err := p.Run(ctx, req)
	if err != nil {
		return fail(cmd, app, inv, err)
	}
	renderInstallResult(app.stdout, r, res)
	return nil
}

func renderPlan(w io.Writer, r *recipe.Recipe, plan *pipeline.Plan) {
	fmt.Fprintf(w, "%s %s %s\n", TitleStyle.Render("Plan for"), r.Name(), SubtitleStyle.Render(string(plan.Version)))
	for _, step := range plan.Steps {
		fmt.Fprintf(w, "  %s %s\n", stepStyle.Render(string(step.Step)), step.Detail)
	}
}

func renderInstallResult(w io.Writer, r *recipe.Recipe, res *pipeline.Result) {
	for _, st := range res.Deps.Missing() {
		fmt.Fprintf(w, "  %s %s not found (%s)\n", stepStyle.Render(string(pipeline.StepDeps)), st.Dependency.Name, WarningStyle.Render(string(deps.StateMissing)))
	}
	fmt.Fprintf(w, "  %s %s at %s\n", stepStyle.Render(string(pipeline.StepFetch)), res.Version, CmdStyle.Render(res.Revision.Short()))
	fmt.Fprintf(w, "  %s %s\n", stepStyle.Render(string(pipeline.StepInstall)), CmdStyle.Render(res.Install.BinPath.String()))
	if res.Test != nil {
		fmt.Fprintf(w, "  %s %s\n", stepStyle.Render(string(pipeline.StepTest)), SuccessStyle.Render(firstLine(res.Test.Output)))
	}
	if res.Sandbox != "" {
		fmt.Fprintf(w, "  %s %s\n", SubtitleStyle.Render("sandbox kept at"), res.Sandbox)
	}
	fmt.Fprintf(w, "%s %s %s\n", SuccessStyle.Render("✓"), r.Name(), res.Version)
}

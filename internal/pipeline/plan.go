// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"fmt"

	"github.com/recipekit/recipekit/pkg/recipe"
	"github.com/recipekit/recipekit/pkg/types"
)

// headPlaceholder stands in for the version of a head build before the
// branch has been fetched.
const headPlaceholder recipe.Version = "HEAD"

type (
	// Step names a pipeline stage.
	Step string

	// PlannedStep is one stage of a dry run.
	PlannedStep struct {
		Step   Step
		Detail string
	}

	// Plan describes what Run would do for a request.
	Plan struct {
		Version recipe.Version
		Steps   []PlannedStep
		// Command is the shell-quoted toolchain invocation.
		Command string
	}
)

// Pipeline stages, in execution order.
const (
	StepDeps    Step = "deps"
	StepFetch   Step = "fetch"
	StepInstall Step = "install"
	StepTest    Step = "test"
)

// Plan describes the request without touching the network or the prefix.
func (p *Pipeline) Plan(req Request) (*Plan, error) {
	r := req.Recipe
	plan := &Plan{Version: r.Version()}

	names := make([]string, 0, len(r.Dependencies()))
	for _, d := range r.Dependencies() {
		names = append(names, d.Name)
	}
	plan.add(StepDeps, fmt.Sprintf("check %v on %s", names, p.goos()))

	if req.Head {
		ref, ok := r.Head()
		if !ok {
			return nil, fmt.Errorf("%s: %w", r.Name(), ErrNoHead)
		}
		plan.Version = headPlaceholder
		plan.add(StepFetch, fmt.Sprintf("clone %s branch %s", ref.URL, ref.Branch))
	} else {
		src := r.Source()
		detail := fmt.Sprintf("clone %s tag %s", src.URL, src.Tag)
		if src.Revision.IsPinned() {
			detail += fmt.Sprintf(" and verify revision %s", src.Revision)
		}
		plan.add(StepFetch, detail)
	}

	params := recipe.BuildParams{Version: plan.Version, BuildDate: p.today()}
	cmd, err := p.Toolchain.Command(types.FilesystemPath("<sandbox>/src"), params, r.Build())
	if err != nil {
		return nil, err
	}
	plan.Command = cmd.String()
	plan.add(StepInstall, fmt.Sprintf("run %s, then install %s into %s", plan.Command, r.Build().Artifact, req.Prefix.BinDir()))

	if !req.SkipTest {
		bin := req.Prefix.BinPath(r.Build().Artifact)
		plan.add(StepTest, fmt.Sprintf("run %s %v and expect output starting with %q", bin, r.Test().Args, r.ExpectedPrefix(plan.Version)))
	}
	return plan, nil
}

func (p *Plan) add(step Step, detail string) {
	p.Steps = append(p.Steps, PlannedStep{Step: step, Detail: detail})
}

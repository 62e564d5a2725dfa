// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/recipekit/recipekit/internal/config"
	"github.com/recipekit/recipekit/internal/fetch"
	"github.com/recipekit/recipekit/internal/pipeline"
	"github.com/recipekit/recipekit/internal/smoketest"
	"github.com/recipekit/recipekit/internal/toolchain"
	"github.com/recipekit/recipekit/pkg/recipe"
	"github.com/recipekit/recipekit/pkg/types"
)

type (
	// App wires CLI services and shared dependencies. Cobra handlers receive
	// an App and delegate everything beyond flag parsing and rendering to it.
	App struct {
		Config    ConfigProvider
		Sources   SourceService
		Pipelines PipelineFactory
		stdout    io.Writer
		stderr    io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config    ConfigProvider
		Sources   SourceService
		Pipelines PipelineFactory
		Stdout    io.Writer
		Stderr    io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Loaded, error)
	}

	// SourceService fetches and verifies recipe sources outside a pipeline
	// run. *fetch.Fetcher implements it.
	SourceService interface {
		Fetch(ctx context.Context, src recipe.SourceRef, dest types.FilesystemPath) (*fetch.Checkout, error)
		FetchHead(ctx context.Context, head recipe.HeadRef, dest types.FilesystemPath) (*fetch.Checkout, error)
		Verify(ctx context.Context, src recipe.SourceRef) (recipe.Revision, error)
	}

	// PipelineFactory builds a pipeline for a loaded configuration. Build
	// output, when shown at all, goes to buildOutput.
	PipelineFactory func(cfg *config.Config, buildOutput io.Writer) *pipeline.Pipeline
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Sources == nil {
		deps.Sources = fetch.NewFetcher()
	}
	if deps.Pipelines == nil {
		deps.Pipelines = newPipeline
	}

	return &App{
		Config:    deps.Config,
		Sources:   deps.Sources,
		Pipelines: deps.Pipelines,
		stdout:    deps.Stdout,
		stderr:    deps.Stderr,
	}
}

// newPipeline is the production PipelineFactory. Sandboxes live under the
// configured cache directory.
func newPipeline(cfg *config.Config, buildOutput io.Writer) *pipeline.Pipeline {
	tc := toolchainFromConfig(cfg)
	tc.Output = buildOutput
	tester := &smoketest.Tester{Timeout: cfg.Timeouts.Test}

	var sandboxRoot types.FilesystemPath
	if cfg.CacheDir != "" {
		sandboxRoot = cfg.CacheDir.Join("sandboxes")
	}
	return pipeline.New(tc, tester, sandboxRoot)
}

func toolchainFromConfig(cfg *config.Config) toolchain.Toolchain {
	return toolchain.Toolchain{
		Binary:  cfg.Toolchain.GoBinary,
		Env:     cfg.Toolchain.EnvStrings(),
		Timeout: cfg.Timeouts.Build,
	}
}

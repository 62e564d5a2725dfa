// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/recipekit/recipekit/internal/config"
	"github.com/recipekit/recipekit/internal/install"
	"github.com/recipekit/recipekit/pkg/recipe"
	"github.com/recipekit/recipekit/pkg/types"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the release version (set via -ldflags).
	Version = "dev"
	// BuildDate is the build day (set via -ldflags).
	BuildDate = "unknown"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	verbose    bool
	configPath string
}

// NewRootCommand builds the full command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "recipekit",
		Short: "Fetch, build, install and smoke-test package recipes",
		Long: TitleStyle.Render("recipekit") + SubtitleStyle.Render(" - Fetch, build, install and smoke-test package recipes") + `

recipekit processes declarative recipes: it clones a pinned source
revision, builds it with the Go toolchain, installs the artifact into a
prefix and checks that the installed binary reports the right version.

` + SubtitleStyle.Render("Examples:") + `
  recipekit list                       List the built-in recipes
  recipekit install otc-auth           Build and install the pinned release
  recipekit install otc-auth --head    Build the latest commit instead
  recipekit install ./my.cue --dry-run Show what would run
  recipekit test otc-auth              Re-run the smoke test`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(app.stderr, opts.verbose)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/recipekit/config.cue)")

	rootCmd.AddCommand(
		newInstallCommand(app, opts),
		newTestCommand(app, opts),
		newFetchCommand(app, opts),
		newVerifyCommand(app, opts),
		newInfoCommand(app, opts),
		newListCommand(app),
		newDepsCommand(app, opts),
		newConfigCommand(app, opts),
		newVersionCommand(app),
	)

	return rootCmd
}

// getVersionString formats the version the same way recipe-built binaries
// report theirs.
func getVersionString() string {
	return fmt.Sprintf("%s (%s)", Version, BuildDate)
}

// Execute runs the CLI and exits with the code of the first failure.
func Execute() {
	rootCmd := NewRootCommand(NewApp(Dependencies{}))
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(int(types.ExitFailure))
	}
}

// setupLogging installs a charmbracelet logger as the slog default, so
// package-level slog calls share the CLI's styling.
func setupLogging(w io.Writer, verbose bool) {
	logger := log.NewWithOptions(w, log.Options{
		Prefix: "recipekit",
		Level:  log.InfoLevel,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
		logger.SetReportTimestamp(true)
	}
	slog.SetDefault(slog.New(logger))
}

// invocation is the per-command state derived from flags and config.
type invocation struct {
	app     *App
	cfg     *config.Config
	cfgPath string
	verbose bool
}

// begin loads configuration for a command. Verbose mode from the config
// file applies when --verbose was not given.
func begin(ctx context.Context, app *App, opts *rootOptions) (*invocation, error) {
	loaded, err := app.Config.Load(ctx, config.LoadOptions{ConfigFilePath: opts.configPath})
	if err != nil {
		return nil, err
	}
	inv := &invocation{app: app, cfg: loaded.Config, cfgPath: loaded.Path, verbose: opts.verbose}
	if !inv.verbose && inv.cfg.UI.Verbose {
		inv.verbose = true
		setupLogging(app.stderr, true)
	}
	return inv, nil
}

// fail renders err with its catalog entry and turns it into an ExitError.
// When inv is nil (config failed to load) defaults are used for rendering.
func fail(cmd *cobra.Command, app *App, inv *invocation, err error) error {
	verbose, style := false, string(config.ColorSchemeAuto)
	if inv != nil {
		verbose, style = inv.verbose, string(inv.cfg.UI.ColorScheme)
	}
	svcErr := classifyError(err)
	renderServiceError(app.stderr, svcErr, verbose, style)
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return &ExitError{Code: svcErr.Code}
}

// prefixFor resolves the --prefix flag, falling back to the configured
// prefix. Relative paths are taken from the working directory.
func (inv *invocation) prefixFor(flagValue string) (install.Prefix, error) {
	root := types.FilesystemPath(flagValue)
	if root == "" {
		root = inv.cfg.Prefix
	}
	if root == "" {
		return install.Prefix{}, errors.New("no installation prefix: pass --prefix or set prefix in the config file")
	}
	abs, err := filepath.Abs(string(root))
	if err != nil {
		return install.Prefix{}, fmt.Errorf("resolve prefix: %w", err)
	}
	return install.NewPrefix(types.FilesystemPath(abs))
}

// buildOutput is where toolchain output is streamed: stderr in verbose
// mode, nowhere otherwise.
func (inv *invocation) buildOutput() io.Writer {
	if inv.verbose {
		return inv.app.stderr
	}
	return nil
}

func resolveRecipe(ref string) (*recipe.Recipe, error) {
	r, err := recipe.Resolve(ref)
	if err != nil {
		return nil, err
	}
	slog.Debug("resolved recipe", "recipe", r.Name(), "path", r.Path())
	return r, nil
}

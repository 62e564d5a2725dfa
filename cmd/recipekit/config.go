// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/recipekit/recipekit/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `recipekit config` command tree.
func newConfigCommand(app *App, root *rootOptions) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage recipekit configuration",
		Long: `Manage recipekit configuration.

Configuration is stored in:
  - Linux: ~/.config/recipekit/config.cue
  - macOS: ~/Library/Application Support/recipekit/config.cue
  - Windows: %APPDATA%\recipekit\config.cue

Every setting can be overridden with a RECIPEKIT_ environment variable,
e.g. RECIPEKIT_TIMEOUTS_BUILD=45m or RECIPEKIT_TOOLCHAIN_GO_BINARY=go1.25.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := begin(cmd.Context(), app, root)
			if err != nil {
				return fail(cmd, app, nil, err)
			}
			showConfig(app, inv)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, created, err := config.CreateDefaultConfig("")
			if err != nil {
				return fail(cmd, app, nil, err)
			}
			if !created {
				fmt.Fprintf(app.stdout, "%s config file already exists: %s\n", WarningStyle.Render("!"), path)
				return nil
			}
			fmt.Fprintf(app.stdout, "%s created %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Print the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := begin(cmd.Context(), app, root)
			if err != nil {
				return fail(cmd, app, nil, err)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(inv.cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(app *App, inv *invocation) {
	cfg := inv.cfg
	w := app.stdout
	value := func(key string, v any) {
		s := fmt.Sprint(v)
		if s == "" {
			s = SubtitleStyle.Render("(unset)")
		} else {
			s = SuccessStyle.Render(s)
		}
		fmt.Fprintf(w, "  %s: %s\n", CmdStyle.Render(key), s)
	}

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if inv.cfgPath != "" {
		fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("Config file"), inv.cfgPath)
	} else {
		fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}

	fmt.Fprintf(w, "\n%s:\n", CmdStyle.Render("toolchain"))
	value("go_binary", cfg.Toolchain.GoBinary)
	value("env", strings.Join(cfg.Toolchain.EnvStrings(), " "))

	fmt.Fprintf(w, "\n%s:\n", CmdStyle.Render("timeouts"))
	value("build", cfg.Timeouts.Build)
	value("test", cfg.Timeouts.Test)

	fmt.Fprintln(w)
	value("cache_dir", cfg.CacheDir)
	value("prefix", cfg.Prefix)

	fmt.Fprintf(w, "\n%s:\n", CmdStyle.Render("deps"))
	value("strict", cfg.Deps.Strict)

	fmt.Fprintf(w, "\n%s:\n", CmdStyle.Render("ui"))
	value("verbose", cfg.UI.Verbose)
	value("color_scheme", cfg.UI.ColorScheme)
}

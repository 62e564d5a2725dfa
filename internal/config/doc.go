// SPDX-License-Identifier: MPL-2.0

// Package config loads recipekit settings with Viper, using CUE as the file
// format.
//
// Settings come from built-in defaults, then an optional config.cue in the
// platform config directory ($XDG_CONFIG_HOME/recipekit on Linux,
// ~/Library/Application Support/recipekit on macOS, %APPDATA%\recipekit on
// Windows) or an explicit --config file, then RECIPEKIT_* environment
// variables. Files are validated against the embedded #Config schema in
// config_schema.cue before they are merged.
package config

// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/recipekit/recipekit/pkg/types"
)

const (
	// ColorSchemeAuto detects the terminal background.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces the dark palette.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces the light palette.
	ColorSchemeLight ColorScheme = "light"

	// DefaultBuildTimeout bounds a toolchain run.
	DefaultBuildTimeout = 30 * time.Minute
	// DefaultTestTimeout bounds a smoke test run.
	DefaultTestTimeout = time.Minute
)

var (
	// ErrInvalidColorScheme is the sentinel error wrapped by InvalidColorSchemeError.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidEnvEntry is the sentinel error wrapped by InvalidEnvEntryError.
	ErrInvalidEnvEntry = errors.New("invalid environment entry")
	// ErrInvalidTimeout is the sentinel error wrapped by InvalidTimeoutError.
	ErrInvalidTimeout = errors.New("invalid timeout")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme is the terminal palette preference.
	ColorScheme string

	// InvalidColorSchemeError is returned for unknown color schemes.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// EnvEntry is a KEY=VALUE environment assignment.
	EnvEntry string

	// InvalidEnvEntryError is returned for entries without a key.
	InvalidEnvEntryError struct {
		Value EnvEntry
	}

	// InvalidTimeoutError is returned for non-positive timeouts.
	InvalidTimeoutError struct {
		Field string
		Value time.Duration
	}

	// InvalidConfigError collects field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		Toolchain ToolchainConfig `json:"toolchain" mapstructure:"toolchain"`
		Timeouts  TimeoutsConfig  `json:"timeouts" mapstructure:"timeouts"`
		// CacheDir is the parent of per-run build sandboxes.
		CacheDir types.FilesystemPath `json:"cache_dir" mapstructure:"cache_dir"`
		// Prefix is the default installation prefix.
		Prefix types.FilesystemPath `json:"prefix" mapstructure:"prefix"`
		Deps   DepsConfig           `json:"deps" mapstructure:"deps"`
		UI     UIConfig             `json:"ui" mapstructure:"ui"`
	}

	// ToolchainConfig selects and configures the go command.
	ToolchainConfig struct {
		GoBinary string     `json:"go_binary" mapstructure:"go_binary"`
		Env      []EnvEntry `json:"env" mapstructure:"env"`
	}

	// TimeoutsConfig bounds the two subprocess steps.
	TimeoutsConfig struct {
		Build time.Duration `json:"build" mapstructure:"build"`
		Test  time.Duration `json:"test" mapstructure:"test"`
	}

	// DepsConfig controls the dependency check.
	DepsConfig struct {
		Strict bool `json:"strict" mapstructure:"strict"`
	}

	// UIConfig configures terminal output.
	UIConfig struct {
		Verbose     bool        `json:"verbose" mapstructure:"verbose"`
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
	}
)

// DefaultConfig returns the built-in defaults. CacheDir and Prefix are
// derived from the user's cache and home directories and stay empty when
// those cannot be determined.
func DefaultConfig() *Config {
	return &Config{
		Toolchain: ToolchainConfig{GoBinary: "go", Env: []EnvEntry{}},
		Timeouts:  TimeoutsConfig{Build: DefaultBuildTimeout, Test: DefaultTestTimeout},
		CacheDir:  defaultCacheDir(),
		Prefix:    defaultPrefix(),
		UI:        UIConfig{ColorScheme: ColorSchemeAuto},
	}
}

// Validate checks constraints the schema cannot express on values that may
// also come from the environment.
func (c Config) Validate() error {
	var errs []error
	if err := c.UI.ColorScheme.Validate(); err != nil {
		errs = append(errs, err)
	}
	for _, e := range c.Toolchain.Env {
		if err := e.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Timeouts.Build <= 0 {
		errs = append(errs, &InvalidTimeoutError{Field: "timeouts.build", Value: c.Timeouts.Build})
	}
	if c.Timeouts.Test <= 0 {
		errs = append(errs, &InvalidTimeoutError{Field: "timeouts.test", Value: c.Timeouts.Test})
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// EnvStrings returns the toolchain environment as plain strings.
func (c ToolchainConfig) EnvStrings() []string {
	out := make([]string, len(c.Env))
	for i, e := range c.Env {
		out[i] = string(e)
	}
	return out
}

// Validate returns nil for auto, dark and light.
func (cs ColorScheme) Validate() error {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return nil
	default:
		return &InvalidColorSchemeError{Value: cs}
	}
}

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// Validate returns nil when the entry has a non-empty key before '='.
func (e EnvEntry) Validate() error {
	key, _, ok := strings.Cut(string(e), "=")
	if !ok || key == "" || strings.ContainsAny(key, " \t") {
		return &InvalidEnvEntryError{Value: e}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (expected auto, dark or light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// Error implements the error interface.
func (e *InvalidEnvEntryError) Error() string {
	return fmt.Sprintf("invalid environment entry %q (expected KEY=VALUE)", e.Value)
}

// Unwrap returns ErrInvalidEnvEntry for errors.Is() compatibility.
func (e *InvalidEnvEntryError) Unwrap() error { return ErrInvalidEnvEntry }

// Error implements the error interface.
func (e *InvalidTimeoutError) Error() string {
	return fmt.Sprintf("invalid %s %s (must be positive)", e.Field, e.Value)
}

// Unwrap returns ErrInvalidTimeout for errors.Is() compatibility.
func (e *InvalidTimeoutError) Unwrap() error { return ErrInvalidTimeout }

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %v", errors.Join(e.FieldErrors...))
}

// Unwrap exposes ErrInvalidConfig and every field error.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

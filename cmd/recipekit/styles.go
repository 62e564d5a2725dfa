// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Color palette shared by all CLI output. Tuned for dark terminals.
const (
	// ColorPrimary is used for titles and recipe names.
	ColorPrimary = lipgloss.Color("#7C3AED")
	// ColorMuted is used for secondary text.
	ColorMuted = lipgloss.Color("#6B7280")
	// ColorSuccess marks completed steps and resolved dependencies.
	ColorSuccess = lipgloss.Color("#10B981")
	// ColorError marks failures.
	ColorError = lipgloss.Color("#EF4444")
	// ColorWarning marks missing dependencies and other non-fatal problems.
	ColorWarning = lipgloss.Color("#F59E0B")
	// ColorHighlight is used for commands, paths and revisions.
	ColorHighlight = lipgloss.Color("#3B82F6")
)

var (
	// TitleStyle is for section headers and recipe names.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SubtitleStyle is for descriptions and placeholder values.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// SuccessStyle is for positive outcomes.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// ErrorStyle is for error labels.
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	// WarningStyle is for warnings.
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// CmdStyle is for keys, commands and paths.
	CmdStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)

	// stepStyle labels pipeline steps in install and dry-run output.
	stepStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorHighlight).
			Width(9)
)

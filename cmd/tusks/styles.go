// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/invowk/tusks/internal/listing"
)

// Color palette shared with the task listing. The colors are chosen for
// dark terminal backgrounds.
const (
	ColorPrimary   = listing.ColorPrimary
	ColorMuted     = listing.ColorMuted
	ColorHighlight = listing.ColorHighlight
	ColorWarning   = listing.ColorWarning

	// ColorSuccess is green - used for checkmarks and positive outcomes.
	ColorSuccess = lipgloss.Color("#10B981")
	// ColorError is red - used for errors and failures.
	ColorError = lipgloss.Color("#EF4444")
)

var (
	// TitleStyle is for primary headers and section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SubtitleStyle is for secondary headers and descriptions.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// SuccessStyle is for success messages and positive indicators.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// ErrorStyle is for error messages and failure indicators.
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	// WarningStyle is for warning messages and caution indicators.
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// CmdStyle is for command names and paths.
	CmdStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)
)

// Package tui provides terminal user interface components for TRANSMUTE.
//
// This package provides a centralized style system using Lip Gloss for
// consistent TUI component styling. All colors use AdaptiveColor for
// light/dark terminal support.
//
// Call CheckNoColor() at the start of commands to respect the NO_COLOR
// environment variable. Colors are also disabled when TERM=dumb.
package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/mrz1836/transmute/internal/constants"
)

//nolint:gochecknoglobals // Intentional package-level constants for TUI styling API
var (
	// ColorPrimary is blue, used for active states and primary actions.
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#0087AF", Dark: "#00D7FF"}

	// ColorSuccess is green, used for success states and completed phases.
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#008700", Dark: "#00FF87"}

	// ColorWarning is yellow, used for warning states and attention-required items.
	ColorWarning = lipgloss.AdaptiveColor{Light: "#AF8700", Dark: "#FFD700"}

	// ColorError is red, used for error states and failed phases.
	ColorError = lipgloss.AdaptiveColor{Light: "#AF0000", Dark: "#FF5F5F"}

	// ColorMuted is gray, used for dim/inactive states and secondary text.
	ColorMuted = lipgloss.AdaptiveColor{Light: "#585858", Dark: "#6C6C6C"}

	// StyleBold applies bold formatting to text.
	StyleBold = lipgloss.NewStyle().Bold(true)

	// StyleDim applies dim/faint formatting to text.
	StyleDim = lipgloss.NewStyle().Faint(true)
)

// OutputStyles holds common output styles.
type OutputStyles struct {
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Dim     lipgloss.Style
}

// NewOutputStyles creates common output styles using AdaptiveColor for light/dark terminal support.
func NewOutputStyles() *OutputStyles {
	return &OutputStyles{
		Success: lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true),
		Error: lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true),
		Warning: lipgloss.NewStyle().
			Foreground(ColorWarning),
		Info: lipgloss.NewStyle().
			Foreground(ColorPrimary),
		Dim: lipgloss.NewStyle().
			Foreground(ColorMuted),
	}
}

// CheckNoColor respects the NO_COLOR environment variable.
// Call this at the start of commands that output styled text.
func CheckNoColor() {
	if !HasColorSupport() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// HasColorSupport returns true if the terminal supports colors.
// Returns false if NO_COLOR is set (any value including empty string) or TERM=dumb.
// This follows the NO_COLOR standard: https://no-color.org/
func HasColorSupport() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return true
}

// PhaseStatusColors returns the semantic color definitions for plan phase
// statuses. Uses AdaptiveColor for light/dark terminal support.
func PhaseStatusColors() map[constants.PhaseStatus]lipgloss.AdaptiveColor {
	return map[constants.PhaseStatus]lipgloss.AdaptiveColor{
		constants.PhaseStatusPending:   {Light: "#0087AF", Dark: "#00D7FF"}, // Blue
		constants.PhaseStatusSucceeded: {Light: "#00875F", Dark: "#00FF87"}, // Green
		constants.PhaseStatusFailed:    {Light: "#AF0000", Dark: "#FF5F5F"}, // Red
	}
}

// PhaseStatusIcon returns the icon/symbol for a given phase status.
// Triple redundancy is maintained for status displays: icon + color + text.
func PhaseStatusIcon(status constants.PhaseStatus) string {
	icons := map[constants.PhaseStatus]string{
		constants.PhaseStatusPending:   "○", // Empty circle - waiting
		constants.PhaseStatusSucceeded: "✓", // Checkmark - success
		constants.PhaseStatusFailed:    "✗", // X mark - failed
	}
	if icon, ok := icons[status]; ok {
		return icon
	}
	return "?"
}

// JobStatusColors returns the semantic color definitions for job statuses.
func JobStatusColors() map[constants.JobStatus]lipgloss.AdaptiveColor {
	return map[constants.JobStatus]lipgloss.AdaptiveColor{
		constants.JobStatusNotStarted:         {Light: "#585858", Dark: "#6C6C6C"}, // Gray
		constants.JobStatusRunning:            {Light: "#0087AF", Dark: "#00D7FF"}, // Blue
		constants.JobStatusSucceeded:          {Light: "#00875F", Dark: "#00FF87"}, // Green
		constants.JobStatusPartiallySucceeded: {Light: "#D7AF00", Dark: "#FFD700"}, // Yellow
		constants.JobStatusFailed:             {Light: "#AF0000", Dark: "#FF5F5F"}, // Red
		constants.JobStatusCancelled:          {Light: "#585858", Dark: "#6C6C6C"}, // Dim
	}
}

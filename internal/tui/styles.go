// Package tui renders injecteur output on the terminal.
//
// All colors use AdaptiveColor for light/dark terminal support. Step
// statuses are always shown with icon, color and text so that the output
// stays readable without colors.
//
// Call CheckNoColor() at the start of commands to respect the NO_COLOR
// environment variable. Colors are also disabled when TERM=dumb.
package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/mrz1836/injecteur/internal/constants"
)

//nolint:gochecknoglobals // Intentional package-level constants for TUI styling API
var (
	// ColorPrimary is blue, used for informational messages.
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#0087AF", Dark: "#00D7FF"}

	// ColorSuccess is green.
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#008700", Dark: "#00FF87"}

	// ColorWarning is yellow.
	ColorWarning = lipgloss.AdaptiveColor{Light: "#AF8700", Dark: "#FFD700"}

	// ColorError is red.
	ColorError = lipgloss.AdaptiveColor{Light: "#AF0000", Dark: "#FF5F5F"}

	// ColorMuted is gray, used for secondary text.
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

// NewOutputStyles creates common output styles.
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
func CheckNoColor() {
	if !HasColorSupport() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// HasColorSupport returns false if NO_COLOR is set (any value, including
// empty) or TERM=dumb. See https://no-color.org/
func HasColorSupport() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// StatusColors returns the color of each step status.
func StatusColors() map[constants.StepStatus]lipgloss.AdaptiveColor {
	return map[constants.StepStatus]lipgloss.AdaptiveColor{
		constants.StatusSuccess: ColorSuccess,
		constants.StatusWarning: ColorWarning,
		constants.StatusFailure: ColorError,
		constants.StatusUnknown: ColorMuted,
	}
}

// StatusIcon returns the icon of a step status.
func StatusIcon(status constants.StepStatus) string {
	switch status {
	case constants.StatusSuccess:
		return "✓"
	case constants.StatusWarning:
		return "⚠"
	case constants.StatusFailure:
		return "✗"
	case constants.StatusUnknown:
		return "?"
	}
	return "?"
}

// FormatStatus renders status as "icon TEXT" in the status color.
func FormatStatus(status constants.StepStatus) string {
	text := StatusIcon(status) + " " + status.String()
	color, ok := StatusColors()[status]
	if !ok || !HasColorSupport() {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}

// Package console formats operator-facing messages.
package console

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	commandStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	stepStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
)

// FormatSuccessMessage renders a success line.
func FormatSuccessMessage(msg string) string {
	return successStyle.Render("✅ " + msg)
}

// FormatInfoMessage renders an informational line.
func FormatInfoMessage(msg string) string {
	return infoStyle.Render("ℹ️  " + msg)
}

// FormatWarningMessage renders a warning line.
func FormatWarningMessage(msg string) string {
	return warningStyle.Render("⚠️  " + msg)
}

// FormatErrorMessage renders an error line.
func FormatErrorMessage(msg string) string {
	return errorStyle.Render("❌ " + msg)
}

// FormatCommandMessage renders a command echo.
func FormatCommandMessage(cmd string) string {
	return commandStyle.Render(cmd)
}

// FormatStepHeader renders the heading of a release step.
func FormatStepHeader(step string) string {
	return stepStyle.Render(step)
}

// IsAccessibleMode reports whether prompts should use huh's accessible mode,
// which reads plain lines instead of drawing a TUI.
func IsAccessibleMode() bool {
	return os.Getenv("ACCESSIBLE") != "" || os.Getenv("TERM") == "dumb"
}

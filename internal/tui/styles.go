package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#F5A97F")
	muted  = lipgloss.Color("#8087A2")
	danger = lipgloss.Color("#ED8796")
	green  = lipgloss.Color("#A6DA95")

	frameStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1)

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(accent)
	labelStyle   = lipgloss.NewStyle().Foreground(muted).Width(10)
	focusStyle   = lipgloss.NewStyle().Foreground(accent)
	hintStyle    = lipgloss.NewStyle().Foreground(muted)
	errorStyle   = lipgloss.NewStyle().Foreground(danger)
	successStyle = lipgloss.NewStyle().Foreground(green)
)

// StatusStyle renders a status line the way the dialog does. It is shared
// with the non-interactive commands.
func StatusStyle(isError bool) lipgloss.Style {
	if isError {
		return errorStyle
	}
	return hintStyle
}

// SuccessStyle renders a completion message.
func SuccessStyle() lipgloss.Style { return successStyle }

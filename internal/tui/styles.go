package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorText   = lipgloss.AdaptiveColor{Light: "#1a1a1a", Dark: "#e6e6e6"}
	colorMuted  = lipgloss.AdaptiveColor{Light: "#8a8a8a", Dark: "#6c6c6c"}
	colorAccent = lipgloss.AdaptiveColor{Light: "#005f87", Dark: "#5fafd7"}
	colorError  = lipgloss.AdaptiveColor{Light: "#af0000", Dark: "#ff5f5f"}

	titleStyle      = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	modeStyle       = lipgloss.NewStyle().Foreground(colorMuted).Padding(0, 1)
	activeModeStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Padding(0, 1).Underline(true)
	boardStyle      = lipgloss.NewStyle().Foreground(colorText)
	statusStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle      = lipgloss.NewStyle().Foreground(colorError)
	helpStyle       = lipgloss.NewStyle().Foreground(colorMuted)
)

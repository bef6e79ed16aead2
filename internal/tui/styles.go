package tui

import "github.com/charmbracelet/lipgloss"

// Styles
var (
	baseFg    = lipgloss.Color("#E6E6E6")
	baseDimFg = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#6B7280"}
	accentFg  = lipgloss.Color("#0088FF")
	warnFg    = lipgloss.Color("#F59E0B")
	errorFg   = lipgloss.Color("#EF4444")
	borderCol = lipgloss.Color("#243141")

	appStyle      = lipgloss.NewStyle().Foreground(baseFg)
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(borderCol).Padding(0, 1)
	titleStyle    = lipgloss.NewStyle().Foreground(accentFg).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(baseDimFg)
	labelStyle    = lipgloss.NewStyle().Foreground(baseDimFg).Width(9)
	selectedStyle = lipgloss.NewStyle().Foreground(accentFg).Bold(true)
	busyStyle     = lipgloss.NewStyle().Foreground(warnFg)
	errorStyle    = lipgloss.NewStyle().Foreground(errorFg)
)

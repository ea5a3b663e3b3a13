package style

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles holds all the lipgloss styles for the TUI.
type Styles struct {
	// Layout
	App    lipgloss.Style
	Title  lipgloss.Style
	Grid   lipgloss.Style
	Footer lipgloss.Style

	// Status indicators
	StatusPolling lipgloss.Style
	StatusPaused  lipgloss.Style
	StatusWaiting lipgloss.Style
	StatusStale   lipgloss.Style

	// Misc
	Muted   lipgloss.Style
	Notice  lipgloss.Style
	Error   lipgloss.Style
	Spinner lipgloss.Style
}

// DefaultStyles returns the default style configuration.
func DefaultStyles() Styles {
	return Styles{
		// Layout - minimal borders, let the grid breathe
		App: lipgloss.NewStyle().
			Padding(0, 1),
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")),
		Grid: lipgloss.NewStyle().
			MarginTop(1),
		Footer: lipgloss.NewStyle().
			MarginTop(1).
			Foreground(lipgloss.Color("252")),

		// Status indicators - subtle colors
		StatusPolling: lipgloss.NewStyle().
			Foreground(lipgloss.Color("71")), // Muted green
		StatusPaused: lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")), // Gray
		StatusWaiting: lipgloss.NewStyle().
			Foreground(lipgloss.Color("179")). // Muted yellow
			Italic(true),
		StatusStale: lipgloss.NewStyle().
			Foreground(lipgloss.Color("179")),

		// Misc
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
		Notice: lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),
		Spinner: lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")),
	}
}

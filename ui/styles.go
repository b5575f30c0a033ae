package ui

import "github.com/charmbracelet/lipgloss"

var (
	Primary     = lipgloss.AdaptiveColor{Light: "#1f3a5f", Dark: "#8ab4f8"}
	Muted       = lipgloss.AdaptiveColor{Light: "#8a8f98", Dark: "#6b7280"}
	Destructive = lipgloss.Color("#e53935")
	Success     = lipgloss.Color("#43a047")
	Warning     = lipgloss.Color("#ffb300")
)

// Styles groups the lipgloss styles used by both views.
type Styles struct {
	Title    lipgloss.Style
	Label    lipgloss.Style
	Help     lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Item     lipgloss.Style
	Cursor   lipgloss.Style
	Selected lipgloss.Style
	Pane     lipgloss.Style
	Focused  lipgloss.Style
}

func DefaultStyles() Styles {
	pane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Muted).
		Padding(0, 1)
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(Primary).MarginBottom(1),
		Label:    lipgloss.NewStyle().Bold(true),
		Help:     lipgloss.NewStyle().Foreground(Muted),
		Error:    lipgloss.NewStyle().Foreground(Destructive),
		Success:  lipgloss.NewStyle().Foreground(Success),
		Warning:  lipgloss.NewStyle().Foreground(Warning).Bold(true),
		Item:     lipgloss.NewStyle().PaddingLeft(2),
		Cursor:   lipgloss.NewStyle().Foreground(Primary).Bold(true),
		Selected: lipgloss.NewStyle().Foreground(Success),
		Pane:     pane,
		Focused:  pane.BorderForeground(Primary),
	}
}

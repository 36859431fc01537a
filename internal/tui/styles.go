package tui

import "github.com/charmbracelet/lipgloss"

// Row statuses.
const (
	StatusPending   = "pending"
	StatusSelecting = "selecting engine"
	StatusToolchain = "toolchain"
	StatusPackaging = "packaging"
	StatusArchiving = "archiving"
	StatusBuilt     = "built"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
	StatusInstalled = "installed"
	StatusMissing   = "missing"
)

var (
	TitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	HeaderStyle = lipgloss.NewStyle().Bold(true)

	statusStyles = map[string]lipgloss.Style{
		StatusBuilt:     lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		StatusInstalled: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),

		StatusSelecting: lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		StatusToolchain: lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		StatusPackaging: lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		StatusArchiving: lipgloss.NewStyle().Foreground(lipgloss.Color("4")),

		StatusSkipped: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		StatusMissing: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),

		StatusFailed: lipgloss.NewStyle().Foreground(lipgloss.Color("1")),

		StatusPending: lipgloss.NewStyle().Faint(true),
	}
)

// StatusStyle returns the lipgloss style for the given status string.
func StatusStyle(status string) lipgloss.Style {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return lipgloss.NewStyle()
}

// IsFinal reports whether a row status is final.
func IsFinal(status string) bool {
	switch status {
	case StatusBuilt, StatusSkipped, StatusFailed:
		return true
	}
	return false
}

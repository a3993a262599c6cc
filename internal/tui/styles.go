package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/hperssn/panicbutton/internal/domain"
)

var (
	ColorFgPrimary = lipgloss.Color("#ABB2BF")
	ColorFgMuted   = lipgloss.Color("#636B78")
	ColorRed       = lipgloss.Color("#E06C75")
	ColorGreen     = lipgloss.Color("#98C379")
	ColorYellow    = lipgloss.Color("#E5C07B")
	ColorBlue      = lipgloss.Color("#61AFEF")
	ColorCyan      = lipgloss.Color("#56B6C2")
	ColorBorder    = lipgloss.Color("#3F4451")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true).
			MarginBottom(1)

	ItemStyle = lipgloss.NewStyle().
			Foreground(ColorFgPrimary).
			PaddingLeft(2)

	SelectedItemStyle = lipgloss.NewStyle().
				Foreground(ColorCyan).
				Bold(true).
				PaddingLeft(1).
				Border(lipgloss.NormalBorder(), false, false, false, true).
				BorderForeground(ColorCyan)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorFgMuted)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(1, 3)

	CountdownStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorFgPrimary)
)

// actionStyle colours the phase label.
func actionStyle(a domain.Action) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(true)
	switch a {
	case domain.ActionInhale:
		return s.Foreground(ColorBlue)
	case domain.ActionExhale:
		return s.Foreground(ColorGreen)
	default:
		return s.Foreground(ColorYellow)
	}
}

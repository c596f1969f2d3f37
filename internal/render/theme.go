// Package render formats records and dashboard figures for the terminal.
package render

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	ColorInk      = lipgloss.AdaptiveColor{Light: "#0F172A", Dark: "#F1F5F9"}
	ColorDispatch = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}
	ColorMuted    = lipgloss.AdaptiveColor{Light: "#64748B", Dark: "#94A3B8"}
	ColorBorder   = lipgloss.AdaptiveColor{Light: "#CBD5E1", Dark: "#475569"}
	ColorSuccess  = lipgloss.AdaptiveColor{Light: "#38A169", Dark: "#48BB78"}
	ColorWarning  = lipgloss.AdaptiveColor{Light: "#D69E2E", Dark: "#F6E05E"}
)

// Theme is the set of styles a view is drawn with
type Theme struct {
	Title    lipgloss.Style
	Label    lipgloss.Style
	Order    lipgloss.Style
	Dispatch lipgloss.Style
	Muted    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Card     lipgloss.Style
}

// DefaultTheme is the colored theme
func DefaultTheme() Theme {
	return Theme{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(ColorInk),
		Label:    lipgloss.NewStyle().Bold(true).Foreground(ColorMuted),
		Order:    lipgloss.NewStyle().Bold(true).Foreground(ColorInk),
		Dispatch: lipgloss.NewStyle().Bold(true).Foreground(ColorDispatch),
		Muted:    lipgloss.NewStyle().Foreground(ColorMuted),
		Success:  lipgloss.NewStyle().Foreground(ColorSuccess),
		Warning:  lipgloss.NewStyle().Foreground(ColorWarning),
		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 2),
	}
}

// PlainTheme draws without color or emphasis, for --no-color and pipes
func PlainTheme() Theme {
	plain := lipgloss.NewStyle()
	return Theme{
		Title:    plain,
		Label:    plain,
		Order:    plain,
		Dispatch: plain,
		Muted:    plain,
		Success:  plain,
		Warning:  plain,
		Card:     plain.Border(lipgloss.NormalBorder()).Padding(0, 2),
	}
}

package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/handiism/melody/internal/config"
)

// palette is one color theme.
type palette struct {
	accent  lipgloss.Color
	second  lipgloss.Color
	text    lipgloss.Color
	dim     lipgloss.Color
	success lipgloss.Color
	warning lipgloss.Color
	errorC  lipgloss.Color
	border  lipgloss.Color
}

var (
	darkPalette = palette{
		accent:  lipgloss.Color("#6366F1"),
		second:  lipgloss.Color("#4ECDC4"),
		text:    lipgloss.Color("#F1F5F9"),
		dim:     lipgloss.Color("#6C757D"),
		success: lipgloss.Color("#95E1A3"),
		warning: lipgloss.Color("#FFE66D"),
		errorC:  lipgloss.Color("#FF6B6B"),
		border:  lipgloss.Color("#4ECDC4"),
	}

	lightPalette = palette{
		accent:  lipgloss.Color("#4F46E5"),
		second:  lipgloss.Color("#0F766E"),
		text:    lipgloss.Color("#1E293B"),
		dim:     lipgloss.Color("#94A3B8"),
		success: lipgloss.Color("#15803D"),
		warning: lipgloss.Color("#B45309"),
		errorC:  lipgloss.Color("#B91C1C"),
		border:  lipgloss.Color("#4F46E5"),
	}
)

// styles holds the rendered styles for one theme.
type styles struct {
	title    lipgloss.Style
	subtitle lipgloss.Style
	text     lipgloss.Style
	dim      lipgloss.Style
	success  lipgloss.Style
	warning  lipgloss.Style
	error    lipgloss.Style
	box      lipgloss.Style
	selected lipgloss.Style
	playing  lipgloss.Style
	band     lipgloss.Style
	bandSel  lipgloss.Style
}

func newStyles(theme string) styles {
	p := darkPalette
	if theme == config.ThemeLight {
		p = lightPalette
	}

	return styles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.accent),
		subtitle: lipgloss.NewStyle().
			Foreground(p.second),
		text: lipgloss.NewStyle().
			Foreground(p.text),
		dim: lipgloss.NewStyle().
			Foreground(p.dim),
		success: lipgloss.NewStyle().
			Foreground(p.success),
		warning: lipgloss.NewStyle().
			Foreground(p.warning),
		error: lipgloss.NewStyle().
			Foreground(p.errorC),
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.border).
			Padding(0, 1),
		selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.second),
		playing: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.accent),
		band: lipgloss.NewStyle().
			Foreground(p.text).
			Width(6).
			Align(lipgloss.Center),
		bandSel: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.accent).
			Width(6).
			Align(lipgloss.Center),
	}
}

package theme

import (
	"charm.land/lipgloss/v2"
)

// Workshop palette.
var (
	Primary   = lipgloss.Color("#F59E0B") // Amber
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F97316") // Orange
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC")
	TextDim   = lipgloss.Color("#94A3B8")
	BgCard    = lipgloss.Color("#1E293B")
	Border    = lipgloss.Color("#334155")
)

var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Section = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Dim = lipgloss.NewStyle().
		Foreground(TextDim)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)
)

var (
	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	Done = lipgloss.NewStyle().
		Foreground(Success)

	Failed = lipgloss.NewStyle().
		Foreground(Error)

	Locked = lipgloss.NewStyle().
		Foreground(TextDim)

	Flash = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)
)

package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/ciclofficina/tracker/internal/ui/layout"
)

// Screen is one page of the terminal browser.
type Screen interface {
	// Init returns the command that loads the screen's data.
	Init() tea.Cmd

	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the content area, without header and footer.
	View(width, height int) string

	Title() string
}

// KeyHintProvider is implemented by screens with their own footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// Refresher is implemented by screens that reload when they become active
// again after the screen above them is popped.
type Refresher interface {
	Refresh() tea.Cmd
}

// FlashMsg shows a one-line message in the footer until the next key press.
type FlashMsg struct {
	Text string
}

// Flash returns a command that emits a FlashMsg.
func Flash(text string) tea.Cmd {
	return func() tea.Msg { return FlashMsg{Text: text} }
}

// StatsMsg updates the completed/total counter in the header.
type StatsMsg struct {
	Completed int
	Total     int
}

// InputCapturer is implemented by screens that can take text input. While
// Capturing is true the app leaves esc and q to the screen.
type InputCapturer interface {
	Capturing() bool
}

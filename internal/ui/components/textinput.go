package components

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/ciclofficina/tracker/internal/ui/theme"
)

// Prompt is a one-line input shown above a list, used for jump-to-code
// and note entry.
type Prompt struct {
	Model  textinput.Model
	Label  string
	active bool
}

// NewPrompt creates an inactive prompt.
func NewPrompt(label, placeholder string, limit int) Prompt {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "› "
	st := ti.Styles()
	st.Cursor.Blink = false
	ti.SetStyles(st)
	if limit > 0 {
		ti.CharLimit = limit
	}
	return Prompt{Model: ti, Label: label}
}

// Open clears and focuses the prompt.
func (p *Prompt) Open() tea.Cmd {
	p.active = true
	p.Model.SetValue("")
	return p.Model.Focus()
}

func (p *Prompt) Close() {
	p.active = false
	p.Model.Blur()
}

func (p Prompt) Active() bool { return p.active }

// Update forwards msg to the text input.
func (p Prompt) Update(msg tea.Msg) (Prompt, tea.Cmd) {
	var cmd tea.Cmd
	p.Model, cmd = p.Model.Update(msg)
	return p, cmd
}

// Value returns the trimmed input.
func (p Prompt) Value() string {
	return strings.TrimSpace(p.Model.Value())
}

func (p Prompt) View() string {
	return "  " + theme.Section.Render(p.Label) + " " + p.Model.View()
}

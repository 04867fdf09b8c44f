package app

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/ciclofficina/tracker/internal/router"
	"github.com/ciclofficina/tracker/internal/screen"
	"github.com/ciclofficina/tracker/internal/screens/catalog"
	"github.com/ciclofficina/tracker/internal/ui/layout"
)

// AppModel is the root Bubble Tea model of the terminal browser.
type AppModel struct {
	router *router.Router
	width  int
	height int

	completed int
	total     int
	flash     string
}

func newAppModel(ctx context.Context, deps catalog.Deps) AppModel {
	return AppModel{router: router.New(catalog.New(ctx, deps))}
}

func (m AppModel) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case screen.StatsMsg:
		m.completed, m.total = msg.Completed, msg.Total
		return m, nil

	case screen.FlashMsg:
		m.flash = msg.Text
		return m, nil

	case tea.KeyMsg:
		m.flash = ""
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if !m.capturing() {
				if m.router.Depth() > 1 {
					return m, router.Pop()
				}
				return m, nil
			}
		}
	}

	return m, m.router.Update(msg)
}

func (m AppModel) capturing() bool {
	c, ok := m.router.Active().(screen.InputCapturer)
	return ok && c.Capturing()
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}
	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	// room left between the app name and the counter
	header := layout.RenderHeader(m.router.Breadcrumb(max(m.width-40, 12)), m.completed, m.total, m.width)

	var hints []layout.KeyHint
	if hp, ok := active.(screen.KeyHintProvider); ok {
		hints = hp.KeyHints()
	} else {
		hints = []layout.KeyHint{{Key: "Esc", Description: "Back"}}
	}
	hints = append(hints, layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
	footer := layout.RenderFooter(hints, m.flash, m.width)

	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	content := m.router.View(m.width, contentHeight)

	v.SetContent(layout.RenderFrame(header, content, footer, m.width, m.height))
	return v
}

// Run starts the terminal browser and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, deps catalog.Deps) error {
	p := tea.NewProgram(newAppModel(ctx, deps), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run terminal browser: %w", err)
	}
	return nil
}

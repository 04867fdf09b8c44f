package goal

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/ciclofficina/tracker/internal/goalpath"
	"github.com/ciclofficina/tracker/internal/progress"
	"github.com/ciclofficina/tracker/internal/router"
	"github.com/ciclofficina/tracker/internal/screen"
	"github.com/ciclofficina/tracker/internal/ui/components"
	"github.com/ciclofficina/tracker/internal/ui/layout"
	"github.com/ciclofficina/tracker/internal/ui/theme"
)

type loadedMsg struct {
	path *goalpath.Path
	err  error
}

// Screen lists the modules to take, in order, to reach one target.
type Screen struct {
	ctx      context.Context
	resolver *goalpath.Resolver
	ref      string

	path   *goalpath.Path
	err    error
	cursor int
	offset int
}

var (
	_ screen.Screen          = (*Screen)(nil)
	_ screen.KeyHintProvider = (*Screen)(nil)
	_ screen.Refresher       = (*Screen)(nil)
)

// New creates the goal path screen for the module named by ref.
func New(ctx context.Context, resolver *goalpath.Resolver, ref string) *Screen {
	return &Screen{ctx: ctx, resolver: resolver, ref: ref}
}

func (s *Screen) Init() tea.Cmd { return s.load() }

func (s *Screen) Refresh() tea.Cmd { return s.load() }

func (s *Screen) load() tea.Cmd {
	ctx, resolver, ref := s.ctx, s.resolver, s.ref
	return func() tea.Msg {
		p, err := resolver.GoalPath(ctx, ref)
		return loadedMsg{path: p, err: err}
	}
}

func (s *Screen) Title() string {
	return "Goal: " + s.ref
}

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "r", Description: "Reload"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		s.path, s.err = msg.path, msg.err
		if s.path != nil && s.cursor >= len(s.path.Steps) {
			s.cursor = max(len(s.path.Steps)-1, 0)
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if s.cursor > 0 {
				s.cursor--
			}
		case "down", "j":
			if s.path != nil && s.cursor < len(s.path.Steps)-1 {
				s.cursor++
			}
		case "r":
			return s, s.load()
		case "q":
			return s, router.Pop()
		}
	}
	return s, nil
}

func (s *Screen) View(width, height int) string {
	if s.err != nil {
		return "\n  " + theme.Failed.Render(s.err.Error())
	}
	if s.path == nil {
		return "\n  " + theme.Hint.Render("Loading…")
	}
	p := s.path

	var b strings.Builder
	b.WriteString("\n  " + theme.Title.Render(p.Target.Code+"  "+p.Target.Title) + "\n\n")
	b.WriteString("  " + components.NewProgressBar("", components.Ratio(p.Completed, p.Total), true, min(width-4, 60)).View() + "\n")
	b.WriteString("  " + theme.Dim.Render(fmt.Sprintf("%d completed · %d pending · %d total", p.Completed, p.Pending, p.Total)) + "\n\n")

	listHeight := max(height-6, 1)
	if s.cursor < s.offset {
		s.offset = s.cursor
	}
	if s.cursor >= s.offset+listHeight {
		s.offset = s.cursor - listHeight + 1
	}

	titleWidth := max(width-30, 10)
	for i := s.offset; i < len(p.Steps) && i < s.offset+listHeight; i++ {
		st := p.Steps[i]
		cursor := "  "
		if i == s.cursor {
			cursor = "▸ "
		}
		line := fmt.Sprintf("%2d. %s %-12s %s", i+1, st.Status.Icon(), layout.Truncate(st.Module.Code, 12), layout.Truncate(st.Module.Title, titleWidth))
		b.WriteString("  " + cursor + stepStyle(st, i == s.cursor).Render(line) + "\n")
	}
	return b.String()
}

func stepStyle(st goalpath.Step, selected bool) lipgloss.Style {
	switch {
	case selected:
		return theme.Selected
	case st.Status == progress.StatusCompleted:
		return theme.Done
	case st.Status == progress.StatusFailed:
		return theme.Failed
	default:
		return theme.Body
	}
}

package catalog

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/ciclofficina/tracker/internal/depgraph"
	"github.com/ciclofficina/tracker/internal/progress"
	"github.com/ciclofficina/tracker/internal/router"
	"github.com/ciclofficina/tracker/internal/screen"
	"github.com/ciclofficina/tracker/internal/screens/goal"
	"github.com/ciclofficina/tracker/internal/ui/components"
	"github.com/ciclofficina/tracker/internal/ui/layout"
	"github.com/ciclofficina/tracker/internal/ui/theme"
)

type loadedMsg struct {
	states []depgraph.ModuleState
	err    error
}

// Screen lists every module in topological order with its status and
// whether its mandatory prerequisites are done.
type Screen struct {
	ctx  context.Context
	deps Deps

	states []depgraph.ModuleState
	err    error
	loaded bool

	cursor int
	offset int
	jump   components.Prompt
	// selected keeps the cursor on the same module across reloads.
	selected string
}

var (
	_ screen.Screen          = (*Screen)(nil)
	_ screen.KeyHintProvider = (*Screen)(nil)
	_ screen.Refresher       = (*Screen)(nil)
)

// New creates the catalog screen.
func New(ctx context.Context, deps Deps) *Screen {
	return &Screen{
		ctx:  ctx,
		deps: deps,
		jump: components.NewPrompt("Go to", "module code", 40),
	}
}

func (s *Screen) Init() tea.Cmd { return s.load() }

func (s *Screen) Refresh() tea.Cmd { return s.load() }

func (s *Screen) load() tea.Cmd {
	ctx, eng := s.ctx, s.deps.Engine
	return func() tea.Msg {
		states, err := eng.States(ctx)
		return loadedMsg{states: states, err: err}
	}
}

func (s *Screen) Title() string { return "Catalog" }

func (s *Screen) KeyHints() []layout.KeyHint {
	if s.jump.Active() {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Jump"},
			{Key: "Esc", Description: "Cancel"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Details"},
		{Key: "/", Description: "Jump"},
		{Key: "s/c/f/x", Description: "Start/Complete/Fail/Reset"},
		{Key: "g", Description: "Goal path"},
		{Key: "q", Description: "Quit"},
	}
}

// Capturing reports whether the screen is reading text input, so global
// keys like esc and q are left to it.
func (s *Screen) Capturing() bool { return s.jump.Active() }

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		s.loaded = true
		s.states, s.err = msg.states, msg.err
		s.restoreCursor()
		return s, s.stats()

	case statusSetMsg:
		return s, tea.Batch(screen.Flash(msg.flash()), s.load())

	case tea.KeyMsg:
		if s.jump.Active() {
			return s, s.updateJump(msg)
		}
		key := msg.String()
		if st, ok := statusKeys[key]; ok {
			if m := s.current(); m != nil {
				return s, setStatus(s.ctx, s.deps.Progress, m.Module.Code, st)
			}
			return s, nil
		}
		switch key {
		case "up", "k":
			s.move(-1)
		case "down", "j":
			s.move(1)
		case "pgup":
			s.move(-10)
		case "pgdown":
			s.move(10)
		case "home":
			s.move(-len(s.states))
		case "end":
			s.move(len(s.states))
		case "/":
			return s, s.jump.Open()
		case "r":
			return s, s.load()
		case "enter":
			if m := s.current(); m != nil {
				return s, router.Push(newDetail(s.ctx, s.deps, m.Module.Code))
			}
		case "g":
			if m := s.current(); m != nil {
				return s, router.Push(goal.New(s.ctx, s.deps.Goals, m.Module.Code))
			}
		case "q":
			return s, tea.Quit
		}
		return s, nil
	}

	if s.jump.Active() {
		var cmd tea.Cmd
		s.jump, cmd = s.jump.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *Screen) updateJump(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		s.jump.Close()
		return nil
	case "enter":
		code := s.jump.Value()
		s.jump.Close()
		if code == "" {
			return nil
		}
		if i := s.find(code); i >= 0 {
			s.cursor = i
			s.selected = s.states[i].Module.ID
			return nil
		}
		return screen.Flash(fmt.Sprintf("no module matches %q", code))
	}
	var cmd tea.Cmd
	s.jump, cmd = s.jump.Update(msg)
	return cmd
}

// find returns the row whose code equals code ignoring case, else the
// first row whose code starts with it, else -1.
func (s *Screen) find(code string) int {
	code = strings.ToUpper(code)
	prefix := -1
	for i, st := range s.states {
		c := strings.ToUpper(st.Module.Code)
		if c == code {
			return i
		}
		if prefix < 0 && strings.HasPrefix(c, code) {
			prefix = i
		}
	}
	return prefix
}

func (s *Screen) current() *depgraph.ModuleState {
	if s.cursor < 0 || s.cursor >= len(s.states) {
		return nil
	}
	return &s.states[s.cursor]
}

func (s *Screen) move(delta int) {
	if len(s.states) == 0 {
		return
	}
	s.cursor = min(max(s.cursor+delta, 0), len(s.states)-1)
	s.selected = s.states[s.cursor].Module.ID
}

func (s *Screen) restoreCursor() {
	for i, st := range s.states {
		if st.Module.ID == s.selected {
			s.cursor = i
			return
		}
	}
	s.cursor = min(s.cursor, max(len(s.states)-1, 0))
	if m := s.current(); m != nil {
		s.selected = m.Module.ID
	}
}

func (s *Screen) stats() tea.Cmd {
	done := 0
	for _, st := range s.states {
		if st.Status == progress.StatusCompleted {
			done++
		}
	}
	total := len(s.states)
	return func() tea.Msg { return screen.StatsMsg{Completed: done, Total: total} }
}

func (s *Screen) View(width, height int) string {
	switch {
	case s.err != nil:
		return "\n  " + theme.Failed.Render(s.err.Error())
	case !s.loaded:
		return "\n  " + theme.Hint.Render("Loading…")
	case len(s.states) == 0:
		return "\n  " + theme.Hint.Render("No modules yet. Run `tracker load <dir>` to import a curriculum.")
	}

	var lines []string
	if s.jump.Active() {
		lines = append(lines, s.jump.View(), "")
	}
	listHeight := max(height-len(lines), 1)
	if s.cursor < s.offset {
		s.offset = s.cursor
	}
	if s.cursor >= s.offset+listHeight {
		s.offset = s.cursor - listHeight + 1
	}

	for i := s.offset; i < len(s.states) && i < s.offset+listHeight; i++ {
		lines = append(lines, renderRow(s.states[i], i == s.cursor, width))
	}
	return strings.Join(lines, "\n")
}

// lockIcon marks modules with incomplete mandatory prerequisites.
func lockIcon(st depgraph.ModuleState) string {
	if st.Unlocked || st.Status == progress.StatusCompleted {
		return " "
	}
	return "⊘"
}

func renderRow(st depgraph.ModuleState, selected bool, width int) string {
	const (
		codeWidth  = 14
		levelWidth = 4
		labelWidth = 12
	)
	titleWidth := max(width-codeWidth-levelWidth-labelWidth-14, 10)

	var style lipgloss.Style
	switch {
	case selected:
		style = theme.Selected
	case st.Status == progress.StatusCompleted:
		style = theme.Done
	case st.Status == progress.StatusFailed:
		style = theme.Failed
	case !st.Unlocked:
		style = theme.Locked
	default:
		style = theme.Body
	}

	cursor := "  "
	if selected {
		cursor = "▸ "
	}
	line := fmt.Sprintf("%s %s %-*s %-*s L%-*d %*s",
		st.Status.Icon(), lockIcon(st),
		codeWidth, layout.Truncate(st.Module.Code, codeWidth),
		titleWidth, layout.Truncate(st.Module.Title, titleWidth),
		levelWidth-1, st.Module.Level,
		labelWidth, st.Status.Label(),
	)
	return "  " + cursor + style.Render(line)
}

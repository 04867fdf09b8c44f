package router

import (
	"strings"
	"unicode/utf8"

	tea "charm.land/bubbletea/v2"

	"github.com/ciclofficina/tracker/internal/screen"
)

// PushScreenMsg asks the router to open a screen on top of the stack.
type PushScreenMsg struct {
	Screen screen.Screen
}

// PopScreenMsg asks the router to close the active screen.
type PopScreenMsg struct{}

// Router manages a stack of screens.
type Router struct {
	stack []screen.Screen
}

// New creates a Router with initial at the bottom of the stack.
func New(initial screen.Screen) *Router {
	return &Router{stack: []screen.Screen{initial}}
}

// Push adds s on top of the stack and returns its Init command.
func (r *Router) Push(s screen.Screen) tea.Cmd {
	r.stack = append(r.stack, s)
	return s.Init()
}

// Pop removes the top screen. The bottom screen is never removed. The
// screen that becomes active is refreshed if it implements
// screen.Refresher.
func (r *Router) Pop() tea.Cmd {
	if len(r.stack) <= 1 {
		return nil
	}
	r.stack = r.stack[:len(r.stack)-1]
	if rf, ok := r.Active().(screen.Refresher); ok {
		return rf.Refresh()
	}
	return nil
}

func (r *Router) Active() screen.Screen {
	if len(r.stack) == 0 {
		return nil
	}
	return r.stack[len(r.stack)-1]
}

func (r *Router) Depth() int {
	return len(r.stack)
}

// Breadcrumb joins the titles of the stack from the bottom up, dropping
// the oldest entries until it fits in max cells. A max of 0 means no limit.
func (r *Router) Breadcrumb(max int) string {
	titles := make([]string, len(r.stack))
	for i, s := range r.stack {
		titles[i] = s.Title()
	}
	const sep = " › "
	trail := strings.Join(titles, sep)
	for max > 0 && len(titles) > 1 && utf8.RuneCountInString(trail) > max {
		titles = titles[1:]
		trail = "…" + sep + strings.Join(titles, sep)
	}
	return trail
}

// Update handles navigation messages and forwards everything else to the
// active screen.
func (r *Router) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case PushScreenMsg:
		return r.Push(msg.Screen)
	case PopScreenMsg:
		return r.Pop()
	}

	active := r.Active()
	if active == nil {
		return nil
	}
	updated, cmd := active.Update(msg)
	r.stack[len(r.stack)-1] = updated
	return cmd
}

// View renders the active screen.
func (r *Router) View(width, height int) string {
	active := r.Active()
	if active == nil {
		return ""
	}
	return active.View(width, height)
}

// Push returns a command that opens s.
func Push(s screen.Screen) tea.Cmd {
	return func() tea.Msg { return PushScreenMsg{Screen: s} }
}

// Pop returns a command that closes the active screen.
func Pop() tea.Cmd {
	return func() tea.Msg { return PopScreenMsg{} }
}

package catalog

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/ciclofficina/tracker/internal/curriculum"
	"github.com/ciclofficina/tracker/internal/depgraph"
	"github.com/ciclofficina/tracker/internal/progress"
	"github.com/ciclofficina/tracker/internal/router"
	"github.com/ciclofficina/tracker/internal/screen"
	"github.com/ciclofficina/tracker/internal/screens/goal"
	"github.com/ciclofficina/tracker/internal/ui/components"
	"github.com/ciclofficina/tracker/internal/ui/layout"
	"github.com/ciclofficina/tracker/internal/ui/theme"
)

type detailData struct {
	module     *curriculum.Module
	record     *progress.Record
	unlock     *depgraph.Unlock
	prereqs    []depgraph.Link
	dependents []depgraph.Link
	status     map[string]progress.Status
}

type detailLoadedMsg struct {
	data *detailData
	err  error
}

type noteAddedMsg struct {
	code string
	err  error
}

// DetailScreen shows one module with its prerequisites, dependents and
// progress record.
type DetailScreen struct {
	ctx  context.Context
	deps Deps
	code string

	data *detailData
	err  error
	note components.Prompt
}

var (
	_ screen.Screen          = (*DetailScreen)(nil)
	_ screen.KeyHintProvider = (*DetailScreen)(nil)
	_ screen.Refresher       = (*DetailScreen)(nil)
	_ screen.InputCapturer   = (*DetailScreen)(nil)
)

func newDetail(ctx context.Context, deps Deps, code string) *DetailScreen {
	return &DetailScreen{
		ctx:  ctx,
		deps: deps,
		code: code,
		note: components.NewPrompt("Note", "what happened in the workshop", 500),
	}
}

func (d *DetailScreen) Init() tea.Cmd    { return d.load() }
func (d *DetailScreen) Refresh() tea.Cmd { return d.load() }
func (d *DetailScreen) Title() string    { return d.code }
func (d *DetailScreen) Capturing() bool  { return d.note.Active() }

func (d *DetailScreen) load() tea.Cmd {
	ctx, deps, code := d.ctx, d.deps, d.code
	return func() tea.Msg {
		data, err := loadDetail(ctx, deps, code)
		return detailLoadedMsg{data: data, err: err}
	}
}

func loadDetail(ctx context.Context, deps Deps, code string) (*detailData, error) {
	m, rec, err := deps.Progress.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	d := &detailData{module: m, record: rec, status: make(map[string]progress.Status)}
	if d.unlock, err = deps.Engine.CanStartModule(ctx, m.ID); err != nil {
		return nil, err
	}
	if d.prereqs, err = deps.Engine.Prerequisites(ctx, m.ID); err != nil {
		return nil, err
	}
	if d.dependents, err = deps.Engine.Dependents(ctx, m.ID); err != nil {
		return nil, err
	}
	states, err := deps.Engine.States(ctx)
	if err != nil {
		return nil, err
	}
	for _, st := range states {
		d.status[st.Module.ID] = st.Status
	}
	return d, nil
}

func (d *DetailScreen) KeyHints() []layout.KeyHint {
	if d.note.Active() {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Save note"},
			{Key: "Esc", Description: "Cancel"},
		}
	}
	return []layout.KeyHint{
		{Key: "s/c/f/x", Description: "Start/Complete/Fail/Reset"},
		{Key: "n", Description: "Note"},
		{Key: "g", Description: "Goal path"},
		{Key: "Esc", Description: "Back"},
	}
}

func (d *DetailScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case detailLoadedMsg:
		d.data, d.err = msg.data, msg.err
		return d, nil

	case statusSetMsg:
		return d, tea.Batch(screen.Flash(msg.flash()), d.load())

	case noteAddedMsg:
		if msg.err != nil {
			return d, screen.Flash(msg.err.Error())
		}
		return d, tea.Batch(screen.Flash("note added to "+msg.code), d.load())

	case tea.KeyMsg:
		if d.note.Active() {
			return d, d.updateNote(msg)
		}
		key := msg.String()
		if st, ok := statusKeys[key]; ok {
			return d, setStatus(d.ctx, d.deps.Progress, d.code, st)
		}
		switch key {
		case "n":
			return d, d.note.Open()
		case "g":
			return d, router.Push(goal.New(d.ctx, d.deps.Goals, d.code))
		case "r":
			return d, d.load()
		case "q":
			return d, router.Pop()
		}
		return d, nil
	}

	if d.note.Active() {
		var cmd tea.Cmd
		d.note, cmd = d.note.Update(msg)
		return d, cmd
	}
	return d, nil
}

func (d *DetailScreen) updateNote(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		d.note.Close()
		return nil
	case "enter":
		text := d.note.Value()
		d.note.Close()
		if text == "" {
			return nil
		}
		ctx, svc, code := d.ctx, d.deps.Progress, d.code
		return func() tea.Msg {
			_, err := svc.AddNote(ctx, code, text)
			return noteAddedMsg{code: code, err: err}
		}
	}
	var cmd tea.Cmd
	d.note, cmd = d.note.Update(msg)
	return cmd
}

func (d *DetailScreen) View(width, height int) string {
	if d.err != nil {
		return "\n  " + theme.Failed.Render(d.err.Error())
	}
	if d.data == nil {
		return "\n  " + theme.Hint.Render("Loading…")
	}
	m := d.data.module
	contentWidth := min(width-8, 76)
	st := progress.StatusOf(d.data.record)

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(theme.Title.Render(fmt.Sprintf("  %s  %s  %s", st.Icon(), m.Code, m.Title)) + "\n")
	b.WriteString(theme.Dim.Render("  "+st.Label()) + "  " + unlockLabel(d.data.unlock) + "\n\n")

	if m.Description != "" {
		b.WriteString(lipgloss.NewStyle().Width(contentWidth).Foreground(theme.Text).PaddingLeft(2).Render(m.Description))
		b.WriteString("\n\n")
	}

	field := func(label, value string) {
		if value != "" {
			b.WriteString(theme.Dim.Render(fmt.Sprintf("  %-10s ", label)) + theme.Body.Render(value) + "\n")
		}
	}
	field("Level", fmt.Sprintf("%d", m.Level))
	field("Area", m.TeachingArea)
	field("Kind", string(m.Kind))
	field("Difficulty", string(m.Difficulty))
	if m.EstimatedMins > 0 {
		field("Duration", fmt.Sprintf("%d min", m.EstimatedMins))
	}
	field("Tools", strings.Join(m.Tools, ", "))
	if rec := d.data.record; rec != nil {
		if rec.Score != nil {
			field("Score", fmt.Sprintf("%d", *rec.Score))
		}
		if rec.Attempts > 0 {
			field("Attempts", fmt.Sprintf("%d", rec.Attempts))
		}
	}
	b.WriteString("\n")

	if len(d.data.prereqs) > 0 {
		b.WriteString(theme.Section.Render("  Prerequisites") + "\n")
		for _, l := range d.data.prereqs {
			ps := d.data.status[l.Module.ID]
			style := theme.Dim
			if ps == progress.StatusCompleted {
				style = theme.Done
			}
			b.WriteString(style.Render(fmt.Sprintf("  %s %s  %s (%s)", ps.Icon(), l.Module.Code, l.Module.Title, l.Type)) + "\n")
		}
		b.WriteString("\n")
	}

	if len(d.data.dependents) > 0 {
		b.WriteString(theme.Section.Render("  Unlocks") + "\n")
		for _, l := range d.data.dependents {
			b.WriteString(theme.Dim.Render(fmt.Sprintf("  → %s  %s", l.Module.Code, l.Module.Title)) + "\n")
		}
		b.WriteString("\n")
	}

	if rec := d.data.record; rec != nil && rec.Notes != "" {
		b.WriteString(theme.Section.Render("  Notes") + "\n")
		b.WriteString(lipgloss.NewStyle().Width(contentWidth).Foreground(theme.TextDim).PaddingLeft(2).Render(rec.Notes) + "\n")
	}

	if d.note.Active() {
		b.WriteString("\n" + d.note.View() + "\n")
	}
	return lipgloss.Place(width, height, lipgloss.Left, lipgloss.Top, b.String())
}

func unlockLabel(u *depgraph.Unlock) string {
	if u == nil || u.CanStart {
		return theme.Done.Render("unlocked")
	}
	codes := make([]string, len(u.Missing))
	for i, m := range u.Missing {
		codes[i] = m.Code
	}
	return theme.Failed.Render("locked: needs " + strings.Join(codes, ", "))
}

package goalpath

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/ciclofficina/tracker/internal/curriculum"
	"github.com/ciclofficina/tracker/internal/depgraph"
	"github.com/ciclofficina/tracker/internal/progress"
)

type modules map[string]curriculum.Module

func (m modules) Get(_ context.Context, id string) (*curriculum.Module, error) {
	if mod, ok := m[id]; ok {
		return &mod, nil
	}
	return nil, nil
}

func (m modules) FindByCode(_ context.Context, code string) (*curriculum.Module, error) {
	for _, mod := range m {
		if mod.Code == code {
			return &mod, nil
		}
	}
	return nil, nil
}

func (m modules) All(context.Context) ([]curriculum.Module, error) {
	out := make([]curriculum.Module, 0, len(m))
	for _, mod := range m {
		out = append(out, mod)
	}
	return out, nil
}

type edges struct{ list []curriculum.Edge }

func (s *edges) Create(_ context.Context, e *curriculum.Edge) error {
	s.list = append(s.list, *e)
	return nil
}

func (s *edges) Get(_ context.Context, id string) (*curriculum.Edge, error) {
	for _, e := range s.list {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, nil
}

func (s *edges) FindPair(_ context.Context, moduleID, prereqID string) (*curriculum.Edge, error) {
	for _, e := range s.list {
		if e.ModuleID == moduleID && e.PrerequisiteID == prereqID {
			return &e, nil
		}
	}
	return nil, nil
}

func (s *edges) Delete(context.Context, string) error { return nil }

func (s *edges) ForModule(_ context.Context, moduleID string) ([]curriculum.Edge, error) {
	var out []curriculum.Edge
	for _, e := range s.list {
		if e.ModuleID == moduleID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *edges) ForPrerequisite(_ context.Context, prereqID string) ([]curriculum.Edge, error) {
	var out []curriculum.Edge
	for _, e := range s.list {
		if e.PrerequisiteID == prereqID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *edges) All(context.Context) ([]curriculum.Edge, error) { return s.list, nil }

type records map[string]progress.Status

func (r records) GetByModule(_ context.Context, moduleID string) (*progress.Record, error) {
	if st, ok := r[moduleID]; ok {
		return &progress.Record{ModuleID: moduleID, Status: st}, nil
	}
	return nil, nil
}

func (r records) All(context.Context) ([]progress.Record, error) {
	var out []progress.Record
	for id, st := range r {
		out = append(out, progress.Record{ModuleID: id, Status: st})
	}
	return out, nil
}

type world struct {
	modules  modules
	edges    *edges
	progress records
	resolver *Resolver
}

func newWorld(codes ...string) *world {
	w := &world{modules: modules{}, edges: &edges{}, progress: records{}}
	for _, c := range codes {
		w.modules["id-"+c] = curriculum.Module{ID: "id-" + c, Code: c, Title: "Module " + c}
	}
	engine := depgraph.NewEngine(w.modules, w.edges, w.progress)
	w.resolver = NewResolver(engine, w.modules, w.progress)
	return w
}

// link stores dependent -> prerequisite directly, bypassing the cycle check.
func (w *world) link(dependent, prereq string, typ curriculum.DependencyType) {
	w.edges.list = append(w.edges.list, curriculum.Edge{
		ID:             dependent + ">" + prereq,
		ModuleID:       "id-" + dependent,
		PrerequisiteID: "id-" + prereq,
		Type:           typ,
	})
}

func stepCodes(p *Path) []string {
	out := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		out[i] = s.Module.Code
	}
	return out
}

func TestGoalPath_Chain(t *testing.T) {
	w := newWorld("A", "B", "C")
	w.link("C", "B", curriculum.Mandatory)
	w.link("B", "A", curriculum.Mandatory)
	w.progress["id-A"] = progress.StatusCompleted

	p, err := w.resolver.GoalPath(context.Background(), "C")
	if err != nil {
		t.Fatalf("goal path: %v", err)
	}
	if want := []string{"A", "B", "C"}; !slices.Equal(stepCodes(p), want) {
		t.Errorf("steps = %v, want %v", stepCodes(p), want)
	}
	if p.Completed != 1 || p.Pending != 2 || p.Total != 3 {
		t.Errorf("counters = %d/%d/%d, want 1/2/3", p.Completed, p.Pending, p.Total)
	}
	if p.Target.Code != "C" {
		t.Errorf("target = %s", p.Target.Code)
	}
	if p.Steps[1].Status != progress.StatusNotStarted {
		t.Errorf("missing record should read as not-started, got %s", p.Steps[1].Status)
	}
}

func TestGoalPath_Diamond(t *testing.T) {
	w := newWorld("A", "B", "C", "D")
	w.link("D", "C", curriculum.Mandatory)
	w.link("D", "B", curriculum.Recommended)
	w.link("B", "A", curriculum.Mandatory)
	w.link("C", "A", curriculum.Mandatory)

	p, err := w.resolver.GoalPath(context.Background(), "D")
	if err != nil {
		t.Fatalf("goal path: %v", err)
	}
	if want := []string{"A", "B", "C", "D"}; !slices.Equal(stepCodes(p), want) {
		t.Errorf("steps = %v, want %v", stepCodes(p), want)
	}
}

func TestGoalPath_PrerequisitesPrecedeDependents(t *testing.T) {
	w := newWorld("A", "B", "C", "D", "E", "F", "G")
	w.link("G", "F", curriculum.Mandatory)
	w.link("G", "C", curriculum.Mandatory)
	w.link("F", "E", curriculum.Recommended)
	w.link("E", "B", curriculum.Mandatory)
	w.link("C", "B", curriculum.Mandatory)
	w.link("B", "A", curriculum.Mandatory)
	w.link("E", "A", curriculum.Mandatory)

	p, err := w.resolver.GoalPath(context.Background(), "G")
	if err != nil {
		t.Fatalf("goal path: %v", err)
	}
	pos := map[string]int{}
	for i, s := range p.Steps {
		if _, dup := pos[s.Module.ID]; dup {
			t.Fatalf("%s listed twice", s.Module.Code)
		}
		pos[s.Module.ID] = i
	}
	if _, ok := pos["id-D"]; ok {
		t.Error("unrelated module D should not be on the path")
	}
	for _, e := range w.edges.list {
		pi, okP := pos[e.PrerequisiteID]
		di, okD := pos[e.ModuleID]
		if okP && okD && pi >= di {
			t.Errorf("%s should come before %s", e.PrerequisiteID, e.ModuleID)
		}
	}
	if last := p.Steps[len(p.Steps)-1].Module.Code; last != "G" {
		t.Errorf("last step = %s, want G", last)
	}
}

func TestGoalPath_ByID(t *testing.T) {
	w := newWorld("A", "B")
	w.link("B", "A", curriculum.Mandatory)

	p, err := w.resolver.GoalPath(context.Background(), "id-B")
	if err != nil {
		t.Fatalf("goal path: %v", err)
	}
	if !slices.Equal(stepCodes(p), []string{"A", "B"}) {
		t.Errorf("steps = %v", stepCodes(p))
	}
}

func TestGoalPath_NoPrerequisites(t *testing.T) {
	w := newWorld("A")
	w.progress["id-A"] = progress.StatusCompleted

	p, err := w.resolver.GoalPath(context.Background(), "A")
	if err != nil {
		t.Fatalf("goal path: %v", err)
	}
	if p.Total != 1 || p.Completed != 1 || p.Pending != 0 {
		t.Errorf("counters = %+v", p)
	}
}

func TestGoalPath_UnknownRef(t *testing.T) {
	w := newWorld("A")
	for _, ref := range []string{"NOPE", "", "   "} {
		_, err := w.resolver.GoalPath(context.Background(), ref)
		var nf *curriculum.ModuleNotFoundError
		if !errors.As(err, &nf) {
			t.Errorf("ref %q: expected ModuleNotFoundError, got %v", ref, err)
		}
	}
}

func TestGoalPath_LegacyCycleTerminates(t *testing.T) {
	w := newWorld("A", "B", "C")
	w.link("A", "B", curriculum.Mandatory)
	w.link("B", "C", curriculum.Mandatory)
	w.link("C", "A", curriculum.Mandatory)

	p, err := w.resolver.GoalPath(context.Background(), "A")
	if err != nil {
		t.Fatalf("goal path: %v", err)
	}
	if want := []string{"C", "B", "A"}; !slices.Equal(stepCodes(p), want) {
		t.Errorf("steps = %v, want %v", stepCodes(p), want)
	}
}

func TestGoalPath_MatchesTransitiveDependencies(t *testing.T) {
	w := newWorld("A", "B", "C", "D", "E")
	w.link("E", "C", curriculum.Mandatory)
	w.link("E", "D", curriculum.Recommended)
	w.link("C", "A", curriculum.Mandatory)
	w.link("B", "A", curriculum.Mandatory)

	engine := depgraph.NewEngine(w.modules, w.edges, w.progress)
	deps, err := engine.TransitiveDependencies(context.Background(), "id-E")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"E"}
	for _, m := range deps {
		want = append(want, m.Code)
	}

	p, err := w.resolver.GoalPath(context.Background(), "E")
	if err != nil {
		t.Fatalf("goal path: %v", err)
	}
	got := stepCodes(p)
	slices.Sort(got)
	slices.Sort(want)
	if !slices.Equal(got, want) {
		t.Errorf("path modules = %v, closure plus target = %v", got, want)
	}
}

func TestOrder_Within(t *testing.T) {
	mods := []curriculum.Module{{ID: "a", Code: "A"}, {ID: "b", Code: "B"}, {ID: "c", Code: "C"}}
	g := depgraph.NewGraph(mods, []curriculum.Edge{
		{ID: "1", ModuleID: "c", PrerequisiteID: "b"},
		{ID: "2", ModuleID: "b", PrerequisiteID: "a"},
	})

	if got := Order(g, "c", nil); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("unrestricted = %v", got)
	}
	skipB := func(id string) bool { return id != "b" }
	if got := Order(g, "c", skipB); !slices.Equal(got, []string{"c"}) {
		t.Errorf("without b = %v", got)
	}
}

package depgraph

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ciclofficina/tracker/internal/curriculum"
	"github.com/ciclofficina/tracker/internal/progress"
)

// memModules is an in-memory module store keyed by id.
type memModules struct {
	mu   sync.Mutex
	byID map[string]curriculum.Module
}

func newMemModules(codes ...string) *memModules {
	m := &memModules{byID: make(map[string]curriculum.Module)}
	for _, c := range codes {
		m.add(curriculum.Module{ID: "id-" + c, Code: c, Title: "Module " + c})
	}
	return m
}

func (m *memModules) add(mod curriculum.Module) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[mod.ID] = mod
}

func (m *memModules) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
}

func (m *memModules) Get(_ context.Context, id string) (*curriculum.Module, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mod, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return &mod, nil
}

func (m *memModules) FindByCode(_ context.Context, code string) (*curriculum.Module, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mod := range m.byID {
		if mod.Code == code {
			return &mod, nil
		}
	}
	return nil, nil
}

func (m *memModules) All(context.Context) ([]curriculum.Module, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]curriculum.Module, 0, len(m.byID))
	for _, mod := range m.byID {
		out = append(out, mod)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// memEdges is an in-memory edge store enforcing pair uniqueness.
type memEdges struct {
	mu      sync.Mutex
	edges   []curriculum.Edge
	failAll error
}

func (s *memEdges) Create(_ context.Context, e *curriculum.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.edges {
		if x.ModuleID == e.ModuleID && x.PrerequisiteID == e.PrerequisiteID {
			return fmt.Errorf("unique constraint failed")
		}
	}
	s.edges = append(s.edges, *e)
	return nil
}

// inject stores an edge without any checks, simulating legacy data.
func (s *memEdges) inject(id, moduleID, prereqID string, t curriculum.DependencyType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges = append(s.edges, curriculum.Edge{ID: id, ModuleID: moduleID, PrerequisiteID: prereqID, Type: t})
}

func (s *memEdges) Get(_ context.Context, id string) (*curriculum.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.edges {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, nil
}

func (s *memEdges) FindPair(_ context.Context, moduleID, prereqID string) (*curriculum.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.edges {
		if e.ModuleID == moduleID && e.PrerequisiteID == prereqID {
			return &e, nil
		}
	}
	return nil, nil
}

func (s *memEdges) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.edges {
		if e.ID == id {
			s.edges = append(s.edges[:i], s.edges[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *memEdges) ForModule(_ context.Context, moduleID string) ([]curriculum.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []curriculum.Edge
	for _, e := range s.edges {
		if e.ModuleID == moduleID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memEdges) ForPrerequisite(_ context.Context, prereqID string) ([]curriculum.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []curriculum.Edge
	for _, e := range s.edges {
		if e.PrerequisiteID == prereqID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memEdges) All(context.Context) ([]curriculum.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return nil, s.failAll
	}
	return append([]curriculum.Edge(nil), s.edges...), nil
}

func (s *memEdges) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.edges)
}

// memProgress is an in-memory progress store.
type memProgress struct {
	mu      sync.Mutex
	records map[string]progress.Record
}

func newMemProgress() *memProgress {
	return &memProgress{records: make(map[string]progress.Record)}
}

func (p *memProgress) set(moduleID string, st progress.Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records[moduleID] = progress.Record{ModuleID: moduleID, Status: st}
}

func (p *memProgress) GetByModule(_ context.Context, moduleID string) (*progress.Record, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.records[moduleID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (p *memProgress) All(context.Context) ([]progress.Record, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []progress.Record
	for _, r := range p.records {
		out = append(out, r)
	}
	return out, nil
}

type fixture struct {
	modules  *memModules
	edges    *memEdges
	progress *memProgress
	engine   *Engine
}

func newFixture(codes ...string) *fixture {
	f := &fixture{
		modules:  newMemModules(codes...),
		edges:    &memEdges{},
		progress: newMemProgress(),
	}
	n := 0
	f.engine = NewEngine(f.modules, f.edges, f.progress, WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("edge-%d", n)
	}))
	return f
}

func id(code string) string { return "id-" + code }

func codes(mods []curriculum.Module) []string {
	out := make([]string, len(mods))
	for i, m := range mods {
		out[i] = m.Code
	}
	return out
}

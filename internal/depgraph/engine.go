package depgraph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ciclofficina/tracker/internal/curriculum"
	"github.com/ciclofficina/tracker/internal/logging"
	"github.com/ciclofficina/tracker/internal/progress"
)

// EdgeStore persists dependency edges. Lookups return (nil, nil) when
// nothing matches; Delete ignores missing edges.
type EdgeStore interface {
	Create(ctx context.Context, e *curriculum.Edge) error
	Get(ctx context.Context, id string) (*curriculum.Edge, error)
	FindPair(ctx context.Context, moduleID, prerequisiteID string) (*curriculum.Edge, error)
	Delete(ctx context.Context, id string) error
	ForModule(ctx context.Context, moduleID string) ([]curriculum.Edge, error)
	ForPrerequisite(ctx context.Context, prerequisiteID string) ([]curriculum.Edge, error)
	All(ctx context.Context) ([]curriculum.Edge, error)
}

// ProgressReader is the read side of the progress store.
type ProgressReader interface {
	GetByModule(ctx context.Context, moduleID string) (*progress.Record, error)
	All(ctx context.Context) ([]progress.Record, error)
}

// Engine answers dependency questions over the module, edge and progress
// stores. Mutations hold a write lock across the cycle check and the
// insert; reads share a read lock.
type Engine struct {
	mu       sync.RWMutex
	modules  curriculum.ModuleReader
	edges    EdgeStore
	progress ProgressReader
	log      *logging.Logger
	now      func() time.Time
	newID    func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.log = l.Named("depgraph") }
}

// WithClock replaces the time source for edge timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator replaces the edge id generator.
func WithIDGenerator(f func() string) Option {
	return func(e *Engine) { e.newID = f }
}

// NewEngine creates an engine over the given stores.
func NewEngine(modules curriculum.ModuleReader, edges EdgeStore, prog ProgressReader, opts ...Option) *Engine {
	e := &Engine{
		modules:  modules,
		edges:    edges,
		progress: prog,
		log:      logging.Nop(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Link is a direct neighbour of a module together with the edge joining
// them.
type Link struct {
	Module curriculum.Module         `json:"module"`
	Type   curriculum.DependencyType `json:"type"`
	EdgeID string                    `json:"edgeId"`
}

// Snapshot loads every module and edge into an indexed Graph.
func (e *Engine) Snapshot(ctx context.Context) (*Graph, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot(ctx)
}

func (e *Engine) snapshot(ctx context.Context) (*Graph, error) {
	modules, err := e.modules.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	edges, err := e.edges.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list dependencies: %w", err)
	}
	return NewGraph(modules, edges), nil
}

// AddDependency records that dependentID requires prerequisiteID.
//
// It fails with *SelfDependencyError, *InvalidDependencyTypeError,
// *curriculum.ModuleNotFoundError or *CycleError without writing anything.
// Both dependency types take part in the cycle check. Adding a pair that
// already exists returns the stored edge unchanged.
func (e *Engine) AddDependency(ctx context.Context, dependentID, prerequisiteID string, typ curriculum.DependencyType) (*curriculum.Edge, error) {
	if dependentID == prerequisiteID {
		return nil, &SelfDependencyError{Ref: dependentID}
	}
	if !typ.Valid() {
		return nil, &InvalidDependencyTypeError{Type: typ}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	dependent, err := e.mustGet(ctx, dependentID)
	if err != nil {
		return nil, err
	}
	prereq, err := e.mustGet(ctx, prerequisiteID)
	if err != nil {
		return nil, err
	}

	existing, err := e.edges.FindPair(ctx, dependentID, prerequisiteID)
	if err != nil {
		return nil, fmt.Errorf("find dependency: %w", err)
	}
	if existing != nil {
		e.log.Debug("dependency already present", "module", dependent.Code, "prerequisite", prereq.Code, "edge", existing.ID)
		return existing, nil
	}

	g, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if path := g.PathTo(prerequisiteID, dependentID); path != nil {
		chain := append([]string{dependent.Code}, g.Codes(path)...)
		return nil, &CycleError{Chain: chain}
	}

	edge := &curriculum.Edge{
		ID:             e.newID(),
		ModuleID:       dependentID,
		PrerequisiteID: prerequisiteID,
		Type:           typ,
		CreatedAt:      e.now().UTC(),
	}
	if err := e.edges.Create(ctx, edge); err != nil {
		return nil, fmt.Errorf("create dependency: %w", err)
	}

	e.log.Info("dependency added", "module", dependent.Code, "prerequisite", prereq.Code, "type", typ)
	return edge, nil
}

// RemoveDependency deletes the edge with edgeID. A missing edge is not an
// error.
func (e *Engine) RemoveDependency(ctx context.Context, edgeID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	edge, err := e.edges.Get(ctx, edgeID)
	if err != nil {
		return fmt.Errorf("get dependency: %w", err)
	}
	if edge == nil {
		e.log.Debug("dependency already absent", "edge", edgeID)
		return nil
	}
	if err := e.edges.Delete(ctx, edgeID); err != nil {
		return fmt.Errorf("delete dependency: %w", err)
	}
	e.log.Info("dependency removed", "edge", edgeID,
		"module", edge.ModuleID, "prerequisite", edge.PrerequisiteID, "type", edge.Type)
	return nil
}

// RemoveBetween deletes the edge from dependentID to prerequisiteID if one
// exists and reports whether it did.
func (e *Engine) RemoveBetween(ctx context.Context, dependentID, prerequisiteID string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	edge, err := e.edges.FindPair(ctx, dependentID, prerequisiteID)
	if err != nil {
		return false, fmt.Errorf("find dependency: %w", err)
	}
	if edge == nil {
		return false, nil
	}
	if err := e.edges.Delete(ctx, edge.ID); err != nil {
		return false, fmt.Errorf("delete dependency: %w", err)
	}
	e.log.Info("dependency removed", "edge", edge.ID)
	return true, nil
}

// WouldCreateCycle reports whether adding dependentID -> prerequisiteID
// would close a cycle, and the chain of codes that would form it.
func (e *Engine) WouldCreateCycle(ctx context.Context, dependentID, prerequisiteID string) ([]string, bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	g, err := e.snapshot(ctx)
	if err != nil {
		return nil, false, err
	}
	if dependentID == prerequisiteID {
		codes := g.Codes([]string{dependentID})
		return []string{codes[0], codes[0]}, true, nil
	}
	path := g.PathTo(prerequisiteID, dependentID)
	if path == nil {
		return nil, false, nil
	}
	return append(g.Codes([]string{dependentID}), g.Codes(path)...), true, nil
}

// Prerequisites returns the direct prerequisites of moduleID ordered by
// code. Edges to missing modules are omitted.
func (e *Engine) Prerequisites(ctx context.Context, moduleID string) ([]Link, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	edges, err := e.edges.ForModule(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("list prerequisites: %w", err)
	}
	return e.links(ctx, edges, func(ed curriculum.Edge) string { return ed.PrerequisiteID })
}

// Dependents returns the modules that directly require moduleID, ordered
// by code.
func (e *Engine) Dependents(ctx context.Context, moduleID string) ([]Link, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	edges, err := e.edges.ForPrerequisite(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("list dependents: %w", err)
	}
	return e.links(ctx, edges, func(ed curriculum.Edge) string { return ed.ModuleID })
}

func (e *Engine) links(ctx context.Context, edges []curriculum.Edge, other func(curriculum.Edge) string) ([]Link, error) {
	out := make([]Link, 0, len(edges))
	for _, ed := range edges {
		m, err := e.modules.Get(ctx, other(ed))
		if err != nil {
			return nil, fmt.Errorf("get module: %w", err)
		}
		if m == nil {
			continue
		}
		out = append(out, Link{Module: *m, Type: ed.Type, EdgeID: ed.ID})
	}
	sortLinks(out)
	return out, nil
}

// TransitiveDependencies returns every module reachable from moduleID by
// following prerequisite edges, ordered by code, without moduleID itself.
func (e *Engine) TransitiveDependencies(ctx context.Context, moduleID string) ([]curriculum.Module, error) {
	g, err := e.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return g.resolveAll(g.Closure(moduleID)), nil
}

func (e *Engine) mustGet(ctx context.Context, id string) (*curriculum.Module, error) {
	m, err := e.modules.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get module: %w", err)
	}
	if m == nil {
		return nil, &curriculum.ModuleNotFoundError{Ref: id}
	}
	return m, nil
}

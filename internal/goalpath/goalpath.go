// Package goalpath resolves the ordered learning path that leads to a goal
// module: every transitive prerequisite, each listed once and after its
// own prerequisites, ending with the goal itself.
package goalpath

import (
	"context"
	"fmt"

	"github.com/ciclofficina/tracker/internal/curriculum"
	"github.com/ciclofficina/tracker/internal/depgraph"
	"github.com/ciclofficina/tracker/internal/progress"
)

// Step is one module on a path with its current status.
type Step struct {
	Module curriculum.Module `json:"module"`
	Status progress.Status   `json:"status"`
}

// Path is the learning path to Target. The last step is always the target.
type Path struct {
	Target    curriculum.Module `json:"target"`
	Steps     []Step            `json:"steps"`
	Completed int               `json:"completed"`
	Pending   int               `json:"pending"`
	Total     int               `json:"total"`
}

// Resolver builds goal paths.
type Resolver struct {
	engine   *depgraph.Engine
	modules  curriculum.ModuleReader
	progress depgraph.ProgressReader
}

// NewResolver creates a Resolver.
func NewResolver(engine *depgraph.Engine, modules curriculum.ModuleReader, prog depgraph.ProgressReader) *Resolver {
	return &Resolver{engine: engine, modules: modules, progress: prog}
}

// GoalPath resolves ref by code, then by id, and returns the path to it.
// Prerequisites of both types are followed. A legacy cycle in stored data
// is cut where it is first met.
func (r *Resolver) GoalPath(ctx context.Context, ref string) (*Path, error) {
	target, err := curriculum.Resolve(ctx, r.modules, ref)
	if err != nil {
		return nil, err
	}

	deps, err := r.engine.TransitiveDependencies(ctx, target.ID)
	if err != nil {
		return nil, err
	}
	closure := make(map[string]*curriculum.Module, len(deps)+1)
	for i := range deps {
		closure[deps[i].ID] = &deps[i]
	}
	closure[target.ID] = target

	g, err := r.engine.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	records, err := r.progress.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	status := make(map[string]progress.Status, len(records))
	for _, rec := range records {
		status[rec.ModuleID] = rec.Status
	}

	ids := Order(g, target.ID, func(id string) bool { return closure[id] != nil })

	p := &Path{Target: *target, Steps: make([]Step, 0, len(ids))}
	for _, id := range ids {
		st := status[id]
		if st == "" {
			st = progress.StatusNotStarted
		}
		p.Steps = append(p.Steps, Step{Module: *closure[id], Status: st})
		if st == progress.StatusCompleted {
			p.Completed++
		}
	}
	p.Total = len(p.Steps)
	p.Pending = p.Total - p.Completed
	return p, nil
}

// Order returns target and its transitive prerequisites in post-order:
// every module comes after the prerequisites reachable from it. Siblings
// are visited in code order and diamonds appear once. Prerequisites for
// which within returns false are skipped; a nil within follows every edge.
func Order(g *depgraph.Graph, target string, within func(id string) bool) []string {
	type frame struct {
		id   string
		next int
	}

	added := make(map[string]bool)
	onStack := map[string]bool{target: true}
	stack := []frame{{id: target}}
	var out []string

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		prereqs := g.Prerequisites(top.id)

		pushed := false
		for top.next < len(prereqs) {
			next := prereqs[top.next].PrerequisiteID
			top.next++
			if added[next] || onStack[next] || (within != nil && !within(next)) {
				continue
			}
			onStack[next] = true
			stack = append(stack, frame{id: next})
			pushed = true
			break
		}
		if pushed {
			continue
		}

		id := top.id
		stack = stack[:len(stack)-1]
		delete(onStack, id)
		added[id] = true
		out = append(out, id)
	}
	return out
}

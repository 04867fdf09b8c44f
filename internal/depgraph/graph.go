package depgraph

import (
	"sort"

	"github.com/ciclofficina/tracker/internal/curriculum"
)

// Graph is an immutable, indexed view of modules and edges taken at one
// point in time. Edges whose endpoints are missing are kept in the edge
// list but ignored by every traversal.
type Graph struct {
	modules    map[string]*curriculum.Module
	sorted     []string // module ids ordered by code
	edges      []curriculum.Edge
	prereqs    map[string][]curriculum.Edge // by dependent id
	dependents map[string][]curriculum.Edge // by prerequisite id
}

// NewGraph indexes modules and edges.
func NewGraph(modules []curriculum.Module, edges []curriculum.Edge) *Graph {
	g := &Graph{
		modules:    curriculum.Index(modules),
		sorted:     make([]string, 0, len(modules)),
		edges:      edges,
		prereqs:    make(map[string][]curriculum.Edge),
		dependents: make(map[string][]curriculum.Edge),
	}

	for id := range g.modules {
		g.sorted = append(g.sorted, id)
	}
	sort.Slice(g.sorted, func(i, j int) bool {
		a, b := g.modules[g.sorted[i]], g.modules[g.sorted[j]]
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.ID < b.ID
	})

	for _, e := range edges {
		g.prereqs[e.ModuleID] = append(g.prereqs[e.ModuleID], e)
		g.dependents[e.PrerequisiteID] = append(g.dependents[e.PrerequisiteID], e)
	}
	for id := range g.prereqs {
		g.sortEdges(g.prereqs[id], func(e curriculum.Edge) string { return e.PrerequisiteID })
	}
	for id := range g.dependents {
		g.sortEdges(g.dependents[id], func(e curriculum.Edge) string { return e.ModuleID })
	}

	return g
}

// sortEdges orders edges by the code of the endpoint key selects; edges to
// missing modules sort last by id.
func (g *Graph) sortEdges(edges []curriculum.Edge, key func(curriculum.Edge) string) {
	sort.SliceStable(edges, func(i, j int) bool {
		a, b := g.modules[key(edges[i])], g.modules[key(edges[j])]
		switch {
		case a != nil && b != nil:
			return a.Code < b.Code
		case a != nil:
			return true
		case b != nil:
			return false
		default:
			return key(edges[i]) < key(edges[j])
		}
	})
}

// Module returns the module with id.
func (g *Graph) Module(id string) (*curriculum.Module, bool) {
	m, ok := g.modules[id]
	return m, ok
}

// Len returns the number of modules.
func (g *Graph) Len() int { return len(g.sorted) }

// Edges returns every edge, including dangling ones.
func (g *Graph) Edges() []curriculum.Edge { return g.edges }

// Modules returns every module ordered by code.
func (g *Graph) Modules() []curriculum.Module {
	out := make([]curriculum.Module, 0, len(g.sorted))
	for _, id := range g.sorted {
		out = append(out, *g.modules[id])
	}
	return out
}

// Prerequisites returns the edges leaving id toward existing modules,
// ordered by prerequisite code.
func (g *Graph) Prerequisites(id string) []curriculum.Edge {
	return g.live(g.prereqs[id], func(e curriculum.Edge) string { return e.PrerequisiteID })
}

// Dependents returns the edges pointing at id from existing modules,
// ordered by dependent code.
func (g *Graph) Dependents(id string) []curriculum.Edge {
	return g.live(g.dependents[id], func(e curriculum.Edge) string { return e.ModuleID })
}

func (g *Graph) live(edges []curriculum.Edge, other func(curriculum.Edge) string) []curriculum.Edge {
	out := make([]curriculum.Edge, 0, len(edges))
	for _, e := range edges {
		if _, ok := g.modules[other(e)]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Closure returns the ids of every module reachable from id by following
// prerequisite edges, ordered by code. id itself is excluded even when a
// legacy cycle leads back to it.
func (g *Graph) Closure(id string) []string {
	visited := map[string]bool{id: true}
	stack := []string{id}
	var out []string

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range g.Prerequisites(cur) {
			if visited[e.PrerequisiteID] {
				continue
			}
			visited[e.PrerequisiteID] = true
			out = append(out, e.PrerequisiteID)
			stack = append(stack, e.PrerequisiteID)
		}
	}

	sort.Slice(out, func(i, j int) bool { return g.modules[out[i]].Code < g.modules[out[j]].Code })
	return out
}

// PathTo searches depth-first from `from` along prerequisite edges and
// returns the ids on the first path found to `to`, both ends included.
// Returns nil when `to` is unreachable.
func (g *Graph) PathTo(from, to string) []string {
	parent := map[string]string{from: ""}
	stack := []string{from}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if cur == to {
			var path []string
			for n := cur; n != ""; n = parent[n] {
				path = append(path, n)
			}
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return path
		}

		prereqs := g.Prerequisites(cur)
		// Push in reverse so the lowest code is explored first.
		for i := len(prereqs) - 1; i >= 0; i-- {
			next := prereqs[i].PrerequisiteID
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = cur
			stack = append(stack, next)
		}
	}
	return nil
}

// Waves runs Kahn's algorithm over all edges between existing modules and
// groups the result: wave 0 has no prerequisites, every later wave depends
// only on earlier ones. Each wave is ordered by code. Modules left over
// sit on or behind a cycle and are returned in unordered.
func (g *Graph) Waves() (waves [][]string, unordered []string) {
	inDegree := make(map[string]int, len(g.sorted))
	for _, id := range g.sorted {
		inDegree[id] = len(g.Prerequisites(id))
	}

	var current []string
	for _, id := range g.sorted {
		if inDegree[id] == 0 {
			current = append(current, id)
		}
	}

	emitted := 0
	for len(current) > 0 {
		waves = append(waves, current)
		emitted += len(current)

		var next []string
		for _, id := range current {
			for _, e := range g.Dependents(id) {
				inDegree[e.ModuleID]--
				if inDegree[e.ModuleID] == 0 {
					next = append(next, e.ModuleID)
				}
			}
		}
		sort.Slice(next, func(i, j int) bool { return g.modules[next[i]].Code < g.modules[next[j]].Code })
		current = next
	}

	if emitted < len(g.sorted) {
		for _, id := range g.sorted {
			if inDegree[id] > 0 {
				unordered = append(unordered, id)
			}
		}
	}
	return waves, unordered
}

// Codes maps ids to module codes, falling back to the id for missing
// modules.
func (g *Graph) Codes(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		if m, ok := g.modules[id]; ok {
			out[i] = m.Code
		} else {
			out[i] = id
		}
	}
	return out
}

func (g *Graph) resolveAll(ids []string) []curriculum.Module {
	out := make([]curriculum.Module, 0, len(ids))
	for _, id := range ids {
		if m, ok := g.modules[id]; ok {
			out = append(out, *m)
		}
	}
	return out
}

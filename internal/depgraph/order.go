package depgraph

import (
	"context"
	"sort"

	"github.com/ciclofficina/tracker/internal/curriculum"
)

// Ordering is the result of a topological sort. When the stored graph
// holds a cycle, Modules is the partial order that could be built and
// Unordered holds the remaining modules.
type Ordering struct {
	Modules   []curriculum.Module `json:"modules"`
	Unordered []curriculum.Module `json:"unordered,omitempty"`
	HasCycle  bool                `json:"hasCycle"`
}

// Leveled groups modules into waves that can be taught in parallel.
type Leveled struct {
	Waves     [][]curriculum.Module `json:"waves"`
	Unordered []curriculum.Module   `json:"unordered,omitempty"`
	HasCycle  bool                  `json:"hasCycle"`
}

// TopologicalOrder lists every module after all of its prerequisites of
// either type. Ties are broken by code. A cycle in stored data is logged
// as a warning and yields a partial result, not an error.
func (e *Engine) TopologicalOrder(ctx context.Context) (*Ordering, error) {
	lv, err := e.TopologicalLevels(ctx)
	if err != nil {
		return nil, err
	}
	ord := &Ordering{Unordered: lv.Unordered, HasCycle: lv.HasCycle}
	for _, wave := range lv.Waves {
		ord.Modules = append(ord.Modules, wave...)
	}
	return ord, nil
}

// TopologicalLevels returns the waves of Kahn's algorithm.
func (e *Engine) TopologicalLevels(ctx context.Context) (*Leveled, error) {
	g, err := e.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	waves, unordered := g.Waves()
	lv := &Leveled{Waves: make([][]curriculum.Module, 0, len(waves))}
	for _, w := range waves {
		lv.Waves = append(lv.Waves, g.resolveAll(w))
	}
	if len(unordered) > 0 {
		lv.HasCycle = true
		lv.Unordered = g.resolveAll(unordered)
		e.log.Warn("dependency graph contains a cycle; returning partial order",
			"ordered", g.Len()-len(unordered), "total", g.Len(), "unordered", g.Codes(unordered))
	}
	return lv, nil
}

func sortLinks(links []Link) {
	sort.Slice(links, func(i, j int) bool { return links[i].Module.Code < links[j].Module.Code })
}

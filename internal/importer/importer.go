// Package importer writes a loaded curriculum catalog into the store.
package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/ciclofficina/tracker/internal/curriculum"
	"github.com/ciclofficina/tracker/internal/depgraph"
	"github.com/ciclofficina/tracker/internal/logging"
)

// ModuleWriter upserts modules by code.
type ModuleWriter interface {
	curriculum.ModuleReader
	Upsert(ctx context.Context, m *curriculum.Module) (created bool, err error)
}

// Result counts what an import changed. Errors lists entries and
// prerequisites that were skipped.
type Result struct {
	ModulesCreated int      `json:"modulesCreated"`
	ModulesUpdated int      `json:"modulesUpdated"`
	EdgesCreated   int      `json:"edgesCreated"`
	EdgesExisting  int      `json:"edgesExisting"`
	Errors         []string `json:"errors,omitempty"`
}

type Importer struct {
	modules ModuleWriter
	engine  *depgraph.Engine
	log     *logging.Logger
}

func New(modules ModuleWriter, engine *depgraph.Engine, log *logging.Logger) *Importer {
	if log == nil {
		log = logging.Nop()
	}
	return &Importer{modules: modules, engine: engine, log: log}
}

type pair struct{ module, prereq string }

// Import upserts every module of cat, then declares every prerequisite
// through the engine so the usual checks apply. Running it twice leaves
// the store unchanged the second time.
func (im *Importer) Import(ctx context.Context, cat *curriculum.Catalog) (*Result, error) {
	res := &Result{Errors: append([]string(nil), cat.Problems...)}

	ids := make(map[string]string, len(cat.Entries))
	for i := range cat.Entries {
		e := &cat.Entries[i]
		m := e.Module
		created, err := im.modules.Upsert(ctx, &m)
		if err != nil {
			var verr *curriculum.ValidationError
			if errors.As(err, &verr) {
				res.Errors = append(res.Errors, fmt.Sprintf("%s: module %s: %v", e.Source, e.Module.Code, err))
				continue
			}
			return res, fmt.Errorf("import module %s: %w", e.Module.Code, err)
		}
		ids[m.Code] = m.ID
		if created {
			res.ModulesCreated++
		} else {
			res.ModulesUpdated++
		}
	}

	g, err := im.engine.Snapshot(ctx)
	if err != nil {
		return res, err
	}
	known := make(map[pair]bool, len(g.Edges()))
	for _, e := range g.Edges() {
		known[pair{e.ModuleID, e.PrerequisiteID}] = true
	}

	for _, e := range cat.Entries {
		moduleID, ok := ids[e.Module.Code]
		if !ok {
			continue
		}
		for _, req := range e.Requires {
			prereqID, err := im.lookup(ctx, ids, req.Code)
			if err != nil {
				return res, err
			}
			if prereqID == "" {
				res.Errors = append(res.Errors, fmt.Sprintf("%s: %s requires unknown module %s", e.Source, e.Module.Code, req.Code))
				continue
			}

			p := pair{moduleID, prereqID}
			if known[p] {
				res.EdgesExisting++
				continue
			}
			if _, err := im.engine.AddDependency(ctx, moduleID, prereqID, req.Type); err != nil {
				if !isDomainError(err) {
					return res, fmt.Errorf("import dependency %s -> %s: %w", e.Module.Code, req.Code, err)
				}
				res.Errors = append(res.Errors, fmt.Sprintf("%s: %s requires %s: %v", e.Source, e.Module.Code, req.Code, err))
				continue
			}
			known[p] = true
			res.EdgesCreated++
		}
	}

	im.log.Info("curriculum imported",
		"modules_created", res.ModulesCreated, "modules_updated", res.ModulesUpdated,
		"edges_created", res.EdgesCreated, "edges_existing", res.EdgesExisting,
		"errors", len(res.Errors))
	return res, nil
}

// lookup maps a code to a module id, preferring modules of this import.
// An empty id means the code is unknown.
func (im *Importer) lookup(ctx context.Context, ids map[string]string, code string) (string, error) {
	if id, ok := ids[code]; ok {
		return id, nil
	}
	m, err := im.modules.FindByCode(ctx, code)
	if err != nil {
		return "", fmt.Errorf("find module %s: %w", code, err)
	}
	if m == nil {
		return "", nil
	}
	ids[code] = m.ID
	return m.ID, nil
}

func isDomainError(err error) bool {
	var (
		self  *depgraph.SelfDependencyError
		cycle *depgraph.CycleError
		typ   *depgraph.InvalidDependencyTypeError
		nf    *curriculum.ModuleNotFoundError
	)
	return errors.As(err, &self) || errors.As(err, &cycle) || errors.As(err, &typ) || errors.As(err, &nf)
}

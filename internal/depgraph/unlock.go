package depgraph

import (
	"context"
	"fmt"

	"github.com/ciclofficina/tracker/internal/curriculum"
	"github.com/ciclofficina/tracker/internal/progress"
)

// Unlock is the result of an unlock check.
type Unlock struct {
	CanStart       bool                `json:"canStart"`
	Missing        []curriculum.Module `json:"missingPrerequisites"`
	TotalMandatory int                 `json:"totalMandatory"`
}

// CanStartModule checks whether every direct mandatory prerequisite of
// moduleID is completed. Recommended prerequisites never block, and a
// prerequisite without a progress record counts as not started.
func (e *Engine) CanStartModule(ctx context.Context, moduleID string) (*Unlock, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if _, err := e.mustGet(ctx, moduleID); err != nil {
		return nil, err
	}

	edges, err := e.edges.ForModule(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("list prerequisites: %w", err)
	}

	u := &Unlock{CanStart: true, Missing: []curriculum.Module{}}
	var mandatory []Link
	for _, ed := range edges {
		if ed.Type != curriculum.Mandatory {
			continue
		}
		m, err := e.modules.Get(ctx, ed.PrerequisiteID)
		if err != nil {
			return nil, fmt.Errorf("get module: %w", err)
		}
		if m == nil {
			continue
		}
		mandatory = append(mandatory, Link{Module: *m, Type: ed.Type, EdgeID: ed.ID})
	}
	sortLinks(mandatory)
	u.TotalMandatory = len(mandatory)

	for _, l := range mandatory {
		rec, err := e.progress.GetByModule(ctx, l.Module.ID)
		if err != nil {
			return nil, fmt.Errorf("get progress: %w", err)
		}
		if progress.StatusOf(rec) != progress.StatusCompleted {
			u.Missing = append(u.Missing, l.Module)
		}
	}
	u.CanStart = len(u.Missing) == 0
	return u, nil
}

// ModuleState pairs a module with its status and unlock state.
type ModuleState struct {
	Module   curriculum.Module `json:"module"`
	Status   progress.Status   `json:"status"`
	Unlocked bool              `json:"unlocked"`
	Missing  []string          `json:"missing,omitempty"`
}

// States returns every module in topological order with its status and
// unlock state. Modules on a cycle are appended after the ordered ones.
func (e *Engine) States(ctx context.Context) ([]ModuleState, error) {
	g, err := e.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	records, err := e.progress.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	status := make(map[string]progress.Status, len(records))
	for _, r := range records {
		status[r.ModuleID] = r.Status
	}
	statusOf := func(id string) progress.Status {
		if st, ok := status[id]; ok && st != "" {
			return st
		}
		return progress.StatusNotStarted
	}

	waves, unordered := g.Waves()
	var ids []string
	for _, w := range waves {
		ids = append(ids, w...)
	}
	ids = append(ids, unordered...)

	out := make([]ModuleState, 0, len(ids))
	for _, id := range ids {
		m, _ := g.Module(id)
		st := ModuleState{Module: *m, Status: statusOf(id), Unlocked: true}
		for _, ed := range g.Prerequisites(id) {
			if ed.Type != curriculum.Mandatory {
				continue
			}
			if statusOf(ed.PrerequisiteID) != progress.StatusCompleted {
				st.Unlocked = false
				st.Missing = append(st.Missing, g.Codes([]string{ed.PrerequisiteID})[0])
			}
		}
		out = append(out, st)
	}
	return out, nil
}

// Available returns modules that are unlocked and not yet completed, in
// topological order.
func (e *Engine) Available(ctx context.Context) ([]ModuleState, error) {
	states, err := e.States(ctx)
	if err != nil {
		return nil, err
	}
	var out []ModuleState
	for _, s := range states {
		if s.Unlocked && s.Status != progress.StatusCompleted {
			out = append(out, s)
		}
	}
	return out, nil
}

// Blocked returns modules with at least one incomplete mandatory
// prerequisite, in topological order.
func (e *Engine) Blocked(ctx context.Context) ([]ModuleState, error) {
	states, err := e.States(ctx)
	if err != nil {
		return nil, err
	}
	var out []ModuleState
	for _, s := range states {
		if !s.Unlocked {
			out = append(out, s)
		}
	}
	return out, nil
}

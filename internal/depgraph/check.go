package depgraph

import (
	"context"
	"fmt"
	"sort"

	"github.com/ciclofficina/tracker/internal/curriculum"
)

// IssueKind classifies a graph integrity problem.
type IssueKind string

const (
	IssueDanglingEdge   IssueKind = "dangling-edge"
	IssueSelfLoop       IssueKind = "self-loop"
	IssueCycle          IssueKind = "cycle"
	IssueBehindCycle    IssueKind = "behind-cycle"
	IssueLevelInversion IssueKind = "level-inversion"
	IssueIsolated       IssueKind = "isolated"
)

// Severity ranks issues; only errors make a report fail.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue is one finding of Check.
type Issue struct {
	Kind     IssueKind `json:"kind"`
	Severity Severity  `json:"severity"`
	Modules  []string  `json:"modules"`
	Detail   string    `json:"detail"`
}

// Report is the outcome of Check.
type Report struct {
	Modules int     `json:"modules"`
	Edges   int     `json:"edges"`
	Issues  []Issue `json:"issues"`
}

// OK reports whether the report has no error-severity issues.
func (r *Report) OK() bool {
	for _, is := range r.Issues {
		if is.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Count returns the number of issues with the given severity.
func (r *Report) Count(sev Severity) int {
	n := 0
	for _, is := range r.Issues {
		if is.Severity == sev {
			n++
		}
	}
	return n
}

// Check inspects the stored graph for data that insertion-time checks
// cannot rule out: edges to deleted modules, legacy self-loops and cycles,
// mandatory prerequisites placed at a higher level than their dependent,
// and modules with no edges at all.
func (e *Engine) Check(ctx context.Context) (*Report, error) {
	g, err := e.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	rep := &Report{Modules: g.Len(), Edges: len(g.Edges())}

	for _, ed := range g.Edges() {
		_, okDep := g.Module(ed.ModuleID)
		_, okPre := g.Module(ed.PrerequisiteID)
		switch {
		case !okDep || !okPre:
			rep.Issues = append(rep.Issues, Issue{
				Kind:     IssueDanglingEdge,
				Severity: SeverityError,
				Modules:  g.Codes([]string{ed.ModuleID, ed.PrerequisiteID}),
				Detail:   fmt.Sprintf("edge %s references a missing module", ed.ID),
			})
		case ed.ModuleID == ed.PrerequisiteID:
			rep.Issues = append(rep.Issues, Issue{
				Kind:     IssueSelfLoop,
				Severity: SeverityError,
				Modules:  g.Codes([]string{ed.ModuleID}),
				Detail:   fmt.Sprintf("edge %s points a module at itself", ed.ID),
			})
		}
	}

	rep.Issues = append(rep.Issues, cycleIssues(g)...)

	for _, m := range g.Modules() {
		for _, ed := range g.Prerequisites(m.ID) {
			if ed.Type != curriculum.Mandatory {
				continue
			}
			pre, _ := g.Module(ed.PrerequisiteID)
			if pre.Level > m.Level && m.Level > 0 {
				rep.Issues = append(rep.Issues, Issue{
					Kind:     IssueLevelInversion,
					Severity: SeverityWarning,
					Modules:  []string{m.Code, pre.Code},
					Detail:   fmt.Sprintf("%s (level %d) requires %s from level %d", m.Code, m.Level, pre.Code, pre.Level),
				})
			}
		}
		if len(g.Prerequisites(m.ID)) == 0 && len(g.Dependents(m.ID)) == 0 && g.Len() > 1 {
			rep.Issues = append(rep.Issues, Issue{
				Kind:     IssueIsolated,
				Severity: SeverityInfo,
				Modules:  []string{m.Code},
				Detail:   "module has no prerequisites and no dependents",
			})
		}
	}

	return rep, nil
}

// cycleIssues finds one concrete cycle through each group of modules Kahn's
// algorithm could not order. Modules that are blocked by a cycle without
// being on one are reported together.
func cycleIssues(g *Graph) []Issue {
	_, unordered := g.Waves()
	if len(unordered) == 0 {
		return nil
	}

	stuck := make(map[string]bool, len(unordered))
	for _, id := range unordered {
		stuck[id] = true
	}

	var issues []Issue
	onCycle := make(map[string]bool)
	for _, id := range unordered {
		if onCycle[id] {
			continue
		}
		for _, ed := range g.Prerequisites(id) {
			if !stuck[ed.PrerequisiteID] || ed.PrerequisiteID == id {
				continue
			}
			path := g.PathTo(ed.PrerequisiteID, id)
			if path == nil {
				continue
			}
			cycle := append([]string{id}, path...)
			for _, n := range cycle {
				onCycle[n] = true
			}
			issues = append(issues, Issue{
				Kind:     IssueCycle,
				Severity: SeverityError,
				Modules:  g.Codes(cycle),
				Detail:   "modules depend on each other in a loop",
			})
			break
		}
	}

	var behind []string
	for _, id := range unordered {
		if !onCycle[id] && !selfLooped(g, id) {
			behind = append(behind, id)
		}
	}
	if len(behind) > 0 {
		codes := g.Codes(behind)
		sort.Strings(codes)
		issues = append(issues, Issue{
			Kind:     IssueBehindCycle,
			Severity: SeverityWarning,
			Modules:  codes,
			Detail:   "modules cannot be ordered because a prerequisite sits on a cycle",
		})
	}
	return issues
}

func selfLooped(g *Graph, id string) bool {
	for _, ed := range g.Prerequisites(id) {
		if ed.PrerequisiteID == id {
			return true
		}
	}
	return false
}

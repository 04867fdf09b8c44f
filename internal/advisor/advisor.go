// Package advisor asks an LLM which catalog modules should be
// prerequisites of a given module and checks every answer against the
// dependency graph before anything is written.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ciclofficina/tracker/internal/curriculum"
	"github.com/ciclofficina/tracker/internal/depgraph"
	"github.com/ciclofficina/tracker/internal/llm"
	"github.com/ciclofficina/tracker/internal/logging"
)

// Verdict is the outcome of vetting one suggestion.
type Verdict string

const (
	Accepted  Verdict = "accepted"
	Unknown   Verdict = "unknown-module"
	Self      Verdict = "self"
	Existing  Verdict = "existing"
	Cycle     Verdict = "cycle"
	Duplicate Verdict = "duplicate"
	BadType   Verdict = "invalid-type"
)

// Suggestion is one proposed prerequisite of the target.
type Suggestion struct {
	Code    string                    `json:"code"`
	Type    curriculum.DependencyType `json:"type"`
	Reason  string                    `json:"reason"`
	Verdict Verdict                   `json:"verdict"`

	// Module is set when Code names a catalog module.
	Module *curriculum.Module `json:"module,omitempty"`

	// Chain is the cycle the edge would close, for Cycle verdicts.
	Chain []string `json:"chain,omitempty"`
}

// Advice is the vetted answer for one target module.
type Advice struct {
	Target      curriculum.Module `json:"target"`
	Model       string            `json:"model"`
	Suggestions []Suggestion      `json:"suggestions"`
}

// Accepted returns the suggestions that passed vetting.
func (a *Advice) Accepted() []Suggestion {
	var out []Suggestion
	for _, s := range a.Suggestions {
		if s.Verdict == Accepted {
			out = append(out, s)
		}
	}
	return out
}

// Advisor proposes prerequisites.
type Advisor struct {
	provider llm.Provider
	engine   *depgraph.Engine
	modules  curriculum.ModuleReader
	cfg      Config
	log      *logging.Logger
}

func New(provider llm.Provider, engine *depgraph.Engine, modules curriculum.ModuleReader, cfg Config, log *logging.Logger) *Advisor {
	if log == nil {
		log = logging.Nop()
	}
	return &Advisor{provider: provider, engine: engine, modules: modules, cfg: cfg, log: log}
}

// Suggest asks the model for prerequisites of the module named by ref and
// vets each one. It writes nothing.
func (a *Advisor) Suggest(ctx context.Context, ref string) (*Advice, error) {
	target, err := curriculum.Resolve(ctx, a.modules, ref)
	if err != nil {
		return nil, err
	}
	g, err := a.engine.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	current := make(map[string]bool)
	var currentMods []curriculum.Module
	for _, e := range g.Prerequisites(target.ID) {
		current[e.PrerequisiteID] = true
		if m, ok := g.Module(e.PrerequisiteID); ok {
			currentMods = append(currentMods, *m)
		}
	}

	req := llm.UserPrompt(systemPrompt, buildUserMessage(*target, currentMods, a.candidates(g, *target, current), a.cfg.MaxSuggestions))
	req.Schema = SuggestionSchema
	req.MaxTokens = a.cfg.MaxTokens
	req.Temperature = a.cfg.Temperature

	resp, err := a.provider.Generate(llm.WithPurpose(ctx, llm.PurposePrerequisites), req)
	if err != nil {
		return nil, fmt.Errorf("generate suggestions: %w", err)
	}
	var out suggestionsOutput
	if err := resp.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode suggestions: %w", err)
	}

	byCode := make(map[string]*curriculum.Module, g.Len())
	for _, m := range g.Modules() {
		byCode[strings.ToUpper(m.Code)] = &m
	}

	advice := &Advice{Target: *target, Model: resp.Model}
	seen := make(map[string]bool)
	for _, raw := range out.Suggestions {
		if a.cfg.MaxSuggestions > 0 && len(advice.Suggestions) == a.cfg.MaxSuggestions {
			break
		}
		s := Suggestion{
			Code:   strings.TrimSpace(raw.Code),
			Type:   curriculum.DependencyType(raw.Type),
			Reason: strings.TrimSpace(raw.Reason),
		}
		s.Module = byCode[strings.ToUpper(s.Code)]
		switch {
		case s.Module == nil:
			s.Verdict = Unknown
		case s.Module.ID == target.ID:
			s.Verdict = Self
		case current[s.Module.ID]:
			s.Verdict = Existing
		case seen[s.Module.ID]:
			s.Verdict = Duplicate
		default:
			chain, cyclic, err := a.engine.WouldCreateCycle(ctx, target.ID, s.Module.ID)
			if err != nil {
				return nil, err
			}
			if cyclic {
				s.Verdict, s.Chain = Cycle, chain
			} else {
				s.Verdict = Accepted
			}
		}
		if s.Module != nil {
			s.Code = s.Module.Code
			seen[s.Module.ID] = true
		}
		advice.Suggestions = append(advice.Suggestions, s)
	}

	a.log.Info("prerequisites suggested", "module", target.Code, "model", resp.Model,
		"suggested", len(advice.Suggestions), "accepted", len(advice.Accepted()))
	return advice, nil
}

// candidates lists the modules the target could depend on without a
// cycle, same or lower level first, then nearest level, then code.
func (a *Advisor) candidates(g *depgraph.Graph, target curriculum.Module, current map[string]bool) []curriculum.Module {
	var out []curriculum.Module
	for _, m := range g.Modules() {
		if m.ID == target.ID || current[m.ID] || g.PathTo(m.ID, target.ID) != nil {
			continue
		}
		out = append(out, m)
	}
	dist := func(m curriculum.Module) int {
		d := m.Level - target.Level
		if d < 0 {
			return -d
		}
		return d
	}
	sort.SliceStable(out, func(i, j int) bool {
		ai, aj := out[i].Level > target.Level, out[j].Level > target.Level
		if ai != aj {
			return !ai
		}
		if di, dj := dist(out[i]), dist(out[j]); di != dj {
			return di < dj
		}
		return out[i].Code < out[j].Code
	})
	if a.cfg.MaxCandidates > 0 && len(out) > a.cfg.MaxCandidates {
		out = out[:a.cfg.MaxCandidates]
	}
	return out
}

// Applied reports what Apply did with each accepted suggestion.
type Applied struct {
	Added   []curriculum.Edge `json:"added"`
	Skipped []Suggestion      `json:"skipped"`
}

// Apply adds the accepted suggestions of advice through the engine. A
// suggestion the engine now rejects, for instance because the graph
// changed since Suggest, is skipped. Storage failures abort.
func (a *Advisor) Apply(ctx context.Context, advice *Advice) (*Applied, error) {
	res := &Applied{}
	for _, s := range advice.Accepted() {
		edge, err := a.engine.AddDependency(ctx, advice.Target.ID, s.Module.ID, s.Type)
		if err != nil {
			var (
				cycle *depgraph.CycleError
				nf    *curriculum.ModuleNotFoundError
				typ   *depgraph.InvalidDependencyTypeError
			)
			switch {
			case errors.As(err, &cycle):
				s.Verdict, s.Chain = Cycle, cycle.Chain
			case errors.As(err, &nf):
				s.Verdict = Unknown
			case errors.As(err, &typ):
				s.Verdict = BadType
			default:
				return res, err
			}
			res.Skipped = append(res.Skipped, s)
			continue
		}
		res.Added = append(res.Added, *edge)
	}
	return res, nil
}

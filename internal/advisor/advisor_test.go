package advisor

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ciclofficina/tracker/internal/curriculum"
	"github.com/ciclofficina/tracker/internal/depgraph"
	"github.com/ciclofficina/tracker/internal/llm"
	"github.com/ciclofficina/tracker/internal/store"
)

type suggestion struct {
	Code   string `json:"code"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func answer(s ...suggestion) llm.MockResponse {
	if s == nil {
		s = []suggestion{}
	}
	return llm.MockJSON(map[string]any{"suggestions": s})
}

type env struct {
	store  *store.Store
	engine *depgraph.Engine
	mods   map[string]*curriculum.Module
}

// newEnv seeds modules A..E on levels 1..3 with E -> A existing.
func newEnv(t *testing.T) *env {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "tracker.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	levels := map[string]int{"A": 1, "B": 1, "C": 2, "D": 3, "E": 2}
	mods := make(map[string]*curriculum.Module)
	for code, lvl := range levels {
		m := &curriculum.Module{Code: code, Title: "Modulo " + code, Level: lvl, TeachingArea: "Freni"}
		if _, err := s.Modules().Upsert(ctx, m); err != nil {
			t.Fatal(err)
		}
		mods[code] = m
	}
	eng := depgraph.NewEngine(s.Modules(), s.Edges(), s.Progress())
	if _, err := eng.AddDependency(ctx, mods["E"].ID, mods["A"].ID, curriculum.Mandatory); err != nil {
		t.Fatal(err)
	}
	return &env{store: s, engine: eng, mods: mods}
}

func (e *env) advisor(p llm.Provider) *Advisor {
	return New(p, e.engine, e.store.Modules(), DefaultConfig(), nil)
}

func TestSuggestVetsEverySuggestion(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	// C -> E exists, so E -> C would close a cycle.
	if _, err := e.engine.AddDependency(ctx, e.mods["C"].ID, e.mods["E"].ID, curriculum.Recommended); err != nil {
		t.Fatal(err)
	}

	mock := llm.NewMockProvider(answer(
		suggestion{"b", "mandatory", "brake pads first"},
		suggestion{"A", "mandatory", "already there"},
		suggestion{"E", "recommended", "itself"},
		suggestion{"C", "recommended", "loops"},
		suggestion{"ZZZ", "mandatory", "invented"},
		suggestion{"B", "recommended", "again"},
	))
	adv, err := e.advisor(mock).Suggest(ctx, "E")
	if err != nil {
		t.Fatal(err)
	}

	want := []struct {
		code    string
		verdict Verdict
	}{
		{"B", Accepted},
		{"A", Existing},
		{"E", Self},
		{"C", Cycle},
		{"ZZZ", Unknown},
	}
	if len(adv.Suggestions) != len(want) {
		t.Fatalf("got %d suggestions, want %d (max)", len(adv.Suggestions), len(want))
	}
	for i, w := range want {
		got := adv.Suggestions[i]
		if got.Code != w.code || got.Verdict != w.verdict {
			t.Errorf("suggestion %d = %s/%s, want %s/%s", i, got.Code, got.Verdict, w.code, w.verdict)
		}
	}
	if chain := adv.Suggestions[3].Chain; strings.Join(chain, " ") != "E C E" {
		t.Errorf("cycle chain = %v", chain)
	}
	if acc := adv.Accepted(); len(acc) != 1 || acc[0].Module.ID != e.mods["B"].ID {
		t.Fatalf("accepted = %+v", acc)
	}

	edges, _ := e.store.Edges().All(ctx)
	if len(edges) != 2 {
		t.Fatalf("Suggest wrote edges: %d", len(edges))
	}
}

func TestSuggestDuplicateCode(t *testing.T) {
	e := newEnv(t)
	mock := llm.NewMockProvider(answer(
		suggestion{"B", "mandatory", "x"},
		suggestion{"B", "recommended", "y"},
	))
	adv, err := e.advisor(mock).Suggest(context.Background(), "D")
	if err != nil {
		t.Fatal(err)
	}
	if adv.Suggestions[1].Verdict != Duplicate {
		t.Fatalf("second = %s", adv.Suggestions[1].Verdict)
	}
}

func TestSuggestPrompt(t *testing.T) {
	e := newEnv(t)
	mock := llm.NewMockProvider(answer())
	if _, err := e.advisor(mock).Suggest(context.Background(), "E"); err != nil {
		t.Fatal(err)
	}

	req := mock.Calls[0]
	if req.Schema != SuggestionSchema {
		t.Fatal("schema not requested")
	}
	msg := req.Messages[0].Content
	if !strings.Contains(msg, "Target: E | Modulo E | level 2") {
		t.Errorf("target missing:\n%s", msg)
	}
	if !strings.Contains(msg, "Current prerequisites:\n- A |") {
		t.Errorf("current prerequisites missing:\n%s", msg)
	}
	catalog := msg[strings.Index(msg, "Catalog:"):]
	if strings.Contains(catalog, "- A |") || strings.Contains(catalog, "- E |") {
		t.Errorf("catalog lists target or existing prerequisite:\n%s", catalog)
	}
	// lower or equal levels first
	if strings.Index(catalog, "- B |") > strings.Index(catalog, "- D |") {
		t.Errorf("catalog order:\n%s", catalog)
	}
}

func TestSuggestUnknownModule(t *testing.T) {
	e := newEnv(t)
	mock := llm.NewMockProvider()
	_, err := e.advisor(mock).Suggest(context.Background(), "NOPE")
	var nf *curriculum.ModuleNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected ModuleNotFoundError, got %v", err)
	}
	if mock.CallCount() != 0 {
		t.Fatal("model called for unknown module")
	}
}

func TestSuggestProviderError(t *testing.T) {
	e := newEnv(t)
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{}})
	_, err := e.advisor(mock).Suggest(context.Background(), "E")
	var unavail *llm.ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestApply(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	mock := llm.NewMockProvider(answer(
		suggestion{"B", "mandatory", "x"},
		suggestion{"C", "recommended", "y"},
	))
	a := e.advisor(mock)
	adv, err := a.Suggest(ctx, "E")
	if err != nil {
		t.Fatal(err)
	}

	// The graph changes between Suggest and Apply: C now depends on E.
	if _, err := e.engine.AddDependency(ctx, e.mods["C"].ID, e.mods["E"].ID, curriculum.Mandatory); err != nil {
		t.Fatal(err)
	}

	res, err := a.Apply(ctx, adv)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Added) != 1 || res.Added[0].PrerequisiteID != e.mods["B"].ID || res.Added[0].Type != curriculum.Mandatory {
		t.Fatalf("added = %+v", res.Added)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Verdict != Cycle {
		t.Fatalf("skipped = %+v", res.Skipped)
	}

	u, err := e.engine.CanStartModule(ctx, e.mods["E"].ID)
	if err != nil {
		t.Fatal(err)
	}
	if u.CanStart {
		t.Fatal("E should be locked behind A and B")
	}
}

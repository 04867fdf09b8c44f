package curriculum

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Regolazione del cambio", "regolazione-del-cambio"},
		{"Perché la catena salta?", "perche-la-catena-salta"},
		{"  Freni a disco -- idraulici  ", "freni-a-disco-idraulici"},
		{"Città & Università", "citta-universita"},
		{"BIKE 1.2", "bike-1-2"},
		{"", ""},
		{"???", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestModuleNormalize(t *testing.T) {
	m := Module{Code: " BIKE-1.1.1 ", Title: "Smontaggio ruota", TeachingArea: "Meccanica Base"}
	m.Normalize()

	if m.Code != "BIKE-1.1.1" {
		t.Errorf("code = %q, want trimmed", m.Code)
	}
	if m.Kind != KindPresenza {
		t.Errorf("kind = %q, want %q", m.Kind, KindPresenza)
	}
	if m.Difficulty != DifficultyBase {
		t.Errorf("difficulty = %q, want %q", m.Difficulty, DifficultyBase)
	}
	if m.EstimatedMins != DefaultDuration {
		t.Errorf("estimated = %d, want %d", m.EstimatedMins, DefaultDuration)
	}
	if want := "/ciclofficina-basics/meccanica-base/smontaggio-ruota"; m.ContentPath != want {
		t.Errorf("content path = %q, want %q", m.ContentPath, want)
	}
}

func TestModuleValidate(t *testing.T) {
	valid := Module{Code: "A", Title: "A", Kind: KindOnline, Difficulty: DifficultyAvanzato, EstimatedMins: 30}

	tests := []struct {
		name    string
		mutate  func(*Module)
		wantErr string
	}{
		{"valid", func(*Module) {}, ""},
		{"missing title", func(m *Module) { m.Title = "" }, "title is required"},
		{"long title", func(m *Module) { m.Title = strings.Repeat("x", MaxTitleLen+1) }, "title exceeds"},
		{"missing code", func(m *Module) { m.Code = "" }, "code is required"},
		{"long code", func(m *Module) { m.Code = strings.Repeat("x", MaxCodeLen+1) }, "code exceeds"},
		{"bad kind", func(m *Module) { m.Kind = "remote" }, "kind must be"},
		{"bad difficulty", func(m *Module) { m.Difficulty = "expert" }, "unknown difficulty"},
		{"negative duration", func(m *Module) { m.EstimatedMins = -1 }, "estimated duration"},
		{"too long duration", func(m *Module) { m.EstimatedMins = MaxDurationMins + 1 }, "estimated duration"},
		{"max duration ok", func(m *Module) { m.EstimatedMins = MaxDurationMins }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid
			tt.mutate(&m)
			err := m.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %T (%v)", err, err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

type memReader struct {
	modules []Module
}

func (r *memReader) Get(_ context.Context, id string) (*Module, error) {
	for i := range r.modules {
		if r.modules[i].ID == id {
			return &r.modules[i], nil
		}
	}
	return nil, nil
}

func (r *memReader) FindByCode(_ context.Context, code string) (*Module, error) {
	for i := range r.modules {
		if r.modules[i].Code == code {
			return &r.modules[i], nil
		}
	}
	return nil, nil
}

func (r *memReader) All(context.Context) ([]Module, error) { return r.modules, nil }

func TestResolve(t *testing.T) {
	r := &memReader{modules: []Module{
		{ID: "id-1", Code: "BIKE-1.1.1", Title: "One"},
		{ID: "id-2", Code: "id-1", Title: "Code shadows an id"},
	}}
	ctx := context.Background()

	m, err := Resolve(ctx, r, "BIKE-1.1.1")
	if err != nil || m.ID != "id-1" {
		t.Fatalf("resolve by code: got %+v, %v", m, err)
	}

	// Code lookup wins over id lookup.
	m, err = Resolve(ctx, r, "id-1")
	if err != nil || m.ID != "id-2" {
		t.Fatalf("code should win: got %+v, %v", m, err)
	}

	m, err = Resolve(ctx, r, "id-2")
	if err != nil || m.Code != "id-1" {
		t.Fatalf("resolve by id: got %+v, %v", m, err)
	}

	_, err = Resolve(ctx, r, "missing")
	var nf *ModuleNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected ModuleNotFoundError, got %v", err)
	}
	if nf.Ref != "missing" {
		t.Errorf("ref = %q, want %q", nf.Ref, "missing")
	}

	if _, err := Resolve(ctx, r, "  "); !errors.As(err, &nf) {
		t.Fatalf("blank ref: expected ModuleNotFoundError, got %v", err)
	}
}

func TestModuleInUseError(t *testing.T) {
	err := &ModuleInUseError{Code: "A", Dependents: []string{"B", "C"}}
	if got := err.Error(); !strings.Contains(got, "2 module(s): B, C") {
		t.Errorf("unexpected message %q", got)
	}
}

func TestIndex(t *testing.T) {
	mods := []Module{
		{ID: "id-1", Code: "FRENI-1"},
		{ID: "id-2", Code: "FRENI-2"},
	}
	idx := Index(mods)
	if len(idx) != 2 || idx["id-2"].Code != "FRENI-2" {
		t.Fatalf("Index = %v", idx)
	}

	mods[0].Code = "CHANGED"
	if idx["id-1"].Code != "FRENI-1" {
		t.Errorf("index follows the caller's slice: %q", idx["id-1"].Code)
	}
}

package assessment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ciclofficina/tracker/internal/curriculum"
	"github.com/ciclofficina/tracker/internal/progress"
)

type memModules []curriculum.Module

func (r memModules) Get(_ context.Context, id string) (*curriculum.Module, error) {
	for i := range r {
		if r[i].ID == id {
			return &r[i], nil
		}
	}
	return nil, nil
}

func (r memModules) FindByCode(_ context.Context, code string) (*curriculum.Module, error) {
	for i := range r {
		if r[i].Code == code {
			return &r[i], nil
		}
	}
	return nil, nil
}

func (r memModules) All(context.Context) ([]curriculum.Module, error) { return r, nil }

type memRepo map[string]Evaluation

func (r memRepo) GetByModule(_ context.Context, id string) (*Evaluation, error) {
	ev, ok := r[id]
	if !ok {
		return nil, nil
	}
	return &ev, nil
}
func (r memRepo) Save(_ context.Context, ev *Evaluation) error { r[ev.ModuleID] = *ev; return nil }
func (r memRepo) Delete(_ context.Context, id string) error    { delete(r, id); return nil }
func (r memRepo) All(context.Context) ([]Evaluation, error) {
	var out []Evaluation
	for _, ev := range r {
		out = append(out, ev)
	}
	return out, nil
}

type memProgress []progress.Record

func (p memProgress) All(context.Context) ([]progress.Record, error) { return p, nil }

func newTestService() (*Service, memRepo) {
	modules := memModules{
		{ID: "m2", Code: "BIKE-2.1.1", Title: "Catena", Level: 2},
		{ID: "m1", Code: "BIKE-1.1.1", Title: "Attrezzi", Level: 1},
	}
	repo := memRepo{}
	prog := memProgress{{ModuleID: "m1", Status: progress.StatusCompleted}}
	now := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	return NewService(repo, modules, prog).WithClock(func() time.Time { return now }), repo
}

func TestRecord_Upsert(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	ev, err := svc.Record(ctx, "BIKE-1.1.1", Evaluation{Evaluator: " Marta ", PracticalApplied: true, ResultQuality: "buona", SatisfactionLevel: 80})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if ev.ModuleID != "m1" || ev.Evaluator != "Marta" {
		t.Errorf("evaluation = %+v", ev)
	}
	if ev.EvaluatedAt.IsZero() {
		t.Error("evaluation date should default to now")
	}

	if _, err := svc.Record(ctx, "m1", Evaluation{Evaluator: "Luca", SatisfactionLevel: 40}); err != nil {
		t.Fatalf("record again: %v", err)
	}
	if len(repo) != 1 {
		t.Fatalf("got %d evaluations, want 1", len(repo))
	}
	if repo["m1"].Evaluator != "Luca" {
		t.Errorf("evaluation not replaced: %+v", repo["m1"])
	}
}

func TestRecord_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for _, level := range []int{-1, 101} {
		_, err := svc.Record(ctx, "BIKE-1.1.1", Evaluation{SatisfactionLevel: level})
		var ve *curriculum.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("satisfaction %d: expected ValidationError, got %v", level, err)
		}
	}

	_, err := svc.Record(ctx, "BIKE-0", Evaluation{SatisfactionLevel: 50})
	var nf *curriculum.ModuleNotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("expected ModuleNotFoundError, got %v", err)
	}
}

func TestReport(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Record(ctx, "BIKE-1.1.1", Evaluation{PracticalApplied: true, SatisfactionLevel: 90}); err != nil {
		t.Fatal(err)
	}

	rows, err := svc.Report(ctx)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Code != "BIKE-1.1.1" || rows[0].Status != progress.StatusCompleted || rows[0].Evaluation == nil {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[1].Status != progress.StatusNotStarted || rows[1].Evaluation != nil {
		t.Errorf("row 1 = %+v", rows[1])
	}
}

func TestDelete(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	if _, err := svc.Record(ctx, "BIKE-1.1.1", Evaluation{SatisfactionLevel: 10}); err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(ctx, "BIKE-1.1.1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	ev, err := svc.ForModule(ctx, "BIKE-1.1.1")
	if err != nil || ev != nil {
		t.Errorf("expected no evaluation, got %+v, %v", ev, err)
	}
	if len(repo) != 0 {
		t.Errorf("repo not empty: %v", repo)
	}
}

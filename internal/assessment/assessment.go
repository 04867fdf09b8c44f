// Package assessment records how a learner applied a module in the
// workshop: whether the practical work was done, its quality and the
// evaluator's satisfaction.
package assessment

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ciclofficina/tracker/internal/curriculum"
	"github.com/ciclofficina/tracker/internal/progress"
)

// Evaluation is the assessment of one module. There is at most one per
// module; recording again replaces it.
type Evaluation struct {
	ModuleID          string    `json:"moduleId"`
	Evaluator         string    `json:"evaluator"`
	PracticalApplied  bool      `json:"practicalApplied"`
	ResultQuality     string    `json:"resultQuality,omitempty"`
	SatisfactionLevel int       `json:"satisfactionLevel"`
	Notes             string    `json:"notes,omitempty"`
	EvaluatedAt       time.Time `json:"evaluatedAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Repo persists evaluations.
type Repo interface {
	GetByModule(ctx context.Context, moduleID string) (*Evaluation, error)
	Save(ctx context.Context, ev *Evaluation) error
	Delete(ctx context.Context, moduleID string) error
	All(ctx context.Context) ([]Evaluation, error)
}

// ProgressReader is the subset of the progress store the report needs.
type ProgressReader interface {
	All(ctx context.Context) ([]progress.Record, error)
}

// Service records and reports evaluations.
type Service struct {
	repo     Repo
	modules  curriculum.ModuleReader
	progress ProgressReader
	now      func() time.Time
}

// NewService creates an assessment service.
func NewService(repo Repo, modules curriculum.ModuleReader, prog ProgressReader) *Service {
	return &Service{repo: repo, modules: modules, progress: prog, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Validate checks the evaluation fields.
func (ev Evaluation) Validate() error {
	var problems []string
	if ev.SatisfactionLevel < 0 || ev.SatisfactionLevel > 100 {
		problems = append(problems, fmt.Sprintf("satisfaction level must be between 0 and 100, got %d", ev.SatisfactionLevel))
	}
	if len(ev.Evaluator) > curriculum.MaxTitleLen {
		problems = append(problems, "evaluator name too long")
	}
	if len(problems) > 0 {
		return &curriculum.ValidationError{Subject: "assessment", Problems: problems}
	}
	return nil
}

// Record stores ev for the referenced module, replacing any previous one.
// The evaluation date defaults to now.
func (s *Service) Record(ctx context.Context, ref string, ev Evaluation) (*Evaluation, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	m, err := curriculum.Resolve(ctx, s.modules, ref)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	ev.ModuleID = m.ID
	ev.Evaluator = strings.TrimSpace(ev.Evaluator)
	if ev.EvaluatedAt.IsZero() {
		ev.EvaluatedAt = now
	}
	ev.UpdatedAt = now

	if err := s.repo.Save(ctx, &ev); err != nil {
		return nil, fmt.Errorf("save assessment: %w", err)
	}
	return &ev, nil
}

// ForModule returns the evaluation of the referenced module, or nil.
func (s *Service) ForModule(ctx context.Context, ref string) (*Evaluation, error) {
	m, err := curriculum.Resolve(ctx, s.modules, ref)
	if err != nil {
		return nil, err
	}
	ev, err := s.repo.GetByModule(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("get assessment: %w", err)
	}
	return ev, nil
}

// All returns every evaluation.
func (s *Service) All(ctx context.Context) ([]Evaluation, error) {
	evs, err := s.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	return evs, nil
}

// Delete removes the evaluation of the referenced module.
func (s *Service) Delete(ctx context.Context, ref string) error {
	m, err := curriculum.Resolve(ctx, s.modules, ref)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, m.ID); err != nil {
		return fmt.Errorf("delete assessment: %w", err)
	}
	return nil
}

// ReportRow joins a module with its progress status and evaluation.
type ReportRow struct {
	Code       string          `json:"code"`
	Title      string          `json:"title"`
	Level      int             `json:"level"`
	Status     progress.Status `json:"status"`
	Evaluation *Evaluation     `json:"evaluation,omitempty"`
}

// Report lists every module with its status and evaluation, ordered by
// level then code.
func (s *Service) Report(ctx context.Context) ([]ReportRow, error) {
	modules, err := s.modules.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	records, err := s.progress.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	evs, err := s.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}

	status := make(map[string]progress.Status, len(records))
	for _, r := range records {
		status[r.ModuleID] = r.Status
	}
	byModule := make(map[string]*Evaluation, len(evs))
	for i := range evs {
		byModule[evs[i].ModuleID] = &evs[i]
	}

	rows := make([]ReportRow, 0, len(modules))
	for _, m := range modules {
		st, ok := status[m.ID]
		if !ok {
			st = progress.StatusNotStarted
		}
		rows = append(rows, ReportRow{
			Code:       m.Code,
			Title:      m.Title,
			Level:      m.Level,
			Status:     st,
			Evaluation: byModule[m.ID],
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Level != rows[j].Level {
			return rows[i].Level < rows[j].Level
		}
		return rows[i].Code < rows[j].Code
	})
	return rows, nil
}

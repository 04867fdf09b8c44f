package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/ciclofficina/tracker/internal/assessment"
)

var assessmentFields = []string{
	"module_id", "evaluator", "practical_applied", "result_quality",
	"satisfaction_level", "notes", "evaluated_at", "updated_at",
}

// AssessmentRepo stores one evaluation per module. It implements
// assessment.Repo.
type AssessmentRepo struct {
	db *sql.DB
}

// GetByModule returns the evaluation for moduleID, or nil.
func (r *AssessmentRepo) GetByModule(ctx context.Context, moduleID string) (*assessment.Evaluation, error) {
	evs, err := r.query(ctx, builder.Select(assessmentFields...).
		From(entsql.Table(tableAssessments)).
		Where(entsql.EQ("module_id", moduleID)))
	if err != nil || len(evs) == 0 {
		return nil, err
	}
	return &evs[0], nil
}

// Save inserts ev or replaces the evaluation of the same module.
func (r *AssessmentRepo) Save(ctx context.Context, ev *assessment.Evaluation) error {
	ins := builder.Insert(tableAssessments).
		Columns(assessmentFields...).
		Values(
			ev.ModuleID, ev.Evaluator, ev.PracticalApplied, ev.ResultQuality,
			ev.SatisfactionLevel, ev.Notes, ev.EvaluatedAt.UTC(), ev.UpdatedAt.UTC(),
		).
		OnConflict(entsql.ConflictColumns("module_id"), entsql.ResolveWithNewValues())
	if _, err := exec(ctx, r.db, ins); err != nil {
		return fmt.Errorf("save assessment: %w", err)
	}
	return nil
}

// Delete removes the evaluation for moduleID. Missing rows are ignored.
func (r *AssessmentRepo) Delete(ctx context.Context, moduleID string) error {
	if _, err := exec(ctx, r.db, builder.Delete(tableAssessments).Where(entsql.EQ("module_id", moduleID))); err != nil {
		return fmt.Errorf("delete assessment: %w", err)
	}
	return nil
}

// All returns every evaluation, most recent first.
func (r *AssessmentRepo) All(ctx context.Context) ([]assessment.Evaluation, error) {
	return r.query(ctx, builder.Select(assessmentFields...).
		From(entsql.Table(tableAssessments)).
		OrderBy(entsql.Desc("evaluated_at")))
}

func (r *AssessmentRepo) query(ctx context.Context, sel *entsql.Selector) ([]assessment.Evaluation, error) {
	rows, err := query(ctx, r.db, sel)
	if err != nil {
		return nil, fmt.Errorf("query assessments: %w", err)
	}
	defer rows.Close()

	var out []assessment.Evaluation
	for rows.Next() {
		var ev assessment.Evaluation
		err := rows.Scan(&ev.ModuleID, &ev.Evaluator, &ev.PracticalApplied, &ev.ResultQuality,
			&ev.SatisfactionLevel, &ev.Notes, &ev.EvaluatedAt, &ev.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

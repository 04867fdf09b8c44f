package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/ciclofficina/tracker/internal/progress"
)

var progressFields = []string{
	"module_id", "status", "started_at", "completed_at", "attempts",
	"score", "notes", "created_at", "updated_at",
}

// ProgressRepo stores one progress record per module. It implements
// progress.Repo and depgraph.ProgressReader.
type ProgressRepo struct {
	db *sql.DB
}

// GetByModule returns the record for moduleID, or nil.
func (r *ProgressRepo) GetByModule(ctx context.Context, moduleID string) (*progress.Record, error) {
	recs, err := r.query(ctx, builder.Select(progressFields...).
		From(entsql.Table(tableProgress)).
		Where(entsql.EQ("module_id", moduleID)))
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return &recs[0], nil
}

// Save inserts rec or replaces the record with the same module id.
func (r *ProgressRepo) Save(ctx context.Context, rec *progress.Record) error {
	var score any
	if rec.Score != nil {
		score = *rec.Score
	}
	ins := builder.Insert(tableProgress).
		Columns(progressFields...).
		Values(
			rec.ModuleID, string(rec.Status), nullTime(rec.StartedAt), nullTime(rec.CompletedAt),
			rec.Attempts, score, rec.Notes, rec.CreatedAt.UTC(), rec.UpdatedAt.UTC(),
		).
		OnConflict(
			entsql.ConflictColumns("module_id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				for _, f := range progressFields[1:] {
					if f != "created_at" {
						u.SetExcluded(f)
					}
				}
			}),
		)
	if _, err := exec(ctx, r.db, ins); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// Delete removes the record for moduleID. Missing records are ignored.
func (r *ProgressRepo) Delete(ctx context.Context, moduleID string) error {
	if _, err := exec(ctx, r.db, builder.Delete(tableProgress).Where(entsql.EQ("module_id", moduleID))); err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	return nil
}

// All returns every stored record ordered by module id.
func (r *ProgressRepo) All(ctx context.Context) ([]progress.Record, error) {
	return r.query(ctx, builder.Select(progressFields...).
		From(entsql.Table(tableProgress)).
		OrderBy("module_id"))
}

func (r *ProgressRepo) query(ctx context.Context, sel *entsql.Selector) ([]progress.Record, error) {
	rows, err := query(ctx, r.db, sel)
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	defer rows.Close()

	var out []progress.Record
	for rows.Next() {
		var (
			rec                progress.Record
			status             string
			started, completed sql.NullTime
			score              sql.NullInt64
		)
		err := rows.Scan(&rec.ModuleID, &status, &started, &completed, &rec.Attempts,
			&score, &rec.Notes, &rec.CreatedAt, &rec.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		rec.Status = progress.Status(status)
		if started.Valid {
			t := started.Time
			rec.StartedAt = &t
		}
		if completed.Valid {
			t := completed.Time
			rec.CompletedAt = &t
		}
		if score.Valid {
			s := int(score.Int64)
			rec.Score = &s
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

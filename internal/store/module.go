package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/ciclofficina/tracker/internal/curriculum"
)

var moduleFields = []string{
	"id", "code", "title", "slug", "description", "kind", "difficulty",
	"estimated_mins", "tools", "outcomes", "skill_tags", "criteria",
	"teaching_area", "level", "content_path", "created_at", "updated_at",
}

// ModuleRepo stores curriculum modules. It implements
// curriculum.ModuleReader.
type ModuleRepo struct {
	db *sql.DB
}

// Get returns the module with id, or nil.
func (r *ModuleRepo) Get(ctx context.Context, id string) (*curriculum.Module, error) {
	return r.one(ctx, r.db, entsql.EQ("id", id))
}

// FindByCode returns the module with code, or nil.
func (r *ModuleRepo) FindByCode(ctx context.Context, code string) (*curriculum.Module, error) {
	return r.one(ctx, r.db, entsql.EQ("code", code))
}

// All returns every module ordered by level and code.
func (r *ModuleRepo) All(ctx context.Context) ([]curriculum.Module, error) {
	return r.list(ctx, nil)
}

// Search returns modules whose code, title, teaching area or skill tags
// contain q, ignoring case.
func (r *ModuleRepo) Search(ctx context.Context, q string) ([]curriculum.Module, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return r.All(ctx)
	}
	return r.list(ctx, entsql.Or(
		entsql.ContainsFold("code", q),
		entsql.ContainsFold("title", q),
		entsql.ContainsFold("teaching_area", q),
		entsql.ContainsFold("skill_tags", q),
	))
}

// ByLevel returns the modules of one level ordered by code.
func (r *ModuleRepo) ByLevel(ctx context.Context, level int) ([]curriculum.Module, error) {
	return r.list(ctx, entsql.EQ("level", level))
}

func (r *ModuleRepo) list(ctx context.Context, where *entsql.Predicate) ([]curriculum.Module, error) {
	sel := builder.Select(moduleFields...).
		From(entsql.Table(tableModules)).
		OrderBy("level", "code")
	if where != nil {
		sel.Where(where)
	}

	rows, err := query(ctx, r.db, sel)
	if err != nil {
		return nil, fmt.Errorf("query modules: %w", err)
	}
	defer rows.Close()

	var out []curriculum.Module
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan module: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (r *ModuleRepo) one(ctx context.Context, c conn, where *entsql.Predicate) (*curriculum.Module, error) {
	sel := builder.Select(moduleFields...).
		From(entsql.Table(tableModules)).
		Where(where).
		Limit(1)

	rows, err := query(ctx, c, sel)
	if err != nil {
		return nil, fmt.Errorf("query module: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	m, err := scanModule(rows)
	if err != nil {
		return nil, fmt.Errorf("scan module: %w", err)
	}
	return m, nil
}

// Upsert inserts m or, when a module with the same code exists, updates it
// in place keeping its id and creation time. m is normalized and validated
// first; on success its ID and timestamps are filled. The returned flag is
// true when a new row was created.
func (r *ModuleRepo) Upsert(ctx context.Context, m *curriculum.Module) (bool, error) {
	m.Normalize()
	if err := m.Validate(); err != nil {
		return false, err
	}

	created := false
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		existing, err := r.one(ctx, tx, entsql.EQ("code", m.Code))
		if err != nil {
			return err
		}

		slug, err := r.uniqueSlug(ctx, tx, m)
		if err != nil {
			return err
		}
		m.Slug = slug

		now := time.Now().UTC()
		m.UpdatedAt = now

		if existing == nil {
			created = true
			if m.ID == "" {
				m.ID = uuid.NewString()
			}
			m.CreatedAt = now
			return r.insert(ctx, tx, m)
		}

		m.ID = existing.ID
		m.CreatedAt = existing.CreatedAt
		return r.update(ctx, tx, m)
	})
	return created, err
}

// uniqueSlug returns m's slug, suffixed with its code when another module
// already uses it.
func (r *ModuleRepo) uniqueSlug(ctx context.Context, c conn, m *curriculum.Module) (string, error) {
	other, err := r.one(ctx, c, entsql.And(entsql.EQ("slug", m.Slug), entsql.NEQ("code", m.Code)))
	if err != nil {
		return "", err
	}
	if other == nil {
		return m.Slug, nil
	}
	return m.Slug + "-" + curriculum.Slugify(m.Code), nil
}

func (r *ModuleRepo) insert(ctx context.Context, c conn, m *curriculum.Module) error {
	vals, err := moduleValues(m)
	if err != nil {
		return err
	}
	ins := builder.Insert(tableModules).Columns(moduleFields...).Values(vals...)
	if _, err := exec(ctx, c, ins); err != nil {
		return fmt.Errorf("insert module: %w", err)
	}
	return nil
}

func (r *ModuleRepo) update(ctx context.Context, c conn, m *curriculum.Module) error {
	vals, err := moduleValues(m)
	if err != nil {
		return err
	}
	upd := builder.Update(tableModules).Where(entsql.EQ("id", m.ID))
	// Skip id and created_at.
	for i, f := range moduleFields {
		if f == "id" || f == "created_at" {
			continue
		}
		upd.Set(f, vals[i])
	}
	if _, err := exec(ctx, c, upd); err != nil {
		return fmt.Errorf("update module: %w", err)
	}
	return nil
}

// Delete removes the module with id together with its own prerequisite
// edges, progress record and assessment. It fails with
// *curriculum.ModuleInUseError while other modules list it as a
// prerequisite, and with *curriculum.ModuleNotFoundError if it is absent.
func (r *ModuleRepo) Delete(ctx context.Context, id string) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		m, err := r.one(ctx, tx, entsql.EQ("id", id))
		if err != nil {
			return err
		}
		if m == nil {
			return &curriculum.ModuleNotFoundError{Ref: id}
		}

		// C() qualifies with the alias current at call time, so both
		// tables are aliased before any column is taken from them.
		d := entsql.Table(tableDependencies).As("d")
		dep := entsql.Table(tableModules).As("m")
		sel := builder.Select(dep.C("code")).
			From(d).
			Join(dep).
			On(d.C("module_id"), dep.C("id")).
			Where(entsql.And(
				entsql.EQ(d.C("prerequisite_id"), id),
				entsql.NEQ(d.C("module_id"), id),
			)).
			OrderBy(dep.C("code"))
		rows, err := query(ctx, tx, sel)
		if err != nil {
			return fmt.Errorf("query dependents: %w", err)
		}
		var dependents []string
		for rows.Next() {
			var code string
			if err := rows.Scan(&code); err != nil {
				rows.Close()
				return fmt.Errorf("scan dependent: %w", err)
			}
			dependents = append(dependents, code)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("query dependents: %w", err)
		}
		if len(dependents) > 0 {
			return &curriculum.ModuleInUseError{Code: m.Code, Dependents: dependents}
		}

		if _, err := exec(ctx, tx, builder.Delete(tableModules).Where(entsql.EQ("id", id))); err != nil {
			return fmt.Errorf("delete module: %w", err)
		}
		return nil
	})
}

// Count returns the number of stored modules.
func (r *ModuleRepo) Count(ctx context.Context) (int, error) {
	var n int
	stmt, args := builder.Select(entsql.Count("*")).From(entsql.Table(tableModules)).Query()
	if err := r.db.QueryRowContext(ctx, stmt, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count modules: %w", err)
	}
	return n, nil
}

func moduleValues(m *curriculum.Module) ([]any, error) {
	lists := make([]any, 0, 4)
	for _, l := range [][]string{m.Tools, m.Outcomes, m.SkillTags, m.Criteria} {
		v, err := encodeList(l)
		if err != nil {
			return nil, err
		}
		lists = append(lists, v)
	}
	return []any{
		m.ID, m.Code, m.Title, m.Slug, m.Description, string(m.Kind), string(m.Difficulty),
		m.EstimatedMins, lists[0], lists[1], lists[2], lists[3],
		m.TeachingArea, m.Level, m.ContentPath, m.CreatedAt.UTC(), m.UpdatedAt.UTC(),
	}, nil
}

func scanModule(rows *sql.Rows) (*curriculum.Module, error) {
	var (
		m                               curriculum.Module
		kind, difficulty                string
		tools, outcomes, tags, criteria sql.NullString
	)
	err := rows.Scan(
		&m.ID, &m.Code, &m.Title, &m.Slug, &m.Description, &kind, &difficulty,
		&m.EstimatedMins, &tools, &outcomes, &tags, &criteria,
		&m.TeachingArea, &m.Level, &m.ContentPath, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Kind = curriculum.Kind(kind)
	m.Difficulty = curriculum.Difficulty(difficulty)
	for _, f := range []struct {
		src sql.NullString
		dst *[]string
	}{
		{tools, &m.Tools}, {outcomes, &m.Outcomes}, {tags, &m.SkillTags}, {criteria, &m.Criteria},
	} {
		if err := decodeList(f.src, f.dst); err != nil {
			return nil, err
		}
	}
	return &m, nil
}

func encodeList(l []string) (any, error) {
	if len(l) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("encode list: %w", err)
	}
	return string(b), nil
}

func decodeList(src sql.NullString, dst *[]string) error {
	if !src.Valid || src.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(src.String), dst); err != nil {
		return errors.Join(errors.New("decode list"), err)
	}
	return nil
}

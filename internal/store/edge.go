package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/ciclofficina/tracker/internal/curriculum"
)

var edgeFields = []string{"id", "module_id", "prerequisite_id", "dependency_type", "created_at"}

// EdgeRepo stores dependency edges. It implements depgraph.EdgeStore.
type EdgeRepo struct {
	db *sql.DB
}

// Create inserts e. The unique index on (module_id, prerequisite_id) and
// the foreign keys to modules are enforced by the database.
func (r *EdgeRepo) Create(ctx context.Context, e *curriculum.Edge) error {
	ins := builder.Insert(tableDependencies).
		Columns(edgeFields...).
		Values(e.ID, e.ModuleID, e.PrerequisiteID, string(e.Type), e.CreatedAt.UTC())
	if _, err := exec(ctx, r.db, ins); err != nil {
		return fmt.Errorf("insert dependency: %w", err)
	}
	return nil
}

// Get returns the edge with id, or nil.
func (r *EdgeRepo) Get(ctx context.Context, id string) (*curriculum.Edge, error) {
	return r.first(ctx, entsql.EQ("id", id))
}

// FindPair returns the edge from moduleID to prerequisiteID, or nil.
func (r *EdgeRepo) FindPair(ctx context.Context, moduleID, prerequisiteID string) (*curriculum.Edge, error) {
	return r.first(ctx, entsql.And(entsql.EQ("module_id", moduleID), entsql.EQ("prerequisite_id", prerequisiteID)))
}

// Delete removes the edge with id. Missing edges are ignored.
func (r *EdgeRepo) Delete(ctx context.Context, id string) error {
	if _, err := exec(ctx, r.db, builder.Delete(tableDependencies).Where(entsql.EQ("id", id))); err != nil {
		return fmt.Errorf("delete dependency: %w", err)
	}
	return nil
}

// ForModule returns the edges whose dependent is moduleID.
func (r *EdgeRepo) ForModule(ctx context.Context, moduleID string) ([]curriculum.Edge, error) {
	return r.list(ctx, entsql.EQ("module_id", moduleID))
}

// ForPrerequisite returns the edges whose prerequisite is prerequisiteID.
func (r *EdgeRepo) ForPrerequisite(ctx context.Context, prerequisiteID string) ([]curriculum.Edge, error) {
	return r.list(ctx, entsql.EQ("prerequisite_id", prerequisiteID))
}

// All returns every stored edge.
func (r *EdgeRepo) All(ctx context.Context) ([]curriculum.Edge, error) {
	return r.list(ctx, nil)
}

func (r *EdgeRepo) first(ctx context.Context, where *entsql.Predicate) (*curriculum.Edge, error) {
	edges, err := r.query(ctx, builder.Select(edgeFields...).
		From(entsql.Table(tableDependencies)).
		Where(where).
		Limit(1))
	if err != nil || len(edges) == 0 {
		return nil, err
	}
	return &edges[0], nil
}

func (r *EdgeRepo) list(ctx context.Context, where *entsql.Predicate) ([]curriculum.Edge, error) {
	sel := builder.Select(edgeFields...).
		From(entsql.Table(tableDependencies)).
		OrderBy("created_at", "id")
	if where != nil {
		sel.Where(where)
	}
	return r.query(ctx, sel)
}

func (r *EdgeRepo) query(ctx context.Context, sel *entsql.Selector) ([]curriculum.Edge, error) {
	rows, err := query(ctx, r.db, sel)
	if err != nil {
		return nil, fmt.Errorf("query dependencies: %w", err)
	}
	defer rows.Close()

	var out []curriculum.Edge
	for rows.Next() {
		var (
			e   curriculum.Edge
			typ string
		)
		if err := rows.Scan(&e.ID, &e.ModuleID, &e.PrerequisiteID, &typ, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan dependency: %w", err)
		}
		e.Type = curriculum.DependencyType(typ)
		out = append(out, e)
	}
	return out, rows.Err()
}

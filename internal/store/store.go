package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// pragmas are applied by the driver to every connection it opens.
var pragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"foreign_keys(1)",
	"synchronous(NORMAL)",
}

// builder renders SQL for the SQLite dialect.
var builder = entsql.Dialect(dialect.SQLite)

// conn is the subset of *sql.DB and *sql.Tx the repositories use.
type conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store owns the database handle and hands out repositories.
type Store struct {
	db  *sql.DB
	drv *entsql.Driver
}

// Open connects to the SQLite database at dsn, which may be a file path,
// a file: URI or ":memory:". Pragmas are added to the DSN and the schema
// is migrated before Open returns.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection serializes writers and keeps :memory: databases whole.
	db.SetMaxOpenConns(1)

	drv := entsql.OpenDB(dialect.SQLite, db)

	if err := migrate(context.Background(), drv); err != nil {
		drv.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	return &Store{db: db, drv: drv}, nil
}

func migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return err
	}
	return m.Create(ctx, tables...)
}

// withPragmas appends the driver pragma and time format parameters to dsn
// unless the caller already set pragmas.
func withPragmas(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	params := make([]string, 0, len(pragmas)+1)
	for _, p := range pragmas {
		params = append(params, "_pragma="+p)
	}
	params = append(params, "_time_format=sqlite")

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.drv.Close()
}

// Modules returns the module repository.
func (s *Store) Modules() *ModuleRepo {
	return &ModuleRepo{db: s.db}
}

// Edges returns the dependency repository.
func (s *Store) Edges() *EdgeRepo {
	return &EdgeRepo{db: s.db}
}

// Progress returns the progress repository.
func (s *Store) Progress() *ProgressRepo {
	return &ProgressRepo{db: s.db}
}

// Assessments returns the assessment repository.
func (s *Store) Assessments() *AssessmentRepo {
	return &AssessmentRepo{db: s.db}
}

// EventRepo returns the LLM event repository.
func (s *Store) EventRepo() *EventRepo {
	return &EventRepo{db: s.db}
}

// inTx runs fn inside a transaction, committing when fn returns nil.
func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func exec(ctx context.Context, c conn, q entsql.Querier) (sql.Result, error) {
	query, args := q.Query()
	return c.ExecContext(ctx, query, args...)
}

func query(ctx context.Context, c conn, q entsql.Querier) (*sql.Rows, error) {
	stmt, args := q.Query()
	return c.QueryContext(ctx, stmt, args...)
}

// DefaultDBPath resolves the database file path in priority order:
// 1. TRACKER_DB environment variable
// 2. $XDG_DATA_HOME/tracker/tracker.db
// 3. ~/.local/share/tracker/tracker.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("TRACKER_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "tracker", "tracker.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"SMMAgent/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = domain.ErrNotFound

// Dialect selects placeholder style and column types.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

// Repository persists posts and observational records through database/sql.
type Repository struct {
	db      *sql.DB
	dialect Dialect
	sb      sq.StatementBuilderType
	now     func() time.Time
}

// Open connects to the configured database and verifies it is reachable.
func Open(ctx context.Context, driver, dsn string) (*Repository, error) {
	dialect, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if dialect == DialectSQLite {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	return NewRepository(db, dialect), nil
}

// NewRepository wires an already opened sql.DB.
func NewRepository(db *sql.DB, dialect Dialect) *Repository {
	var placeholder sq.PlaceholderFormat = sq.Question
	if dialect == DialectPostgres {
		placeholder = sq.Dollar
	}
	return &Repository{
		db:      db,
		dialect: dialect,
		sb:      sq.StatementBuilder.PlaceholderFormat(placeholder),
		now:     time.Now,
	}
}

func dialectFor(driver string) (Dialect, error) {
	switch driver {
	case "sqlite3", "sqlite", "":
		return DialectSQLite, nil
	case "postgres", "postgresql":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Migrate creates missing tables.
func (r *Repository) Migrate(ctx context.Context) error {
	for _, stmt := range schema(r.dialect) {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Ping reports whether the database still answers.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close releases the connection pool.
func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) insertReturningID(ctx context.Context, b sq.InsertBuilder) (int64, error) {
	query, args, err := b.Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	var id int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *Repository) exec(ctx context.Context, b sq.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build statement: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *Repository) query(ctx context.Context, b sq.SelectBuilder) (*sql.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return r.db.QueryContext(ctx, query, args...)
}

func (r *Repository) timestamp(t time.Time) time.Time {
	return t.UTC()
}

func schema(d Dialect) []string {
	id := "INTEGER PRIMARY KEY AUTOINCREMENT"
	ts := "DATETIME"
	if d == DialectPostgres {
		id = "BIGSERIAL PRIMARY KEY"
		ts = "TIMESTAMPTZ"
	}

	return []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			platforms TEXT NOT NULL DEFAULT '',
			active INTEGER NOT NULL DEFAULT 1
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS posts (
			id %s,
			project_id TEXT NOT NULL,
			platform TEXT NOT NULL,
			content TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'draft',
			scheduled_date TEXT NOT NULL,
			created_at %s NOT NULL,
			published_at %s,
			card_message_id BIGINT,
			channel_msg_id BIGINT
		)`, id, ts, ts),
		`CREATE INDEX IF NOT EXISTS idx_posts_status_date ON posts (status, scheduled_date)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS trends (
			id %s,
			date TEXT NOT NULL,
			project_id TEXT NOT NULL,
			trend TEXT NOT NULL DEFAULT '',
			idea TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			raw_trends TEXT NOT NULL DEFAULT '',
			created_at %s NOT NULL
		)`, id, ts),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS competitor_insights (
			id %s,
			date TEXT NOT NULL,
			analysis TEXT NOT NULL,
			raw_data TEXT NOT NULL DEFAULT '',
			created_at %s NOT NULL
		)`, id, ts),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS knowledge_base (
			id %s,
			project_id TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL,
			insight TEXT NOT NULL,
			evidence TEXT NOT NULL DEFAULT '',
			created_at %s NOT NULL
		)`, id, ts),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS reports (
			id %s,
			week_start TEXT NOT NULL,
			week_end TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at %s NOT NULL
		)`, id, ts),
	}
}

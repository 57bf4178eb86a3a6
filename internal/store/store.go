// Package store persists assessment results. Results are stored verbatim as
// JSON alongside a few indexed columns; the engine itself never touches a
// store.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/pressly/goose/v3"

	"github.com/dshills/esgcheck/internal/schema"
)

// ErrNotFound is returned by Get when no result has the requested ID.
var ErrNotFound = errors.New("store: not found")

// Repository is the persistence collaborator for assessment results.
type Repository interface {
	Save(ctx context.Context, res *schema.AssessmentResult) error
	Get(ctx context.Context, id string) (*schema.AssessmentResult, error)
	// ListByCompany returns results newest first.
	ListByCompany(ctx context.Context, companyID string) ([]*schema.AssessmentResult, error)
	Close() error
}

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrations embed.FS

// Open returns a repository for dsn. postgres:// and postgresql:// URLs use
// Postgres; sqlite:<path> uses an embedded SQLite database at path.
func Open(ctx context.Context, dsn string) (Repository, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		pg, err := OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return pg, nil
	case strings.HasPrefix(dsn, "sqlite:"):
		lite, err := OpenSQLite(ctx, strings.TrimPrefix(strings.TrimPrefix(dsn, "sqlite:"), "//"))
		if err != nil {
			return nil, err
		}
		return lite, nil
	default:
		return nil, fmt.Errorf("store: unsupported dsn %q (want postgres:// or sqlite:)", dsn)
	}
}

// migrate applies the embedded migrations for dialect.
func migrate(ctx context.Context, db *sql.DB, dialect goose.Dialect, dir string) error {
	fsys, err := fs.Sub(migrations, "migrations/"+dir)
	if err != nil {
		return fmt.Errorf("store: migrations: %w", err)
	}
	p, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("store: migrations: %w", err)
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("store: migrate up: %w", err)
	}
	return nil
}

func checkSavable(res *schema.AssessmentResult) error {
	if res == nil {
		return fmt.Errorf("store: nil result")
	}
	if res.ID == "" {
		return fmt.Errorf("store: result has no id")
	}
	return nil
}

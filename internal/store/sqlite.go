package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dshills/esgcheck/internal/schema"
)

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLite stores results in a local SQLite file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies
// migrations. ":memory:" gives a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: sqlite pragma: %w", err)
	}
	if err := migrate(ctx, db, goose.DialectSQLite3, "sqlite"); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

// Save inserts res, replacing any earlier result with the same ID.
func (s *SQLite) Save(ctx context.Context, res *schema.AssessmentResult) error {
	if err := checkSavable(res); err != nil {
		return err
	}
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("store: marshal result: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO assessments (id, company_id, response_id, template_id, overall_score, status, created_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID, res.CompanyID, res.ResponseID, res.TemplateID, res.OverallScore, string(res.Status),
		res.CreatedAt.UTC().Format(timeLayout), string(payload))
	if err != nil {
		return fmt.Errorf("store: insert %s: %w", res.ID, err)
	}
	return nil
}

// Get returns the result with id or ErrNotFound.
func (s *SQLite) Get(ctx context.Context, id string) (*schema.AssessmentResult, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM assessments WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %s: %w", id, err)
	}
	return decode([]byte(payload))
}

// ListByCompany returns the company's results, newest first.
func (s *SQLite) ListByCompany(ctx context.Context, companyID string) ([]*schema.AssessmentResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM assessments WHERE company_id = ? ORDER BY created_at DESC, id`, companyID)
	if err != nil {
		return nil, fmt.Errorf("store: list %s: %w", companyID, err)
	}
	defer rows.Close()

	out := []*schema.AssessmentResult{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		res, err := decode([]byte(payload))
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list %s: %w", companyID, err)
	}
	return out, nil
}

// Close closes the database.
func (s *SQLite) Close() error { return s.db.Close() }

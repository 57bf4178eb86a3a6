package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dshills/esgcheck/internal/schema"
)

// Postgres stores results in PostgreSQL through a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to url, applies migrations and returns the store.
func OpenPostgres(ctx context.Context, url string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("store: parse postgres url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.HealthCheckPeriod = 30 * time.Second
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	if err := migrate(ctx, db, goose.DialectPostgres, "postgres"); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

// Save inserts res, replacing any earlier result with the same ID.
func (s *Postgres) Save(ctx context.Context, res *schema.AssessmentResult) error {
	if err := checkSavable(res); err != nil {
		return err
	}
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("store: marshal result: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO assessments (id, company_id, response_id, template_id, overall_score, status, created_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			company_id = EXCLUDED.company_id,
			response_id = EXCLUDED.response_id,
			template_id = EXCLUDED.template_id,
			overall_score = EXCLUDED.overall_score,
			status = EXCLUDED.status,
			created_at = EXCLUDED.created_at,
			payload = EXCLUDED.payload`,
		res.ID, res.CompanyID, res.ResponseID, res.TemplateID, res.OverallScore, string(res.Status), res.CreatedAt, payload)
	if err != nil {
		return fmt.Errorf("store: insert %s: %w", res.ID, err)
	}
	return nil
}

// Get returns the result with id or ErrNotFound.
func (s *Postgres) Get(ctx context.Context, id string) (*schema.AssessmentResult, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT payload FROM assessments WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %s: %w", id, err)
	}
	return decode(payload)
}

// ListByCompany returns the company's results, newest first.
func (s *Postgres) ListByCompany(ctx context.Context, companyID string) ([]*schema.AssessmentResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT payload FROM assessments WHERE company_id = $1 ORDER BY created_at DESC, id`, companyID)
	if err != nil {
		return nil, fmt.Errorf("store: list %s: %w", companyID, err)
	}
	payloads, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
	if err != nil {
		return nil, fmt.Errorf("store: list %s: %w", companyID, err)
	}
	out := make([]*schema.AssessmentResult, 0, len(payloads))
	for _, p := range payloads {
		res, err := decode(p)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

// Close releases the pool.
func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}

func decode(payload []byte) (*schema.AssessmentResult, error) {
	var res schema.AssessmentResult
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, fmt.Errorf("store: decode result: %w", err)
	}
	return &res, nil
}

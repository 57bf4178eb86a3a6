package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/esgcheck/internal/schema"
)

func result(id, company string, at time.Time) *schema.AssessmentResult {
	return &schema.AssessmentResult{
		ID:           id,
		ResponseID:   "resp-" + id,
		CompanyID:    company,
		TemplateID:   "esg-uae",
		Status:       schema.AssessmentPartial,
		OverallScore: 61,
		PillarScores: []schema.PillarScore{{Pillar: schema.PillarGovernance, Score: 79, Weight: 0.3}},
		Gaps: []schema.Gap{{ID: "g-1", QuestionID: "gov-2", QuestionCode: "GOV-002",
			Pillar: schema.PillarGovernance, Severity: schema.SeverityHigh, Reason: schema.ReasonLowScore, TargetScore: 100}},
		Recommendations: []schema.Recommendation{{ID: "REC-BOARD-OVERSIGHT", Priority: 1}},
		CreatedAt:       at,
	}
}

func exercise(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, result("a", "acme", base)))
	require.NoError(t, repo.Save(ctx, result("b", "acme", base.Add(time.Hour))))
	require.NoError(t, repo.Save(ctx, result("c", "other", base.Add(500*time.Millisecond))))

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, result("a", "acme", base), got)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := repo.ListByCompany(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID, "newest first")
	assert.Equal(t, "a", list[1].ID)

	none, err := repo.ListByCompany(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)

	updated := result("a", "acme", base)
	updated.OverallScore = 90
	require.NoError(t, repo.Save(ctx, updated))
	got, err = repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 90, got.OverallScore)

	assert.Error(t, repo.Save(ctx, nil))
	assert.Error(t, repo.Save(ctx, &schema.AssessmentResult{}))
}

func TestSQLite(t *testing.T) {
	repo, err := Open(context.Background(), "sqlite:"+filepath.Join(t.TempDir(), "esg.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	exercise(t, repo)
}

func TestSQLite_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "esg.db")

	repo, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, result("a", "acme", time.Now().UTC())))
	require.NoError(t, repo.Close())

	repo, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer repo.Close()
	_, err = repo.Get(ctx, "a")
	assert.NoError(t, err)
}

func TestPostgres(t *testing.T) {
	url := os.Getenv("ESGCHECK_TEST_POSTGRES")
	if url == "" {
		t.Skip("ESGCHECK_TEST_POSTGRES not set")
	}
	repo, err := Open(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	exercise(t, repo)
}

func TestOpen_UnsupportedDSN(t *testing.T) {
	_, err := Open(context.Background(), "mysql://localhost/esg")
	assert.ErrorContains(t, err, "unsupported dsn")
}

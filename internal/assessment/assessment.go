// Package assessment sequences visibility, scoring, gap classification,
// recommendation matching and explanation into one AssessmentResult.
//
// The engine performs no I/O. Callers persist results themselves.
package assessment

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/esgcheck/internal/explain"
	"github.com/dshills/esgcheck/internal/gaps"
	"github.com/dshills/esgcheck/internal/policy"
	"github.com/dshills/esgcheck/internal/recommend"
	"github.com/dshills/esgcheck/internal/schema"
	"github.com/dshills/esgcheck/internal/scoring"
	"github.com/dshills/esgcheck/internal/validate"
	"github.com/dshills/esgcheck/internal/visibility"
)

// Engine runs assessments. It holds only read-only configuration and is safe
// for concurrent use as long as the injected clock and ID generator are.
type Engine struct {
	policy policy.Policy
	// policyErr is the result of validating policy in New.
	policyErr error
	scorer    scoring.AnswerScorer
	catalog   *recommend.Catalog
	now       func() time.Time
	newID     func() string
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithPolicy replaces the default policy.
func WithPolicy(p policy.Policy) Option { return func(e *Engine) { e.policy = p } }

// WithScorer replaces the default per-answer scoring table.
func WithScorer(s scoring.AnswerScorer) Option { return func(e *Engine) { e.scorer = s } }

// WithCatalog replaces the built-in recommendation catalog.
func WithCatalog(c *recommend.Catalog) Option { return func(e *Engine) { e.catalog = c } }

// WithClock sets the timestamp source.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithIDGenerator sets the generator for result and gap IDs.
func WithIDGenerator(f func() string) Option { return func(e *Engine) { e.newID = f } }

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// New returns an Engine with the default policy, scorer and catalog.
func New(opts ...Option) *Engine {
	e := &Engine{
		policy:  policy.Default(),
		scorer:  scoring.DefaultScorer{},
		catalog: recommend.DefaultCatalog(),
		now:     time.Now,
		newID:   uuid.NewString,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.policyErr = e.policy.Validate()
	return e
}

// Policy returns the engine's policy.
func (e *Engine) Policy() policy.Policy { return e.policy }

// Assess validates the inputs and computes the assessment. It fails when the
// engine's policy is invalid or with validate.Errors for bad inputs; nothing
// after validation fails.
func (e *Engine) Assess(
	profile schema.CompanyProfile,
	tmpl schema.QuestionnaireTemplate,
	resp schema.QuestionnaireResponse,
) (*schema.AssessmentResult, error) {
	if e.policyErr != nil {
		return nil, fmt.Errorf("assessment: %w", e.policyErr)
	}
	if err := validate.All(profile, tmpl, resp, e.policy.MinTemplateVersion); err != nil {
		e.logger.Debug("assessment input rejected", "template", tmpl.ID, "response", resp.ID, "error", err)
		return nil, err
	}

	r := visibility.NewResolver(tmpl, profile, resp.Answers, e.policy.RuleComposition)
	answers := r.Answers()
	scores := scoring.ScoreQuestions(tmpl, r, answers, e.scorer, e.policy)
	pillars := scoring.AggregatePillars(scores, e.policy)
	overall := scoring.ComputeOverall(pillars)
	completion := scoring.CompletionRate(pillars)

	gs := gaps.Classify(tmpl, scores, e.policy, e.newID)
	critical, _, _, _ := gaps.CountBySeverity(gs)
	recs := recommend.Match(gs, profile, e.catalog, e.policy.MaxRecommendations)

	status := schema.AssessmentCompleted
	for _, qs := range scores {
		if !qs.Answered {
			status = schema.AssessmentPartial
			break
		}
	}

	res := &schema.AssessmentResult{
		ID:                          e.newID(),
		ResponseID:                  resp.ID,
		CompanyID:                   resp.CompanyID,
		TemplateID:                  tmpl.ID,
		TemplateVersion:             tmpl.Version,
		Status:                      status,
		OverallScore:                overall,
		CompletionRate:              completion,
		PillarScores:                pillars,
		QuestionScores:              nonNil(scores),
		Gaps:                        nonNil(gs),
		GapCount:                    len(gs),
		CriticalGapCount:            critical,
		Recommendations:             nonNil(recs),
		CriticalRecommendationCount: recommend.CountCritical(recs),
		Explanation:                 explain.Synthesize(pillars, overall, completion, critical),
		CreatedAt:                   e.now().UTC(),
	}
	if res.CompanyID == "" {
		res.CompanyID = profile.ID
	}
	e.logger.Debug("assessment complete",
		"result", res.ID,
		"template", tmpl.ID,
		"overall", overall,
		"status", status,
		"gaps", res.GapCount,
		"critical_gaps", critical,
		"recommendations", len(recs))
	return res, nil
}

// nonNil keeps empty lists as [] rather than null in JSON output.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Package scoring combines per-question raw scores into pillar scores and an
// overall score. It performs no I/O and never fails on well-formed input.
package scoring

import (
	"math"

	"github.com/dshills/esgcheck/internal/policy"
	"github.com/dshills/esgcheck/internal/schema"
	"github.com/dshills/esgcheck/internal/visibility"
)

// ScoreQuestions scores every applicable, visible question of the template in
// template order. Hidden and non-applicable questions are omitted.
func ScoreQuestions(
	t schema.QuestionnaireTemplate,
	r *visibility.Resolver,
	answers schema.Answers,
	scorer AnswerScorer,
	p policy.Policy,
) []schema.QuestionScore {
	var out []schema.QuestionScore
	for _, q := range t.Questions() {
		if !r.Applicable(q.ID) {
			continue
		}
		var ans *schema.QuestionAnswer
		if a, ok := answers[q.ID]; ok {
			ans = &a
		}
		out = append(out, scorer.Score(q, ans, p))
	}
	return out
}

// AggregatePillars returns exactly one PillarScore per pillar in
// schema.AllPillars order.
//
// A pillar score is the weight-normalised mean of its question scores. A
// pillar with no applicable questions, or whose questions all weigh zero,
// scores 0.
func AggregatePillars(scores []schema.QuestionScore, p policy.Policy) []schema.PillarScore {
	out := make([]schema.PillarScore, 0, 4)
	for _, pillar := range schema.AllPillars() {
		ps := schema.PillarScore{Pillar: pillar, Weight: p.WeightFraction(pillar)}
		var weighted, totalWeight float64
		for _, s := range scores {
			if s.Pillar != pillar {
				continue
			}
			ps.TotalQuestions++
			if s.Answered {
				ps.CompletedQuestions++
			}
			weighted += float64(s.Score) * s.Weight
			totalWeight += s.Weight
		}
		if totalWeight > 0 {
			ps.Score = clamp(int(math.Round(weighted / totalWeight)))
		}
		out = append(out, ps)
	}
	return out
}

// ComputeOverall returns round(Σ pillar score × pillar weight fraction),
// clamped to [0, 100].
func ComputeOverall(pillars []schema.PillarScore) int {
	var total float64
	for _, ps := range pillars {
		total += float64(ps.Score) * ps.Weight
	}
	return clamp(int(math.Round(total)))
}

// Contribution returns a pillar's rounded share of the overall score.
func Contribution(ps schema.PillarScore) int {
	return int(math.Round(float64(ps.Score) * ps.Weight))
}

// CompletionRate returns answered / applicable as a percentage rounded to one
// decimal place. Zero applicable questions yield 0.
func CompletionRate(pillars []schema.PillarScore) float64 {
	completed, total := 0, 0
	for _, ps := range pillars {
		completed += ps.CompletedQuestions
		total += ps.TotalQuestions
	}
	if total == 0 {
		return 0
	}
	return math.Round(1000*float64(completed)/float64(total)) / 10
}

// Package gaps turns scored questions that fall short of the target score
// into severity-tagged gap records.
package gaps

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/dshills/esgcheck/internal/policy"
	"github.com/dshills/esgcheck/internal/schema"
)

// TargetScore is the score every question is measured against.
const TargetScore = 100

// Points returns the severity points of a question: weight × score gap / 100.
// The result ranges over [0, 10] for well-formed input.
func Points(weight float64, currentScore int) float64 {
	return weight * float64(TargetScore-currentScore) / TargetScore
}

// Severity maps severity points to a tier using the policy thresholds.
// Mandatory questions never fall below high. Severity never decreases as
// weight or score gap grows.
func Severity(weight float64, currentScore int, mandatory bool, th policy.SeverityThresholds) schema.Severity {
	p := Points(weight, currentScore)
	var s schema.Severity
	switch {
	case p >= th.Critical:
		s = schema.SeverityCritical
	case p >= th.High:
		s = schema.SeverityHigh
	case p >= th.Medium:
		s = schema.SeverityMedium
	default:
		s = schema.SeverityLow
	}
	if mandatory && schema.SeverityRank(s) < schema.SeverityRank(schema.SeverityHigh) {
		s = schema.SeverityHigh
	}
	return s
}

// Reason picks the gap reason for a score below target.
func Reason(qs schema.QuestionScore) schema.GapReason {
	switch {
	case !qs.Answered:
		return schema.ReasonMissingAnswer
	case qs.EvidenceMissing:
		return schema.ReasonMissingEvidence
	case qs.Insufficient:
		return schema.ReasonInadequateResponse
	default:
		return schema.ReasonLowScore
	}
}

// Classify emits one gap per scored question below TargetScore. scores must
// only contain applicable, visible questions of t. Gaps are ordered by
// severity, then weight, both descending, then template order. newID may be
// nil, in which case random UUIDs are used.
func Classify(t schema.QuestionnaireTemplate, scores []schema.QuestionScore, p policy.Policy, newID func() string) []schema.Gap {
	if newID == nil {
		newID = uuid.NewString
	}
	type entry struct {
		gap    schema.Gap
		weight float64
	}
	var entries []entry
	for _, qs := range scores {
		if qs.Score >= TargetScore {
			continue
		}
		q := MustQuestion(t, qs.QuestionID)
		reason := Reason(qs)
		entries = append(entries, entry{
			weight: q.Weight,
			gap: schema.Gap{
				QuestionID:   q.ID,
				QuestionCode: q.Code,
				Pillar:       q.Pillar,
				Severity:     Severity(q.Weight, qs.Score, q.Mandatory, p.Severity),
				Reason:       reason,
				CurrentScore: qs.Score,
				TargetScore:  TargetScore,
				Impact:       impact(q, qs.Score, reason),
			},
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		ri, rj := schema.SeverityRank(entries[i].gap.Severity), schema.SeverityRank(entries[j].gap.Severity)
		if ri != rj {
			return ri > rj
		}
		return entries[i].weight > entries[j].weight
	})

	out := make([]schema.Gap, len(entries))
	for i, e := range entries {
		e.gap.ID = newID()
		out[i] = e.gap
	}
	return out
}

// MustQuestion returns the question with the given ID. A score or gap that
// references a question outside its template is a programming error.
func MustQuestion(t schema.QuestionnaireTemplate, id string) schema.Question {
	for _, q := range t.Questions() {
		if q.ID == id {
			return q
		}
	}
	panic(fmt.Sprintf("gaps: question %q is not in template %q", id, t.ID))
}

func impact(q schema.Question, score int, reason schema.GapReason) string {
	var why string
	switch reason {
	case schema.ReasonMissingAnswer:
		why = "no answer was provided"
	case schema.ReasonMissingEvidence:
		why = "supporting evidence was not supplied"
	case schema.ReasonInadequateResponse:
		why = "the answer is too thin to demonstrate compliance"
	default:
		why = "the current practice falls short of the expected standard"
	}
	return fmt.Sprintf("%s question %s (weight %g) scores %d of %d: %s",
		q.Pillar, q.Code, q.Weight, score, TargetScore, why)
}

// CountBySeverity returns the number of gaps at each severity.
func CountBySeverity(gs []schema.Gap) (critical, high, medium, low int) {
	for _, g := range gs {
		switch g.Severity {
		case schema.SeverityCritical:
			critical++
		case schema.SeverityHigh:
			high++
		case schema.SeverityMedium:
			medium++
		case schema.SeverityLow:
			low++
		}
	}
	return
}

package scoring

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/dshills/esgcheck/internal/policy"
	"github.com/dshills/esgcheck/internal/schema"
)

// AnswerScorer maps one (question, answer) pair to a raw 0-100 score. The
// answer is nil when the question was not answered.
type AnswerScorer interface {
	Score(q schema.Question, a *schema.QuestionAnswer, p policy.Policy) schema.QuestionScore
}

// ScorerFunc adapts a function to AnswerScorer.
type ScorerFunc func(q schema.Question, a *schema.QuestionAnswer, p policy.Policy) schema.QuestionScore

// Score calls f.
func (f ScorerFunc) Score(q schema.Question, a *schema.QuestionAnswer, p policy.Policy) schema.QuestionScore {
	return f(q, a, p)
}

// insufficientText is the score of a non-blank text answer shorter than the
// policy's minimum useful length.
const insufficientText = 40

// DefaultScorer is the built-in per-type scoring table.
//
//	boolean          true 100, false 0
//	single_choice    option score (100 if options carry none), unknown value 0
//	multiple_choice  summed option scores capped at 100, else share of options selected
//	text             >= MinTextLength runes 100, shorter 40 (insufficient)
//	number           linear over Range (100 without a range)
//	percentage       as number; outside 0-100 scores 0 (insufficient)
//	date             parseable 100, else 0 (insufficient)
//
// Questions that require evidence are capped at EvidenceCap when no evidence
// URL was supplied.
type DefaultScorer struct{}

// Score implements AnswerScorer.
func (DefaultScorer) Score(q schema.Question, a *schema.QuestionAnswer, p policy.Policy) schema.QuestionScore {
	qs := schema.QuestionScore{QuestionID: q.ID, Pillar: q.Pillar, Weight: q.Weight}
	if a == nil || a.Value.IsEmpty() {
		return qs
	}
	qs.Answered = true

	v := a.Value
	switch q.Type {
	case schema.TypeBoolean:
		if v.Kind == schema.KindBool && v.Bool {
			qs.Score = 100
		}
	case schema.TypeSingleChoice:
		qs.Score = singleChoice(q, v)
	case schema.TypeMultipleChoice:
		qs.Score, qs.Insufficient = multipleChoice(q, v)
	case schema.TypeText:
		if utf8.RuneCountInString(strings.TrimSpace(v.Str)) >= p.MinTextLength {
			qs.Score = 100
		} else {
			qs.Score = insufficientText
			qs.Insufficient = true
		}
	case schema.TypeNumber:
		qs.Score = numeric(q, v)
	case schema.TypePercentage:
		if v.Kind == schema.KindNumber && (v.Number < 0 || v.Number > 100) {
			qs.Insufficient = true
			break
		}
		qs.Score = numeric(q, v)
	case schema.TypeDate:
		if _, ok := v.AsTime(); ok {
			qs.Score = 100
		} else {
			qs.Insufficient = true
		}
	}

	if q.RequiresEvidence && len(a.EvidenceURLs) == 0 && qs.Score > p.EvidenceCap {
		qs.Score = p.EvidenceCap
		qs.EvidenceMissing = true
	}
	qs.Score = clamp(qs.Score)
	return qs
}

func singleChoice(q schema.Question, v schema.AnswerValue) int {
	if v.Kind != schema.KindString {
		return 0
	}
	if len(q.Options) == 0 {
		return 100
	}
	for _, o := range q.Options {
		if o.Value == v.Str {
			if o.Score == nil {
				return 100
			}
			return *o.Score
		}
	}
	return 0
}

func multipleChoice(q schema.Question, v schema.AnswerValue) (int, bool) {
	if v.Kind != schema.KindStrings || len(v.Strings) == 0 {
		return 0, true
	}
	if len(q.Options) == 0 {
		return 100, false
	}
	scored := false
	sum, selected := 0, 0
	for _, o := range q.Options {
		if o.Score != nil {
			scored = true
		}
		for _, s := range v.Strings {
			if s == o.Value {
				selected++
				if o.Score != nil {
					sum += *o.Score
				}
				break
			}
		}
	}
	if scored {
		return clamp(sum), false
	}
	return int(math.Round(100 * float64(selected) / float64(len(q.Options)))), false
}

func numeric(q schema.Question, v schema.AnswerValue) int {
	if v.Kind != schema.KindNumber {
		return 0
	}
	r := q.Range
	if r == nil || r.Max == r.Min {
		return 100
	}
	frac := (v.Number - r.Min) / (r.Max - r.Min)
	if !r.HigherIsBetter {
		frac = 1 - frac
	}
	frac = math.Max(0, math.Min(1, frac))
	return int(math.Round(frac * 100))
}

// clamp bounds a score to [0, 100].
func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

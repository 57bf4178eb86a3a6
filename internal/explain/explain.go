// Package explain turns scores and gap counts into a structured,
// human-readable rationale.
package explain

import (
	"fmt"

	"github.com/dshills/esgcheck/internal/schema"
	"github.com/dshills/esgcheck/internal/scoring"
)

const (
	strengthThreshold   = 80
	weaknessThreshold   = 50
	completionThreshold = 80.0
	// improvementCeiling is the overall score below which an empty weakness
	// list is replaced by a continuous-improvement note.
	improvementCeiling = 90
)

// Methodology describes how the overall score is computed.
const Methodology = "Each applicable question is scored from 0 to 100 based on its answer. " +
	"Pillar scores are the weight-normalised average of their question scores, where a question's " +
	"weight (0-10) reflects its regulatory importance. The overall score is the sum of pillar " +
	"scores multiplied by fixed pillar weights. Questions hidden by conditional rules or not " +
	"applicable to the company's jurisdiction or listing status are excluded."

var pillarNames = map[schema.Pillar]string{
	schema.PillarGovernance:   "Governance",
	schema.PillarESG:          "ESG",
	schema.PillarRiskControls: "Risk & Controls",
	schema.PillarTransparency: "Transparency",
}

// PillarName returns the display name of a pillar.
func PillarName(p schema.Pillar) string {
	if n, ok := pillarNames[p]; ok {
		return n
	}
	return string(p)
}

// Synthesize builds the explanation for a set of pillar scores. The returned
// strengths and weaknesses are never empty.
func Synthesize(pillars []schema.PillarScore, overall int, completionRate float64, criticalGaps int) schema.ScoreExplanation {
	exp := schema.ScoreExplanation{
		OverallScore:    overall,
		Methodology:     Methodology,
		PillarBreakdown: make([]schema.PillarContribution, 0, len(pillars)),
		Strengths:       []string{},
		Weaknesses:      []string{},
	}
	for _, ps := range pillars {
		name := PillarName(ps.Pillar)
		exp.PillarBreakdown = append(exp.PillarBreakdown, schema.PillarContribution{
			Pillar:       ps.Pillar,
			Score:        ps.Score,
			Weight:       ps.Weight,
			Contribution: scoring.Contribution(ps),
			Reasoning: fmt.Sprintf("%d of %d questions completed; %s scored %d/100 with a %.0f%% weight.",
				ps.CompletedQuestions, ps.TotalQuestions, name, ps.Score, ps.Weight*100),
		})
		if ps.Score >= strengthThreshold {
			exp.Strengths = append(exp.Strengths,
				fmt.Sprintf("Strong performance in %s (%d/100).", name, ps.Score))
		}
		if ps.Score < weaknessThreshold {
			exp.Weaknesses = append(exp.Weaknesses,
				fmt.Sprintf("Significant gaps in %s (%d/100) require attention.", name, ps.Score))
		}
	}
	if completionRate < completionThreshold {
		exp.Weaknesses = append(exp.Weaknesses,
			fmt.Sprintf("Questionnaire completion is %.1f%%; unanswered questions score zero.", completionRate))
	}
	if criticalGaps > 0 {
		noun := "gaps"
		if criticalGaps == 1 {
			noun = "gap"
		}
		exp.Weaknesses = append(exp.Weaknesses,
			fmt.Sprintf("%d critical %s identified that need immediate action.", criticalGaps, noun))
	}

	if len(exp.Strengths) == 0 {
		exp.Strengths = append(exp.Strengths,
			"The assessment establishes a baseline to track ESG progress against.")
	}
	if len(exp.Weaknesses) == 0 {
		if overall < improvementCeiling {
			exp.Weaknesses = append(exp.Weaknesses,
				"Continuous improvement opportunities remain across all pillars.")
		} else {
			exp.Weaknesses = append(exp.Weaknesses,
				"No material weaknesses identified; maintain current practices and evidence.")
		}
	}
	return exp
}

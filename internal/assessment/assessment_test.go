package assessment

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/esgcheck/internal/policy"
	"github.com/dshills/esgcheck/internal/schema"
	"github.com/dshills/esgcheck/internal/validate"
)

func intp(v int) *int { return &v }

func fixtureProfile() schema.CompanyProfile {
	return schema.CompanyProfile{
		ID:            "company-1",
		Name:          "Gulf Logistics LLC",
		Jurisdiction:  schema.JurisdictionUAE,
		ListingStatus: schema.ListingNonListed,
		Sector:        "logistics",
		ReportingYear: 2025,
	}
}

func fixtureTemplate() schema.QuestionnaireTemplate {
	yes := schema.Bool(true)
	return schema.QuestionnaireTemplate{
		ID:           "esg-uae",
		Version:      "1.0.0",
		Jurisdiction: schema.JurisdictionUAE,
		Sections: []schema.Section{
			{ID: "gov", Pillar: schema.PillarGovernance, Title: "Governance", Questions: []schema.Question{
				{ID: "gov-1", Pillar: schema.PillarGovernance, Code: "GOV-001", Type: schema.TypeBoolean, Weight: 9, Mandatory: true,
					Text: "Does the board oversee ESG matters?"},
				{ID: "gov-2", Pillar: schema.PillarGovernance, Code: "GOV-002", Type: schema.TypeText, Weight: 5,
					Text:             "Describe the board's ESG mandate.",
					ConditionalRules: []schema.ConditionalRule{{DependsOnQuestionID: "gov-1", Operator: schema.OpEquals, Value: &yes, ShowWhen: true}}},
				{ID: "gov-3", Pillar: schema.PillarGovernance, Code: "GOV-003", Type: schema.TypeBoolean, Weight: 6,
					ListingStatuses: []schema.ListingStatus{schema.ListingListed}, Text: "Is an ESG committee disclosed to the exchange?"},
			}},
			{ID: "esg", Pillar: schema.PillarESG, Title: "ESG", Questions: []schema.Question{
				{ID: "esg-1", Pillar: schema.PillarESG, Code: "ESG-001", Type: schema.TypeSingleChoice, Weight: 8,
					Options: []schema.ChoiceOption{{Value: "none", Score: intp(0)}, {Value: "partial", Score: intp(50)}, {Value: "full", Score: intp(100)}}},
				{ID: "esg-2", Pillar: schema.PillarESG, Code: "ESG-002", Type: schema.TypeNumber, Weight: 7, RequiresEvidence: true,
					Range: &schema.ScoringRange{Min: 0, Max: 100, HigherIsBetter: true}},
			}},
			{ID: "rsk", Pillar: schema.PillarRiskControls, Title: "Risk", Questions: []schema.Question{
				{ID: "rsk-1", Pillar: schema.PillarRiskControls, Code: "RSK-001", Type: schema.TypeMultipleChoice, Weight: 6,
					Options: []schema.ChoiceOption{{Value: "physical"}, {Value: "transition"}, {Value: "regulatory"}, {Value: "reputational"}}},
			}},
			{ID: "trn", Pillar: schema.PillarTransparency, Title: "Transparency", Questions: []schema.Question{
				{ID: "trn-1", Pillar: schema.PillarTransparency, Code: "TRN-001", Type: schema.TypeDate, Weight: 4},
				{ID: "trn-2", Pillar: schema.PillarTransparency, Code: "TRN-002", Type: schema.TypePercentage, Weight: 3},
			}},
		},
	}
}

func fixtureResponse() schema.QuestionnaireResponse {
	return schema.QuestionnaireResponse{
		ID:         "response-1",
		CompanyID:  "company-1",
		TemplateID: "esg-uae",
		Status:     schema.ResponseSubmitted,
		Answers: schema.Answers{
			"gov-1": {QuestionID: "gov-1", Value: schema.Bool(true)},
			"gov-2": {QuestionID: "gov-2", Value: schema.String("short")},
			"esg-1": {QuestionID: "esg-1", Value: schema.String("partial")},
			"esg-2": {QuestionID: "esg-2", Value: schema.Number(80)},
			"rsk-1": {QuestionID: "rsk-1", Value: schema.Strings("physical", "transition")},
			"trn-1": {QuestionID: "trn-1", Value: schema.String("2025-03-31")},
		},
	}
}

func seq() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%03d", n)
	}
}

func fixedClock() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

func TestAssess_Scores(t *testing.T) {
	e := New(WithClock(fixedClock), WithIDGenerator(seq()))
	res, err := e.Assess(fixtureProfile(), fixtureTemplate(), fixtureResponse())
	require.NoError(t, err)

	require.Len(t, res.PillarScores, 4)
	// gov: (100*9 + 40*5) / 14 = 78.57 → 79; gov-3 is listed-only.
	assert.Equal(t, 79, res.PillarScores[0].Score)
	assert.Equal(t, 2, res.PillarScores[0].TotalQuestions)
	// esg: (50*8 + 50*7) / 15 = 50; esg-2 capped for missing evidence.
	assert.Equal(t, 50, res.PillarScores[1].Score)
	assert.Equal(t, 50, res.PillarScores[2].Score)
	// trn: (100*4 + 0*3) / 7 = 57.1 → 57
	assert.Equal(t, 57, res.PillarScores[3].Score)
	// 79*.3 + 50*.3 + 50*.2 + 57*.2 = 23.7 + 15 + 10 + 11.4 = 60.1
	assert.Equal(t, 60, res.OverallScore)

	assert.Equal(t, schema.AssessmentPartial, res.Status)
	assert.Equal(t, 85.7, res.CompletionRate)
	assert.Equal(t, "id-006", res.ID, "result ID is drawn after the five gap IDs")
	assert.Equal(t, fixedClock(), res.CreatedAt)
	assert.Equal(t, "1.0.0", res.TemplateVersion)
}

func TestAssess_Bookkeeping(t *testing.T) {
	res, err := New().Assess(fixtureProfile(), fixtureTemplate(), fixtureResponse())
	require.NoError(t, err)

	assert.Equal(t, len(res.Gaps), res.GapCount)
	critical := 0
	for _, g := range res.Gaps {
		if g.Severity == schema.SeverityCritical {
			critical++
		}
		assert.NotEqual(t, "gov-1", g.QuestionID, "fully satisfied question must not produce a gap")
		assert.NotEqual(t, "gov-3", g.QuestionID, "non-applicable question must not produce a gap")
		assert.Equal(t, 100, g.TargetScore)
	}
	assert.Equal(t, critical, res.CriticalGapCount)

	assert.LessOrEqual(t, len(res.Recommendations), 10)
	p12 := 0
	for _, r := range res.Recommendations {
		if r.Priority <= 2 {
			p12++
		}
	}
	assert.Equal(t, p12, res.CriticalRecommendationCount)

	var sum float64
	for _, ps := range res.PillarScores {
		sum += ps.Weight
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.NotEmpty(t, res.Explanation.Strengths)
	assert.NotEmpty(t, res.Explanation.Weaknesses)
}

func TestAssess_GapReasons(t *testing.T) {
	res, err := New().Assess(fixtureProfile(), fixtureTemplate(), fixtureResponse())
	require.NoError(t, err)

	reasons := make(map[string]schema.GapReason)
	for _, g := range res.Gaps {
		reasons[g.QuestionID] = g.Reason
	}
	assert.Equal(t, schema.ReasonInadequateResponse, reasons["gov-2"])
	assert.Equal(t, schema.ReasonLowScore, reasons["esg-1"])
	assert.Equal(t, schema.ReasonMissingEvidence, reasons["esg-2"])
	assert.Equal(t, schema.ReasonMissingAnswer, reasons["trn-2"])
}

func TestAssess_Deterministic(t *testing.T) {
	e := New()
	a, err := e.Assess(fixtureProfile(), fixtureTemplate(), fixtureResponse())
	require.NoError(t, err)
	b, err := e.Assess(fixtureProfile(), fixtureTemplate(), fixtureResponse())
	require.NoError(t, err)

	strip := func(r *schema.AssessmentResult) {
		r.ID = ""
		r.CreatedAt = time.Time{}
		for i := range r.Gaps {
			r.Gaps[i].ID = ""
		}
	}
	strip(a)
	strip(b)
	assert.Equal(t, a, b)
}

func TestAssess_ZeroAnswers(t *testing.T) {
	resp := fixtureResponse()
	resp.Answers = schema.Answers{}
	res, err := New().Assess(fixtureProfile(), fixtureTemplate(), resp)
	require.NoError(t, err)

	assert.Equal(t, 0, res.OverallScore)
	// gov-2 is hidden because gov-1 is unanswered; gov-3 is listed-only.
	applicable := 0
	for _, ps := range res.PillarScores {
		applicable += ps.TotalQuestions
	}
	assert.Equal(t, 6, applicable)
	assert.Equal(t, applicable, res.GapCount)
	assert.NotEmpty(t, res.Explanation.Weaknesses)
	assert.Equal(t, schema.AssessmentPartial, res.Status)
	assert.Equal(t, 0.0, res.CompletionRate)
}

func TestAssess_CompletedStatus(t *testing.T) {
	resp := fixtureResponse()
	resp.Answers["trn-2"] = schema.QuestionAnswer{QuestionID: "trn-2", Value: schema.Number(20)}
	res, err := New().Assess(fixtureProfile(), fixtureTemplate(), resp)
	require.NoError(t, err)
	assert.Equal(t, schema.AssessmentCompleted, res.Status)
	assert.Equal(t, 100.0, res.CompletionRate)
}

func TestAssess_ValidationError(t *testing.T) {
	tmpl := fixtureTemplate()
	tmpl.Sections[0].Questions[0].Weight = 12
	tmpl.Sections[1].Questions[0].Code = "ESG1"
	_, err := New().Assess(fixtureProfile(), tmpl, fixtureResponse())
	require.Error(t, err)

	var ve validate.Errors
	require.True(t, errors.As(err, &ve))
	fields := make([]string, len(ve))
	for i, v := range ve {
		fields[i] = v.Field
	}
	assert.Contains(t, fields, "template.sections[0].questions[0].weight")
	assert.Contains(t, fields, "template.sections[1].questions[0].code")
}

func TestAssess_InvalidPolicy(t *testing.T) {
	tooMany := policy.Default()
	tooMany.MaxRecommendations = 25

	tests := []struct {
		name string
		p    policy.Policy
		want string
	}{
		{"zero value", policy.Policy{}, "pillar_weights"},
		{"too many recommendations", tooMany, "max_recommendations"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := New(WithPolicy(tt.p)).Assess(fixtureProfile(), fixtureTemplate(), fixtureResponse())
			require.Error(t, err)
			assert.Nil(t, res)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestAssess_ListedCompanySeesListedQuestion(t *testing.T) {
	p := fixtureProfile()
	p.ListingStatus = schema.ListingListed
	res, err := New().Assess(p, fixtureTemplate(), fixtureResponse())
	require.NoError(t, err)
	assert.Equal(t, 3, res.PillarScores[0].TotalQuestions)
}

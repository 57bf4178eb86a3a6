package disclosure

import (
	"github.com/dshills/esgcheck/internal/schema"
)

// CompanySummary is the projection of a company profile included in a pack.
type CompanySummary struct {
	Name          string               `json:"name"`
	Jurisdiction  schema.Jurisdiction  `json:"jurisdiction"`
	ListingStatus schema.ListingStatus `json:"listing_status"`
	StockExchange string               `json:"stock_exchange,omitempty"`
	Sector        string               `json:"sector,omitempty"`
	Subsector     string               `json:"subsector,omitempty"`
	ReportingYear int                  `json:"reporting_year,omitempty"`
}

// Metric is a quantitative answer surfaced for narrative use.
type Metric struct {
	QuestionID string        `json:"question_id"`
	Code       string        `json:"code"`
	Pillar     schema.Pillar `json:"pillar"`
	Label      string        `json:"label"`
	Value      float64       `json:"value"`
	Unit       string        `json:"unit,omitempty"`
}

// AssessmentSummary is the part of an assessment result included in a pack.
type AssessmentSummary struct {
	OverallScore int                      `json:"overall_score"`
	Status       schema.AssessmentStatus  `json:"status"`
	PillarScores []schema.PillarScore     `json:"pillar_scores"`
	Gaps         []schema.Gap             `json:"gaps"`
	Explanation  *schema.ScoreExplanation `json:"explanation,omitempty"`
}

// Pack is the bundle handed to the narrative generator.
type Pack struct {
	Company     CompanySummary           `json:"company"`
	Frameworks  []string                 `json:"frameworks"`
	TemplateID  string                   `json:"template_id"`
	Outline     []schema.OutlineSection  `json:"outline"`
	Narratives  map[schema.Pillar]string `json:"narratives"`
	Metrics     []Metric                 `json:"metrics"`
	Assessment  *AssessmentSummary       `json:"assessment,omitempty"`
	Disclaimers []Disclaimer             `json:"disclaimers"`
}

// BuildPack assembles a disclosure pack. result and narratives may be nil.
func BuildPack(
	profile schema.CompanyProfile,
	frameworks []string,
	t Template,
	outline []schema.OutlineSection,
	result *schema.AssessmentResult,
	metrics []Metric,
	narratives map[schema.Pillar]string,
) Pack {
	p := Pack{
		Company: CompanySummary{
			Name:          profile.Name,
			Jurisdiction:  profile.Jurisdiction,
			ListingStatus: profile.ListingStatus,
			StockExchange: profile.StockExchange,
			Sector:        profile.Sector,
			Subsector:     profile.Subsector,
			ReportingYear: profile.ReportingYear,
		},
		Frameworks:  append([]string{}, frameworks...),
		TemplateID:  t.ID,
		Outline:     outline,
		Narratives:  make(map[schema.Pillar]string, len(narratives)),
		Metrics:     append([]Metric{}, metrics...),
		Disclaimers: t.Disclaimers,
	}
	if p.Outline == nil {
		p.Outline = []schema.OutlineSection{}
	}
	for k, v := range narratives {
		p.Narratives[k] = v
	}
	if result != nil {
		exp := result.Explanation
		p.Assessment = &AssessmentSummary{
			OverallScore: result.OverallScore,
			Status:       result.Status,
			PillarScores: result.PillarScores,
			Gaps:         result.Gaps,
			Explanation:  &exp,
		}
	}
	return p
}

// ExtractMetrics returns the numeric and percentage answers of a response in
// template order. Unanswered and non-numeric values are skipped.
func ExtractMetrics(t schema.QuestionnaireTemplate, answers schema.Answers) []Metric {
	var out []Metric
	for _, q := range t.Questions() {
		if q.Type != schema.TypeNumber && q.Type != schema.TypePercentage {
			continue
		}
		a, ok := answers[q.ID]
		if !ok || a.Value.Kind != schema.KindNumber {
			continue
		}
		m := Metric{
			QuestionID: q.ID,
			Code:       q.Code,
			Pillar:     q.Pillar,
			Label:      q.Text,
			Value:      a.Value.Number,
		}
		if q.Type == schema.TypePercentage {
			m.Unit = "%"
		}
		out = append(out, m)
	}
	return out
}

// Package schema defines all canonical data types exchanged by the esgcheck
// assessment engine: inputs supplied by collaborators and derived results.
package schema

import "time"

// Jurisdiction is the regulatory region of a company or catalog entry.
type Jurisdiction string

const (
	JurisdictionUAE   Jurisdiction = "UAE"
	JurisdictionKSA   Jurisdiction = "KSA"
	JurisdictionQatar Jurisdiction = "QATAR"
	// JurisdictionGlobal is only valid on catalog entries.
	JurisdictionGlobal Jurisdiction = "GLOBAL"
)

// CompanyJurisdictions lists the jurisdictions a company may declare.
func CompanyJurisdictions() []Jurisdiction {
	return []Jurisdiction{JurisdictionUAE, JurisdictionKSA, JurisdictionQatar}
}

// ListingStatus records whether a company is listed on a public exchange.
type ListingStatus string

const (
	ListingListed    ListingStatus = "listed"
	ListingNonListed ListingStatus = "non_listed"
)

// Pillar is one of the four assessment dimensions.
type Pillar string

const (
	PillarGovernance   Pillar = "governance"
	PillarESG          Pillar = "esg"
	PillarRiskControls Pillar = "risk_controls"
	PillarTransparency Pillar = "transparency"
)

// AllPillars returns the four pillars in their fixed reporting order.
func AllPillars() []Pillar {
	return []Pillar{PillarGovernance, PillarESG, PillarRiskControls, PillarTransparency}
}

// QuestionType determines the expected shape of an answer.
type QuestionType string

const (
	TypeBoolean        QuestionType = "boolean"
	TypeSingleChoice   QuestionType = "single_choice"
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeText           QuestionType = "text"
	TypeNumber         QuestionType = "number"
	TypeDate           QuestionType = "date"
	TypePercentage     QuestionType = "percentage"
)

// Operator is the comparison applied by a ConditionalRule.
type Operator string

const (
	OpEquals        Operator = "equals"
	OpNotEquals     Operator = "not_equals"
	OpContains      Operator = "contains"
	OpNotContains   Operator = "not_contains"
	OpGreaterThan   Operator = "greater_than"
	OpLessThan      Operator = "less_than"
	OpIsAnswered    Operator = "is_answered"
	OpIsNotAnswered Operator = "is_not_answered"
)

// Severity is the urgency tier of a gap.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// SeverityRank returns the numeric ordinal of a severity, used for ordering
// and monotonic comparisons. low=0, medium=1, high=2, critical=3; unknown=-1.
func SeverityRank(s Severity) int {
	switch s {
	case SeverityLow:
		return 0
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	default:
		return -1
	}
}

// GapReason explains why a question failed to reach its target score.
type GapReason string

const (
	ReasonMissingAnswer      GapReason = "missing_answer"
	ReasonLowScore           GapReason = "low_score"
	ReasonMissingEvidence    GapReason = "missing_evidence"
	ReasonInadequateResponse GapReason = "inadequate_response"
)

// Level grades effort or impact.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// LevelRank returns low=0, medium=1, high=2; unknown=-1.
func LevelRank(l Level) int {
	switch l {
	case LevelLow:
		return 0
	case LevelMedium:
		return 1
	case LevelHigh:
		return 2
	default:
		return -1
	}
}

// Timeframe is the suggested horizon of a recommendation.
type Timeframe string

const (
	TimeframeImmediate  Timeframe = "immediate"
	TimeframeShortTerm  Timeframe = "short_term"
	TimeframeMediumTerm Timeframe = "medium_term"
	TimeframeLongTerm   Timeframe = "long_term"
)

// EvidenceKind is the form of evidence a disclosure requirement expects.
type EvidenceKind string

const (
	EvidenceNarrative EvidenceKind = "narrative"
	EvidenceMetric    EvidenceKind = "metric"
	EvidenceDocument  EvidenceKind = "document"
)

// ResponseStatus is the lifecycle state of a questionnaire response.
type ResponseStatus string

const (
	ResponseDraft     ResponseStatus = "draft"
	ResponseSubmitted ResponseStatus = "submitted"
)

// AssessmentStatus records whether every applicable question was answered.
type AssessmentStatus string

const (
	AssessmentCompleted AssessmentStatus = "completed"
	AssessmentPartial   AssessmentStatus = "partial"
)

// CompanyProfile identifies and classifies the assessed company.
type CompanyProfile struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Jurisdiction  Jurisdiction  `json:"jurisdiction"`
	ListingStatus ListingStatus `json:"listing_status"`
	StockExchange string        `json:"stock_exchange,omitempty"`
	Sector        string        `json:"sector,omitempty"`
	Subsector     string        `json:"subsector,omitempty"`
	EmployeeBand  string        `json:"employee_band,omitempty"`
	RevenueBand   string        `json:"revenue_band,omitempty"`
	ReportingYear int           `json:"reporting_year,omitempty"`
}

// IsListed reports whether the company is listed.
func (p CompanyProfile) IsListed() bool {
	return p.ListingStatus == ListingListed
}

// ChoiceOption is one selectable value of a choice question.
type ChoiceOption struct {
	Value string `json:"value"`
	Label string `json:"label,omitempty"`
	// Score is the raw 0-100 score of selecting this option. Nil means the
	// option carries no score of its own.
	Score *int `json:"score,omitempty"`
}

// ScoringRange maps numeric answers linearly onto 0-100.
type ScoringRange struct {
	Min            float64 `json:"min"`
	Max            float64 `json:"max"`
	HigherIsBetter bool    `json:"higher_is_better"`
}

// ConditionalRule controls the visibility of a question based on the answer
// to another question.
type ConditionalRule struct {
	DependsOnQuestionID string       `json:"depends_on_question_id"`
	Operator            Operator     `json:"operator"`
	Value               *AnswerValue `json:"value,omitempty"`
	ShowWhen            bool         `json:"show_when"`
}

// Question is a single unit of assessment.
type Question struct {
	ID               string            `json:"id"`
	Pillar           Pillar            `json:"pillar"`
	Code             string            `json:"code"`
	Type             QuestionType      `json:"type"`
	Text             string            `json:"text"`
	Weight           float64           `json:"weight"`
	Jurisdictions    []Jurisdiction    `json:"jurisdictions,omitempty"`
	ListingStatuses  []ListingStatus   `json:"listing_statuses,omitempty"`
	ConditionalRules []ConditionalRule `json:"conditional_rules,omitempty"`
	MaterialityTags  []string          `json:"materiality_tags,omitempty"`
	Options          []ChoiceOption    `json:"options,omitempty"`
	Range            *ScoringRange     `json:"range,omitempty"`
	RequiresEvidence bool              `json:"requires_evidence,omitempty"`
	Mandatory        bool              `json:"mandatory,omitempty"`
}

// AppliesTo reports whether the question's jurisdiction and listing filters
// admit the company. Empty filter lists admit everyone.
func (q Question) AppliesTo(p CompanyProfile) bool {
	if len(q.Jurisdictions) > 0 {
		found := false
		for _, j := range q.Jurisdictions {
			if j == p.Jurisdiction || j == JurisdictionGlobal {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(q.ListingStatuses) > 0 {
		for _, s := range q.ListingStatuses {
			if s == p.ListingStatus {
				return true
			}
		}
		return false
	}
	return true
}

// Section groups the questions of one pillar inside a template.
type Section struct {
	ID        string     `json:"id"`
	Pillar    Pillar     `json:"pillar"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// QuestionnaireTemplate is a versioned, jurisdiction-scoped questionnaire.
type QuestionnaireTemplate struct {
	ID           string       `json:"id"`
	Version      string       `json:"version"`
	Jurisdiction Jurisdiction `json:"jurisdiction,omitempty"`
	Sections     []Section    `json:"sections"`
}

// Questions returns every question in template order.
func (t QuestionnaireTemplate) Questions() []Question {
	var out []Question
	for _, s := range t.Sections {
		out = append(out, s.Questions...)
	}
	return out
}

// QuestionAnswer is the answer to one question.
type QuestionAnswer struct {
	QuestionID   string      `json:"question_id"`
	Value        AnswerValue `json:"value"`
	EvidenceURLs []string    `json:"evidence_urls,omitempty"`
	Notes        string      `json:"notes,omitempty"`
	AnsweredAt   time.Time   `json:"answered_at,omitempty"`
	AnsweredBy   string      `json:"answered_by,omitempty"`
}

// Answers maps question IDs to answers.
type Answers map[string]QuestionAnswer

// QuestionnaireResponse is a company's (possibly partial) set of answers.
type QuestionnaireResponse struct {
	ID         string         `json:"id"`
	CompanyID  string         `json:"company_id"`
	TemplateID string         `json:"template_id"`
	Status     ResponseStatus `json:"status,omitempty"`
	Answers    Answers        `json:"answers"`
}

// QuestionScore is the raw 0-100 score of a single question.
type QuestionScore struct {
	QuestionID      string  `json:"question_id"`
	Pillar          Pillar  `json:"pillar"`
	Weight          float64 `json:"weight"`
	Score           int     `json:"score"`
	Answered        bool    `json:"answered"`
	Insufficient    bool    `json:"insufficient,omitempty"`
	EvidenceMissing bool    `json:"evidence_missing,omitempty"`
}

// PillarScore is the aggregated score of one pillar.
type PillarScore struct {
	Pillar             Pillar  `json:"pillar"`
	Score              int     `json:"score"`
	Weight             float64 `json:"weight"`
	CompletedQuestions int     `json:"completed_questions"`
	TotalQuestions     int     `json:"total_questions"`
}

// Gap is a question that fell short of the target score.
type Gap struct {
	ID           string    `json:"id"`
	QuestionID   string    `json:"question_id"`
	QuestionCode string    `json:"question_code"`
	Pillar       Pillar    `json:"pillar"`
	Severity     Severity  `json:"severity"`
	Reason       GapReason `json:"reason"`
	CurrentScore int       `json:"current_score"`
	TargetScore  int       `json:"target_score"`
	Impact       string    `json:"impact"`
}

// Recommendation is an improvement action covering one or more gaps.
type Recommendation struct {
	ID          string    `json:"id"`
	Priority    int       `json:"priority"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	RelatedGaps []string  `json:"related_gaps"`
	Pillar      Pillar    `json:"pillar,omitempty"`
	Effort      Level     `json:"effort"`
	Impact      Level     `json:"impact"`
	Timeframe   Timeframe `json:"timeframe"`
}

// PillarContribution explains one pillar's share of the overall score.
type PillarContribution struct {
	Pillar       Pillar  `json:"pillar"`
	Score        int     `json:"score"`
	Weight       float64 `json:"weight"`
	Contribution int     `json:"contribution"`
	Reasoning    string  `json:"reasoning"`
}

// ScoreExplanation is the human-readable rationale for a result.
type ScoreExplanation struct {
	OverallScore    int                  `json:"overall_score"`
	Methodology     string               `json:"methodology"`
	PillarBreakdown []PillarContribution `json:"pillar_breakdown"`
	Strengths       []string             `json:"strengths"`
	Weaknesses      []string             `json:"weaknesses"`
}

// AssessmentResult binds a response to its derived scores, gaps,
// recommendations and explanation. It is never mutated after creation.
type AssessmentResult struct {
	ID                          string           `json:"id"`
	ResponseID                  string           `json:"response_id"`
	CompanyID                   string           `json:"company_id"`
	TemplateID                  string           `json:"template_id"`
	TemplateVersion             string           `json:"template_version"`
	Status                      AssessmentStatus `json:"status"`
	OverallScore                int              `json:"overall_score"`
	CompletionRate              float64          `json:"completion_rate"`
	PillarScores                []PillarScore    `json:"pillar_scores"`
	QuestionScores              []QuestionScore  `json:"question_scores"`
	Gaps                        []Gap            `json:"gaps"`
	GapCount                    int              `json:"gap_count"`
	CriticalGapCount            int              `json:"critical_gap_count"`
	Recommendations             []Recommendation `json:"recommendations"`
	CriticalRecommendationCount int              `json:"critical_recommendation_count"`
	Explanation                 ScoreExplanation `json:"explanation"`
	CreatedAt                   time.Time        `json:"created_at"`
}

// DisclosureRequirement is one obligation from one reporting framework.
type DisclosureRequirement struct {
	ID               string       `json:"id" yaml:"id"`
	Title            string       `json:"title" yaml:"title"`
	Framework        string       `json:"framework" yaml:"framework"`
	Topic            string       `json:"topic" yaml:"topic"`
	RequiredEvidence EvidenceKind `json:"required_evidence" yaml:"required_evidence"`
	Jurisdiction     Jurisdiction `json:"jurisdiction" yaml:"jurisdiction"`
	IsListedOnly     bool         `json:"is_listed_only" yaml:"is_listed_only"`
}

// OutlineSection is one topic of a company's disclosure outline.
type OutlineSection struct {
	Topic string                  `json:"topic"`
	Items []DisclosureRequirement `json:"items"`
}

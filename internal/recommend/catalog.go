package recommend

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/esgcheck/internal/schema"
)

// Template is a reusable improvement action. The fields it sets determine
// how specifically it matches a gap:
//
//	question_codes           tier 1, exact question code
//	pillar + severities      tier 2
//	pillar                   tier 3
//	severities               tier 4
//
// Jurisdictions, when set, drop the template for companies elsewhere.
type Template struct {
	ID            string                `yaml:"id" json:"id"`
	Title         string                `yaml:"title" json:"title"`
	Description   string                `yaml:"description" json:"description"`
	QuestionCodes []string              `yaml:"question_codes,omitempty" json:"question_codes,omitempty"`
	Pillar        schema.Pillar         `yaml:"pillar,omitempty" json:"pillar,omitempty"`
	Severities    []schema.Severity     `yaml:"severities,omitempty" json:"severities,omitempty"`
	Jurisdictions []schema.Jurisdiction `yaml:"jurisdictions,omitempty" json:"jurisdictions,omitempty"`
	// Priority overrides the effort/impact table when between 1 and 5.
	Priority  int              `yaml:"priority,omitempty" json:"priority,omitempty"`
	Effort    schema.Level     `yaml:"effort" json:"effort"`
	Impact    schema.Level     `yaml:"impact" json:"impact"`
	Timeframe schema.Timeframe `yaml:"timeframe" json:"timeframe"`
}

// Tier returns the match specificity of the template, 1 (most specific)
// through 4, or 0 when it sets no match criteria.
func (t Template) Tier() int {
	switch {
	case len(t.QuestionCodes) > 0:
		return 1
	case t.Pillar != "" && len(t.Severities) > 0:
		return 2
	case t.Pillar != "":
		return 3
	case len(t.Severities) > 0:
		return 4
	}
	return 0
}

func (t Template) matches(g schema.Gap) bool {
	switch t.Tier() {
	case 1:
		for _, c := range t.QuestionCodes {
			if c == g.QuestionCode {
				return true
			}
		}
	case 2:
		return t.Pillar == g.Pillar && hasSeverity(t.Severities, g.Severity)
	case 3:
		return t.Pillar == g.Pillar
	case 4:
		return hasSeverity(t.Severities, g.Severity)
	}
	return false
}

func (t Template) allows(j schema.Jurisdiction) bool {
	if len(t.Jurisdictions) == 0 {
		return true
	}
	for _, x := range t.Jurisdictions {
		if x == j {
			return true
		}
	}
	return false
}

func hasSeverity(set []schema.Severity, s schema.Severity) bool {
	for _, x := range set {
		if x == s {
			return true
		}
	}
	return false
}

// Catalog is an immutable, ordered set of recommendation templates. It is
// safe for concurrent use.
type Catalog struct {
	templates []Template
	byTier    [5][]int
}

// NewCatalog validates templates and indexes them by tier. Declaration order
// is preserved within each tier.
func NewCatalog(templates []Template) (*Catalog, error) {
	var errs []string
	seen := make(map[string]bool)
	c := &Catalog{templates: append([]Template(nil), templates...)}
	for i, t := range c.templates {
		field := fmt.Sprintf("templates[%d]", i)
		if t.ID == "" {
			errs = append(errs, field+".id is required")
		} else if seen[t.ID] {
			errs = append(errs, fmt.Sprintf("%s.id %q is duplicated", field, t.ID))
		}
		seen[t.ID] = true
		if t.Title == "" {
			errs = append(errs, field+".title is required")
		}
		if t.Tier() == 0 {
			errs = append(errs, field+" must set question_codes, pillar or severities")
		}
		if schema.LevelRank(t.Effort) < 0 {
			errs = append(errs, fmt.Sprintf("%s.effort %q is not low, medium or high", field, t.Effort))
		}
		if schema.LevelRank(t.Impact) < 0 {
			errs = append(errs, fmt.Sprintf("%s.impact %q is not low, medium or high", field, t.Impact))
		}
		if t.Priority < 0 || t.Priority > 5 {
			errs = append(errs, fmt.Sprintf("%s.priority %d is outside 1-5", field, t.Priority))
		}
		for _, s := range t.Severities {
			if schema.SeverityRank(s) < 0 {
				errs = append(errs, fmt.Sprintf("%s.severities: %q is not a severity", field, s))
			}
		}
		c.byTier[t.Tier()] = append(c.byTier[t.Tier()], i)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("recommend: invalid catalog: %s", strings.Join(errs, "; "))
	}
	return c, nil
}

// Templates returns a copy of the catalog in declaration order.
func (c *Catalog) Templates() []Template {
	return append([]Template(nil), c.templates...)
}

// Len returns the number of templates.
func (c *Catalog) Len() int { return len(c.templates) }

type catalogFile struct {
	Templates []Template `yaml:"templates"`
}

// LoadCatalog reads a YAML catalog file of the form `templates: [...]`.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("recommend: read %s: %w", path, err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("recommend: unmarshal %s: %w", path, err)
	}
	return NewCatalog(f.Templates)
}

// DefaultCatalog returns the built-in recommendation templates.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(builtins)
	if err != nil {
		panic(err)
	}
	return c
}

var builtins = []Template{
	{
		ID:            "REC-BOARD-OVERSIGHT",
		Title:         "Assign board-level ESG oversight",
		Description:   "Name a board member or committee accountable for sustainability matters and record the mandate in the board charter.",
		QuestionCodes: []string{"GOV-001", "GOV-002"},
		Effort:        schema.LevelLow,
		Impact:        schema.LevelHigh,
		Timeframe:     schema.TimeframeImmediate,
	},
	{
		ID:            "REC-ESG-POLICY",
		Title:         "Adopt a written ESG policy",
		Description:   "Draft, approve and publish a sustainability policy covering environmental, social and governance commitments.",
		QuestionCodes: []string{"GOV-003", "ESG-001"},
		Effort:        schema.LevelMedium,
		Impact:        schema.LevelHigh,
		Timeframe:     schema.TimeframeShortTerm,
	},
	{
		ID:            "REC-GHG-INVENTORY",
		Title:         "Build a greenhouse gas inventory",
		Description:   "Measure Scope 1 and Scope 2 emissions for the reporting year using the GHG Protocol and keep the calculation workbook as evidence.",
		QuestionCodes: []string{"ESG-002", "ESG-003"},
		Effort:        schema.LevelHigh,
		Impact:        schema.LevelHigh,
		Timeframe:     schema.TimeframeMediumTerm,
	},
	{
		ID:            "REC-RISK-REGISTER",
		Title:         "Add climate and ESG risks to the risk register",
		Description:   "Extend the enterprise risk register with physical and transition climate risks and assign owners and review dates.",
		QuestionCodes: []string{"RSK-001", "RSK-002"},
		Effort:        schema.LevelMedium,
		Impact:        schema.LevelMedium,
		Timeframe:     schema.TimeframeShortTerm,
	},
	{
		ID:            "REC-ADX-ESG-GUIDE",
		Title:         "Align reporting with the exchange ESG disclosure guidance",
		Description:   "Map existing disclosures to the 31 ESG metrics recommended for listed companies in the UAE and close the missing items.",
		QuestionCodes: []string{"TRN-001"},
		Jurisdictions: []schema.Jurisdiction{schema.JurisdictionUAE},
		Effort:        schema.LevelMedium,
		Impact:        schema.LevelHigh,
		Timeframe:     schema.TimeframeShortTerm,
	},
	{
		ID:            "REC-TADAWUL-ESG-GUIDE",
		Title:         "Align reporting with Tadawul ESG disclosure guidelines",
		Description:   "Use the Saudi Exchange ESG disclosure guidelines as the reporting baseline and publish the metrics annually.",
		QuestionCodes: []string{"TRN-001"},
		Jurisdictions: []schema.Jurisdiction{schema.JurisdictionKSA},
		Effort:        schema.LevelMedium,
		Impact:        schema.LevelHigh,
		Timeframe:     schema.TimeframeShortTerm,
	},
	{
		ID:            "REC-QSE-ESG-GUIDE",
		Title:         "Align reporting with QSE ESG guidance",
		Description:   "Report against the Qatar Stock Exchange ESG guidance metrics and state which are not yet measured.",
		QuestionCodes: []string{"TRN-001"},
		Jurisdictions: []schema.Jurisdiction{schema.JurisdictionQatar},
		Effort:        schema.LevelMedium,
		Impact:        schema.LevelHigh,
		Timeframe:     schema.TimeframeShortTerm,
	},
	{
		ID:          "REC-GOV-URGENT",
		Title:       "Close critical governance gaps",
		Description: "Escalate the missing governance controls to the board and agree a remediation owner for each within the current quarter.",
		Pillar:      schema.PillarGovernance,
		Severities:  []schema.Severity{schema.SeverityCritical, schema.SeverityHigh},
		Effort:      schema.LevelMedium,
		Impact:      schema.LevelHigh,
		Timeframe:   schema.TimeframeImmediate,
	},
	{
		ID:          "REC-ESG-URGENT",
		Title:       "Prioritise material environmental and social gaps",
		Description: "Run a short materiality review and commit resources to the environmental and social topics with the largest gaps.",
		Pillar:      schema.PillarESG,
		Severities:  []schema.Severity{schema.SeverityCritical, schema.SeverityHigh},
		Effort:      schema.LevelMedium,
		Impact:      schema.LevelMedium,
		Timeframe:   schema.TimeframeShortTerm,
	},
	{
		ID:          "REC-GOV-FRAMEWORK",
		Title:       "Strengthen the governance framework",
		Description: "Document roles, policies and reporting lines for sustainability and review them annually.",
		Pillar:      schema.PillarGovernance,
		Effort:      schema.LevelMedium,
		Impact:      schema.LevelMedium,
		Timeframe:   schema.TimeframeMediumTerm,
	},
	{
		ID:          "REC-ESG-PROGRAMME",
		Title:       "Establish an ESG improvement programme",
		Description: "Set measurable environmental and social targets with baselines and track progress quarterly.",
		Pillar:      schema.PillarESG,
		Effort:      schema.LevelHigh,
		Impact:      schema.LevelMedium,
		Timeframe:   schema.TimeframeLongTerm,
	},
	{
		ID:          "REC-RISK-CONTROLS",
		Title:       "Formalise ESG risk controls",
		Description: "Define control owners, testing frequency and escalation paths for ESG-related risks.",
		Pillar:      schema.PillarRiskControls,
		Effort:      schema.LevelMedium,
		Impact:      schema.LevelMedium,
		Timeframe:   schema.TimeframeMediumTerm,
	},
	{
		ID:          "REC-TRANSPARENCY",
		Title:       "Improve stakeholder disclosure",
		Description: "Publish a concise annual sustainability statement and make supporting evidence available on request.",
		Pillar:      schema.PillarTransparency,
		Effort:      schema.LevelLow,
		Impact:      schema.LevelMedium,
		Timeframe:   schema.TimeframeShortTerm,
	},
	{
		ID:          "REC-CRITICAL-REVIEW",
		Title:       "Commission an external readiness review",
		Description: "Engage an independent adviser to review critical gaps and confirm the remediation plan before the next reporting cycle.",
		Severities:  []schema.Severity{schema.SeverityCritical},
		Effort:      schema.LevelHigh,
		Impact:      schema.LevelHigh,
		Timeframe:   schema.TimeframeShortTerm,
	},
	{
		ID:          "REC-HOUSEKEEPING",
		Title:       "Complete outstanding questionnaire items",
		Description: "Answer the remaining low-priority items and attach available evidence to raise completeness.",
		Severities:  []schema.Severity{schema.SeverityMedium, schema.SeverityLow},
		Effort:      schema.LevelLow,
		Impact:      schema.LevelLow,
		Timeframe:   schema.TimeframeImmediate,
	},
}

// Package policy holds the tunable tables of the assessment engine: pillar
// weights, gap-severity thresholds, rule composition and scoring limits.
// A built-in default is always available; a YAML file may override any
// subset of it.
package policy

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/dshills/esgcheck/internal/schema"
	"github.com/dshills/esgcheck/internal/visibility"
)

// SeverityThresholds are the minimum severity points for each tier. Points
// are weight × (target − score) / 100, so they range over [0, 10].
type SeverityThresholds struct {
	Critical float64 `yaml:"critical"`
	High     float64 `yaml:"high"`
	Medium   float64 `yaml:"medium"`
}

// Policy is the complete set of engine tunables.
type Policy struct {
	// PillarWeights are percentages and must sum to 100.
	PillarWeights      map[schema.Pillar]int  `yaml:"pillar_weights"`
	Severity           SeverityThresholds     `yaml:"severity"`
	RuleComposition    visibility.Composition `yaml:"rule_composition"`
	MinTextLength      int                    `yaml:"min_text_length"`
	EvidenceCap        int                    `yaml:"evidence_cap"`
	MaxRecommendations int                    `yaml:"max_recommendations"`
	// MinTemplateVersion rejects questionnaire templates older than this
	// semantic version. Empty disables the check.
	MinTemplateVersion string `yaml:"min_template_version"`
}

// MaxRecommendationsLimit is the largest permitted MaxRecommendations.
const MaxRecommendationsLimit = 10

// file mirrors Policy for YAML overlays. Pointer scalars distinguish an
// explicit zero from an absent key.
type file struct {
	PillarWeights      map[schema.Pillar]int   `yaml:"pillar_weights"`
	Severity           *SeverityThresholds     `yaml:"severity"`
	RuleComposition    *visibility.Composition `yaml:"rule_composition"`
	MinTextLength      *int                    `yaml:"min_text_length"`
	EvidenceCap        *int                    `yaml:"evidence_cap"`
	MaxRecommendations *int                    `yaml:"max_recommendations"`
	MinTemplateVersion *string                 `yaml:"min_template_version"`
}

// Default returns the built-in policy.
func Default() Policy {
	return Policy{
		PillarWeights: map[schema.Pillar]int{
			schema.PillarGovernance:   30,
			schema.PillarESG:          30,
			schema.PillarRiskControls: 20,
			schema.PillarTransparency: 20,
		},
		Severity: SeverityThresholds{
			Critical: 7,
			High:     4.5,
			Medium:   2,
		},
		RuleComposition:    visibility.ComposeAll,
		MinTextLength:      40,
		EvidenceCap:        50,
		MaxRecommendations: 10,
	}
}

// WeightFraction returns a pillar's weight as a fraction of 1.
func (p Policy) WeightFraction(pillar schema.Pillar) float64 {
	return float64(p.PillarWeights[pillar]) / 100
}

// Load reads a YAML policy file and overlays it on Default. Pillar weights in
// the file replace the default table as a whole.
func Load(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("policy: read %s: %w", path, err)
	}
	p := Default()
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Policy{}, fmt.Errorf("policy: unmarshal %s: %w", path, err)
	}
	if len(f.PillarWeights) > 0 {
		p.PillarWeights = f.PillarWeights
	}
	if f.Severity != nil {
		p.Severity = *f.Severity
	}
	if f.RuleComposition != nil {
		mode, err := visibility.ParseComposition(string(*f.RuleComposition))
		if err != nil {
			return Policy{}, fmt.Errorf("policy: %s: %w", path, err)
		}
		p.RuleComposition = mode
	}
	if f.MinTextLength != nil {
		p.MinTextLength = *f.MinTextLength
	}
	if f.EvidenceCap != nil {
		p.EvidenceCap = *f.EvidenceCap
	}
	if f.MaxRecommendations != nil {
		p.MaxRecommendations = *f.MaxRecommendations
	}
	if f.MinTemplateVersion != nil {
		p.MinTemplateVersion = *f.MinTemplateVersion
	}
	if err := p.Validate(); err != nil {
		return Policy{}, fmt.Errorf("policy: %s: %w", path, err)
	}
	return p, nil
}

// Validate checks that the policy is internally consistent.
func (p Policy) Validate() error {
	var errs []string

	sum := 0
	for _, pillar := range schema.AllPillars() {
		w, ok := p.PillarWeights[pillar]
		if !ok {
			errs = append(errs, fmt.Sprintf("pillar_weights.%s is required", pillar))
			continue
		}
		if w < 0 {
			errs = append(errs, fmt.Sprintf("pillar_weights.%s must be >= 0", pillar))
		}
		sum += w
	}
	var unknown []string
	for pillar := range p.PillarWeights {
		if !isPillar(pillar) {
			unknown = append(unknown, string(pillar))
		}
	}
	sort.Strings(unknown)
	for _, u := range unknown {
		errs = append(errs, fmt.Sprintf("pillar_weights.%s is not a pillar", u))
	}
	if sum != 100 {
		errs = append(errs, fmt.Sprintf("pillar_weights must sum to 100, got %d", sum))
	}

	s := p.Severity
	if !(s.Critical > s.High && s.High > s.Medium && s.Medium > 0) {
		errs = append(errs, "severity thresholds must satisfy critical > high > medium > 0")
	}
	if s.Critical > 10 || math.IsNaN(s.Critical) {
		errs = append(errs, "severity.critical must be <= 10")
	}

	if p.RuleComposition != visibility.ComposeAll && p.RuleComposition != visibility.ComposeAny {
		errs = append(errs, fmt.Sprintf("rule_composition %q must be all or any", p.RuleComposition))
	}
	if p.MinTextLength < 1 {
		errs = append(errs, "min_text_length must be >= 1")
	}
	if p.EvidenceCap < 0 || p.EvidenceCap > 100 {
		errs = append(errs, "evidence_cap must be between 0 and 100")
	}
	if p.MaxRecommendations < 1 || p.MaxRecommendations > MaxRecommendationsLimit {
		errs = append(errs, fmt.Sprintf("max_recommendations must be between 1 and %d", MaxRecommendationsLimit))
	}
	if p.MinTemplateVersion != "" && !semver.IsValid("v"+p.MinTemplateVersion) {
		errs = append(errs, fmt.Sprintf("min_template_version %q is not a semantic version", p.MinTemplateVersion))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid policy: %s", strings.Join(errs, "; "))
	}
	return nil
}

func isPillar(p schema.Pillar) bool {
	for _, x := range schema.AllPillars() {
		if x == p {
			return true
		}
	}
	return false
}

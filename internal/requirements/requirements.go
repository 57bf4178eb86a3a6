// Package requirements holds the disclosure-requirement catalog and builds the
// framework outline for a company.
package requirements

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/esgcheck/internal/schema"
)

// Framework codes.
const (
	IFRSS1     = "IFRS_S1"
	IFRSS2     = "IFRS_S2"
	GRI        = "GRI"
	TCFD       = "TCFD"
	LocalUAE   = "LOCAL_UAE"
	LocalKSA   = "LOCAL_KSA"
	LocalQatar = "LOCAL_QATAR"
)

// Frameworks returns every supported framework code.
func Frameworks() []string {
	return []string{IFRSS1, IFRSS2, GRI, TCFD, LocalUAE, LocalKSA, LocalQatar}
}

// IsFramework reports whether code is a supported framework.
func IsFramework(code string) bool {
	for _, f := range Frameworks() {
		if f == code {
			return true
		}
	}
	return false
}

// Topics in outline order.
const (
	TopicGovernance     = "GOVERNANCE"
	TopicStrategy       = "STRATEGY"
	TopicRiskManagement = "RISK_MANAGEMENT"
	TopicMetricsTargets = "METRICS_TARGETS"
	TopicEnvironment    = "ENVIRONMENT"
	TopicSocial         = "SOCIAL"
)

// Topics returns the fixed outline topic order.
func Topics() []string {
	return []string{TopicGovernance, TopicStrategy, TopicRiskManagement, TopicMetricsTargets, TopicEnvironment, TopicSocial}
}

type indexKey struct {
	framework    string
	jurisdiction schema.Jurisdiction
}

// Registry is an immutable requirement catalog. It is safe for concurrent
// use without synchronisation.
type Registry struct {
	items []schema.DisclosureRequirement
	index map[indexKey][]int
}

// NewRegistry validates items and indexes them by framework and jurisdiction.
func NewRegistry(items []schema.DisclosureRequirement) (*Registry, error) {
	var errs []string
	seen := make(map[string]bool)
	topics := make(map[string]bool)
	for _, t := range Topics() {
		topics[t] = true
	}
	r := &Registry{
		items: append([]schema.DisclosureRequirement(nil), items...),
		index: make(map[indexKey][]int),
	}
	for i, it := range r.items {
		field := fmt.Sprintf("requirements[%d]", i)
		if it.ID == "" {
			errs = append(errs, field+".id is required")
		} else if seen[it.ID] {
			errs = append(errs, fmt.Sprintf("%s.id %q is duplicated", field, it.ID))
		}
		seen[it.ID] = true
		if !IsFramework(it.Framework) {
			errs = append(errs, fmt.Sprintf("%s.framework %q is unknown", field, it.Framework))
		}
		if !topics[it.Topic] {
			errs = append(errs, fmt.Sprintf("%s.topic %q is unknown", field, it.Topic))
		}
		switch it.RequiredEvidence {
		case schema.EvidenceNarrative, schema.EvidenceMetric, schema.EvidenceDocument:
		default:
			errs = append(errs, fmt.Sprintf("%s.required_evidence %q is not narrative, metric or document", field, it.RequiredEvidence))
		}
		switch it.Jurisdiction {
		case schema.JurisdictionGlobal, schema.JurisdictionUAE, schema.JurisdictionKSA, schema.JurisdictionQatar:
		default:
			errs = append(errs, fmt.Sprintf("%s.jurisdiction %q is unknown", field, it.Jurisdiction))
		}
		k := indexKey{it.Framework, it.Jurisdiction}
		r.index[k] = append(r.index[k], i)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("requirements: invalid catalog: %s", strings.Join(errs, "; "))
	}
	return r, nil
}

// Items returns a copy of the catalog in declaration order.
func (r *Registry) Items() []schema.DisclosureRequirement {
	return append([]schema.DisclosureRequirement(nil), r.items...)
}

// BuildOutline filters the catalog for a company and groups the survivors by
// topic. An item survives when its framework is selected, its jurisdiction is
// GLOBAL or the company's, and it is not listed-only for an unlisted company.
// Empty topics are dropped; items keep catalog order within a topic.
func (r *Registry) BuildOutline(j schema.Jurisdiction, isListed bool, frameworks []string) []schema.OutlineSection {
	var keep []int
	for _, f := range frameworks {
		keep = append(keep, r.index[indexKey{f, schema.JurisdictionGlobal}]...)
		if j != schema.JurisdictionGlobal {
			keep = append(keep, r.index[indexKey{f, j}]...)
		}
	}
	selected := make([]bool, len(r.items))
	for _, i := range keep {
		if !r.items[i].IsListedOnly || isListed {
			selected[i] = true
		}
	}

	var out []schema.OutlineSection
	for _, topic := range Topics() {
		sec := schema.OutlineSection{Topic: topic}
		for i, it := range r.items {
			if selected[i] && it.Topic == topic {
				sec.Items = append(sec.Items, it)
			}
		}
		if len(sec.Items) > 0 {
			out = append(out, sec)
		}
	}
	return out
}

type catalogFile struct {
	Requirements []schema.DisclosureRequirement `yaml:"requirements"`
}

// Load reads a YAML catalog of the form `requirements: [...]`.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("requirements: read %s: %w", path, err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("requirements: unmarshal %s: %w", path, err)
	}
	return NewRegistry(f.Requirements)
}

// Default returns the built-in catalog.
func Default() *Registry {
	r, err := NewRegistry(builtins)
	if err != nil {
		panic(err)
	}
	return r
}

func req(id, title, framework, topic string, ev schema.EvidenceKind, j schema.Jurisdiction, listedOnly bool) schema.DisclosureRequirement {
	return schema.DisclosureRequirement{
		ID: id, Title: title, Framework: framework, Topic: topic,
		RequiredEvidence: ev, Jurisdiction: j, IsListedOnly: listedOnly,
	}
}

var builtins = []schema.DisclosureRequirement{
	// IFRS S1 general requirements
	req("IFRS_S1_GOV_1", "Governance body oversight of sustainability-related risks and opportunities", IFRSS1, TopicGovernance, schema.EvidenceNarrative, schema.JurisdictionGlobal, false),
	req("IFRS_S1_GOV_2", "Management's role in sustainability-related processes and controls", IFRSS1, TopicGovernance, schema.EvidenceNarrative, schema.JurisdictionGlobal, false),
	req("IFRS_S1_STR_1", "Sustainability-related risks and opportunities affecting prospects", IFRSS1, TopicStrategy, schema.EvidenceNarrative, schema.JurisdictionGlobal, false),
	req("IFRS_S1_STR_2", "Current and anticipated financial effects", IFRSS1, TopicStrategy, schema.EvidenceMetric, schema.JurisdictionGlobal, false),
	req("IFRS_S1_RSK_1", "Processes to identify, assess and monitor sustainability risks", IFRSS1, TopicRiskManagement, schema.EvidenceNarrative, schema.JurisdictionGlobal, false),
	req("IFRS_S1_MET_1", "Metrics used to measure and monitor sustainability performance", IFRSS1, TopicMetricsTargets, schema.EvidenceMetric, schema.JurisdictionGlobal, false),

	// IFRS S2 climate
	req("IFRS_S2_GOV_1", "Oversight of climate-related risks and opportunities", IFRSS2, TopicGovernance, schema.EvidenceNarrative, schema.JurisdictionGlobal, false),
	req("IFRS_S2_STR_1", "Climate resilience and scenario analysis", IFRSS2, TopicStrategy, schema.EvidenceNarrative, schema.JurisdictionGlobal, false),
	req("IFRS_S2_STR_2", "Transition plan", IFRSS2, TopicStrategy, schema.EvidenceDocument, schema.JurisdictionGlobal, false),
	req("IFRS_S2_RSK_1", "Integration of climate risk into overall risk management", IFRSS2, TopicRiskManagement, schema.EvidenceNarrative, schema.JurisdictionGlobal, false),
	req("IFRS_S2_MET_1", "Scope 1, 2 and 3 greenhouse gas emissions", IFRSS2, TopicMetricsTargets, schema.EvidenceMetric, schema.JurisdictionGlobal, false),
	req("IFRS_S2_MET_2", "Climate-related targets and progress", IFRSS2, TopicMetricsTargets, schema.EvidenceMetric, schema.JurisdictionGlobal, false),

	// GRI universal and topic standards
	req("GRI_2_9", "Governance structure and composition", GRI, TopicGovernance, schema.EvidenceNarrative, schema.JurisdictionGlobal, false),
	req("GRI_3_1", "Process to determine material topics", GRI, TopicStrategy, schema.EvidenceNarrative, schema.JurisdictionGlobal, false),
	req("GRI_302_1", "Energy consumption within the organization", GRI, TopicEnvironment, schema.EvidenceMetric, schema.JurisdictionGlobal, false),
	req("GRI_303_3", "Water withdrawal", GRI, TopicEnvironment, schema.EvidenceMetric, schema.JurisdictionGlobal, false),
	req("GRI_305_1", "Direct (Scope 1) GHG emissions", GRI, TopicEnvironment, schema.EvidenceMetric, schema.JurisdictionGlobal, false),
	req("GRI_306_3", "Waste generated", GRI, TopicEnvironment, schema.EvidenceMetric, schema.JurisdictionGlobal, false),
	req("GRI_401_1", "New employee hires and employee turnover", GRI, TopicSocial, schema.EvidenceMetric, schema.JurisdictionGlobal, false),
	req("GRI_403_9", "Work-related injuries", GRI, TopicSocial, schema.EvidenceMetric, schema.JurisdictionGlobal, false),
	req("GRI_405_1", "Diversity of governance bodies and employees", GRI, TopicSocial, schema.EvidenceMetric, schema.JurisdictionGlobal, false),

	// TCFD
	req("TCFD_GOV_A", "Board oversight of climate-related risks", TCFD, TopicGovernance, schema.EvidenceNarrative, schema.JurisdictionGlobal, false),
	req("TCFD_STR_C", "Resilience of strategy under climate scenarios", TCFD, TopicStrategy, schema.EvidenceNarrative, schema.JurisdictionGlobal, false),
	req("TCFD_RSK_A", "Processes for identifying climate-related risks", TCFD, TopicRiskManagement, schema.EvidenceNarrative, schema.JurisdictionGlobal, false),
	req("TCFD_MET_B", "Scope 1, 2 and, if appropriate, Scope 3 emissions", TCFD, TopicMetricsTargets, schema.EvidenceMetric, schema.JurisdictionGlobal, false),

	// UAE
	req("UAE_SCA_ESG_1", "Annual sustainability report filed with the SCA", LocalUAE, TopicGovernance, schema.EvidenceDocument, schema.JurisdictionUAE, true),
	req("UAE_ADX_ESG_1", "ADX/DFM ESG disclosure metrics", LocalUAE, TopicMetricsTargets, schema.EvidenceMetric, schema.JurisdictionUAE, true),
	req("UAE_CLIMATE_LAW_1", "Greenhouse gas measurement and reporting under the UAE climate law", LocalUAE, TopicEnvironment, schema.EvidenceMetric, schema.JurisdictionUAE, false),
	req("UAE_EMIRATISATION_1", "Emiratisation and workforce nationality mix", LocalUAE, TopicSocial, schema.EvidenceMetric, schema.JurisdictionUAE, false),

	// KSA
	req("KSA_CMA_GOV_1", "Corporate governance regulations compliance statement", LocalKSA, TopicGovernance, schema.EvidenceDocument, schema.JurisdictionKSA, true),
	req("KSA_TADAWUL_ESG_1", "Tadawul ESG disclosure guideline metrics", LocalKSA, TopicMetricsTargets, schema.EvidenceMetric, schema.JurisdictionKSA, true),
	req("KSA_VISION2030_1", "Alignment with Vision 2030 sustainability objectives", LocalKSA, TopicStrategy, schema.EvidenceNarrative, schema.JurisdictionKSA, false),
	req("KSA_SAUDIZATION_1", "Saudization (Nitaqat) workforce disclosure", LocalKSA, TopicSocial, schema.EvidenceMetric, schema.JurisdictionKSA, false),

	// Qatar
	req("QAT_QFMA_GOV_1", "QFMA corporate governance code compliance report", LocalQatar, TopicGovernance, schema.EvidenceDocument, schema.JurisdictionQatar, true),
	req("QAT_QSE_ESG_1", "QSE ESG guidance metrics", LocalQatar, TopicMetricsTargets, schema.EvidenceMetric, schema.JurisdictionQatar, true),
	req("QAT_QNV2030_1", "Alignment with Qatar National Vision 2030", LocalQatar, TopicStrategy, schema.EvidenceNarrative, schema.JurisdictionQatar, false),
	req("QAT_ENV_1", "Environmental permits and compliance record", LocalQatar, TopicEnvironment, schema.EvidenceDocument, schema.JurisdictionQatar, false),
}

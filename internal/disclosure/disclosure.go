// Package disclosure defines the bilingual disclosure templates that guide
// narrative generation. Each template is selected by a company's
// jurisdiction and listing status and provides, per pillar section, the
// system prompt handed to the narrative generator.
package disclosure

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"

	"github.com/dshills/esgcheck/internal/schema"
)

// Text is a bilingual string.
type Text struct {
	En string `json:"en"`
	Ar string `json:"ar"`
}

var textMatcher = language.NewMatcher([]language.Tag{language.English, language.Arabic})

// In returns the text best matching tag. English is the fallback, including
// when the Arabic text is empty.
func (t Text) In(tag language.Tag) string {
	_, idx, _ := textMatcher.Match(tag)
	if idx == 1 && t.Ar != "" {
		return t.Ar
	}
	return t.En
}

// Complete reports whether both languages are present.
func (t Text) Complete() bool {
	return strings.TrimSpace(t.En) != "" && strings.TrimSpace(t.Ar) != ""
}

// Disclaimer types.
const (
	DisclaimerLegal         = "legal"
	DisclaimerInformational = "informational"
)

// Disclaimer is a notice printed with every generated disclosure.
type Disclaimer struct {
	Type string `json:"type"`
	Text Text   `json:"text"`
}

// Section is one pillar of a disclosure template.
type Section struct {
	Pillar      schema.Pillar `json:"pillar"`
	Title       Text          `json:"title"`
	Description Text          `json:"description"`
	UserPrompt  Text          `json:"user_prompt"`
	// SystemPrompt is sent verbatim to the narrative generator.
	SystemPrompt string `json:"system_prompt"`
}

// Template is a disclosure template for one (jurisdiction, listing status).
type Template struct {
	ID            string               `json:"id"`
	Jurisdiction  schema.Jurisdiction  `json:"jurisdiction"`
	ListingStatus schema.ListingStatus `json:"listing_status"`
	Regulator     string               `json:"regulator"`
	Exchanges     []string             `json:"exchanges,omitempty"`
	Sections      []Section            `json:"sections"`
	Disclaimers   []Disclaimer         `json:"disclaimers"`
}

// Guardrail phrases every section system prompt must contain.
const (
	GuardrailNoLegalAdvice = "does not constitute legal advice"
	GuardrailHedged        = "hedged language"
	GuardrailCitation      = "[CITATION NEEDED]"
)

// Guardrails returns the mandatory system prompt phrases.
func Guardrails() []string {
	return []string{GuardrailNoLegalAdvice, GuardrailHedged, GuardrailCitation}
}

// TemplateNotFoundError is returned when no template is registered for a
// lookup key.
type TemplateNotFoundError struct {
	Key string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("disclosure: no template registered for key %q (available: %s)", e.Key, strings.Join(Keys(), ", "))
}

// Key returns the lookup key for a profile: <JURISDICTION>_<LISTED|NONLISTED>.
// An unrecognised listing status yields <JURISDICTION>_UNKNOWN_<status>,
// which never matches a registered template.
func Key(p schema.CompanyProfile) string {
	var listing string
	switch p.ListingStatus {
	case schema.ListingListed:
		listing = "LISTED"
	case schema.ListingNonListed:
		listing = "NONLISTED"
	default:
		listing = "UNKNOWN_" + string(p.ListingStatus)
	}
	return strings.ToUpper(string(p.Jurisdiction)) + "_" + listing
}

// Keys returns every registered lookup key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(builtins))
	for k := range builtins {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Select returns a copy of the template registered for the profile.
// Mutating the result does not affect the registry.
func Select(p schema.CompanyProfile) (Template, error) {
	key := Key(p)
	t, ok := builtins[key]
	if !ok {
		return Template{}, &TemplateNotFoundError{Key: key}
	}
	return t.clone(), nil
}

func (t Template) clone() Template {
	t.Exchanges = append([]string(nil), t.Exchanges...)
	t.Sections = append([]Section(nil), t.Sections...)
	t.Disclaimers = append([]Disclaimer(nil), t.Disclaimers...)
	return t
}

// TemplateID returns the ID of the template registered for the profile.
func TemplateID(p schema.CompanyProfile) (string, error) {
	t, err := Select(p)
	if err != nil {
		return "", err
	}
	return t.ID, nil
}

// HasTemplate reports whether a template is registered for the profile.
func HasTemplate(p schema.CompanyProfile) bool {
	_, err := Select(p)
	return err == nil
}

// Section returns the template section for a pillar.
func (t Template) Section(p schema.Pillar) (Section, bool) {
	for _, s := range t.Sections {
		if s.Pillar == p {
			return s, true
		}
	}
	return Section{}, false
}

type market struct {
	jurisdiction schema.Jurisdiction
	country      Text
	regulator    string
	exchanges    []string
	vision       string
}

var markets = []market{
	{
		jurisdiction: schema.JurisdictionUAE,
		country:      Text{En: "the United Arab Emirates", Ar: "دولة الإمارات العربية المتحدة"},
		regulator:    "Securities and Commodities Authority (SCA)",
		exchanges:    []string{"ADX", "DFM"},
		vision:       "UAE Net Zero 2050 strategic initiative",
	},
	{
		jurisdiction: schema.JurisdictionKSA,
		country:      Text{En: "the Kingdom of Saudi Arabia", Ar: "المملكة العربية السعودية"},
		regulator:    "Capital Market Authority (CMA)",
		exchanges:    []string{"Tadawul"},
		vision:       "Saudi Vision 2030",
	},
	{
		jurisdiction: schema.JurisdictionQatar,
		country:      Text{En: "the State of Qatar", Ar: "دولة قطر"},
		regulator:    "Qatar Financial Markets Authority (QFMA)",
		exchanges:    []string{"QSE"},
		vision:       "Qatar National Vision 2030",
	},
}

type pillarText struct {
	title       Text
	description Text
	focus       string
}

var pillarTexts = map[schema.Pillar]pillarText{
	schema.PillarGovernance: {
		title:       Text{En: "Governance", Ar: "الحوكمة"},
		description: Text{En: "Board oversight, accountability and policies for sustainability matters.", Ar: "إشراف مجلس الإدارة والمساءلة والسياسات المتعلقة بالاستدامة."},
		focus:       "board oversight, management accountability, ESG policies and ethics",
	},
	schema.PillarESG: {
		title:       Text{En: "Environmental and Social Performance", Ar: "الأداء البيئي والاجتماعي"},
		description: Text{En: "Emissions, resource use, workforce and community impacts.", Ar: "الانبعاثات واستخدام الموارد والقوى العاملة والأثر المجتمعي."},
		focus:       "greenhouse gas emissions, energy, water, waste, workforce and community",
	},
	schema.PillarRiskControls: {
		title:       Text{En: "Risk Management and Controls", Ar: "إدارة المخاطر والضوابط"},
		description: Text{En: "Identification, assessment and control of ESG and climate risks.", Ar: "تحديد وتقييم وضبط المخاطر البيئية والاجتماعية ومخاطر المناخ."},
		focus:       "risk identification, climate scenario analysis, internal controls and assurance",
	},
	schema.PillarTransparency: {
		title:       Text{En: "Transparency and Disclosure", Ar: "الشفافية والإفصاح"},
		description: Text{En: "Reporting practices, stakeholder engagement and data quality.", Ar: "ممارسات الإفصاح والتواصل مع أصحاب المصلحة وجودة البيانات."},
		focus:       "reporting frameworks, stakeholder engagement, metrics and data quality",
	},
}

func systemPrompt(m market, listed bool, p schema.Pillar) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You draft the %s section of an ESG disclosure for a company in %s. ", pillarTexts[p].title.En, m.country.En)
	fmt.Fprintf(&sb, "Cover %s, drawing only on the disclosure pack provided. ", pillarTexts[p].focus)
	if listed {
		fmt.Fprintf(&sb, "The company is listed on %s and is supervised by the %s; reflect the exchange ESG disclosure guidance. ",
			strings.Join(m.exchanges, "/"), m.regulator)
	} else {
		fmt.Fprintf(&sb, "The company is not listed; frame the section as voluntary reporting aligned with %s. ", m.vision)
	}
	sb.WriteString("State clearly that the text does not constitute legal advice. ")
	sb.WriteString("Use hedged language for any statement not directly supported by the pack. ")
	sb.WriteString("Where a claim needs a source that the pack does not provide, insert [CITATION NEEDED]. ")
	sb.WriteString("Never invent figures, certifications or regulatory approvals.")
	return sb.String()
}

func build(m market, listed bool) Template {
	status, suffix := schema.ListingNonListed, "NONLISTED"
	if listed {
		status, suffix = schema.ListingListed, "LISTED"
	}
	t := Template{
		ID:            fmt.Sprintf("%s_%s_V1", m.jurisdiction, suffix),
		Jurisdiction:  m.jurisdiction,
		ListingStatus: status,
		Regulator:     m.regulator,
	}
	if listed {
		t.Exchanges = m.exchanges
	}
	for _, p := range schema.AllPillars() {
		pt := pillarTexts[p]
		t.Sections = append(t.Sections, Section{
			Pillar:      p,
			Title:       pt.title,
			Description: pt.description,
			UserPrompt: Text{
				En: fmt.Sprintf("Write the %s section of our sustainability report using the attached disclosure pack.", pt.title.En),
				Ar: fmt.Sprintf("اكتب قسم %s من تقرير الاستدامة استنادًا إلى حزمة الإفصاح المرفقة.", pt.title.Ar),
			},
			SystemPrompt: systemPrompt(m, listed, p),
		})
	}
	t.Disclaimers = []Disclaimer{
		{
			Type: DisclaimerLegal,
			Text: Text{
				En: "This disclosure was prepared from self-assessment data and does not constitute legal advice. " +
					"Confirm regulatory obligations with a qualified adviser before filing.",
				Ar: "أُعد هذا الإفصاح استنادًا إلى بيانات التقييم الذاتي ولا يشكل استشارة قانونية. " +
					"يرجى التحقق من الالتزامات التنظيمية مع مستشار مؤهل قبل التقديم.",
			},
		},
		{
			Type: DisclaimerInformational,
			Text: Text{
				En: fmt.Sprintf("Figures are reported as provided by the company and have not been verified by the %s.", m.regulator),
				Ar: "الأرقام الواردة مقدمة من الشركة ولم يتم التحقق منها من قبل الجهة التنظيمية.",
			},
		},
	}
	return t
}

// builtins is the registry of disclosure templates keyed by lookup key.
var builtins = func() map[string]Template {
	out := make(map[string]Template)
	for _, m := range markets {
		for _, listed := range []bool{true, false} {
			t := build(m, listed)
			out[Key(schema.CompanyProfile{Jurisdiction: m.jurisdiction, ListingStatus: t.ListingStatus})] = t
		}
	}
	return out
}()

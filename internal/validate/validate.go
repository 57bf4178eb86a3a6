// Package validate checks engine inputs before any computation begins.
// Every failure names the offending field so callers can correct the input.
package validate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/dshills/esgcheck/internal/schema"
)

// ValidationError records a single validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Errors is the set of failures found in one input. A nil or empty Errors is
// never returned as an error.
type Errors []ValidationError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, ve := range e {
		parts[i] = ve.Error()
	}
	return "validation: " + strings.Join(parts, "; ")
}

// Err returns e as an error, or nil when e is empty.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

var (
	versionRe = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
	codeRe    = regexp.MustCompile(`^[A-Z]{3}-\d{3}$`)
)

// Profile validates a company profile.
func Profile(p schema.CompanyProfile) Errors {
	var errs Errors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: "profile." + field, Message: fmt.Sprintf(format, args...)})
	}
	if p.Jurisdiction == "" {
		add("jurisdiction", "is required")
	} else if !isCompanyJurisdiction(p.Jurisdiction) {
		add("jurisdiction", "%q is not one of UAE, KSA, QATAR", p.Jurisdiction)
	}
	switch p.ListingStatus {
	case schema.ListingListed, schema.ListingNonListed:
	case "":
		add("listing_status", "is required")
	default:
		add("listing_status", "%q is not one of listed, non_listed", p.ListingStatus)
	}
	if p.ReportingYear < 0 {
		add("reporting_year", "must not be negative")
	}
	return errs
}

// Template validates a questionnaire template. minVersion, when non-empty,
// rejects templates older than that semantic version.
func Template(t schema.QuestionnaireTemplate, minVersion string) Errors {
	var errs Errors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if t.ID == "" {
		add("template.id", "is required")
	}
	switch {
	case !versionRe.MatchString(t.Version):
		add("template.version", "%q does not match MAJOR.MINOR.PATCH", t.Version)
	case minVersion != "" && semver.Compare("v"+t.Version, "v"+minVersion) < 0:
		add("template.version", "%s is older than the minimum supported %s", t.Version, minVersion)
	}
	if t.Jurisdiction != "" && t.Jurisdiction != schema.JurisdictionGlobal && !isCompanyJurisdiction(t.Jurisdiction) {
		add("template.jurisdiction", "%q is not a known jurisdiction", t.Jurisdiction)
	}

	ids := make(map[string]bool)
	for _, q := range t.Questions() {
		ids[q.ID] = true
	}
	seen := make(map[string]bool)
	for si, s := range t.Sections {
		sf := fmt.Sprintf("template.sections[%d]", si)
		if !isPillar(s.Pillar) {
			add(sf+".pillar", "%q is not a pillar", s.Pillar)
		}
		for qi, q := range s.Questions {
			qf := fmt.Sprintf("%s.questions[%d]", sf, qi)
			if q.ID == "" {
				add(qf+".id", "is required")
			} else if seen[q.ID] {
				add(qf+".id", "duplicate question id %q", q.ID)
			}
			seen[q.ID] = true
			if q.Pillar != s.Pillar {
				add(qf+".pillar", "%q does not match section pillar %q", q.Pillar, s.Pillar)
			}
			if !codeRe.MatchString(q.Code) {
				add(qf+".code", "%q does not match AAA-000", q.Code)
			}
			if !isQuestionType(q.Type) {
				add(qf+".type", "%q is not a question type", q.Type)
			}
			if q.Weight < 0 || q.Weight > 10 {
				add(qf+".weight", "%v is outside 0-10", q.Weight)
			}
			for ji, j := range q.Jurisdictions {
				if j != schema.JurisdictionGlobal && !isCompanyJurisdiction(j) {
					add(fmt.Sprintf("%s.jurisdictions[%d]", qf, ji), "%q is not a jurisdiction", j)
				}
			}
			for li, l := range q.ListingStatuses {
				if l != schema.ListingListed && l != schema.ListingNonListed {
					add(fmt.Sprintf("%s.listing_statuses[%d]", qf, li), "%q is not a listing status", l)
				}
			}
			if q.Range != nil && q.Range.Max < q.Range.Min {
				add(qf+".range", "max %v is below min %v", q.Range.Max, q.Range.Min)
			}
			for oi, o := range q.Options {
				if o.Score != nil && (*o.Score < 0 || *o.Score > 100) {
					add(fmt.Sprintf("%s.options[%d].score", qf, oi), "%d is outside 0-100", *o.Score)
				}
			}
			for ri, r := range q.ConditionalRules {
				rf := fmt.Sprintf("%s.conditional_rules[%d]", qf, ri)
				if !isOperator(r.Operator) {
					add(rf+".operator", "%q is not an operator", r.Operator)
				}
				if r.DependsOnQuestionID == "" {
					add(rf+".depends_on_question_id", "is required")
				} else if !ids[r.DependsOnQuestionID] {
					add(rf+".depends_on_question_id", "%q is not a question in this template", r.DependsOnQuestionID)
				}
				if needsValue(r.Operator) && r.Value == nil {
					add(rf+".value", "is required for operator %s", r.Operator)
				}
			}
		}
	}
	return errs
}

// Response validates a response against its template. Answers to unknown
// questions and values whose shape cannot fit the question type are rejected.
func Response(r schema.QuestionnaireResponse, t schema.QuestionnaireTemplate) Errors {
	var errs Errors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}
	if r.TemplateID != "" && t.ID != "" && r.TemplateID != t.ID {
		add("response.template_id", "%q does not match template %q", r.TemplateID, t.ID)
	}
	switch r.Status {
	case "", schema.ResponseDraft, schema.ResponseSubmitted:
	default:
		add("response.status", "%q is not one of draft, submitted", r.Status)
	}

	byID := make(map[string]schema.Question)
	for _, q := range t.Questions() {
		byID[q.ID] = q
	}
	for _, id := range sortedKeys(r.Answers) {
		a := r.Answers[id]
		af := fmt.Sprintf("response.answers[%s]", id)
		q, ok := byID[id]
		if !ok {
			add(af, "question %q is not in template %q", id, t.ID)
			continue
		}
		if a.QuestionID != "" && a.QuestionID != id {
			add(af+".question_id", "%q does not match its key", a.QuestionID)
		}
		if a.Value.Kind != schema.KindNone && !kindFits(q.Type, a.Value.Kind) {
			add(af+".value", "%s value does not fit %s question", a.Value.Kind, q.Type)
		}
	}
	return errs
}

// All validates profile, template and response together.
func All(p schema.CompanyProfile, t schema.QuestionnaireTemplate, r schema.QuestionnaireResponse, minVersion string) error {
	var errs Errors
	errs = append(errs, Profile(p)...)
	errs = append(errs, Template(t, minVersion)...)
	errs = append(errs, Response(r, t)...)
	return errs.Err()
}

// kindFits reports whether an answer of kind k can answer a question of type qt.
func kindFits(qt schema.QuestionType, k schema.ValueKind) bool {
	switch qt {
	case schema.TypeBoolean:
		return k == schema.KindBool
	case schema.TypeSingleChoice, schema.TypeText:
		return k == schema.KindString
	case schema.TypeMultipleChoice:
		return k == schema.KindStrings
	case schema.TypeNumber, schema.TypePercentage:
		return k == schema.KindNumber
	case schema.TypeDate:
		return k == schema.KindString || k == schema.KindDate
	}
	return false
}

func needsValue(op schema.Operator) bool {
	return op != schema.OpIsAnswered && op != schema.OpIsNotAnswered && isOperator(op)
}

func isCompanyJurisdiction(j schema.Jurisdiction) bool {
	for _, x := range schema.CompanyJurisdictions() {
		if x == j {
			return true
		}
	}
	return false
}

func isPillar(p schema.Pillar) bool {
	for _, x := range schema.AllPillars() {
		if x == p {
			return true
		}
	}
	return false
}

func isQuestionType(t schema.QuestionType) bool {
	switch t {
	case schema.TypeBoolean, schema.TypeSingleChoice, schema.TypeMultipleChoice,
		schema.TypeText, schema.TypeNumber, schema.TypeDate, schema.TypePercentage:
		return true
	}
	return false
}

func isOperator(op schema.Operator) bool {
	switch op {
	case schema.OpEquals, schema.OpNotEquals, schema.OpContains, schema.OpNotContains,
		schema.OpGreaterThan, schema.OpLessThan, schema.OpIsAnswered, schema.OpIsNotAnswered:
		return true
	}
	return false
}

func sortedKeys(a schema.Answers) []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

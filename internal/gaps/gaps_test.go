package gaps

import (
	"fmt"
	"testing"

	"github.com/dshills/esgcheck/internal/policy"
	"github.com/dshills/esgcheck/internal/schema"
)

func TestSeverity_Thresholds(t *testing.T) {
	th := policy.Default().Severity
	cases := []struct {
		weight    float64
		score     int
		mandatory bool
		want      schema.Severity
	}{
		{10, 0, false, schema.SeverityCritical},
		{7, 0, false, schema.SeverityCritical},
		{10, 40, false, schema.SeverityHigh},
		{5, 0, false, schema.SeverityHigh},
		{4, 0, false, schema.SeverityMedium},
		{10, 80, false, schema.SeverityMedium},
		{1, 0, false, schema.SeverityLow},
		{1, 0, true, schema.SeverityHigh},
		{10, 0, true, schema.SeverityCritical},
		{0, 0, false, schema.SeverityLow},
	}
	for _, c := range cases {
		if got := Severity(c.weight, c.score, c.mandatory, th); got != c.want {
			t.Errorf("Severity(w=%v, score=%d, mandatory=%v) = %q, want %q", c.weight, c.score, c.mandatory, got, c.want)
		}
	}
}

func TestSeverity_Monotonic(t *testing.T) {
	th := policy.Default().Severity
	for _, mandatory := range []bool{false, true} {
		for score := 0; score <= 100; score += 5 {
			prev := -1
			for w := 0.0; w <= 10; w += 0.5 {
				r := schema.SeverityRank(Severity(w, score, mandatory, th))
				if r < prev {
					t.Fatalf("severity decreased as weight rose to %v at score %d", w, score)
				}
				prev = r
			}
		}
		for w := 0.0; w <= 10; w += 0.5 {
			prev := -1
			// decreasing score means increasing score gap
			for score := 100; score >= 0; score -= 5 {
				r := schema.SeverityRank(Severity(w, score, mandatory, th))
				if r < prev {
					t.Fatalf("severity decreased as score gap grew (score %d, weight %v)", score, w)
				}
				prev = r
			}
		}
	}
}

func TestReason(t *testing.T) {
	cases := []struct {
		qs   schema.QuestionScore
		want schema.GapReason
	}{
		{schema.QuestionScore{}, schema.ReasonMissingAnswer},
		{schema.QuestionScore{Answered: true, EvidenceMissing: true}, schema.ReasonMissingEvidence},
		{schema.QuestionScore{Answered: true, Insufficient: true}, schema.ReasonInadequateResponse},
		{schema.QuestionScore{Answered: true, Score: 60}, schema.ReasonLowScore},
	}
	for _, c := range cases {
		if got := Reason(c.qs); got != c.want {
			t.Errorf("Reason(%+v) = %q, want %q", c.qs, got, c.want)
		}
	}
}

func testTemplate() schema.QuestionnaireTemplate {
	return schema.QuestionnaireTemplate{ID: "t", Sections: []schema.Section{
		{Pillar: schema.PillarGovernance, Questions: []schema.Question{
			{ID: "g1", Code: "GOV-001", Pillar: schema.PillarGovernance, Weight: 3},
			{ID: "g2", Code: "GOV-002", Pillar: schema.PillarGovernance, Weight: 9},
			{ID: "g3", Code: "GOV-003", Pillar: schema.PillarGovernance, Weight: 6},
		}},
		{Pillar: schema.PillarESG, Questions: []schema.Question{
			{ID: "e1", Code: "ESG-001", Pillar: schema.PillarESG, Weight: 6},
			{ID: "e2", Code: "ESG-002", Pillar: schema.PillarESG, Weight: 2, Mandatory: true},
		}},
	}}
}

func seqID() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("gap-%d", n)
	}
}

func TestClassify_SkipsSatisfiedAndOrders(t *testing.T) {
	scores := []schema.QuestionScore{
		{QuestionID: "g1", Pillar: schema.PillarGovernance, Weight: 3},
		{QuestionID: "g2", Pillar: schema.PillarGovernance, Weight: 9, Score: 100, Answered: true},
		{QuestionID: "g3", Pillar: schema.PillarGovernance, Weight: 6},
		{QuestionID: "e1", Pillar: schema.PillarESG, Weight: 6},
		{QuestionID: "e2", Pillar: schema.PillarESG, Weight: 2, Score: 60, Answered: true},
	}
	got := Classify(testTemplate(), scores, policy.Default(), seqID())
	if len(got) != 4 {
		t.Fatalf("Classify returned %d gaps, want 4", len(got))
	}
	// g3 and e1: high, weight 6 (template order); e2: mandatory floor high, weight 2; g1: medium.
	wantOrder := []string{"g3", "e1", "e2", "g1"}
	for i, id := range wantOrder {
		if got[i].QuestionID != id {
			t.Errorf("gap[%d] = %s, want %s", i, got[i].QuestionID, id)
		}
		if got[i].ID != fmt.Sprintf("gap-%d", i+1) {
			t.Errorf("gap[%d].ID = %s, want sequential id", i, got[i].ID)
		}
		if got[i].TargetScore != 100 {
			t.Errorf("gap[%d].TargetScore = %d, want 100", i, got[i].TargetScore)
		}
	}
	if got[2].Severity != schema.SeverityHigh || got[2].Reason != schema.ReasonLowScore {
		t.Errorf("mandatory gap = %+v, want high / low_score", got[2])
	}
	if got[3].Severity != schema.SeverityMedium || got[3].Reason != schema.ReasonMissingAnswer {
		t.Errorf("g1 gap = %+v, want medium / missing_answer", got[3])
	}
}

func TestMustQuestion_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for a question outside the template")
		}
	}()
	MustQuestion(testTemplate(), "nope")
}

func TestCountBySeverity(t *testing.T) {
	gs := []schema.Gap{
		{Severity: schema.SeverityCritical},
		{Severity: schema.SeverityCritical},
		{Severity: schema.SeverityHigh},
		{Severity: schema.SeverityLow},
	}
	c, h, m, l := CountBySeverity(gs)
	if c != 2 || h != 1 || m != 0 || l != 1 {
		t.Errorf("CountBySeverity = %d %d %d %d, want 2 1 0 1", c, h, m, l)
	}
}

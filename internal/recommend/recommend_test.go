package recommend

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/esgcheck/internal/schema"
)

func TestBasePriority_Table(t *testing.T) {
	cases := []struct {
		impact, effort schema.Level
		want           int
	}{
		{schema.LevelHigh, schema.LevelLow, 1},
		{schema.LevelHigh, schema.LevelMedium, 2},
		{schema.LevelHigh, schema.LevelHigh, 3},
		{schema.LevelMedium, schema.LevelLow, 2},
		{schema.LevelMedium, schema.LevelHigh, 4},
		{schema.LevelLow, schema.LevelLow, 3},
		{schema.LevelLow, schema.LevelHigh, 5},
	}
	for _, c := range cases {
		got := BasePriority(Template{Impact: c.impact, Effort: c.effort})
		if got != c.want {
			t.Errorf("BasePriority(impact=%s, effort=%s) = %d, want %d", c.impact, c.effort, got, c.want)
		}
	}
	if got := BasePriority(Template{Impact: schema.LevelLow, Effort: schema.LevelHigh, Priority: 2}); got != 2 {
		t.Errorf("declared priority should win, got %d", got)
	}
}

func TestTighten(t *testing.T) {
	cases := []struct {
		base   int
		impact schema.Level
		sev    []schema.Severity
		want   int
	}{
		{3, schema.LevelHigh, []schema.Severity{schema.SeverityCritical}, 1},
		{4, schema.LevelMedium, []schema.Severity{schema.SeverityLow, schema.SeverityCritical}, 2},
		{3, schema.LevelHigh, []schema.Severity{schema.SeverityHigh}, 2},
		{5, schema.LevelLow, []schema.Severity{schema.SeverityHigh}, 3},
		{2, schema.LevelLow, []schema.Severity{schema.SeverityHigh}, 2},
		{4, schema.LevelMedium, []schema.Severity{schema.SeverityMedium}, 4},
	}
	for _, c := range cases {
		if got := Tighten(c.base, c.impact, c.sev); got != c.want {
			t.Errorf("Tighten(%d, %s, %v) = %d, want %d", c.base, c.impact, c.sev, got, c.want)
		}
	}
}

func mustCatalog(t *testing.T, ts ...Template) *Catalog {
	t.Helper()
	c, err := NewCatalog(ts)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	return c
}

func TestMatch_RankingExample(t *testing.T) {
	c := mustCatalog(t,
		Template{ID: "env", Title: "env", Pillar: schema.PillarESG, Effort: schema.LevelMedium, Impact: schema.LevelMedium},
		Template{ID: "gov", Title: "gov", Pillar: schema.PillarGovernance, Effort: schema.LevelHigh, Impact: schema.LevelHigh},
	)
	gaps := []schema.Gap{
		{QuestionID: "e1", Pillar: schema.PillarESG, Severity: schema.SeverityHigh},
		{QuestionID: "g1", Pillar: schema.PillarGovernance, Severity: schema.SeverityCritical},
	}
	recs := Match(gaps, schema.CompanyProfile{Jurisdiction: schema.JurisdictionUAE}, c, 10)
	if len(recs) != 2 {
		t.Fatalf("got %d recommendations, want 2", len(recs))
	}
	if recs[0].ID != "gov" || recs[0].Priority != 1 {
		t.Errorf("first = %s p%d, want gov p1", recs[0].ID, recs[0].Priority)
	}
	if recs[1].ID != "env" || recs[1].Priority != 3 {
		t.Errorf("second = %s p%d, want env p3", recs[1].ID, recs[1].Priority)
	}
}

func TestMatch_MostSpecificTierWins(t *testing.T) {
	c := mustCatalog(t,
		Template{ID: "by-sev", Title: "s", Severities: []schema.Severity{schema.SeverityHigh}, Effort: schema.LevelLow, Impact: schema.LevelLow},
		Template{ID: "by-pillar", Title: "p", Pillar: schema.PillarGovernance, Effort: schema.LevelLow, Impact: schema.LevelLow},
		Template{ID: "by-code", Title: "c", QuestionCodes: []string{"GOV-001"}, Effort: schema.LevelLow, Impact: schema.LevelLow},
		Template{ID: "by-code-ksa", Title: "k", QuestionCodes: []string{"GOV-002"}, Jurisdictions: []schema.Jurisdiction{schema.JurisdictionKSA}, Effort: schema.LevelLow, Impact: schema.LevelLow},
	)
	profile := schema.CompanyProfile{Jurisdiction: schema.JurisdictionUAE}

	recs := Match([]schema.Gap{{QuestionID: "q1", QuestionCode: "GOV-001", Pillar: schema.PillarGovernance, Severity: schema.SeverityHigh}}, profile, c, 10)
	if len(recs) != 1 || recs[0].ID != "by-code" {
		t.Errorf("code match: got %+v, want only by-code", recs)
	}

	// The KSA-only template is dropped, so the pillar tier applies.
	recs = Match([]schema.Gap{{QuestionID: "q2", QuestionCode: "GOV-002", Pillar: schema.PillarGovernance, Severity: schema.SeverityHigh}}, profile, c, 10)
	if len(recs) != 1 || recs[0].ID != "by-pillar" {
		t.Errorf("jurisdiction fallback: got %+v, want only by-pillar", recs)
	}

	recs = Match([]schema.Gap{{QuestionID: "q3", QuestionCode: "ESG-001", Pillar: schema.PillarESG, Severity: schema.SeverityHigh}}, profile, c, 10)
	if len(recs) != 1 || recs[0].ID != "by-sev" {
		t.Errorf("severity fallback: got %+v, want only by-sev", recs)
	}

	recs = Match([]schema.Gap{{QuestionID: "q4", QuestionCode: "ESG-001", Pillar: schema.PillarESG, Severity: schema.SeverityLow}}, profile, c, 10)
	if len(recs) != 0 {
		t.Errorf("no match: got %+v", recs)
	}
}

func TestMatch_MergesRelatedGaps(t *testing.T) {
	c := mustCatalog(t, Template{ID: "gov", Title: "gov", Pillar: schema.PillarGovernance, Effort: schema.LevelLow, Impact: schema.LevelMedium})
	gaps := []schema.Gap{
		{QuestionID: "g1", Pillar: schema.PillarGovernance, Severity: schema.SeverityLow},
		{QuestionID: "g2", Pillar: schema.PillarGovernance, Severity: schema.SeverityLow},
		{QuestionID: "g1", Pillar: schema.PillarGovernance, Severity: schema.SeverityLow},
	}
	recs := Match(gaps, schema.CompanyProfile{}, c, 10)
	if len(recs) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(recs))
	}
	if got := strings.Join(recs[0].RelatedGaps, ","); got != "g1,g2" {
		t.Errorf("related gaps = %s, want g1,g2", got)
	}
	if recs[0].Pillar != schema.PillarGovernance {
		t.Errorf("pillar = %s", recs[0].Pillar)
	}
}

func TestMatch_TruncatesAndCounts(t *testing.T) {
	var ts []Template
	var gaps []schema.Gap
	for i := 0; i < 14; i++ {
		code := "GOV-" + string(rune('A'+i))
		ts = append(ts, Template{ID: "t-" + code, Title: code, QuestionCodes: []string{code}, Effort: schema.LevelLow, Impact: schema.LevelLow})
		sev := schema.SeverityLow
		if i%3 == 0 {
			sev = schema.SeverityCritical
		}
		gaps = append(gaps, schema.Gap{QuestionID: code, QuestionCode: code, Severity: sev})
	}
	recs := Match(gaps, schema.CompanyProfile{}, mustCatalog(t, ts...), 10)
	if len(recs) != 10 {
		t.Fatalf("got %d recommendations, want 10", len(recs))
	}
	// five critical gaps (i = 0, 3, 6, 9, 12) on low-impact templates → priority 2
	if got := CountCritical(recs); got != 5 {
		t.Errorf("CountCritical = %d, want 5", got)
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].Priority < recs[i-1].Priority {
			t.Fatalf("recommendations not sorted by priority: %v then %v", recs[i-1], recs[i])
		}
	}
}

func TestRank_TieBreaks(t *testing.T) {
	recs := []schema.Recommendation{
		{ID: "c", Priority: 2, Impact: schema.LevelMedium, Effort: schema.LevelLow},
		{ID: "b", Priority: 2, Impact: schema.LevelHigh, Effort: schema.LevelHigh},
		{ID: "a", Priority: 2, Impact: schema.LevelHigh, Effort: schema.LevelLow},
		{ID: "d", Priority: 1, Impact: schema.LevelLow, Effort: schema.LevelHigh},
	}
	Rank(recs)
	var ids []string
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	if got := strings.Join(ids, ""); got != "dabc" {
		t.Errorf("Rank order = %s, want dabc", got)
	}
}

func TestNewCatalog_Rejects(t *testing.T) {
	_, err := NewCatalog([]Template{
		{ID: "x", Title: "x", Effort: schema.LevelLow, Impact: schema.LevelLow},
		{ID: "x", Title: "y", Pillar: schema.PillarESG, Effort: "huge", Impact: schema.LevelLow},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"must set question_codes", "duplicated", "effort"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	if c.Len() == 0 {
		t.Fatal("default catalog is empty")
	}
	for _, p := range schema.AllPillars() {
		found := false
		for _, tmpl := range c.Templates() {
			if tmpl.Tier() == 3 && tmpl.Pillar == p {
				found = true
			}
		}
		if !found {
			t.Errorf("no pillar-level template for %s", p)
		}
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	body := `
templates:
  - id: REC-1
    title: Publish a policy
    description: Write it down.
    pillar: governance
    severities: [critical]
    effort: low
    impact: high
    timeframe: immediate
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	ts := c.Templates()
	if len(ts) != 1 || ts[0].Tier() != 2 || ts[0].Timeframe != schema.TimeframeImmediate {
		t.Errorf("loaded %+v", ts)
	}
}

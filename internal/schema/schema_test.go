package schema_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dshills/esgcheck/internal/schema"
)

func TestAnswerValue_DecodeKinds(t *testing.T) {
	cases := []struct {
		raw  string
		kind schema.ValueKind
	}{
		{`true`, schema.KindBool},
		{`false`, schema.KindBool},
		{`"board charter"`, schema.KindString},
		{`["solar","wind"]`, schema.KindStrings},
		{`42.5`, schema.KindNumber},
		{`-3`, schema.KindNumber},
		{`null`, schema.KindNone},
	}
	for _, c := range cases {
		var v schema.AnswerValue
		if err := json.Unmarshal([]byte(c.raw), &v); err != nil {
			t.Errorf("Unmarshal(%s) error: %v", c.raw, err)
			continue
		}
		if v.Kind != c.kind {
			t.Errorf("Unmarshal(%s).Kind = %q, want %q", c.raw, v.Kind, c.kind)
		}
	}
}

func TestAnswerValue_RejectsMixedArray(t *testing.T) {
	var v schema.AnswerValue
	if err := json.Unmarshal([]byte(`["a", 1]`), &v); err == nil {
		t.Fatal("expected error for array with non-string element")
	}
}

func TestAnswerValue_EncodesBareValue(t *testing.T) {
	ans := schema.QuestionAnswer{QuestionID: "q1", Value: schema.Strings("a", "b")}
	b, err := json.Marshal(ans)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(raw["value"]) != `["a","b"]` {
		t.Errorf("value encoded as %s, want [\"a\",\"b\"]", raw["value"])
	}
}

func TestAnswerValue_DateRoundTrip(t *testing.T) {
	d := schema.Date(time.Date(2025, 3, 31, 15, 0, 0, 0, time.UTC))
	b, _ := json.Marshal(d)
	if string(b) != `"2025-03-31"` {
		t.Fatalf("date encoded as %s", b)
	}
	var got schema.AnswerValue
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	tm, ok := got.AsTime()
	if !ok || tm.Day() != 31 || tm.Month() != time.March {
		t.Errorf("AsTime() = %v, %v", tm, ok)
	}
}

func TestAnswerValue_IsEmpty(t *testing.T) {
	if !schema.String("   ").IsEmpty() {
		t.Error("blank string should be empty")
	}
	if schema.Bool(false).IsEmpty() {
		t.Error("explicit false should not be empty")
	}
	if schema.Number(0).IsEmpty() {
		t.Error("zero should not be empty")
	}
	if !(schema.AnswerValue{}).IsEmpty() {
		t.Error("zero AnswerValue should be empty")
	}
}

func TestQuestion_AppliesTo(t *testing.T) {
	uaeListed := schema.CompanyProfile{Jurisdiction: schema.JurisdictionUAE, ListingStatus: schema.ListingListed}
	ksaPrivate := schema.CompanyProfile{Jurisdiction: schema.JurisdictionKSA, ListingStatus: schema.ListingNonListed}

	open := schema.Question{ID: "q"}
	if !open.AppliesTo(uaeListed) || !open.AppliesTo(ksaPrivate) {
		t.Error("question without filters should apply to everyone")
	}

	listedOnly := schema.Question{ListingStatuses: []schema.ListingStatus{schema.ListingListed}}
	if !listedOnly.AppliesTo(uaeListed) {
		t.Error("listed-only question should apply to listed company")
	}
	if listedOnly.AppliesTo(ksaPrivate) {
		t.Error("listed-only question should not apply to non-listed company")
	}

	uaeOnly := schema.Question{Jurisdictions: []schema.Jurisdiction{schema.JurisdictionUAE}}
	if uaeOnly.AppliesTo(ksaPrivate) {
		t.Error("UAE-only question should not apply to KSA company")
	}
}

func TestRanks_StrictlyAscending(t *testing.T) {
	sev := []schema.Severity{schema.SeverityLow, schema.SeverityMedium, schema.SeverityHigh, schema.SeverityCritical}
	for i := 1; i < len(sev); i++ {
		if schema.SeverityRank(sev[i-1]) >= schema.SeverityRank(sev[i]) {
			t.Errorf("SeverityRank(%q) >= SeverityRank(%q)", sev[i-1], sev[i])
		}
	}
	if schema.SeverityRank("urgent") != -1 {
		t.Error("unknown severity should rank -1")
	}
	if schema.LevelRank(schema.LevelHigh) != 2 || schema.LevelRank("x") != -1 {
		t.Error("LevelRank mismatch")
	}
}

func TestAllPillars_FixedOrder(t *testing.T) {
	want := []schema.Pillar{"governance", "esg", "risk_controls", "transparency"}
	got := schema.AllPillars()
	if len(got) != len(want) {
		t.Fatalf("AllPillars() len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("AllPillars()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// Package recommend matches classified gaps against a catalog of
// recommendation templates, merges matches per template, prioritises and
// ranks the result.
package recommend

import (
	"sort"

	"github.com/dshills/esgcheck/internal/schema"
)

// basePriority is indexed by [impact rank][effort rank].
var basePriority = [3][3]int{
	{3, 4, 5}, // impact low
	{2, 3, 4}, // impact medium
	{1, 2, 3}, // impact high
}

// BasePriority returns the template's declared priority, or the effort/impact
// table value when none is declared.
func BasePriority(t Template) int {
	if t.Priority >= 1 && t.Priority <= 5 {
		return t.Priority
	}
	i, e := schema.LevelRank(t.Impact), schema.LevelRank(t.Effort)
	if i < 0 || e < 0 {
		return 5
	}
	return basePriority[i][e]
}

// Tighten lowers a base priority when related gaps are severe. A critical gap
// yields 1 for high-impact templates and 2 otherwise; a high gap yields 2 and
// 3. The more urgent of base and tightened priority wins.
func Tighten(base int, impact schema.Level, severities []schema.Severity) int {
	hasCritical, hasHigh := false, false
	for _, s := range severities {
		switch s {
		case schema.SeverityCritical:
			hasCritical = true
		case schema.SeverityHigh:
			hasHigh = true
		}
	}
	tightened := base
	switch {
	case hasCritical && impact == schema.LevelHigh:
		tightened = 1
	case hasCritical:
		tightened = 2
	case hasHigh && impact == schema.LevelHigh:
		tightened = 2
	case hasHigh:
		tightened = 3
	}
	return min(base, tightened)
}

// candidates returns the catalog indexes that match g, taken from the most
// specific tier with at least one allowed match.
func (c *Catalog) candidates(g schema.Gap, j schema.Jurisdiction) []int {
	for tier := 1; tier <= 4; tier++ {
		var out []int
		for _, i := range c.byTier[tier] {
			t := c.templates[i]
			if t.allows(j) && t.matches(g) {
				out = append(out, i)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// Match produces at most limit recommendations for gaps. Recommendations are
// keyed by template ID, so identical input always yields identical output.
// A limit below 1 disables truncation.
func Match(gaps []schema.Gap, profile schema.CompanyProfile, c *Catalog, limit int) []schema.Recommendation {
	type merged struct {
		tmpl       Template
		related    []string
		seen       map[string]bool
		severities []schema.Severity
		pillar     schema.Pillar
	}
	byIndex := make(map[int]*merged)
	var order []int
	for _, g := range gaps {
		for _, i := range c.candidates(g, profile.Jurisdiction) {
			m, ok := byIndex[i]
			if !ok {
				m = &merged{tmpl: c.templates[i], seen: make(map[string]bool), pillar: c.templates[i].Pillar}
				if m.pillar == "" {
					m.pillar = g.Pillar
				}
				byIndex[i] = m
				order = append(order, i)
			}
			if !m.seen[g.QuestionID] {
				m.seen[g.QuestionID] = true
				m.related = append(m.related, g.QuestionID)
			}
			m.severities = append(m.severities, g.Severity)
		}
	}

	recs := make([]schema.Recommendation, 0, len(order))
	for _, i := range order {
		m := byIndex[i]
		recs = append(recs, schema.Recommendation{
			ID:          m.tmpl.ID,
			Priority:    Tighten(BasePriority(m.tmpl), m.tmpl.Impact, m.severities),
			Title:       m.tmpl.Title,
			Description: m.tmpl.Description,
			RelatedGaps: m.related,
			Pillar:      m.pillar,
			Effort:      m.tmpl.Effort,
			Impact:      m.tmpl.Impact,
			Timeframe:   m.tmpl.Timeframe,
		})
	}
	Rank(recs)
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}

// Rank sorts recommendations by priority ascending, impact descending, effort
// ascending and finally ID.
func Rank(recs []schema.Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if ai, bi := schema.LevelRank(a.Impact), schema.LevelRank(b.Impact); ai != bi {
			return ai > bi
		}
		if ae, be := schema.LevelRank(a.Effort), schema.LevelRank(b.Effort); ae != be {
			return ae < be
		}
		return a.ID < b.ID
	})
}

// CountCritical returns the number of recommendations with priority 1 or 2.
func CountCritical(recs []schema.Recommendation) int {
	n := 0
	for _, r := range recs {
		if r.Priority <= 2 {
			n++
		}
	}
	return n
}

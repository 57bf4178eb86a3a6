// Package render produces JSON and Markdown output from assessment results,
// outlines and disclosure packs.
package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dshills/esgcheck/internal/explain"
	"github.com/dshills/esgcheck/internal/schema"
)

// RenderJSON produces a pretty-printed JSON representation of v.
func RenderJSON(v any) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("render: nil value")
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render: json marshal: %w", err)
	}
	return b, nil
}

// RenderMarkdown produces a GitHub-flavoured Markdown summary of an
// assessment result. Every gap code and recommendation ID in the result
// appears in the output.
func RenderMarkdown(res *schema.AssessmentResult) string {
	if res == nil {
		return ""
	}
	var sb strings.Builder

	sb.WriteString("## ESG Assessment\n\n")
	fmt.Fprintf(&sb, "**Overall score:** %d/100  \n", res.OverallScore)
	fmt.Fprintf(&sb, "**Status:** %s  \n", res.Status)
	fmt.Fprintf(&sb, "**Completion:** %.1f%%  \n", res.CompletionRate)
	fmt.Fprintf(&sb, "**Gaps:** %d (%d critical) | **Recommendations:** %d (%d urgent)\n\n",
		res.GapCount, res.CriticalGapCount, len(res.Recommendations), res.CriticalRecommendationCount)

	sb.WriteString("## Pillars\n\n")
	sb.WriteString("| Pillar | Score | Weight | Contribution | Completed |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	for _, pc := range res.Explanation.PillarBreakdown {
		completed := ""
		for _, ps := range res.PillarScores {
			if ps.Pillar == pc.Pillar {
				completed = fmt.Sprintf("%d/%d", ps.CompletedQuestions, ps.TotalQuestions)
			}
		}
		fmt.Fprintf(&sb, "| %s | %d | %.0f%% | %d | %s |\n",
			explain.PillarName(pc.Pillar), pc.Score, pc.Weight*100, pc.Contribution, completed)
	}
	sb.WriteString("\n")

	writeList(&sb, "Strengths", res.Explanation.Strengths)
	writeList(&sb, "Weaknesses", res.Explanation.Weaknesses)

	if len(res.Gaps) > 0 {
		sb.WriteString("## Gaps\n\n")
		sb.WriteString("| Code | Pillar | Severity | Reason | Score |\n")
		sb.WriteString("|---|---|---|---|---|\n")
		for _, g := range res.Gaps {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %d/%d |\n",
				g.QuestionCode, explain.PillarName(g.Pillar), g.Severity, g.Reason, g.CurrentScore, g.TargetScore)
		}
		sb.WriteString("\n")
	}

	if len(res.Recommendations) > 0 {
		sb.WriteString("## Recommendations\n\n")
		for _, r := range res.Recommendations {
			fmt.Fprintf(&sb, "<details>\n<summary><strong>P%d %s</strong> %s</summary>\n\n",
				r.Priority, r.ID, mdEscape(r.Title))
			if r.Description != "" {
				fmt.Fprintf(&sb, "%s\n\n", mdEscape(r.Description))
			}
			fmt.Fprintf(&sb, "**Effort:** %s | **Impact:** %s | **Timeframe:** %s\n\n", r.Effort, r.Impact, r.Timeframe)
			if len(r.RelatedGaps) > 0 {
				fmt.Fprintf(&sb, "**Related questions:** %s\n\n", strings.Join(r.RelatedGaps, ", "))
			}
			sb.WriteString("</details>\n\n")
		}
	}

	return sb.String()
}

// RenderOutlineMarkdown renders a disclosure outline as nested lists.
func RenderOutlineMarkdown(sections []schema.OutlineSection) string {
	var sb strings.Builder
	sb.WriteString("## Disclosure Outline\n\n")
	if len(sections) == 0 {
		sb.WriteString("_No requirements match the selected frameworks._\n")
		return sb.String()
	}
	for _, s := range sections {
		fmt.Fprintf(&sb, "### %s\n\n", s.Topic)
		for _, it := range s.Items {
			listed := ""
			if it.IsListedOnly {
				listed = " (listed only)"
			}
			fmt.Fprintf(&sb, "- **%s** %s [%s, %s]%s\n", it.ID, mdEscape(it.Title), it.Framework, it.RequiredEvidence, listed)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "## %s\n\n", title)
	for _, s := range items {
		fmt.Fprintf(sb, "- %s\n", mdEscape(s))
	}
	sb.WriteString("\n")
}

// mdEscape replaces characters that would break Markdown table cells.
func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	return s
}

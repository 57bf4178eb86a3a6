package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/esgcheck/internal/explain"
	"github.com/dshills/esgcheck/internal/render"
	"github.com/dshills/esgcheck/internal/schema"
	"github.com/dshills/esgcheck/internal/store"
	"github.com/dshills/esgcheck/internal/validate"
)

type assessFlags struct {
	profileFile   string
	templateFile  string
	responseFiles []string
	engine        engineConfig
	format        string
	out           string
	failUnder     int
	storeDSN      string
	quiet         bool
	debug         bool
}

func newAssessCmd() *cobra.Command {
	var f assessFlags
	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Score questionnaire responses and report gaps and recommendations",
		Long: `Assess scores one or more questionnaire responses against a template for a
company profile. Several --response files are assessed concurrently; the output
is then a JSON array (or one Markdown report per response).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAssess(cmd.Context(), f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.profileFile, "profile", "", "company profile JSON file (required)")
	fl.StringVar(&f.templateFile, "template", "", "questionnaire template JSON file (required)")
	fl.StringSliceVar(&f.responseFiles, "response", nil, "questionnaire response JSON file (repeatable, required)")
	fl.StringVar(&f.engine.policyFile, "policy", envOr("ESGCHECK_POLICY", ""), "policy YAML file (env ESGCHECK_POLICY)")
	fl.StringVar(&f.engine.catalogFile, "catalog", "", "recommendation catalog YAML file")
	fl.StringVar(&f.format, "format", "json", "output format: json or md")
	fl.StringVar(&f.out, "out", "", "write output to file instead of stdout")
	fl.IntVar(&f.failUnder, "fail-under", 0, "exit 2 when any overall score is below this value")
	fl.StringVar(&f.storeDSN, "store", envOr("DATABASE_URL", ""), "persist results to postgres://... or sqlite:<path> (env DATABASE_URL)")
	fl.BoolVar(&f.quiet, "quiet", false, "suppress the terminal summary")
	fl.BoolVar(&f.debug, "debug", false, "enable debug logging")
	return cmd
}

func runAssess(ctx context.Context, f assessFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if f.format != "json" && f.format != "md" {
		return exitf(exitCodeBadInput, "unknown --format %q (want json or md)", f.format)
	}
	if len(f.responseFiles) == 0 {
		return exitf(exitCodeBadInput, "--response is required")
	}
	logger := newLogger(f.debug)

	var profile schema.CompanyProfile
	if err := loadJSON(f.profileFile, "profile", &profile); err != nil {
		return err
	}
	var tmpl schema.QuestionnaireTemplate
	if err := loadJSON(f.templateFile, "template", &tmpl); err != nil {
		return err
	}
	engine, err := buildEngine(f.engine, logger)
	if err != nil {
		return err
	}

	results := make([]*schema.AssessmentResult, len(f.responseFiles))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, path := range f.responseFiles {
		g.Go(func() error {
			var resp schema.QuestionnaireResponse
			if err := loadJSON(path, "response", &resp); err != nil {
				return err
			}
			res, err := engine.Assess(profile, tmpl, resp)
			if err != nil {
				var ve validate.Errors
				if errors.As(err, &ve) {
					return exitf(exitCodeBadInput, "%s: %w", path, err)
				}
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if f.storeDSN != "" {
		repo, err := store.Open(ctx, f.storeDSN)
		if err != nil {
			return exitf(exitCodeAPIError, "%w", err)
		}
		defer repo.Close()
		for _, res := range results {
			if err := repo.Save(ctx, res); err != nil {
				return exitf(exitCodeAPIError, "%w", err)
			}
		}
		logger.Debug("results stored", "count", len(results))
	}

	out, err := formatResults(results, f.format)
	if err != nil {
		return err
	}
	if err := writeOutput(f.out, out); err != nil {
		return err
	}
	if !f.quiet {
		for _, res := range results {
			printSummary(os.Stderr, res)
		}
	}

	if f.failUnder > 0 {
		for i, res := range results {
			if res.OverallScore < f.failUnder {
				return exitf(exitCodeFailUnder, "%s: overall score %d is below --fail-under %d",
					f.responseFiles[i], res.OverallScore, f.failUnder)
			}
		}
	}
	return nil
}

func formatResults(results []*schema.AssessmentResult, format string) ([]byte, error) {
	if format == "md" {
		parts := make([]string, len(results))
		for i, res := range results {
			parts[i] = render.RenderMarkdown(res)
		}
		return []byte(strings.Join(parts, "\n---\n\n")), nil
	}
	if len(results) == 1 {
		return render.RenderJSON(results[0])
	}
	return render.RenderJSON(results)
}

func printSummary(w io.Writer, res *schema.AssessmentResult) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	scoreColor := green
	switch {
	case res.OverallScore < 50:
		scoreColor = red
	case res.OverallScore < 80:
		scoreColor = yellow
	}

	fmt.Fprintf(w, "%s %s\n", cyan("Assessment"), res.ID)
	fmt.Fprintf(w, "  Overall:    %s  (%s, %.1f%% complete)\n",
		scoreColor(fmt.Sprintf("%d/100", res.OverallScore)), res.Status, res.CompletionRate)
	for _, ps := range res.PillarScores {
		fmt.Fprintf(w, "  %-15s %3d\n", explain.PillarName(ps.Pillar), ps.Score)
	}
	gapText := fmt.Sprintf("%d gaps", res.GapCount)
	if res.CriticalGapCount > 0 {
		gapText += ", " + red(fmt.Sprintf("%d critical", res.CriticalGapCount))
	}
	fmt.Fprintf(w, "  %s; %d recommendations\n", gapText, len(res.Recommendations))
}

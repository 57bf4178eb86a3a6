package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/dshills/esgcheck/internal/disclosure"
	"github.com/dshills/esgcheck/internal/narrative"
	"github.com/dshills/esgcheck/internal/render"
	"github.com/dshills/esgcheck/internal/schema"
	"github.com/dshills/esgcheck/internal/validate"
)

type packFlags struct {
	profileFile      string
	templateFile     string
	responseFile     string
	frameworks       []string
	requirementsFile string
	engine           engineConfig
	out              string
	debug            bool
}

func newPackCmd() *cobra.Command {
	var f packFlags
	cmd := &cobra.Command{
		Use:   "pack",
		Short: "Assemble a disclosure pack for narrative generation",
		Long: `Pack bundles the company profile, disclosure outline and template reference.
When --template and --response are given the pack also carries the assessment
scores, gaps and numeric metrics.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runPack(f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.profileFile, "profile", "", "company profile JSON file (required)")
	fl.StringVar(&f.templateFile, "template", "", "questionnaire template JSON file")
	fl.StringVar(&f.responseFile, "response", "", "questionnaire response JSON file")
	fl.StringSliceVar(&f.frameworks, "framework", nil, "framework code (repeatable; default all)")
	fl.StringVar(&f.requirementsFile, "requirements", "", "requirement catalog YAML file")
	fl.StringVar(&f.engine.policyFile, "policy", envOr("ESGCHECK_POLICY", ""), "policy YAML file (env ESGCHECK_POLICY)")
	fl.StringVar(&f.out, "out", "", "write output to file instead of stdout")
	fl.BoolVar(&f.debug, "debug", false, "enable debug logging")
	return cmd
}

func runPack(f packFlags) error {
	var profile schema.CompanyProfile
	if err := loadJSON(f.profileFile, "profile", &profile); err != nil {
		return err
	}
	if err := validate.Profile(profile).Err(); err != nil {
		return exitf(exitCodeBadInput, "%w", err)
	}
	dt, err := disclosure.Select(profile)
	if err != nil {
		return exitf(exitCodeBadInput, "%w", err)
	}
	frameworks, err := resolveFrameworks(f.frameworks)
	if err != nil {
		return err
	}
	outline, err := buildOutline(profile, frameworks, f.requirementsFile)
	if err != nil {
		return err
	}

	var (
		result  *schema.AssessmentResult
		metrics []disclosure.Metric
	)
	if (f.templateFile == "") != (f.responseFile == "") {
		return exitf(exitCodeBadInput, "--template and --response must be given together")
	}
	if f.templateFile != "" {
		var tmpl schema.QuestionnaireTemplate
		if err := loadJSON(f.templateFile, "template", &tmpl); err != nil {
			return err
		}
		var resp schema.QuestionnaireResponse
		if err := loadJSON(f.responseFile, "response", &resp); err != nil {
			return err
		}
		engine, err := buildEngine(f.engine, newLogger(f.debug))
		if err != nil {
			return err
		}
		if result, err = engine.Assess(profile, tmpl, resp); err != nil {
			return exitf(exitCodeBadInput, "%w", err)
		}
		metrics = disclosure.ExtractMetrics(tmpl, resp.Answers)
	}

	pack := disclosure.BuildPack(profile, frameworks, dt, outline, result, metrics, nil)
	out, err := render.RenderJSON(pack)
	if err != nil {
		return err
	}
	return writeOutput(f.out, out)
}

type narrateFlags struct {
	packFile          string
	provider          string
	model             string
	maxTokens         int
	temperature       float64
	lang              string
	requestsPerMinute int
	timeout           time.Duration
	out               string
	debug             bool
}

func newNarrateCmd() *cobra.Command {
	var f narrateFlags
	cmd := &cobra.Command{
		Use:   "narrate",
		Short: "Fill a disclosure pack's narratives using an LLM provider",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runNarrate(cmd.Context(), f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.packFile, "pack", "", "disclosure pack JSON file produced by `esgcheck pack` (required)")
	fl.StringVar(&f.provider, "provider", envOr("ESGCHECK_PROVIDER", "anthropic"), "anthropic, openai or google")
	fl.StringVar(&f.model, "model", "", "model name (default depends on provider)")
	fl.IntVar(&f.maxTokens, "max-tokens", 2048, "maximum tokens per section")
	fl.Float64Var(&f.temperature, "temperature", 0.2, "sampling temperature")
	fl.StringVar(&f.lang, "lang", "en", "prompt language: en or ar")
	fl.IntVar(&f.requestsPerMinute, "rpm", 0, "maximum provider requests per minute (0 = unlimited)")
	fl.DurationVar(&f.timeout, "timeout", 5*time.Minute, "overall deadline")
	fl.StringVar(&f.out, "out", "", "write output to file instead of stdout")
	fl.BoolVar(&f.debug, "debug", false, "enable debug logging")
	return cmd
}

func runNarrate(ctx context.Context, f narrateFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if f.packFile == "" {
		return exitf(exitCodeBadInput, "--pack is required")
	}
	data, err := os.ReadFile(f.packFile)
	if err != nil {
		return exitf(exitCodeBadInput, "read pack: %w", err)
	}
	var pack disclosure.Pack
	if err := json.Unmarshal(data, &pack); err != nil {
		return exitf(exitCodeBadInput, "parse pack %s: %w", f.packFile, err)
	}
	tag, err := language.Parse(f.lang)
	if err != nil {
		return exitf(exitCodeBadInput, "--lang: %w", err)
	}
	dt, err := disclosure.Select(schema.CompanyProfile{
		Jurisdiction:  pack.Company.Jurisdiction,
		ListingStatus: pack.Company.ListingStatus,
	})
	if err != nil {
		return exitf(exitCodeBadInput, "%w", err)
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}
	narratives, err := narrative.Generate(ctx, pack, dt, narrative.Options{
		Provider:          f.provider,
		Model:             f.model,
		MaxTokens:         f.maxTokens,
		Temperature:       f.temperature,
		Language:          tag,
		RequestsPerMinute: f.requestsPerMinute,
		Logger:            newLogger(f.debug),
	})
	if err != nil {
		if errors.Is(err, narrative.ErrInvalidModelOutput) {
			return exitf(exitCodeBadOutput, "%w", err)
		}
		return exitf(exitCodeAPIError, "%w", err)
	}
	if pack.Narratives == nil {
		pack.Narratives = make(map[schema.Pillar]string, len(narratives))
	}
	for p, text := range narratives {
		pack.Narratives[p] = text
	}

	out, err := render.RenderJSON(pack)
	if err != nil {
		return err
	}
	return writeOutput(f.out, out)
}

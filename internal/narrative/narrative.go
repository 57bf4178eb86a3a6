// Package narrative hands a disclosure pack to an LLM provider and collects
// one narrative per template section. The assessment engine never imports
// this package.
package narrative

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"github.com/dshills/esgcheck/internal/disclosure"
	"github.com/dshills/esgcheck/internal/schema"
)

// ErrInvalidModelOutput is returned when both the initial and repair
// responses for a section fail validation.
var ErrInvalidModelOutput = errors.New("narrative: invalid model output after repair attempt")

// Provider is the interface for LLM backends.
type Provider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error)
}

// NewProvider is the factory for creating providers. Tests replace it with a
// mock and restore it with t.Cleanup.
var NewProvider func(providerName, model string) (Provider, error) = defaultNewProvider

// Options configures a Generate call.
type Options struct {
	Provider    string
	Model       string
	MaxTokens   int
	Temperature float64
	// Language selects the user prompt language. Zero means English.
	Language language.Tag
	// RequestsPerMinute paces provider calls. Zero disables pacing.
	RequestsPerMinute int
	Logger            *slog.Logger
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider string) string {
	switch strings.ToLower(provider) {
	case "openai":
		return "gpt-4o"
	case "google":
		return "gemini-1.5-pro"
	default:
		return "claude-sonnet-4-5"
	}
}

// ValidationError records a single validation failure on a model response.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

type sectionOutput struct {
	Narrative string `json:"narrative"`
}

// Generate produces one narrative per section of t, keyed by pillar.
func Generate(ctx context.Context, pack disclosure.Pack, t disclosure.Template, opts Options) (map[schema.Pillar]string, error) {
	provider, err := NewProvider(opts.Provider, opts.Model)
	if err != nil {
		return nil, fmt.Errorf("narrative: create provider: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	limit := rate.Inf
	if opts.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(opts.RequestsPerMinute))
	}
	limiter := rate.NewLimiter(limit, 1)

	packJSON, err := json.MarshalIndent(pack, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("narrative: marshal pack: %w", err)
	}

	out := make(map[schema.Pillar]string, len(t.Sections))
	for _, s := range t.Sections {
		userPrompt := buildUserPrompt(s, opts.Language, packJSON)
		sysPrompt := s.SystemPrompt + "\n\n" + outputSchema

		text, err := completeSection(ctx, provider, limiter, sysPrompt, userPrompt, opts)
		if err != nil {
			return nil, fmt.Errorf("narrative: section %s: %w", s.Pillar, err)
		}
		logger.Debug("narrative section generated", "template", t.ID, "pillar", s.Pillar, "chars", len(text))
		out[s.Pillar] = text
	}
	return out, nil
}

// completeSection calls the provider and performs one repair attempt when
// the response fails validation.
func completeSection(ctx context.Context, p Provider, limiter *rate.Limiter, sysPrompt, userPrompt string, opts Options) (string, error) {
	if err := limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}
	raw, err := p.Complete(ctx, sysPrompt, userPrompt, opts.MaxTokens, opts.Temperature)
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}
	text, errs := ValidateResponse(raw)
	if len(errs) == 0 {
		return text, nil
	}

	if err := limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}
	raw2, err := p.Complete(ctx, sysPrompt, buildRepairPrompt(userPrompt, raw, errs), opts.MaxTokens, opts.Temperature)
	if err != nil {
		return "", fmt.Errorf("repair complete: %w", err)
	}
	text, errs = ValidateResponse(raw2)
	if len(errs) == 0 {
		return text, nil
	}
	return "", ErrInvalidModelOutput
}

// fenceRe matches a markdown code fence block with an optional language tag.
var fenceRe = regexp.MustCompile("(?s)^(?:`{3}|~{3})[^\\n]*\\n(.*?)(?:`{3}|~{3})\\s*$")

// openFenceRe matches an opening fence line left by a truncated response.
var openFenceRe = regexp.MustCompile("^(?:`{3}|~{3})[^\\n]*\\n")

func stripMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	if loc := openFenceRe.FindStringIndex(s); loc != nil {
		return strings.TrimSpace(s[loc[1]:])
	}
	return s
}

// ValidateResponse parses a section response and returns its narrative.
func ValidateResponse(raw string) (string, []ValidationError) {
	raw = stripMarkdownFences(raw)
	var out sectionOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return "", []ValidationError{{Field: "json_parse", Message: err.Error()}}
	}
	text := strings.TrimSpace(out.Narrative)
	if text == "" {
		return "", []ValidationError{{Field: "required_field", Message: "narrative is missing or empty"}}
	}
	return text, nil
}

const outputSchema = `Output ONLY valid JSON of the form {"narrative": "<section text>"}. ` +
	`No prose or markdown outside the JSON.`

func buildUserPrompt(s disclosure.Section, lang language.Tag, packJSON []byte) string {
	var sb strings.Builder
	sb.WriteString(s.UserPrompt.In(lang))
	sb.WriteString("\n\nSection: ")
	sb.WriteString(s.Title.In(lang))
	sb.WriteString("\n\nDISCLOSURE PACK:\n")
	sb.Write(packJSON)
	sb.WriteString("\n\nProduce the JSON now.")
	return sb.String()
}

func buildRepairPrompt(originalUserPrompt, previousResponse string, errs []ValidationError) string {
	var sb strings.Builder
	sb.WriteString(originalUserPrompt)
	sb.WriteString("\n\nYour previous response was:\n")
	sb.WriteString(previousResponse)
	sb.WriteString("\n\nThat response was invalid. Errors:\n")
	for _, e := range errs {
		fmt.Fprintf(&sb, "  - %s\n", e.Error())
	}
	sb.WriteString("\nPlease output only the corrected JSON.")
	return sb.String()
}

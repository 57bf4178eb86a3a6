package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/esgcheck/internal/render"
	"github.com/dshills/esgcheck/internal/requirements"
	"github.com/dshills/esgcheck/internal/schema"
	"github.com/dshills/esgcheck/internal/validate"
)

type outlineFlags struct {
	profileFile      string
	frameworks       []string
	requirementsFile string
	format           string
	out              string
}

func newOutlineCmd() *cobra.Command {
	var f outlineFlags
	cmd := &cobra.Command{
		Use:   "outline",
		Short: "Build the disclosure outline for a company and set of frameworks",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runOutline(f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.profileFile, "profile", "", "company profile JSON file (required)")
	fl.StringSliceVar(&f.frameworks, "framework", nil,
		"framework code (repeatable; default all): "+strings.Join(requirements.Frameworks(), ", "))
	fl.StringVar(&f.requirementsFile, "requirements", "", "requirement catalog YAML file")
	fl.StringVar(&f.format, "format", "json", "output format: json or md")
	fl.StringVar(&f.out, "out", "", "write output to file instead of stdout")
	return cmd
}

func runOutline(f outlineFlags) error {
	var profile schema.CompanyProfile
	if err := loadJSON(f.profileFile, "profile", &profile); err != nil {
		return err
	}
	sections, err := buildOutline(profile, f.frameworks, f.requirementsFile)
	if err != nil {
		return err
	}
	var out []byte
	switch f.format {
	case "json":
		if out, err = render.RenderJSON(sections); err != nil {
			return err
		}
	case "md":
		out = []byte(render.RenderOutlineMarkdown(sections))
	default:
		return exitf(exitCodeBadInput, "unknown --format %q (want json or md)", f.format)
	}
	return writeOutput(f.out, out)
}

// resolveFrameworks checks the codes and expands an empty list to every
// known framework.
func resolveFrameworks(codes []string) ([]string, error) {
	if len(codes) == 0 {
		return requirements.Frameworks(), nil
	}
	out := make([]string, len(codes))
	for i, c := range codes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if !requirements.IsFramework(c) {
			return nil, exitf(exitCodeBadInput, "unknown framework %q (want one of %s)",
				c, strings.Join(requirements.Frameworks(), ", "))
		}
		out[i] = c
	}
	return out, nil
}

func buildOutline(profile schema.CompanyProfile, frameworks []string, requirementsFile string) ([]schema.OutlineSection, error) {
	if err := validate.Profile(profile).Err(); err != nil {
		return nil, exitf(exitCodeBadInput, "%w", err)
	}
	codes, err := resolveFrameworks(frameworks)
	if err != nil {
		return nil, err
	}
	reg, err := loadRegistry(requirementsFile)
	if err != nil {
		return nil, err
	}
	sections := reg.BuildOutline(profile.Jurisdiction, profile.IsListed(), codes)
	if sections == nil {
		sections = []schema.OutlineSection{}
	}
	return sections, nil
}

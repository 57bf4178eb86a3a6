package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/esgcheck/internal/disclosure"
	"github.com/dshills/esgcheck/internal/render"
	"github.com/dshills/esgcheck/internal/schema"
)

type templateFlags struct {
	jurisdiction string
	listing      string
	list         bool
	out          string
}

func newTemplateCmd() *cobra.Command {
	var f templateFlags
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Show the disclosure template for a jurisdiction and listing status",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runTemplate(f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.jurisdiction, "jurisdiction", "", "UAE, KSA or QATAR")
	fl.StringVar(&f.listing, "listing", string(schema.ListingNonListed), "listed or non_listed")
	fl.BoolVar(&f.list, "list", false, "list registered template keys")
	fl.StringVar(&f.out, "out", "", "write output to file instead of stdout")
	return cmd
}

func runTemplate(f templateFlags) error {
	if f.list {
		return writeOutput(f.out, []byte(strings.Join(disclosure.Keys(), "\n")))
	}
	if f.jurisdiction == "" {
		return exitf(exitCodeBadInput, "--jurisdiction is required")
	}
	p := schema.CompanyProfile{
		Jurisdiction:  schema.Jurisdiction(strings.ToUpper(f.jurisdiction)),
		ListingStatus: schema.ListingStatus(strings.ToLower(f.listing)),
	}
	t, err := disclosure.Select(p)
	if err != nil {
		var nf *disclosure.TemplateNotFoundError
		if errors.As(err, &nf) {
			return exitf(exitCodeBadInput, "%w", err)
		}
		return err
	}
	out, err := render.RenderJSON(t)
	if err != nil {
		return err
	}
	return writeOutput(f.out, out)
}

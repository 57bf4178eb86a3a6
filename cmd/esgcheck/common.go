package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dshills/esgcheck/internal/assessment"
	"github.com/dshills/esgcheck/internal/policy"
	"github.com/dshills/esgcheck/internal/recommend"
	"github.com/dshills/esgcheck/internal/requirements"
)

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadJSON decodes a JSON file, reporting failures as bad input.
func loadJSON(path, what string, v any) error {
	if path == "" {
		return exitf(exitCodeBadInput, "--%s is required", what)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return exitf(exitCodeBadInput, "read %s: %w", what, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return exitf(exitCodeBadInput, "parse %s %s: %w", what, path, err)
	}
	return nil
}

// engineConfig names the optional policy and catalog files behind an engine.
type engineConfig struct {
	policyFile  string
	catalogFile string
}

func buildEngine(cfg engineConfig, logger *slog.Logger) (*assessment.Engine, error) {
	opts := []assessment.Option{assessment.WithLogger(logger)}
	if cfg.policyFile != "" {
		p, err := policy.Load(cfg.policyFile)
		if err != nil {
			return nil, exitf(exitCodeBadInput, "%w", err)
		}
		opts = append(opts, assessment.WithPolicy(p))
	}
	if cfg.catalogFile != "" {
		c, err := recommend.LoadCatalog(cfg.catalogFile)
		if err != nil {
			return nil, exitf(exitCodeBadInput, "%w", err)
		}
		opts = append(opts, assessment.WithCatalog(c))
	}
	return assessment.New(opts...), nil
}

func loadRegistry(path string) (*requirements.Registry, error) {
	if path == "" {
		return requirements.Default(), nil
	}
	r, err := requirements.Load(path)
	if err != nil {
		return nil, exitf(exitCodeBadInput, "%w", err)
	}
	return r, nil
}

// writeOutput writes b to path, or to stdout when path is empty.
func writeOutput(path string, b []byte) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if len(b) > 0 && b[len(b)-1] != '\n' {
		_, _ = io.WriteString(w, "\n")
	}
	return nil
}

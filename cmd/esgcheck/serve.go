package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/esgcheck/internal/httpapi"
	"github.com/dshills/esgcheck/internal/store"
)

type serveFlags struct {
	addr             string
	storeDSN         string
	engine           engineConfig
	requirementsFile string
	debug            bool
}

func newServeCmd() *cobra.Command {
	var f serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.addr, "addr", envOr("ESGCHECK_ADDR", ":8080"), "listen address (env ESGCHECK_ADDR)")
	fl.StringVar(&f.storeDSN, "store", envOr("DATABASE_URL", ""), "postgres://... or sqlite:<path> (env DATABASE_URL)")
	fl.StringVar(&f.engine.policyFile, "policy", envOr("ESGCHECK_POLICY", ""), "policy YAML file (env ESGCHECK_POLICY)")
	fl.StringVar(&f.engine.catalogFile, "catalog", "", "recommendation catalog YAML file")
	fl.StringVar(&f.requirementsFile, "requirements", "", "requirement catalog YAML file")
	fl.BoolVar(&f.debug, "debug", false, "enable debug logging")
	return cmd
}

func runServe(ctx context.Context, f serveFlags) error {
	logger := newLogger(f.debug)
	engine, err := buildEngine(f.engine, logger)
	if err != nil {
		return err
	}
	reg, err := loadRegistry(f.requirementsFile)
	if err != nil {
		return err
	}

	var repo store.Repository
	if f.storeDSN != "" {
		if repo, err = store.Open(ctx, f.storeDSN); err != nil {
			return exitf(exitCodeAPIError, "%w", err)
		}
		defer repo.Close()
	} else {
		logger.Warn("no result store configured; read routes will answer 501")
	}

	srv := &http.Server{
		Addr:              f.addr,
		Handler:           httpapi.New(engine, reg, repo, logger).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Info("listening", "addr", f.addr)

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

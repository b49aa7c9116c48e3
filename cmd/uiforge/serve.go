package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"uiforge/catalog"
	"uiforge/internal/api"
	"uiforge/internal/metrics"
	"uiforge/internal/registry"
	"uiforge/internal/store"
)

// ShutdownTimeout is how long in-flight requests get to finish.
const ShutdownTimeout = 30 * time.Second

func (a *app) serveCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the document API over HTTP",
		Long: `Serve every document in the database over a JSON HTTP API.

Open documents are kept in memory and saved in the background. When a
catalog file is configured it is reloaded whenever it changes.

Examples:
  uiforge serve                          # Listen on $UIFORGE_LISTEN or :7450
  uiforge serve --listen 127.0.0.1:8080
  UIFORGE_CATALOG=catalog.yaml uiforge serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen != "" {
				a.cfg.Listen = listen
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	logger := a.logger

	db, err := store.Open(a.cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	cat, err := a.catalog()
	if err != nil {
		return err
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(promReg)

	reg := registry.New(db, registry.Config{
		MaxOpen:          a.cfg.MaxOpenDocs,
		IdleTTL:          a.cfg.IdleTTL,
		HistoryCapacity:  a.cfg.HistoryCapacity,
		AutosaveInterval: a.cfg.AutosaveInterval,
		Catalog:          cat,
		Recorder:         m,
		Observer:         m,
		Logger:           logger,
	})

	srv := &http.Server{
		Addr: a.cfg.Listen,
		Handler: api.NewRouter(api.Deps{
			Registry: reg,
			Store:    db,
			Catalog:  cat,
			Config:   a.cfg,
			Logger:   logger,
			Metrics:  m,
			Gatherer: promReg,
		}),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	if a.cfg.CatalogPath != "" {
		g.Go(func() error {
			return catalog.Watch(gctx, a.cfg.CatalogPath, cat, logger)
		})
	}
	g.Go(func() error {
		logger.Info("uiforge listening",
			zap.String("listen", a.cfg.Listen),
			zap.String("db", a.cfg.DBPath),
			zap.String("version", a.cfg.Version))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown error", zap.Error(err))
		}
		return nil
	})

	err = g.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if cerr := reg.Close(closeCtx); cerr != nil {
		logger.Warn("saving open documents", zap.Error(cerr))
	}
	logger.Info("uiforge stopped")
	return err
}

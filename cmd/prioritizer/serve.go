package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/Prioritizer/internal/api"
	"github.com/MikeSquared-Agency/Prioritizer/internal/hermes"
	"github.com/MikeSquared-Agency/Prioritizer/internal/rating"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and metrics servers.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func serve(parent context.Context) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	logger = cfg.Logging.NewLogger(os.Stdout)

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	tree, err := cfg.WeightTree()
	if err != nil {
		return fmt.Errorf("load weight template: %w", err)
	}

	// Database
	db, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	// Hermes (optional)
	var hermesClient hermes.Client
	if cfg.Hermes.URL != "" {
		hc, err := hermes.NewNATSClient(ctx, cfg.Hermes.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to hermes, running without events", "error", err)
		} else {
			hermesClient = hc
			defer hc.Close()
			logger.Info("connected to hermes")
		}
	}

	svc, err := rating.New(db, hermesClient, tree, rating.Options{
		MaxConsistencyRatio: cfg.Scoring.MaxConsistencyRatio,
		RejectInconsistent:  cfg.Scoring.RejectInconsistent,
		Workers:             cfg.Scoring.RecomputeWorkers,
	}, rating.NewMetrics(prometheus.DefaultRegisterer), logger)
	if err != nil {
		return fmt.Errorf("build rating service: %w", err)
	}
	if err := svc.Restore(ctx); err != nil {
		return err
	}
	if err := svc.SetupSubscriptions(ctx); err != nil {
		logger.Warn("failed to subscribe to catalog events", "error", err)
	}

	// API server
	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(svc, db, cfg.Server, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Metrics server
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler:           api.NewMetricsRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
	return nil
}

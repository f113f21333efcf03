package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/Prioritizer/internal/config"
	"github.com/MikeSquared-Agency/Prioritizer/internal/store"
)

// Set by the release build.
var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "prioritizer",
	Short:         "Rate and rank automation use cases with AHP-derived weights.",
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(weightsCmd)
	rootCmd.AddCommand(rateCmd)
	rootCmd.AddCommand(exportCmd)

	weightsCmd.Flags().Bool("diff", false, "Show a unified diff of the template before and after reweighting")
	rateCmd.Flags().String("judgments", "", "Reweight the template with this judgments file before rating")
	rateCmd.Flags().Bool("explain", false, "Print the per-category breakdown")
	exportCmd.Flags().StringP("out", "o", "ratings.parquet", "Parquet file to write")
	exportCmd.Flags().Bool("table", false, "Also print the ratings table")
}

func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the config and builds a logger on stderr so command output
// on stdout stays clean.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, cfg.Logging.NewLogger(os.Stderr), nil
}

// openStore connects to Postgres when a database URL is configured and falls
// back to the in-memory store otherwise.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	if cfg.Database.URL == "" {
		logger.Warn("no database configured, using in-memory store")
		return store.NewMemoryStore(), nil
	}
	if cfg.Database.Migrate {
		if err := store.Migrate(cfg.Database.URL, logger); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	db, err := store.NewPostgresStore(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info("connected to database")
	return db, nil
}

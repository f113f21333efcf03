package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/Prioritizer/internal/report"
	"github.com/MikeSquared-Agency/Prioritizer/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored use cases and their ratings to Parquet.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("out")
		table, _ := cmd.Flags().GetBool("table")

		db, err := openStore(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer db.Close()
		return runExport(cmd.Context(), cmd.OutOrStdout(), db, logger, out, table)
	},
}

func runExport(ctx context.Context, w io.Writer, s store.Store, logger *slog.Logger, out string, table bool) error {
	useCases, err := s.ListUseCases(ctx, store.UseCaseFilter{})
	if err != nil {
		return fmt.Errorf("list use cases: %w", err)
	}
	if err := report.WriteRatingsParquet(out, report.RatingRows(useCases)); err != nil {
		return err
	}
	logger.Info("ratings exported", "path", out, "use_cases", len(useCases))

	if !table {
		return nil
	}
	return report.WriteRatingsTable(w, useCases)
}

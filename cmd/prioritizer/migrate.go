package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/Prioritizer/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Database.URL == "" {
			return errors.New("database url is not configured")
		}
		return store.Migrate(cfg.Database.URL, logger)
	},
}

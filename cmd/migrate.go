package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atmosgear/skate-league/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the participants schema",
	Long: `Create or update the participants schema for the configured driver.

PostgreSQL runs the embedded SQL migrations; SQLite uses gorm auto-migration.
Both are safe to run repeatedly.`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	_, closeStore, err := openStore(context.Background(), cfg, true)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer closeStore()

	fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", cfg.Database.Driver)
	return nil
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sst-resolve/resolve-bot/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE:  runMigrateUp,
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	if err := database.MigrateUp(cfg.DatabaseURL(), log); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info("migrate up: ok")
	return nil
}

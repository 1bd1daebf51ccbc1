package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"textdigest/internal/config"
	"textdigest/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Opening the store applies migrations.
	db, err := database.New(cmd.Context(), cfg.DBDriver, cfg.DBDSN, logger)
	if err != nil {
		return fmt.Errorf("initialize db: %w", err)
	}

	return db.Close()
}

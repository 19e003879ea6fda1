package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brokerapp/server/internal/db"
)

func newMigrateCmd() *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "manage the database schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				databaseURL = os.Getenv("DATABASE_URL")
			}
			logger := zap.NewNop()
			if v, _ := cmd.Flags().GetBool("verbose"); v {
				if dev, err := zap.NewDevelopment(); err == nil {
					logger = dev
				}
			}

			database, err := db.Open(cmd.Context(), databaseURL, logger)
			if err != nil {
				return err
			}
			defer database.Close()

			return runMigration(database, args[0])
		},
	}
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "postgres url (defaults to DATABASE_URL)")
	cmd.Flags().BoolP("verbose", "v", false, "log connection details")
	return cmd
}

func runMigration(database *sql.DB, direction string) error {
	switch direction {
	case "up":
		return db.Migrate(database)
	case "down":
		return db.Rollback(database)
	case "status":
		return db.Status(database)
	default:
		return fmt.Errorf("unknown migration command %q", direction)
	}
}

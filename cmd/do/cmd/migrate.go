package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/templui/goalboard/internal/config"
	"github.com/templui/goalboard/internal/db"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	cmd.AddCommand(migrateStep("up", "Apply all pending migrations", db.RunMigrations))
	cmd.AddCommand(migrateStep("down", "Roll back the latest migration", db.MigrateDown))
	cmd.AddCommand(migrateStep("status", "Show the state of every migration", db.MigrationStatus))
	return cmd
}

func migrateStep(use, short string, step func(*sql.DB, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(conn *sql.DB, driver string) error {
				return step(conn, driver)
			})
		},
	}
}

// withDB opens the configured database for the duration of fn.
func withDB(ctx context.Context, fn func(conn *sql.DB, driver string) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := config.Load()
	driver := db.NormalizeDriver(cfg.DBDriver)

	conn, err := db.Init(ctx, driver, cfg.DBConnection, db.Pool{})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close(conn)

	return fn(conn.DB, driver)
}

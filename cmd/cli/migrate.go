package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/akeren/klyr-waitlist/config"
	"github.com/akeren/klyr-waitlist/pkg/migrations"
	"github.com/akeren/klyr-waitlist/pkg/utils"
	"github.com/spf13/cobra"
)

const migrateTimeout = 5 * time.Minute

func newMigrateCmd(app *cli) *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withDatabase(cmd.Context(), func(ctx context.Context, db *sql.DB, cfg migrations.Config) error {
				return migrations.Up(ctx, db, cfg)
			})
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations (all of them unless --steps is set)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withDatabase(cmd.Context(), func(ctx context.Context, db *sql.DB, cfg migrations.Config) error {
				return migrations.Down(ctx, db, cfg, steps)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 0, "number of migrations to roll back; 0 rolls back everything")

	migrate.AddCommand(up, down)
	return migrate
}

func (app *cli) withDatabase(parent context.Context, fn func(context.Context, *sql.DB, migrations.Config) error) error {
	db, err := config.NewDatabase(app.logger, config.NewDBConfig())
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			app.logger.Warn("Failed to close SQL DB after migration", "error", err.Error())
		}
	}()

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, migrateTimeout)
	defer cancel()

	return fn(ctx, sqlDB, migrations.Config{
		Dir:    utils.GetEnvTrimmedOrDefault("MIGRATIONS_DIR", "migrations"),
		Logger: app.logger,
	})
}

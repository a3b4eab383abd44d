package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

type migrator interface {
	Up() error
	Steps(n int) error
	Down() error
	Close() (sourceErr error, databaseErr error)
}

// The driver runs on its own connection so closing the migrator leaves db open.
var driverFactory = func(db *sql.DB, cfg Config) (database.Driver, error) {
	ctx := context.Background()
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{MigrationsTable: cfg.MigrationsTable})
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return driver, nil
}

var migratorFactory = func(sourceURL string, driver database.Driver) (migrator, error) {
	return migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
}

type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type Config struct {
	Dir             string
	MigrationsTable string
	Logger          Logger
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.Dir) == "" {
		c.Dir = "migrations"
	}
	if strings.TrimSpace(c.MigrationsTable) == "" {
		c.MigrationsTable = "schema_migrations"
	}
	return c
}

func (c Config) info(msg string, args ...any) {
	if c.Logger != nil {
		c.Logger.Info(msg, args...)
	}
}

func (c Config) warn(msg string, args ...any) {
	if c.Logger != nil {
		c.Logger.Warn(msg, args...)
	}
}

func sourceURLFor(dir string) (string, string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", "", fmt.Errorf("migrations: resolve dir: %w", err)
	}
	u := &url.URL{Scheme: "file", Path: filepath.ToSlash(absDir)}
	return u.String(), absDir, nil
}

// Up applies every pending migration.
func Up(ctx context.Context, db *sql.DB, cfg Config) error {
	return run(ctx, db, cfg, "up", func(m migrator) error { return m.Up() })
}

// Down rolls back steps migrations; steps <= 0 rolls back everything.
func Down(ctx context.Context, db *sql.DB, cfg Config, steps int) error {
	return run(ctx, db, cfg, "down", func(m migrator) error {
		if steps > 0 {
			return m.Steps(-steps)
		}
		return m.Down()
	})
}

func run(ctx context.Context, db *sql.DB, cfg Config, direction string, apply func(migrator) error) error {
	if db == nil {
		return fmt.Errorf("migrations: db is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg = cfg.withDefaults()

	sourceURL, absDir, err := sourceURLFor(cfg.Dir)
	if err != nil {
		return err
	}

	driver, err := driverFactory(db, cfg)
	if err != nil {
		return fmt.Errorf("migrations: postgres driver: %w", err)
	}

	m, err := migratorFactory(sourceURL, driver)
	if err != nil {
		return fmt.Errorf("migrations: init: %w", err)
	}

	var closeOnce sync.Once
	closeMigrator := func() {
		closeOnce.Do(func() {
			srcErr, dbErr := m.Close()
			if srcErr != nil {
				cfg.warn("Migrations source close error", "error", srcErr)
			}
			if dbErr != nil {
				cfg.warn("Migrations db close error", "error", dbErr)
			}
		})
	}
	defer closeMigrator()

	cfg.info("Running SQL migrations", "direction", direction, "dir", absDir, "table", cfg.MigrationsTable)

	errCh := make(chan error, 1)
	go func() {
		errCh <- apply(m)
	}()

	select {
	case <-ctx.Done():
		// migrate has no context support; closing is the only way to interrupt it.
		closeMigrator()
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, migrate.ErrNoChange) {
			cfg.info("No migrations to apply")
			return nil
		}
		if err != nil {
			return fmt.Errorf("migrations: %s: %w", direction, err)
		}
	}

	cfg.info("Migrations applied successfully", "direction", direction)
	return nil
}

package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/akeren/klyr-waitlist/internal/log"
	"github.com/akeren/klyr-waitlist/pkg/retry"
	"github.com/akeren/klyr-waitlist/pkg/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type DBConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	SSLMode         string // "require" unless POSTGRES_SSLMODE says otherwise
	// ConnectAttempts bounds the startup ping; the database may still be booting.
	ConnectAttempts int
}

func NewDBConfig() *DBConfig {
	return &DBConfig{
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: time.Minute,
		SSLMode:         "require",
		ConnectAttempts: utils.GetPositiveIntEnv("DB_CONNECT_ATTEMPTS", 5),
	}
}

func (cfg *DBConfig) withDefaults() *DBConfig {
	defaults := NewDBConfig()
	if cfg == nil {
		return defaults
	}
	c := *cfg
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = defaults.MaxIdleConns
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = defaults.MaxOpenConns
	}
	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = defaults.ConnMaxLifetime
	}
	if c.SSLMode == "" {
		c.SSLMode = defaults.SSLMode
	}
	if c.ConnectAttempts <= 0 {
		c.ConnectAttempts = defaults.ConnectAttempts
	}
	return &c
}

func NewDatabase(logger *log.Logger, cfg *DBConfig) (*gorm.DB, error) {
	cfg = cfg.withDefaults()

	dsn, err := DatabaseDSN(logger, cfg)
	if err != nil {
		logger.Error("Invalid database configuration", "error", err)
		return nil, err
	}

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		logger.Error("Failed to get database instance", "error", err)
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := pingWithRetry(context.Background(), sqlDB.PingContext, cfg.ConnectAttempts, logger); err != nil {
		logger.Error("Database ping failed", "error", err, "attempts", cfg.ConnectAttempts)
		_ = sqlDB.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("Database connection established successfully")
	return gdb, nil
}

func pingWithRetry(ctx context.Context, ping func(context.Context) error, attempts int, logger *log.Logger) error {
	policy := retry.NewExponentialBackoff(&retry.Config{
		MaxAttempts: attempts,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    10 * time.Second,
		Multiplier:  2.0,
		Retryable:   func(error) bool { return true },
	})

	attempt := 0
	return policy.Execute(ctx, func(ctx context.Context) error {
		attempt++
		err := ping(ctx)
		if err != nil && attempt < attempts {
			logger.Warn("Database not reachable yet; retrying", "attempt", attempt, "error", err)
		}
		return err
	})
}

type postgresEnv struct {
	host, port, user, password, dbName, sslMode string
}

func readPostgresEnv() postgresEnv {
	return postgresEnv{
		host:     sanitizeEnv(utils.GetEnvTrimmed("POSTGRES_HOST")),
		port:     sanitizeEnv(utils.GetEnvTrimmedOrDefault("POSTGRES_PORT", "5432")),
		user:     sanitizeEnv(utils.GetEnvTrimmed("POSTGRES_USER")),
		password: sanitizeEnv(utils.GetEnvTrimmed("POSTGRES_PASSWORD")),
		dbName:   sanitizeEnv(utils.GetEnvTrimmed("POSTGRES_DB_NAME")),
		sslMode:  sanitizeEnv(utils.GetEnvTrimmed("POSTGRES_SSLMODE")),
	}
}

// DatabaseDSN prefers APP_DATABASE_URL and otherwise assembles a keyword DSN
// from POSTGRES_*. The password never reaches the logs.
func DatabaseDSN(logger *log.Logger, cfg *DBConfig) (string, error) {
	cfg = cfg.withDefaults()

	if url := sanitizeEnv(utils.GetEnvTrimmed("APP_DATABASE_URL")); url != "" {
		logger.Info("Using APP_DATABASE_URL for database connection")
		return url, nil
	}

	env := readPostgresEnv()
	if env.sslMode == "" {
		env.sslMode = cfg.SSLMode
	}

	var missing []string
	if env.host == "" {
		missing = append(missing, "POSTGRES_HOST")
	}
	if env.user == "" {
		missing = append(missing, "POSTGRES_USER")
	}
	if env.dbName == "" {
		missing = append(missing, "POSTGRES_DB_NAME")
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("missing required database env vars: %s", strings.Join(missing, ", "))
	}

	port, err := strconv.Atoi(env.port)
	if err != nil || port <= 0 {
		return "", fmt.Errorf("invalid POSTGRES_PORT %q", env.port)
	}

	logger.Info("Connecting to database",
		"host", env.host,
		"port", port,
		"user", env.user,
		"dbname", env.dbName,
		"sslmode", env.sslMode,
	)
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		env.host, port, env.user, env.password, env.dbName, env.sslMode,
	), nil
}

func sanitizeEnv(v string) string {
	s := strings.TrimSpace(v)

	if len(s) >= 2 && ((s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'')) {
		s = s[1 : len(s)-1]
	}

	return s
}

func AutoMigrate(logger *log.Logger, db *gorm.DB, models ...interface{}) error {
	if db == nil {
		logger.Error("Cannot migrate: db is empty")
		return fmt.Errorf("cannot migrate: db is empty")
	}

	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Database migration failed", "error", err)
		return fmt.Errorf("auto-migrate failed: %w", err)
	}

	logger.Info("Database migration completed successfully")

	return nil
}

func CloseDatabase(db *gorm.DB, logger *log.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Failed to get SQL DB instance", "error", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		logger.Error("Failed to close database", "error", err)
	} else {
		logger.Info("Database closed successfully")
	}
}

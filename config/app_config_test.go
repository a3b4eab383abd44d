package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/akeren/klyr-waitlist/internal/log"
	"github.com/akeren/klyr-waitlist/pkg/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWaitlistConfig_Defaults(t *testing.T) {
	t.Setenv("WAITLIST_PUBLISHABLE_KEY", "")
	t.Setenv("WAITLIST_RATE_LIMIT_REQUESTS", "")
	t.Setenv("COUNT_CACHE_TTL", "")
	t.Setenv("SIGNUP_COUNTER_INTERVAL", "")

	cfg := NewWaitlistConfig()

	assert.Empty(t, cfg.PublishableKey)
	assert.Equal(t, constants.DefaultWaitlistSubmissionsPerMinute, cfg.SubmissionsPerMinute)
	assert.Equal(t, constants.DefaultCountCacheTTL, cfg.CountCacheTTL)
	assert.Equal(t, constants.DefaultSignupCounterInterval, cfg.CounterInterval)
}

func TestNewWaitlistConfig_FromEnv(t *testing.T) {
	t.Setenv("WAITLIST_PUBLISHABLE_KEY", ` "pk_live_123" `)
	t.Setenv("WAITLIST_RATE_LIMIT_REQUESTS", "5")
	t.Setenv("COUNT_CACHE_TTL", "10s")
	t.Setenv("SIGNUP_COUNTER_INTERVAL", "bogus")

	cfg := NewWaitlistConfig()

	assert.Equal(t, "pk_live_123", cfg.PublishableKey)
	assert.Equal(t, 5, cfg.SubmissionsPerMinute)
	assert.Equal(t, 10*time.Second, cfg.CountCacheTTL)
	assert.Equal(t, constants.DefaultSignupCounterInterval, cfg.CounterInterval)
}

func TestNewAppConfig_FromEnv(t *testing.T) {
	t.Setenv("RATE_LIMIT_REQUESTS", "42")
	t.Setenv("RATE_LIMIT_WINDOW", "-1s")
	t.Setenv("REQUEST_TIMEOUT", "3s")

	cfg := NewAppConfig()

	assert.Equal(t, 42, cfg.RateLimitRequests)
	assert.Equal(t, constants.DefaultRateLimitWindow(), cfg.RateLimitWindow)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
}

func TestNewMailConfig(t *testing.T) {
	t.Setenv("MAILGUN_DOMAIN", "mg.klyr.app")
	t.Setenv("MAILGUN_API_KEY", "key-123")
	t.Setenv("MAILGUN_API_BASE", "")
	t.Setenv("EMAIL_FROM_NAME", "")
	t.Setenv("EMAIL_FROM_ADDRESS", "hello@klyr.app")

	cfg := NewMailConfig()

	assert.True(t, cfg.IsConfigured())
	assert.Equal(t, "Klyr", cfg.FromName)
	assert.Equal(t, "hello@klyr.app", cfg.FromEmail)
}

func TestNewNotifier_FallsBackWhenUnconfigured(t *testing.T) {
	t.Setenv("MAILGUN_DOMAIN", "")
	t.Setenv("MAILGUN_API_KEY", "")

	notifier := NewNotifier(log.NewLoggerWithJSONOutput(), NewMailConfig())
	require.NotNil(t, notifier)
	notifier.Wait()
}

func TestDBConfig_WithDefaults(t *testing.T) {
	t.Setenv("DB_CONNECT_ATTEMPTS", "")

	cfg := (&DBConfig{MaxOpenConns: 7}).withDefaults()

	assert.Equal(t, 7, cfg.MaxOpenConns)
	assert.Equal(t, 10, cfg.MaxIdleConns)
	assert.Equal(t, "require", cfg.SSLMode)
	assert.Equal(t, 5, cfg.ConnectAttempts)
}

func TestPingWithRetry(t *testing.T) {
	logger := log.NewLoggerWithJSONOutput()

	t.Run("succeeds once the database comes up", func(t *testing.T) {
		calls := 0
		err := pingWithRetry(context.Background(), func(context.Context) error {
			calls++
			if calls < 2 {
				return errors.New("connection refused")
			}
			return nil
		}, 3, logger)

		assert.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("gives up after the configured attempts", func(t *testing.T) {
		calls := 0
		err := pingWithRetry(context.Background(), func(context.Context) error {
			calls++
			return errors.New("no such host")
		}, 2, logger)

		assert.Error(t, err)
		assert.Equal(t, 2, calls)
	})
}

func TestApplicationConfig_CleanupRunsHooksInReverse(t *testing.T) {
	var order []int
	ac := &ApplicationConfig{Logger: log.NewLoggerWithJSONOutput()}
	ac.OnCleanup(func() { order = append(order, 1) })
	ac.OnCleanup(func() { order = append(order, 2) })

	ac.Cleanup()
	ac.Cleanup()

	assert.Equal(t, []int{2, 1}, order)
}

func TestCacheConfig_UnconfiguredYieldsNil(t *testing.T) {
	t.Setenv("REDIS_HOST", "")
	t.Setenv("REDIS_PORT", "")
	t.Setenv("REDIS_DB", "3")

	cfg := NewCacheConfig()
	assert.False(t, cfg.IsConfigured())
	assert.Equal(t, "6379", cfg.Port)
	assert.Equal(t, 3, cfg.DB)

	_, err := cfg.NewCache()
	assert.ErrorIs(t, err, ErrCacheNotConfigured)
	assert.Nil(t, cfg.NewCacheOrNil(log.NewLoggerWithJSONOutput()))
}

func TestDatabaseDSN(t *testing.T) {
	logger := log.NewLoggerWithJSONOutput()

	t.Run("APP_DATABASE_URL wins and is unquoted", func(t *testing.T) {
		t.Setenv("APP_DATABASE_URL", `"postgres://klyr@db/klyr"`)

		dsn, err := DatabaseDSN(logger, nil)
		require.NoError(t, err)
		assert.Equal(t, "postgres://klyr@db/klyr", dsn)
	})

	t.Run("assembled from POSTGRES_*", func(t *testing.T) {
		t.Setenv("APP_DATABASE_URL", "")
		t.Setenv("POSTGRES_HOST", "db")
		t.Setenv("POSTGRES_PORT", "")
		t.Setenv("POSTGRES_USER", "klyr")
		t.Setenv("POSTGRES_PASSWORD", "secret")
		t.Setenv("POSTGRES_DB_NAME", "waitlist")
		t.Setenv("POSTGRES_SSLMODE", "disable")

		dsn, err := DatabaseDSN(logger, nil)
		require.NoError(t, err)
		assert.Equal(t, "host=db port=5432 user=klyr password=secret dbname=waitlist sslmode=disable", dsn)
	})

	t.Run("missing variables are listed", func(t *testing.T) {
		t.Setenv("APP_DATABASE_URL", "")
		t.Setenv("POSTGRES_HOST", "")
		t.Setenv("POSTGRES_USER", "")
		t.Setenv("POSTGRES_DB_NAME", "waitlist")

		_, err := DatabaseDSN(logger, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "POSTGRES_HOST, POSTGRES_USER")
	})

	t.Run("bad port", func(t *testing.T) {
		t.Setenv("APP_DATABASE_URL", "")
		t.Setenv("POSTGRES_HOST", "db")
		t.Setenv("POSTGRES_PORT", "five")
		t.Setenv("POSTGRES_USER", "klyr")
		t.Setenv("POSTGRES_DB_NAME", "waitlist")

		_, err := DatabaseDSN(logger, nil)
		assert.ErrorContains(t, err, "invalid POSTGRES_PORT")
	})
}

package config

import (
	"context"
	"time"

	"github.com/akeren/klyr-waitlist/config/router"
	"github.com/akeren/klyr-waitlist/internal/log"
	"github.com/akeren/klyr-waitlist/internal/models"
	"github.com/akeren/klyr-waitlist/pkg/constants"
	"github.com/akeren/klyr-waitlist/pkg/factory"
	"github.com/akeren/klyr-waitlist/pkg/notify"
	"github.com/akeren/klyr-waitlist/pkg/utils"
	"gorm.io/gorm"
)

type ApplicationConfig struct {
	DB              *gorm.DB
	RouterService   *router.RouterService
	Logger          *log.Logger
	Cache           Cache
	Config          *AppConfig
	Waitlist        *WaitlistConfig
	Notifier        *notify.AsyncNotifier
	Factories       *factory.FactoryContainer
	TracingShutdown func(context.Context) error

	cleanups []func()
}

type AppConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration
}

func NewAppConfig() *AppConfig {
	return &AppConfig{
		RateLimitRequests: utils.GetPositiveIntEnv("RATE_LIMIT_REQUESTS", constants.DefaultRateLimitRequests),
		RateLimitWindow:   utils.GetPositiveDurationEnv("RATE_LIMIT_WINDOW", constants.DefaultRateLimitWindow()),
		RequestTimeout:    utils.GetPositiveDurationEnv("REQUEST_TIMEOUT", 30*time.Second),
	}
}

// OnCleanup registers fn to run first during Cleanup, in reverse registration order.
func (ac *ApplicationConfig) OnCleanup(fn func()) {
	ac.cleanups = append(ac.cleanups, fn)
}

func (ac *ApplicationConfig) Cleanup() {
	for i := len(ac.cleanups) - 1; i >= 0; i-- {
		ac.cleanups[i]()
	}
	ac.cleanups = nil

	if ac.Notifier != nil {
		ac.Notifier.Wait()
	}

	if ac.TracingShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ac.TracingShutdown(ctx); err != nil {
			ac.Logger.Error("Failed to shutdown tracer provider", "error", err)
		}
	}

	if ac.DB != nil {
		CloseDatabase(ac.DB, ac.Logger)
	}

	if ac.RouterService != nil {
		ac.RouterService.Cleanup()
	}

	if ac.Cache != nil {
		CloseCache(ac.Cache, ac.Logger)
	}

	ac.Logger.Info("Application cleanup completed")
}

func LoadApplicationConfiguration(logger *log.Logger, autoMigrate bool) (*ApplicationConfig, error) {
	InitializeEnvFile(logger)

	if autoMigrate {
		appEnv := GetAppEnv()
		if err := ValidateAutoMigrateAllowed(appEnv); err != nil {
			return nil, err
		}
		if appEnv == "" {
			logger.Warn("APP_ENV not set; allowing --auto-migrate as development")
		}
	}

	tracingShutdown, err := SetupTracing(logger)
	if err != nil {
		return nil, err
	}

	partial := &ApplicationConfig{Logger: logger, TracingShutdown: tracingShutdown}

	db, err := NewDatabase(logger, NewDBConfig())
	if err != nil {
		partial.Cleanup()
		return nil, err
	}
	partial.DB = db

	if autoMigrate {
		if err := AutoMigrate(logger, db, models.ModelRegistry...); err != nil {
			partial.Cleanup()
			return nil, err
		}
	}

	appConfig := NewAppConfig()
	cache := NewCacheConfig().NewCacheOrNil(logger)

	routerService := router.CreateRouterService(logger, cache, &router.RouterConfig{
		RateLimitRequests: appConfig.RateLimitRequests,
		RateLimitWindow:   appConfig.RateLimitWindow,
		RequestTimeout:    appConfig.RequestTimeout,
	})

	logger.Info("Application configuration loaded successfully")

	return &ApplicationConfig{
		DB:              db,
		RouterService:   routerService,
		Logger:          logger,
		Cache:           cache,
		Config:          appConfig,
		Waitlist:        NewWaitlistConfig(),
		Notifier:        NewNotifier(logger, NewMailConfig()),
		Factories:       factory.NewFactoryContainer(logger, cache),
		TracingShutdown: tracingShutdown,
	}, nil
}

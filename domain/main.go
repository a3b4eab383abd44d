package domain

import (
	"context"
	"fmt"

	"github.com/akeren/klyr-waitlist/config"
	"github.com/akeren/klyr-waitlist/domain/monitoring"
	"github.com/akeren/klyr-waitlist/domain/site"
	"github.com/akeren/klyr-waitlist/domain/waitlist"
	"github.com/akeren/klyr-waitlist/pkg/counter"
	"github.com/akeren/klyr-waitlist/pkg/factory"
)

func SetupCoreDomain(appConfig *config.ApplicationConfig) error {
	if appConfig.Waitlist == nil {
		appConfig.Waitlist = config.NewWaitlistConfig()
	}
	if appConfig.Factories == nil {
		appConfig.Factories = factory.NewFactoryContainer(appConfig.Logger, appConfig.Cache)
	}

	deps := waitlist.Dependencies{
		DB:        appConfig.DB,
		Logger:    appConfig.Logger,
		Cache:     appConfig.Cache,
		Factories: appConfig.Factories,
		Metrics:   appConfig.RouterService.MetricsRegisterer(),
		Settings: waitlist.Settings{
			PublishableKey:       appConfig.Waitlist.PublishableKey,
			SubmissionsPerMinute: appConfig.Waitlist.SubmissionsPerMinute,
			CountCacheTTL:        appConfig.Waitlist.CountCacheTTL,
		},
	}
	if appConfig.Notifier != nil {
		deps.Notifier = appConfig.Notifier
	}
	waitlistFactory := waitlist.NewWaitlistServiceFactory(deps)

	signups := newSignupCounter(appConfig, waitlistFactory)

	appConfig.RouterService.MountController(
		monitoring.NewMonitoringControllerFactory(appConfig.DB, appConfig.Logger, appConfig.Cache, signups, appConfig.Factories).CreateController(),
	)
	appConfig.RouterService.MountController(waitlistFactory.CreateController())

	siteController, err := site.NewSiteControllerFactory(appConfig.Factories).CreateController()
	if err != nil {
		return fmt.Errorf("load site content: %w", err)
	}
	appConfig.RouterService.MountController(siteController)

	if err := signups.Start(context.Background()); err != nil {
		return err
	}
	appConfig.OnCleanup(signups.Stop)

	return nil
}

// newSignupCounter polls the waitlist count in the background and mirrors it
// into the waitlist_signups gauge.
func newSignupCounter(appConfig *config.ApplicationConfig, f *waitlist.DefaultWaitlistServiceFactory) *counter.Counter {
	service := f.CreateService()
	metrics := f.Metrics()

	return counter.New(
		func(ctx context.Context) (int64, error) {
			resp, err := service.Count(ctx)
			if err != nil {
				return 0, err
			}
			return resp.Count, nil
		},
		counter.Config{
			Interval: appConfig.Waitlist.CounterInterval,
			Logger:   appConfig.Logger.WithComponent("signup-counter"),
			OnUpdate: metrics.SetSignups,
		},
	)
}

package waitlist

import (
	"time"

	"github.com/akeren/klyr-waitlist/config/router"
	"github.com/akeren/klyr-waitlist/internal/log"
	"github.com/akeren/klyr-waitlist/pkg/circuitbreaker"
	"github.com/akeren/klyr-waitlist/pkg/factory"
	"github.com/akeren/klyr-waitlist/pkg/notify"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

type WaitlistServiceFactory interface {
	CreateService() WaitlistService
	CreateController() *router.RESTController
}

// Dependencies gathers what the waitlist domain needs from the application.
type Dependencies struct {
	DB        *gorm.DB
	Logger    *log.Logger
	Cache     Cache
	Notifier  notify.Notifier
	Factories *factory.FactoryContainer
	Metrics   prometheus.Registerer
	Settings  Settings
}

type DefaultWaitlistServiceFactory struct {
	deps    Dependencies
	metrics *Metrics
	service WaitlistService
}

func NewWaitlistServiceFactory(deps Dependencies) *DefaultWaitlistServiceFactory {
	return &DefaultWaitlistServiceFactory{
		deps:    deps,
		metrics: NewMetrics(deps.Metrics),
	}
}

// CreateService returns the same service on every call so the controller and
// the background counter share one circuit breaker.
func (f *DefaultWaitlistServiceFactory) CreateService() WaitlistService {
	if f.service != nil {
		return f.service
	}

	breakerConfig := &circuitbreaker.Config{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		SuccessThreshold: 1,
	}
	var breaker circuitbreaker.CircuitBreaker
	if f.deps.Factories != nil && f.deps.Factories.CircuitBreakerFactory != nil {
		breaker = f.deps.Factories.CircuitBreakerFactory.CreateCircuitBreaker("waitlist-count", breakerConfig)
	} else {
		breaker = circuitbreaker.NewCircuitBreaker(breakerConfig)
	}

	f.service = NewWaitlistService(f.deps.Logger, NewWaitlistRepository(f.deps.DB), ServiceOptions{
		Cache:         f.deps.Cache,
		CountCacheTTL: f.deps.Settings.CountCacheTTL,
		Notifier:      f.deps.Notifier,
		Breaker:       breaker,
		Metrics:       f.metrics,
	})
	return f.service
}

func (f *DefaultWaitlistServiceFactory) CreateController() *router.RESTController {
	return NewWaitlistController(f.CreateService(), f.deps.Factories, f.deps.Settings, f.deps.Logger)
}

func (f *DefaultWaitlistServiceFactory) Metrics() *Metrics {
	return f.metrics
}

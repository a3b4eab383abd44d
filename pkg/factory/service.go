package factory

import (
	"context"
	"time"

	"github.com/akeren/klyr-waitlist/internal/log"
	"github.com/akeren/klyr-waitlist/pkg/circuitbreaker"
	"github.com/akeren/klyr-waitlist/pkg/ratelimit"
	"github.com/go-redis/redis/v8"
)

type Cache interface {
	Ping(ctx context.Context) error
}

type RedisClientProvider interface {
	GetClient() *redis.Client
}

type RateLimiterFactory interface {
	// CreateRateLimiter returns a limiter whose keys are namespaced by scope.
	CreateRateLimiter(scope string, requests int, window time.Duration) ratelimit.RateLimiter
}

type CircuitBreakerFactory interface {
	CreateCircuitBreaker(name string, cfg *circuitbreaker.Config) circuitbreaker.CircuitBreaker
}

type DefaultRateLimiterFactory struct {
	redis  *redis.Client
	logger ratelimit.Logger
}

// NewDefaultRateLimiterFactory uses Redis when cache exposes a client, in-memory otherwise.
func NewDefaultRateLimiterFactory(cache Cache, logger ratelimit.Logger) *DefaultRateLimiterFactory {
	var redisClient *redis.Client
	if cache != nil {
		if provider, ok := cache.(RedisClientProvider); ok {
			redisClient = provider.GetClient()
		}
	}
	return &DefaultRateLimiterFactory{redis: redisClient, logger: logger}
}

func (f *DefaultRateLimiterFactory) CreateRateLimiter(scope string, requests int, window time.Duration) ratelimit.RateLimiter {
	return ratelimit.NewRateLimiter(&ratelimit.RateLimitConfig{
		Requests:  requests,
		Window:    window,
		KeyPrefix: "ratelimit:" + scope + ":",
		Redis:     f.redis,
		Logger:    f.logger,
	})
}

// UsesRedis reports whether created limiters are shared across instances.
func (f *DefaultRateLimiterFactory) UsesRedis() bool {
	return f.redis != nil
}

type DefaultCircuitBreakerFactory struct {
	logger *log.Logger
}

func NewDefaultCircuitBreakerFactory(logger *log.Logger) *DefaultCircuitBreakerFactory {
	return &DefaultCircuitBreakerFactory{logger: logger}
}

// CreateCircuitBreaker logs every state transition in addition to any hook already on cfg.
func (f *DefaultCircuitBreakerFactory) CreateCircuitBreaker(name string, cfg *circuitbreaker.Config) circuitbreaker.CircuitBreaker {
	if cfg == nil {
		cfg = circuitbreaker.DefaultConfig()
	}
	c := *cfg
	c.Name = name
	next := cfg.OnStateChange
	c.OnStateChange = func(name string, from, to circuitbreaker.CircuitState) {
		if f.logger != nil {
			f.logger.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		}
		if next != nil {
			next(name, from, to)
		}
	}
	return circuitbreaker.NewCircuitBreaker(&c)
}

type FactoryContainer struct {
	RateLimiterFactory    RateLimiterFactory
	CircuitBreakerFactory CircuitBreakerFactory
}

func NewFactoryContainer(logger *log.Logger, cache Cache) *FactoryContainer {
	return &FactoryContainer{
		RateLimiterFactory:    NewDefaultRateLimiterFactory(cache, logger),
		CircuitBreakerFactory: NewDefaultCircuitBreakerFactory(logger),
	}
}

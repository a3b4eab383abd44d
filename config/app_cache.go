package config

import (
	"context"
	"errors"
	"time"

	"github.com/akeren/klyr-waitlist/internal/log"
	pkgredis "github.com/akeren/klyr-waitlist/pkg/redis"
	"github.com/akeren/klyr-waitlist/pkg/utils"
)

// Cache backs the waitlist count cache, the health probe and, through
// GetClient, the distributed rate limiter.
type Cache interface {
	// Get returns ("", nil) when a key is not found.
	Get(ctx context.Context, key string) (string, error)
	// Set uses ttl=0 for no expiry.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

var ErrCacheNotConfigured = errors.New("cache: REDIS_HOST is not set")

type CacheConfig struct {
	Host        string
	Port        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

func NewCacheConfig() *CacheConfig {
	return &CacheConfig{
		Host:        utils.GetEnvTrimmed("REDIS_HOST"),
		Port:        utils.GetEnvTrimmedOrDefault("REDIS_PORT", "6379"),
		Password:    utils.GetEnvTrimmed("REDIS_PASSWORD"),
		DB:          utils.GetPositiveIntEnv("REDIS_DB", 0),
		DialTimeout: utils.GetPositiveDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
	}
}

func (cc *CacheConfig) IsConfigured() bool {
	return cc.Host != ""
}

func (cc *CacheConfig) NewCache() (Cache, error) {
	if !cc.IsConfigured() {
		return nil, ErrCacheNotConfigured
	}

	return pkgredis.NewRedisCache(&pkgredis.Config{
		Host:        cc.Host,
		Port:        cc.Port,
		Password:    cc.Password,
		DB:          cc.DB,
		DialTimeout: cc.DialTimeout,
	})
}

// NewCacheOrNil never fails startup: without Redis the count is read straight
// from the database and rate limits stay in memory.
func (cc *CacheConfig) NewCacheOrNil(logger *log.Logger) Cache {
	if !cc.IsConfigured() {
		logger.Info("Redis not configured; count cache and distributed rate limits disabled")
		return nil
	}

	cache, err := cc.NewCache()
	if err != nil {
		logger.Error("Failed to connect to Redis; continuing without cache", "error", err, "host", cc.Host)
		return nil
	}

	logger.Info("Redis connected", "host", cc.Host, "db", cc.DB)
	return cache
}

func CloseCache(cache Cache, logger *log.Logger) error {
	if cache == nil {
		return nil
	}

	if err := cache.Close(); err != nil {
		logger.Error("Failed to close cache", "error", err)
		return err
	}

	logger.Info("Cache connection closed")
	return nil
}

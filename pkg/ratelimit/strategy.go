package ratelimit

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/time/rate"
)

type Logger interface {
	Error(msg string, args ...interface{})
}

// RateLimiter decides whether a keyed caller has exhausted its allowance.
type RateLimiter interface {
	GetLimitDetails() (int, time.Duration)
	IsLimited(ctx context.Context, key string) (bool, error)
	Close() error
}

const emptyKey = "__empty__"

// slidingWindowScript keeps one sorted-set member per accepted request.
const slidingWindowScript = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local expire = tonumber(ARGV[4])
local member = ARGV[5]

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)

if redis.call('ZCARD', key) >= limit then
	return 1
end

redis.call('ZADD', key, now, member)
redis.call('EXPIRE', key, expire)
return 0
`

var slidingWindow = redis.NewScript(slidingWindowScript)

func memberID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// InMemoryRateLimiter is a per-key token bucket for single-instance deployments.
type InMemoryRateLimiter struct {
	requests int
	window   time.Duration

	mu       sync.Mutex
	limiters map[string]*keyedLimiter
	ops      uint64
}

type keyedLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewInMemoryRateLimiter(requests int, window time.Duration) *InMemoryRateLimiter {
	return &InMemoryRateLimiter{
		requests: requests,
		window:   window,
		limiters: make(map[string]*keyedLimiter),
	}
}

func (r *InMemoryRateLimiter) GetLimitDetails() (int, time.Duration) {
	return r.requests, r.window
}

func (r *InMemoryRateLimiter) IsLimited(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if key == "" {
		key = emptyKey
	}

	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	k, ok := r.limiters[key]
	if !ok {
		rps := float64(r.requests) / r.window.Seconds()
		k = &keyedLimiter{limiter: rate.NewLimiter(rate.Limit(rps), r.requests)}
		r.limiters[key] = k
	}
	k.lastSeen = now

	r.ops++
	if r.ops%1024 == 0 {
		r.evictIdle(now.Add(-2 * r.window))
	}

	return !k.limiter.AllowN(now, 1), nil
}

func (r *InMemoryRateLimiter) evictIdle(cutoff time.Time) {
	for key, l := range r.limiters {
		if l.lastSeen.Before(cutoff) {
			delete(r.limiters, key)
		}
	}
}

// Size reports how many keys are currently tracked.
func (r *InMemoryRateLimiter) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.limiters)
}

func (r *InMemoryRateLimiter) Close() error {
	return nil
}

// RedisRateLimiter is a sliding-window limiter shared by every instance behind the same Redis.
type RedisRateLimiter struct {
	client    *redis.Client
	requests  int
	window    time.Duration
	keyPrefix string
	logger    Logger
}

func NewRedisRateLimiter(client *redis.Client, requests int, window time.Duration, keyPrefix string, logger Logger) *RedisRateLimiter {
	if keyPrefix == "" {
		keyPrefix = "ratelimit:"
	}
	return &RedisRateLimiter{
		client:    client,
		requests:  requests,
		window:    window,
		keyPrefix: keyPrefix,
		logger:    logger,
	}
}

func (r *RedisRateLimiter) GetLimitDetails() (int, time.Duration) {
	return r.requests, r.window
}

func (r *RedisRateLimiter) fullKey(key string) string {
	if key == "" {
		key = emptyKey
	}
	if strings.HasPrefix(key, r.keyPrefix) {
		return key
	}
	return r.keyPrefix + key
}

func (r *RedisRateLimiter) IsLimited(ctx context.Context, key string) (bool, error) {
	fullKey := r.fullKey(key)
	now := time.Now().Unix()

	result, err := slidingWindow.Run(ctx, r.client, []string{fullKey},
		now,
		int64(r.window.Seconds()),
		r.requests,
		int64((r.window * 2).Seconds()),
		memberID(),
	).Int64()
	if err != nil {
		if r.logger != nil {
			r.logger.Error("Redis rate limit script execution failed", "key", fullKey, "error", err)
		}
		// Fail closed.
		return false, fmt.Errorf("rate limiter Redis error: %w", err)
	}
	return result == 1, nil
}

// Close is a no-op: the Redis client belongs to ApplicationConfig.
func (r *RedisRateLimiter) Close() error {
	return nil
}

type RateLimitConfig struct {
	Requests  int
	Window    time.Duration
	KeyPrefix string
	Redis     *redis.Client // nil selects the in-memory limiter
	Logger    Logger
}

func NewRateLimiter(config *RateLimitConfig) RateLimiter {
	if config.Redis != nil {
		return NewRedisRateLimiter(config.Redis, config.Requests, config.Window, config.KeyPrefix, config.Logger)
	}
	return NewInMemoryRateLimiter(config.Requests, config.Window)
}

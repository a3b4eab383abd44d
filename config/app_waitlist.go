package config

import (
	"time"

	"github.com/akeren/klyr-waitlist/pkg/constants"
	"github.com/akeren/klyr-waitlist/pkg/utils"
)

type WaitlistConfig struct {
	PublishableKey       string
	SubmissionsPerMinute int
	CountCacheTTL        time.Duration
	CounterInterval      time.Duration
}

func NewWaitlistConfig() *WaitlistConfig {
	return &WaitlistConfig{
		PublishableKey:       sanitizeEnv(utils.GetEnvTrimmed("WAITLIST_PUBLISHABLE_KEY")),
		SubmissionsPerMinute: utils.GetPositiveIntEnv("WAITLIST_RATE_LIMIT_REQUESTS", constants.DefaultWaitlistSubmissionsPerMinute),
		CountCacheTTL:        utils.GetPositiveDurationEnv("COUNT_CACHE_TTL", constants.DefaultCountCacheTTL),
		CounterInterval:      utils.GetPositiveDurationEnv("SIGNUP_COUNTER_INTERVAL", constants.DefaultSignupCounterInterval),
	}
}

package config

import (
	"time"

	"github.com/akeren/klyr-waitlist/internal/log"
	"github.com/akeren/klyr-waitlist/pkg/notify"
	"github.com/akeren/klyr-waitlist/pkg/utils"
)

const defaultMailSendTimeout = 30 * time.Second

func NewMailConfig() *notify.MailgunConfig {
	return &notify.MailgunConfig{
		Domain:    utils.GetEnvTrimmed("MAILGUN_DOMAIN"),
		APIKey:    utils.GetEnvTrimmed("MAILGUN_API_KEY"),
		APIBase:   utils.GetEnvTrimmed("MAILGUN_API_BASE"),
		FromName:  utils.GetEnvTrimmedOrDefault("EMAIL_FROM_NAME", "Klyr"),
		FromEmail: utils.GetEnvTrimmed("EMAIL_FROM_ADDRESS"),
	}
}

// NewNotifier returns a background notifier backed by Mailgun when configured,
// and a no-op otherwise. A broken Mailgun configuration is logged and also
// falls back to the no-op so signups keep working.
func NewNotifier(logger *log.Logger, cfg *notify.MailgunConfig) *notify.AsyncNotifier {
	var next notify.Notifier = notify.Noop{}

	if !cfg.IsConfigured() {
		logger.Info("Mailgun is not configured; signup confirmations are disabled")
	} else if mg, err := notify.NewMailgunNotifier(cfg, logger); err != nil {
		logger.Error("Failed to configure Mailgun; signup confirmations are disabled", "error", err)
	} else {
		logger.Info("Signup confirmations will be sent through Mailgun", "domain", cfg.Domain)
		next = mg
	}

	maxInFlight := utils.GetPositiveIntEnv("MAILGUN_MAX_IN_FLIGHT", notify.DefaultMaxInFlight)
	return notify.NewBoundedAsyncNotifier(next, logger, defaultMailSendTimeout, maxInFlight)
}

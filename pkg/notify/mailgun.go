package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/akeren/klyr-waitlist/internal/log"
	"github.com/akeren/klyr-waitlist/pkg/retry"
	"github.com/mailgun/mailgun-go/v4"
)

const (
	confirmationSubject = "You're on the Klyr waitlist"
	confirmationText    = "Thanks for joining the Klyr waitlist.\n\n" +
		"We'll email you as soon as Klyr launches. Until then, keep an eye on those meeting notes.\n\n" +
		"The Klyr team"
)

type MailgunConfig struct {
	Domain    string
	APIKey    string
	APIBase   string // empty keeps the SDK default (US region)
	FromName  string
	FromEmail string
}

func (c *MailgunConfig) IsConfigured() bool {
	return c != nil && c.Domain != "" && c.APIKey != ""
}

func (c *MailgunConfig) validate() error {
	var missing []string
	if c.Domain == "" {
		missing = append(missing, "MAILGUN_DOMAIN")
	}
	if c.APIKey == "" {
		missing = append(missing, "MAILGUN_API_KEY")
	}
	if c.FromEmail == "" {
		missing = append(missing, "EMAIL_FROM_ADDRESS")
	}
	if len(missing) > 0 {
		return fmt.Errorf("notify: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c *MailgunConfig) sender() string {
	if c.FromName == "" {
		return c.FromEmail
	}
	return fmt.Sprintf("%s <%s>", c.FromName, c.FromEmail)
}

// MailgunNotifier sends the signup confirmation through the Mailgun API.
type MailgunNotifier struct {
	cfg    *MailgunConfig
	client *mailgun.MailgunImpl
	retry  retry.RetryPolicy
	logger *log.Logger
}

func NewMailgunNotifier(cfg *MailgunConfig, logger *log.Logger) (*MailgunNotifier, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	client := mailgun.NewMailgun(cfg.Domain, cfg.APIKey)
	if cfg.APIBase != "" {
		client.SetAPIBase(cfg.APIBase)
	}

	return &MailgunNotifier{
		cfg:    cfg,
		client: client,
		retry: retry.NewExponentialBackoff(&retry.Config{
			MaxAttempts: 3,
			BaseDelay:   500 * time.Millisecond,
			MaxDelay:    5 * time.Second,
			Multiplier:  2,
			Retryable:   isRetryableSendError,
		}),
		logger: logger,
	}, nil
}

func (m *MailgunNotifier) SignupConfirmed(ctx context.Context, signup Signup) error {
	if signup.Email == "" {
		return errors.New("notify: recipient is empty")
	}

	var messageID string
	err := m.retry.Execute(ctx, func(ctx context.Context) error {
		message := m.client.NewMessage(m.cfg.sender(), confirmationSubject, confirmationText, signup.Email)
		message.AddTag("waitlist")
		message.AddTag("source-" + signup.Source)

		_, id, err := m.client.Send(ctx, message)
		if err != nil {
			return err
		}
		messageID = id
		return nil
	})
	if err != nil {
		return fmt.Errorf("notify: mailgun send: %w", err)
	}

	if m.logger != nil {
		log.GetLoggerInstanceFromContext(ctx, m.logger).Info("Signup confirmation sent", "message_id", messageID, "source", signup.Source)
	}
	return nil
}

func isRetryableSendError(err error) bool {
	if status := mailgun.GetStatusFromErr(err); status >= 500 || status == 429 {
		return true
	}
	return retry.IsTransient(err)
}

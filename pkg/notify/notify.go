// Package notify delivers the confirmation message a person receives after joining the waitlist.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/akeren/klyr-waitlist/internal/log"
)

// Signup is what a confirmation is about.
type Signup struct {
	Email  string
	Source string
}

type Notifier interface {
	SignupConfirmed(ctx context.Context, signup Signup) error
}

// Noop discards every notification.
type Noop struct{}

func (Noop) SignupConfirmed(context.Context, Signup) error { return nil }

// DefaultMaxInFlight caps concurrent sends to the mail provider.
const DefaultMaxInFlight = 4

// AsyncNotifier hands notifications to background goroutines, at most
// maxInFlight of which talk to the provider at once. Failures are logged and
// never reach the caller.
type AsyncNotifier struct {
	next    Notifier
	logger  *log.Logger
	timeout time.Duration
	slots   chan struct{}
	wg      sync.WaitGroup
}

func NewAsyncNotifier(next Notifier, logger *log.Logger, timeout time.Duration) *AsyncNotifier {
	return NewBoundedAsyncNotifier(next, logger, timeout, DefaultMaxInFlight)
}

func NewBoundedAsyncNotifier(next Notifier, logger *log.Logger, timeout time.Duration, maxInFlight int) *AsyncNotifier {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxInFlight <= 0 {
		maxInFlight = DefaultMaxInFlight
	}
	return &AsyncNotifier{
		next:    next,
		logger:  logger,
		timeout: timeout,
		slots:   make(chan struct{}, maxInFlight),
	}
}

// SignupConfirmed returns immediately. The request context is only used for
// its correlation ID; the send outlives the request.
func (a *AsyncNotifier) SignupConfirmed(ctx context.Context, signup Signup) error {
	correlationID := log.GetOrGenerateCorrelationID(ctx)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		a.slots <- struct{}{}
		defer func() { <-a.slots }()

		// The timeout starts once a slot is free.
		sendCtx, cancel := context.WithTimeout(log.ContextWithCorrelationID(context.Background(), correlationID), a.timeout)
		defer cancel()

		if err := a.next.SignupConfirmed(sendCtx, signup); err != nil && a.logger != nil {
			a.logger.Warn("Signup confirmation not delivered",
				"correlation_id", correlationID,
				"source", signup.Source,
				"error", err,
			)
		}
	}()
	return nil
}

// Wait blocks until in-flight notifications finish.
func (a *AsyncNotifier) Wait() {
	a.wg.Wait()
}

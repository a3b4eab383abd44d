// Package counter keeps a periodically refreshed copy of the waitlist signup count.
package counter

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/akeren/klyr-waitlist/internal/log"
	"github.com/akeren/klyr-waitlist/pkg/constants"
)

// FetchFunc returns the current number of submissions.
type FetchFunc func(ctx context.Context) (int64, error)

type Config struct {
	Interval     time.Duration // defaults to 60s
	FetchTimeout time.Duration // defaults to Interval
	Logger       *log.Logger
	// OnUpdate runs after every successful refresh, outside the counter's lock.
	OnUpdate func(count int64)
}

// Snapshot is a consistent view of the counter.
type Snapshot struct {
	Count     int64
	Known     bool
	Display   string
	UpdatedAt time.Time
	LastError string
	Failures  int
	Running   bool
}

type Counter struct {
	fetch FetchFunc
	cfg   Config

	mu        sync.RWMutex
	count     int64
	known     bool
	updatedAt time.Time
	lastErr   error
	failures  int
	issued    uint64 // sequence handed to the most recently started fetch
	applied   uint64 // sequence of the fetch whose result is displayed

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

var ErrAlreadyRunning = errors.New("counter: already running")

func New(fetch FetchFunc, cfg Config) *Counter {
	if cfg.Interval <= 0 {
		cfg.Interval = constants.DefaultSignupCounterInterval
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = cfg.Interval
	}
	return &Counter{fetch: fetch, cfg: cfg}
}

// FormatCount renders a count the way the landing page shows it.
func FormatCount(count int64, known bool) string {
	if !known {
		return constants.SignupCountPlaceholder
	}
	return strconv.FormatInt(count, 10) + "+"
}

// Start fetches immediately and then once per interval until Stop is called or
// ctx ends. Ticks that arrive while a fetch is still running are dropped.
func (c *Counter) Start(ctx context.Context) error {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	if c.done != nil {
		select {
		case <-c.done:
			// The previous loop ended with its parent context.
			c.cancel()
		default:
			return ErrAlreadyRunning
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done

	go c.loop(runCtx, done)
	return nil
}

func (c *Counter) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	_ = c.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = c.Refresh(ctx)
		}
	}
}

// Stop cancels polling and waits for an in-flight fetch to return. It is safe
// to call on a counter that was never started.
func (c *Counter) Stop() {
	c.runMu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Refresh performs one fetch. On failure the previous value is kept and the
// error is logged and returned. A result that arrives after a fetch issued
// later has already been applied is discarded.
func (c *Counter) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.issued++
	seq := c.issued
	c.mu.Unlock()

	fetchCtx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout)
	defer cancel()

	count, err := c.fetch(fetchCtx)

	c.mu.Lock()
	if seq < c.applied {
		c.mu.Unlock()
		return err
	}
	if err != nil {
		c.lastErr = err
		c.failures++
		c.mu.Unlock()

		if c.cfg.Logger != nil && ctx.Err() == nil {
			c.cfg.Logger.Warn("Signup count refresh failed", "error", err)
		}
		return err
	}

	c.count = count
	c.known = true
	c.applied = seq
	c.updatedAt = time.Now()
	c.lastErr = nil
	c.mu.Unlock()

	if c.cfg.OnUpdate != nil {
		c.cfg.OnUpdate(count)
	}
	return nil
}

// Value returns the last fetched count and whether any fetch has succeeded.
func (c *Counter) Value() (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.count, c.known
}

func (c *Counter) Display() string {
	count, known := c.Value()
	return FormatCount(count, known)
}

func (c *Counter) Snapshot() Snapshot {
	c.runMu.Lock()
	running := false
	if c.done != nil {
		select {
		case <-c.done:
		default:
			running = true
		}
	}
	c.runMu.Unlock()

	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Count:     c.count,
		Known:     c.known,
		Display:   FormatCount(c.count, c.known),
		UpdatedAt: c.updatedAt,
		Failures:  c.failures,
		Running:   running,
	}
	if c.lastErr != nil {
		s.LastError = c.lastErr.Error()
	}
	return s
}

package constants

import "time"

// RFC 3339 date-time format string.
// Use this format for all date-time serialization and communication with external systems.
const RFC3339DateTimeFormat = "2006-01-02T15:04:05Z07:00"

// Default rate limiting configuration
const (
	// DefaultRateLimitRequests is the default number of requests allowed per time window
	DefaultRateLimitRequests = 100
	// DefaultRateLimitWindowMinutes is the default time window for rate limiting
	DefaultRateLimitWindowMinutes = 1
	// DefaultWaitlistSubmissionsPerMinute caps submissions per client IP
	DefaultWaitlistSubmissionsPerMinute = 30
)

// DefaultRateLimitWindow returns the default rate limit window duration
func DefaultRateLimitWindow() time.Duration {
	return time.Duration(DefaultRateLimitWindowMinutes) * time.Minute
}

// Waitlist defaults
const (
	// DefaultSource tags submissions whose call-to-action did not say where it came from.
	DefaultSource = "general"

	// SignupCountPlaceholder is shown until the first count resolves.
	SignupCountPlaceholder = "…"

	DefaultSignupCounterInterval = 60 * time.Second
	DefaultCountCacheTTL         = 5 * time.Second
	DefaultFormResetDelay        = 200 * time.Millisecond
)

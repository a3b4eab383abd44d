package waitlist

// User-facing messages. Store errors are never echoed to callers.
const (
	msgSubmitFailed     = "Unable to join the waitlist right now"
	msgCountFailed      = "Unable to load the waitlist count right now"
	msgCountUnavailable = "Waitlist count is temporarily unavailable"
)

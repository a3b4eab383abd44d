package log

import (
	"net/http"
	"time"
)

type correlationTransport struct {
	base   http.RoundTripper
	logger *Logger
}

// NewCorrelationTransport stamps outgoing requests with the context's correlation ID
// (generating one when absent) and logs each round trip at debug level.
func NewCorrelationTransport(base http.RoundTripper, logger *Logger) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}

	return &correlationTransport{base: base, logger: logger}
}

func (t *correlationTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	id := GetOrGenerateCorrelationID(req.Context())

	// RoundTrippers must not mutate the caller's request.
	out := req.Clone(ContextWithCorrelationID(req.Context(), id))
	if out.Header.Get(CorrelationIDHeader) == "" {
		out.Header.Set(CorrelationIDHeader, id)
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(out)

	if t.logger != nil {
		l := t.logger.WithCorrelationID(out.Context())
		if err != nil {
			l.Debug("Outgoing request failed", "method", out.Method, "url", out.URL.Redacted(), "error", err)
		} else {
			l.Debug("Outgoing request", "method", out.Method, "url", out.URL.Redacted(), "status", resp.StatusCode, "latency_ms", time.Since(start).Milliseconds())
		}
	}

	return resp, err
}

package router

import (
	"crypto/subtle"
	"strings"

	apperrors "github.com/akeren/klyr-waitlist/pkg/errors"
)

const APIKeyHeader = "X-Api-Key"

// RequireAPIKey rejects requests whose X-Api-Key does not match expected.
// An empty expected key disables the check.
func RequireAPIKey(expected string) MiddlewareFunc {
	expected = strings.TrimSpace(expected)

	return func(c *RequestContext) {
		if expected == "" {
			c.Next()
			return
		}

		got := strings.TrimSpace(c.GetHeader(APIKeyHeader))
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
			GetLogger(c).Warn("Rejected request with missing or invalid API key", "path", c.FullPath())
			result := AppErrorResult(apperrors.NewUnauthorizedError("Invalid or missing API key", nil), "Invalid or missing API key")
			c.AbortWithStatusJSON(result.StatusCode, result.ToJSON())
			return
		}
		c.Next()
	}
}

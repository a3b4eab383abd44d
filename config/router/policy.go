package router

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	apperrors "github.com/akeren/klyr-waitlist/pkg/errors"
	"github.com/akeren/klyr-waitlist/pkg/utils"
	"github.com/gin-gonic/gin"
)

const (
	defaultMaxBodyBytes = 1 << 20
	defaultHSTSMaxAge   = 31536000

	corsAllowHeaders  = "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Api-Key, X-Correlation-ID"
	corsAllowMethods  = "POST, OPTIONS, GET"
	corsExposeHeaders = "X-Correlation-ID, Retry-After"
)

// HTTPPolicy groups the edge settings the landing page and CLI depend on:
// which browser origins may call the API, proxy trust for client IPs, body
// limits and HSTS.
type HTTPPolicy struct {
	AllowedOrigins        []string
	TrustedProxies        []string
	MaxBodyBytes          int64
	HSTSEnabled           bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
}

// LoadHTTPPolicyFromEnv reads CORS_ALLOWED_ORIGIN, TRUSTED_PROXIES,
// MAX_REQUEST_BODY_BYTES and HSTS_*. HSTS defaults to on in production.
func LoadHTTPPolicyFromEnv() *HTTPPolicy {
	appEnv := strings.ToLower(utils.GetEnvTrimmed("APP_ENV"))

	return &HTTPPolicy{
		AllowedOrigins:        splitList(utils.GetEnvTrimmed("CORS_ALLOWED_ORIGIN")),
		TrustedProxies:        parseTrustedProxiesEnv(utils.GetEnvTrimmed("TRUSTED_PROXIES")),
		MaxBodyBytes:          int64(utils.GetPositiveIntEnv("MAX_REQUEST_BODY_BYTES", defaultMaxBodyBytes)),
		HSTSEnabled:           utils.GetBoolEnv("HSTS_ENABLED", appEnv == "production" || appEnv == "prod"),
		HSTSMaxAge:            utils.GetPositiveIntEnv("HSTS_MAX_AGE", defaultHSTSMaxAge),
		HSTSIncludeSubdomains: utils.GetBoolEnv("HSTS_INCLUDE_SUBDOMAINS", true),
	}
}

func (p *HTTPPolicy) withDefaults() *HTTPPolicy {
	out := *p
	if out.MaxBodyBytes <= 0 {
		out.MaxBodyBytes = defaultMaxBodyBytes
	}
	if out.HSTSMaxAge <= 0 {
		out.HSTSMaxAge = defaultHSTSMaxAge
	}
	return &out
}

func (p *HTTPPolicy) originAllowed(origin string) bool {
	if origin == "" {
		return false
	}
	return slices.Contains(p.AllowedOrigins, "*") || slices.Contains(p.AllowedOrigins, origin)
}

func (p *HTTPPolicy) hstsValue() string {
	value := fmt.Sprintf("max-age=%d", p.HSTSMaxAge)
	if p.HSTSIncludeSubdomains {
		value += "; includeSubDomains"
	}
	return value
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// parseTrustedProxiesEnv returns nil (ClientIP uses RemoteAddr) unless proxies
// are listed. "*" trusts everything and is meant for local setups only.
func parseTrustedProxiesEnv(v string) []string {
	if strings.TrimSpace(v) == "*" {
		return []string{"0.0.0.0/0", "::/0"}
	}
	return splitList(v)
}

func (routerService *RouterService) securityHeadersMiddleware() gin.HandlerFunc {
	policy := routerService.policy

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if policy.HSTSEnabled && isHTTPS(c) {
			h.Set("Strict-Transport-Security", policy.hstsValue())
		}
		c.Next()
	}
}

// isHTTPS also honours X-Forwarded-Proto for TLS terminated at a proxy.
func isHTTPS(c *gin.Context) bool {
	if c.Request.TLS != nil {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(c.GetHeader("X-Forwarded-Proto")), "https")
}

func (routerService *RouterService) maxBodySizeMiddleware() gin.HandlerFunc {
	maxBytes := routerService.policy.MaxBodyBytes

	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, ErrorResult(
				http.StatusRequestEntityTooLarge,
				"Request payload too large",
				nil,
			).ToJSON())
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

func (routerService *RouterService) corsMiddleware() gin.HandlerFunc {
	policy := routerService.policy
	if len(policy.AllowedOrigins) == 0 {
		routerService.logger.Warn("CORS_ALLOWED_ORIGIN not set; cross-origin requests from the landing page will be denied")
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if !policy.originAllowed(origin) {
			if origin != "" {
				routerService.GetLogger(c).Warn("CORS origin not allowed", "origin", origin)
			}
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		h.Set("Access-Control-Allow-Methods", corsAllowMethods)
		h.Set("Access-Control-Expose-Headers", corsExposeHeaders)
		h.Add("Vary", "Origin")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(apperrors.StatusNoContent)
			return
		}
		c.Next()
	}
}

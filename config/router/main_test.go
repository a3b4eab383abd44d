package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/akeren/klyr-waitlist/internal/log"
)

func mountTestController(rs *RouterService) {
	ctrl := NewRESTController("TestController", "/", func(rs *RouterService, c *RESTController) {
		rs.AddGetHandler(c, nil, "ip", func(ctx *RequestContext) *ServiceResult {
			return OKResult(ctx.ClientIP(), "ok")
		})

		rs.AddPostHandler(c, nil, "echo", func(ctx *RequestContext) *ServiceResult {
			var payload map[string]any
			if err := ctx.ShouldBindJSON(&payload); err != nil {
				return BadRequestResult("bad", nil)
			}
			return OKResult(payload, "ok")
		})
	})

	rs.MountController(ctrl)
}

func newTestRouterService(t *testing.T) *RouterService {
	t.Helper()

	logger := log.NewLoggerWithJSONOutput()
	return CreateRouterService(logger, nil, &RouterConfig{
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    5 * time.Second,
	})
}

func TestTrustedProxies_DisabledByDefault(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "")

	rs := newTestRouterService(t)
	mountTestController(rs)

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	req.Header.Set("X-Forwarded-For", "1.1.1.1")

	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Code    int    `json:"code"`
		Data    string `json:"data"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if resp.Data != "10.0.0.2" {
		t.Fatalf("expected ClientIP to use RemoteAddr when trusted proxies disabled; got %q", resp.Data)
	}
}

func TestTrustedProxies_StarTrustsForwardedFor(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "*")

	rs := newTestRouterService(t)
	mountTestController(rs)

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	req.Header.Set("X-Forwarded-For", "1.1.1.1")

	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Code    int    `json:"code"`
		Data    string `json:"data"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if resp.Data != "1.1.1.1" {
		t.Fatalf("expected ClientIP to use X-Forwarded-For when trusted proxies enabled; got %q", resp.Data)
	}
}

func TestMaxBodySize_Returns413(t *testing.T) {
	t.Setenv("MAX_REQUEST_BODY_BYTES", "10")

	rs := newTestRouterService(t)
	mountTestController(rs)

	body := bytes.Repeat([]byte{'a'}, 50)
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", w.Code, w.Body.String())
	}
}

func newPolicyRouterService(t *testing.T, policy *HTTPPolicy) *RouterService {
	t.Helper()

	rs := CreateRouterService(log.NewLoggerWithJSONOutput(), nil, &RouterConfig{
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    5 * time.Second,
		Policy:            policy,
	})
	mountTestController(rs)
	return rs
}

func TestCORS_PreflightFromAllowedOrigin(t *testing.T) {
	rs := newPolicyRouterService(t, &HTTPPolicy{AllowedOrigins: []string{"https://klyr.app"}})

	req := httptest.NewRequest(http.MethodOptions, "/echo", nil)
	req.Header.Set("Origin", "https://klyr.app")
	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://klyr.app" {
		t.Fatalf("unexpected allow-origin %q", got)
	}
}

func TestCORS_UnknownOriginGetsNoHeaders(t *testing.T) {
	rs := newPolicyRouterService(t, &HTTPPolicy{AllowedOrigins: []string{"https://klyr.app"}})

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set("Origin", "https://evil.example")
	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow-origin header, got %q", got)
	}
}

func TestHSTS_OnlyBehindHTTPS(t *testing.T) {
	rs := newPolicyRouterService(t, &HTTPPolicy{HSTSEnabled: true, HSTSMaxAge: 600})

	plain := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(plain, httptest.NewRequest(http.MethodGet, "/ip", nil))
	if got := plain.Header().Get("Strict-Transport-Security"); got != "" {
		t.Fatalf("expected no HSTS over plain http, got %q", got)
	}

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	secure := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(secure, req)
	if got := secure.Header().Get("Strict-Transport-Security"); got != "max-age=600" {
		t.Fatalf("unexpected HSTS header %q", got)
	}
}

func TestLoadHTTPPolicyFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("CORS_ALLOWED_ORIGIN", " https://klyr.app, ,https://www.klyr.app ")
	t.Setenv("TRUSTED_PROXIES", "")
	t.Setenv("MAX_REQUEST_BODY_BYTES", "bogus")
	t.Setenv("HSTS_ENABLED", "")
	t.Setenv("HSTS_INCLUDE_SUBDOMAINS", "false")

	p := LoadHTTPPolicyFromEnv()

	if len(p.AllowedOrigins) != 2 || p.AllowedOrigins[1] != "https://www.klyr.app" {
		t.Fatalf("unexpected origins %v", p.AllowedOrigins)
	}
	if p.TrustedProxies != nil {
		t.Fatalf("expected no trusted proxies, got %v", p.TrustedProxies)
	}
	if p.MaxBodyBytes != defaultMaxBodyBytes {
		t.Fatalf("expected default body limit, got %d", p.MaxBodyBytes)
	}
	if !p.HSTSEnabled || p.hstsValue() != "max-age=31536000" {
		t.Fatalf("unexpected HSTS settings %+v", p)
	}
}

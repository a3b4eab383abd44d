package site

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/akeren/klyr-waitlist/config/router"
	"github.com/akeren/klyr-waitlist/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSiteRouter(t *testing.T) *router.RouterService {
	t.Helper()

	rs := router.CreateRouterService(log.NewLoggerWithJSONOutput(), nil, &router.RouterConfig{
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    5 * time.Second,
	})
	controller, err := NewSiteControllerFactory(nil).CreateController()
	require.NoError(t, err)
	rs.MountController(controller)
	return rs
}

func TestSiteController(t *testing.T) {
	rs := newSiteRouter(t)

	cases := []struct {
		path  string
		check func(t *testing.T, data json.RawMessage)
	}{
		{
			path: "/v1/site/landing",
			check: func(t *testing.T, data json.RawMessage) {
				var landing Landing
				require.NoError(t, json.Unmarshal(data, &landing))
				assert.Equal(t, "hero-primary", landing.Hero.CTA.Source)
			},
		},
		{
			path: "/v1/site/pricing",
			check: func(t *testing.T, data json.RawMessage) {
				var pricing Pricing
				require.NoError(t, json.Unmarshal(data, &pricing))
				assert.Equal(t, "pricing-banner", pricing.Banner.CTA.Source)
				assert.Len(t, pricing.Tiers, 3)
			},
		},
		{
			path: "/v1/site/form-options",
			check: func(t *testing.T, data json.RawMessage) {
				var options FormOptions
				require.NoError(t, json.Unmarshal(data, &options))
				assert.Len(t, options.Roles, 5)
				assert.Len(t, options.Meetings, 3)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			rs.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))

			require.Equal(t, http.StatusOK, w.Code)
			var body struct {
				Data json.RawMessage `json:"data"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			tc.check(t, body.Data)
		})
	}
}

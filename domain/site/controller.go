package site

import (
	"time"

	"github.com/akeren/klyr-waitlist/config/router"
	"github.com/akeren/klyr-waitlist/pkg/factory"
	"github.com/akeren/klyr-waitlist/pkg/ratelimit"
)

const sitePagesPerMinute = 120

func NewSiteController(content *Content, factories *factory.FactoryContainer) *router.RESTController {
	return router.NewVersionedRESTController(
		"SiteController",
		"v1",
		"/site",
		func(rs *router.RouterService, c *router.RESTController) {
			c.RateLimitWith(rs, createSiteRateLimiter(factories))

			rs.AddGetHandler(c, nil, "landing", func(ctx *router.RequestContext) *router.ServiceResult {
				return router.OKResult(content.Landing, "Landing content retrieved successfully")
			})

			rs.AddGetHandler(c, nil, "pricing", func(ctx *router.RequestContext) *router.ServiceResult {
				return router.OKResult(content.Pricing, "Pricing content retrieved successfully")
			})

			rs.AddGetHandler(c, nil, "form-options", func(ctx *router.RequestContext) *router.ServiceResult {
				return router.OKResult(content.FormOptions, "Form options retrieved successfully")
			})
		},
	)
}

func createSiteRateLimiter(factories *factory.FactoryContainer) ratelimit.RateLimiter {
	if factories == nil || factories.RateLimiterFactory == nil {
		return ratelimit.NewInMemoryRateLimiter(sitePagesPerMinute, time.Minute)
	}
	return factories.RateLimiterFactory.CreateRateLimiter("site", sitePagesPerMinute, time.Minute)
}

package waitlist

import (
	"errors"
	"time"

	"github.com/akeren/klyr-waitlist/config/router"
	"github.com/akeren/klyr-waitlist/internal/log"
	"github.com/akeren/klyr-waitlist/internal/validation"
	apperrors "github.com/akeren/klyr-waitlist/pkg/errors"
	"github.com/akeren/klyr-waitlist/pkg/factory"
	"github.com/akeren/klyr-waitlist/pkg/ratelimit"
)

// Settings are the tunables of the waitlist routes.
type Settings struct {
	PublishableKey       string
	SubmissionsPerMinute int
	CountCacheTTL        time.Duration
}

func NewWaitlistController(
	service WaitlistService,
	factories *factory.FactoryContainer,
	settings Settings,
	logger *log.Logger,
) *router.RESTController {

	return router.NewVersionedRESTController(
		"WaitlistController",
		"v1",
		"/waitlist",
		func(rs *router.RouterService, c *router.RESTController) {
			submissionLimiter := createSubmissionRateLimiter(factories, settings.SubmissionsPerMinute)
			requireKey := router.RequireAPIKey(settings.PublishableKey)

			if settings.PublishableKey == "" {
				logger.Warn("WAITLIST_PUBLISHABLE_KEY not set; waitlist routes accept requests without X-Api-Key")
			}

			rs.AddPostHandler(c, submissionLimiter, "", submitHandler(service), requireKey)
			rs.AddGetHandler(c, nil, "count", countHandler(service), requireKey)
		},
	)
}

func createSubmissionRateLimiter(factories *factory.FactoryContainer, perMinute int) ratelimit.RateLimiter {
	if factories == nil || factories.RateLimiterFactory == nil {
		return ratelimit.NewInMemoryRateLimiter(perMinute, time.Minute)
	}
	return factories.RateLimiterFactory.CreateRateLimiter("waitlist-submit", perMinute, time.Minute)
}

func submitHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		var req SubmitWaitlistRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind waitlist request", "error", err)

			if typeErrors := apperrors.FormatValidationErrors(err, &req); len(typeErrors) > 0 {
				return router.BadRequestResult("Invalid request payload", typeErrors)
			}
			return router.BadRequestResult("Invalid request body", nil)
		}

		submission, err := validation.NewSubmission(req)
		if err != nil {
			var details []apperrors.ValidationErrorResponse
			var verr *validation.ValidationError
			if errors.As(err, &verr) {
				details = append(details, verr.Response())
			}
			logger.Info("Waitlist submission rejected", "reason", err.Error())
			return router.BadRequestResult("Invalid input", details)
		}

		response, err := service.Submit(ctx.Request.Context(), submission)
		if err != nil {
			return router.AppErrorResult(err, msgSubmitFailed)
		}

		return router.CreatedResult(response, "Waitlist submission")
	}
}

func countHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		response, err := service.Count(ctx.Request.Context())
		if err != nil {
			return router.AppErrorResult(err, msgCountFailed)
		}
		return router.OKResult(response, "Waitlist count retrieved successfully")
	}
}

package monitoring

import (
	"context"
	"time"

	"github.com/akeren/klyr-waitlist/config/router"
	"github.com/akeren/klyr-waitlist/internal/log"
	"github.com/akeren/klyr-waitlist/pkg/counter"
	"github.com/akeren/klyr-waitlist/pkg/factory"
	"github.com/akeren/klyr-waitlist/pkg/ratelimit"
	"gorm.io/gorm"
)

const monitoringRequestsPerMinute = 10

type Cache interface {
	Ping(ctx context.Context) error
}

// SignupSource reports the state of the background signup counter.
type SignupSource interface {
	Snapshot() counter.Snapshot
}

type SignupStatus struct {
	Count     int64  `json:"count"`
	Display   string `json:"display"`
	Known     bool   `json:"known"`
	UpdatedAt string `json:"updated_at,omitempty"`
	LastError string `json:"last_error,omitempty"`
	Failures  int    `json:"failures"`
	Running   bool   `json:"running"`
}

type HealthStatus struct {
	Database int           `json:"database"` // 1 = healthy, 0 = unhealthy
	Cache    int           `json:"cache"`    // 1 = healthy, 0 = unhealthy/not configured
	Uptime   int           `json:"uptime"`   // seconds
	Signups  *SignupStatus `json:"signups,omitempty"`
}

type MonitoringController struct {
	db        *gorm.DB
	logger    *log.Logger
	cache     Cache
	signups   SignupSource
	startTime time.Time
}

func NewMonitoringController(
	db *gorm.DB,
	logger *log.Logger,
	cache Cache,
	signups SignupSource,
	factories *factory.FactoryContainer,
) *router.RESTController {
	ctrl := &MonitoringController{
		db:        db,
		logger:    logger,
		cache:     cache,
		signups:   signups,
		startTime: time.Now(),
	}

	return router.NewRESTController(
		"MonitoringController",
		"/",
		func(routerService *router.RouterService, controller *router.RESTController) {
			monitoringRateLimiter := createMonitoringRateLimiter(factories)

			routerService.AddGetHandler(controller, monitoringRateLimiter, "", func(c *router.RequestContext) *router.ServiceResult {
				return ctrl.monitor(c)
			})

			routerService.AddGetHandler(controller, monitoringRateLimiter, "health", func(c *router.RequestContext) *router.ServiceResult {
				return ctrl.healthCheck(routerService, c)
			})
		},
	)
}

func createMonitoringRateLimiter(factories *factory.FactoryContainer) ratelimit.RateLimiter {
	if factories == nil || factories.RateLimiterFactory == nil {
		return ratelimit.NewRateLimiter(&ratelimit.RateLimitConfig{
			Requests: monitoringRequestsPerMinute,
			Window:   time.Minute,
		})
	}
	return factories.RateLimiterFactory.CreateRateLimiter("monitoring", monitoringRequestsPerMinute, time.Minute)
}

func (ctrl *MonitoringController) healthCheck(
	routerService *router.RouterService,
	c *router.RequestContext,
) *router.ServiceResult {
	logger := routerService.GetLogger(c)
	logger.Info("Health check endpoint called")
	healthStatus := ctrl.performHealthChecks(c.Request.Context(), logger)

	return router.OKResult(healthStatus, "klyr-waitlist health check completed")
}

func (ctrl *MonitoringController) monitor(
	c *router.RequestContext,
) *router.ServiceResult {
	return router.OKResult("Klyr waitlist service is operational.", "Monitoring successful")
}

func (ctrl *MonitoringController) performHealthChecks(ctx context.Context, logger *log.Logger) HealthStatus {
	status := HealthStatus{
		Uptime: int(time.Since(ctrl.startTime).Seconds()),
	}

	checkDatabaseConnectivity(ctx, ctrl, &status, logger)

	checkCacheConnectivity(ctx, ctrl, &status, logger)

	if ctrl.signups != nil {
		status.Signups = toSignupStatus(ctrl.signups.Snapshot())
	}

	return status
}

func toSignupStatus(s counter.Snapshot) *SignupStatus {
	status := &SignupStatus{
		Count:     s.Count,
		Display:   s.Display,
		Known:     s.Known,
		LastError: s.LastError,
		Failures:  s.Failures,
		Running:   s.Running,
	}
	if !s.UpdatedAt.IsZero() {
		status.UpdatedAt = s.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return status
}

func checkCacheConnectivity(ctx context.Context, ctrl *MonitoringController, status *HealthStatus, logger *log.Logger) {
	if ctrl.cache == nil {
		logger.Info("Cache not configured, cache health check skipped")
		return
	}
	if ctrl.cache.Ping(ctx) == nil {
		status.Cache = 1
		logger.Info("Cache health check passed")
		return
	}
	logger.Error("Cache health check failed")
}

func checkDatabaseConnectivity(ctx context.Context, ctrl *MonitoringController, status *HealthStatus, logger *log.Logger) {
	if ctrl.checkDatabase(ctx) {
		status.Database = 1
		logger.Info("Database health check passed")
	} else {
		logger.Error("Database health check failed")
	}
}

func (ctrl *MonitoringController) checkDatabase(ctx context.Context) bool {
	if ctrl.db == nil {
		return false
	}
	sqlDB, err := ctrl.db.DB()
	if err != nil {
		return false
	}
	return sqlDB.PingContext(ctx) == nil
}

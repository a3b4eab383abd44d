package monitoring

import (
	"github.com/akeren/klyr-waitlist/config/router"
	"github.com/akeren/klyr-waitlist/internal/log"
	"github.com/akeren/klyr-waitlist/pkg/factory"
	"gorm.io/gorm"
)

type MonitoringControllerFactory interface {
	CreateController() *router.RESTController
}

type DefaultMonitoringControllerFactory struct {
	db        *gorm.DB
	logger    *log.Logger
	cache     Cache
	signups   SignupSource
	factories *factory.FactoryContainer
}

func NewMonitoringControllerFactory(
	db *gorm.DB,
	logger *log.Logger,
	cache Cache,
	signups SignupSource,
	factories *factory.FactoryContainer,
) MonitoringControllerFactory {
	return &DefaultMonitoringControllerFactory{
		db:        db,
		logger:    logger,
		cache:     cache,
		signups:   signups,
		factories: factories,
	}
}

func (f *DefaultMonitoringControllerFactory) CreateController() *router.RESTController {
	return NewMonitoringController(f.db, f.logger, f.cache, f.signups, f.factories)
}

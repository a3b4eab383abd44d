package site

import (
	"github.com/akeren/klyr-waitlist/config/router"
	"github.com/akeren/klyr-waitlist/pkg/factory"
)

type SiteControllerFactory interface {
	CreateController() (*router.RESTController, error)
}

type DefaultSiteControllerFactory struct {
	factories *factory.FactoryContainer
}

func NewSiteControllerFactory(factories *factory.FactoryContainer) SiteControllerFactory {
	return &DefaultSiteControllerFactory{factories: factories}
}

func (f *DefaultSiteControllerFactory) CreateController() (*router.RESTController, error) {
	content, err := LoadContent()
	if err != nil {
		return nil, err
	}
	return NewSiteController(content, f.factories), nil
}

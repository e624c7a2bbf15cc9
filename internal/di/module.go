package di

import (
	"go.uber.org/fx"

	"github.com/craftlane/fulfillment/internal/adapter/mailer"
	"github.com/craftlane/fulfillment/internal/app"
	"github.com/craftlane/fulfillment/internal/config"
	"github.com/craftlane/fulfillment/internal/logger"
	"github.com/craftlane/fulfillment/internal/server/http/handlers"
	"github.com/craftlane/fulfillment/internal/server/http/router"
	"github.com/craftlane/fulfillment/internal/storage/postgres"
	"github.com/craftlane/fulfillment/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		postgres.Module,
		mailer.Module,
		usecase.Module,
		fx.Provide(func(f *app.FulfillmentFacade) handlers.FulfillmentFacade { return f }),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}

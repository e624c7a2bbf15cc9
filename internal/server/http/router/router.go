package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/craftlane/fulfillment/internal/server/http/handlers"
	"github.com/craftlane/fulfillment/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.FulfillmentFacade, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	orderHandler := handlers.NewOrderHandler(facade)
	approvalHandler := handlers.NewApprovalHandler(facade)
	notificationHandler := handlers.NewNotificationHandler(facade, logger)
	healthHandler := handlers.NewHealthHandler(facade)

	api := engine.Group("/api")
	api.GET("/health", healthHandler.Check)

	orders := api.Group("/orders")
	orders.POST("", orderHandler.Create)
	orders.GET("/:number", orderHandler.Get)
	orders.GET("/:number/history", orderHandler.History)
	orders.POST("/:number/status", orderHandler.Transition)
	orders.GET("/:number/notifications", notificationHandler.ListByOrder)

	approvals := api.Group("/approvals")
	approvals.GET("/queue", approvalHandler.Queue)
	approvals.POST("/:id/decision", approvalHandler.Decide)
	approvals.POST("/:id/override", approvalHandler.Override)
	approvals.POST("/:id/reminder", approvalHandler.Remind)

	api.POST("/notifications/:id/retry", notificationHandler.Retry)
	api.POST("/webhooks/mail", notificationHandler.Webhook)

	return engine
}

package http

import (
	"github.com/gin-gonic/gin"
	"github.com/tiendabot/backend/config"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/search", handler.Search)
		v1.POST("/requests", handler.ProcessRequest)

		orders := v1.Group("/orders")
		{
			orders.GET("/:customerID", handler.GetOrder)
			orders.POST("/:customerID/confirm", handler.ConfirmOrder)
			orders.DELETE("/:customerID", handler.CancelOrder)
		}
	}

	return router
}

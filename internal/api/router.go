package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/printhouse/storefront/internal/api/handlers"
	"github.com/printhouse/storefront/internal/api/middleware"
	"github.com/printhouse/storefront/internal/config"
	"github.com/printhouse/storefront/internal/repository"
	"github.com/printhouse/storefront/internal/service"
)

// Dependencies are the services the HTTP layer dispatches to
type Dependencies struct {
	Repos    *repository.Repositories
	Orders   *service.OrderService
	Shipping *service.ShippingService
	Payments *service.PaymentService
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, deps Dependencies, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public routes
	router.POST("/shipping/calculate", handlers.HandleCalculateShipping(deps.Shipping, logger))
	router.POST("/payments/webhook", handlers.HandlePaymentWebhook(deps.Payments, logger))

	authenticated := router.Group("")
	authenticated.Use(middleware.AuthMiddleware([]byte(cfg.Auth.JWTSecret), logger))
	{
		authenticated.POST("/orders",
			middleware.IdempotencyMiddleware(logger),
			handlers.HandleCreateOrder(deps.Orders, logger),
		)
		authenticated.GET("/orders", handlers.HandleListMyOrders(deps.Orders, logger))
		authenticated.GET("/orders/:id", handlers.HandleGetOrder(deps.Orders, logger))

		authenticated.POST("/payments/process", handlers.HandleProcessCardPayment(deps.Payments, logger))
		authenticated.POST("/payments/pix", handlers.HandleCreatePixPayment(deps.Payments, logger))
		authenticated.POST("/payments/boleto", handlers.HandleCreateBoletoPayment(deps.Payments, logger))
	}

	admin := authenticated.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	{
		admin.GET("/orders", handlers.HandleListOrders(deps.Orders, logger))
		admin.PATCH("/orders/:id/status", handlers.HandleUpdateOrderStatus(deps.Orders, logger))
		admin.GET("/settings/:key", handlers.HandleGetSetting(deps.Repos.Setting, logger))
		admin.PUT("/settings/:key", handlers.HandlePutSetting(deps.Repos.Setting, logger))
	}

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if status >= http.StatusInternalServerError {
			logger.Error("HTTP request", fields...)
			return
		}
		logger.Info("HTTP request", fields...)
	}
}

package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vnpay-acquirer/internal/shared/middleware"
	"vnpay-acquirer/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
	)

	router.GET("/health", healthCheckHandler(c))

	v1 := router.Group("/api/v1")
	{
		setupPaymentRoutes(v1, c)
		setupAdminRoutes(v1, c)
	}

	return router
}

// ========================================
// PAYMENT ROUTES (checkout and gateway)
// ========================================
func setupPaymentRoutes(v1 *gin.RouterGroup, c *container.Container) {
	vnpay := v1.Group("/payment/vnpay")
	{
		vnpay.POST("/create_charge", c.PaymentHandler.CreateCharge)
		vnpay.POST("/feedback", c.PaymentHandler.Feedback)
		vnpay.POST("/s2s/create_json", c.AcquirerHandler.S2SCreateJSON)
		vnpay.POST("/form_values", c.AcquirerHandler.FormValues)
	}
}

// ========================================
// ADMIN ROUTES
// ========================================
func setupAdminRoutes(v1 *gin.RouterGroup, c *container.Container) {
	admin := v1.Group("/admin")
	admin.Use(middleware.AuthMiddleware(c.JWTManager), middleware.AdminMiddleware())

	transactions := admin.Group("/transactions")
	{
		transactions.POST("", c.PaymentHandler.CreateTransaction)
		transactions.GET("/:id", c.PaymentHandler.GetTransaction)
		transactions.GET("/:id/feedback", c.PaymentHandler.ListFeedback)
		transactions.POST("/:id/charge", c.PaymentHandler.DoTransaction)
		transactions.POST("/:id/refund", c.PaymentHandler.DoRefund)
	}

	acquirers := admin.Group("/acquirers")
	{
		acquirers.GET("/:id", c.AcquirerHandler.GetAcquirer)
		acquirers.PUT("/:id/credentials", c.AcquirerHandler.UpdateCredentials)
	}

	admin.GET("/tokens/:id", c.TokenHandler.GetToken)
	admin.GET("/partners/:id/tokens", c.TokenHandler.ListPartnerTokens)
}

// ========================================
// HEALTH CHECK
// ========================================
func healthCheckHandler(c *container.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		deps := c.HealthCheck(ctx.Request.Context())

		status := http.StatusOK
		overall := "UP"
		if deps["database"] != "UP" {
			status = http.StatusServiceUnavailable
			overall = "DOWN"
		} else if deps["redis"] != "UP" {
			overall = "DEGRADED"
		}

		ctx.JSON(status, gin.H{
			"status":       overall,
			"service":      c.Config.App.Name,
			"version":      c.Config.App.Version,
			"dependencies": deps,
		})
	}
}

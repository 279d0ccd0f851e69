package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/wekeepgrowing/payment-reconciler/internal/middleware/auth"
	"go.uber.org/zap"
)

// Handlers groups every HTTP handler of the service
type Handlers struct {
	Return      *ReturnHandler
	Plan        *PlanHandler
	Transaction *TransactionHandler
	Webhook     *WebhookHandler
	Internal    *InternalHandler
}

// RouteConfig carries the secrets the routes are guarded with
type RouteConfig struct {
	JWTSecret     string
	InternalToken string
	ServiceName   string
}

// RegisterRoutes mounts the API on e
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg RouteConfig, logger *zap.Logger) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": cfg.ServiceName,
		})
	})

	// Webhook route (outside API versioning, authenticated by signature)
	e.POST("/webhook/gateway", h.Webhook.HandleWebhook)

	jwtConfig := auth.JWTConfig{
		Secret:        cfg.JWTSecret,
		Logger:        logger,
		OptionalPaths: []string{"/api/v1/plan"},
	}

	v1 := e.Group("/api/v1")

	// Internal routes
	internal := v1.Group("/internal", auth.InternalTokenMiddleware(cfg.InternalToken, logger))
	internal.GET("/verification-stats", h.Internal.VerificationStats)

	protected := v1.Group("", auth.JWTMiddleware(jwtConfig))

	protected.GET("/payments/return", h.Return.Return)

	protected.GET("/plan", h.Plan.GetPlan)
	protected.POST("/plan/repair", h.Plan.Repair)

	transactions := protected.Group("/transactions")
	transactions.POST("", h.Transaction.Register)
	transactions.GET("/:tranId", h.Transaction.Get)
	transactions.POST("/:tranId/auto-renew/cancel", h.Transaction.CancelAutoRenew)
	transactions.POST("/:tranId/auto-renew/enable", h.Transaction.EnableAutoRenew)
	transactions.POST("/:tranId/downgrade", h.Transaction.Downgrade)
}

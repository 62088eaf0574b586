package payment

import "github.com/gin-gonic/gin"

func RegisterRoutes(authorized *gin.RouterGroup, h *Handler) {
	authorized.POST("/payments/charge", h.CreateCharge)
}

// RegisterWebhookRoutes mounts the unauthenticated provider callback.
func RegisterWebhookRoutes(public *gin.RouterGroup, h *Handler) {
	public.POST("/webhooks/whop", h.Webhook)
}

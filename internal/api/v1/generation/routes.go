package generation

import (
	"ugcads-backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(public *gin.RouterGroup, h *Handler, secret string) {
	public.POST("/generation/callback", middleware.CallbackAuth(secret), h.Callback)
}

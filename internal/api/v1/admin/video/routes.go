package video

import "github.com/gin-gonic/gin"

func RegisterRoutes(admin *gin.RouterGroup, h *Handler) {
	admin.GET("/videos/:id", h.GetVideo)
	admin.POST("/videos/:id/fail", h.FailVideo)
}

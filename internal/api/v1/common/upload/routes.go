package upload

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(router *gin.RouterGroup, h *Handler) {
	group := router.Group("/uploads")
	{
		group.POST("/image", h.UploadImage)
		group.GET("/token", h.GetToken)
	}
}

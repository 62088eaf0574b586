package video

import "github.com/gin-gonic/gin"

func RegisterRoutes(router *gin.RouterGroup, h *Handler) {
	videos := router.Group("/videos")
	{
		videos.POST("/create", h.CreateVideo)
		videos.POST("/upload", h.UploadVideo)
		videos.GET("", h.ListVideos)
		videos.GET("/ws", h.Subscribe)
		videos.GET("/:id", h.GetVideo)
	}
}

package user

import "github.com/gin-gonic/gin"

func RegisterRoutes(admin *gin.RouterGroup, h *Handler) {
	admin.GET("/users", h.ListUsers)
	admin.POST("/users/:id/tokens", h.GrantTokens)
	admin.POST("/users/:id/block", h.BlockUser)
	admin.DELETE("/users/:id/block", h.UnblockUser)
}

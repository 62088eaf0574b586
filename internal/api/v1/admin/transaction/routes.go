package transaction

import "github.com/gin-gonic/gin"

func RegisterRoutes(admin *gin.RouterGroup, h *Handler) {
	admin.GET("/transactions", h.ListTransactions)
	admin.GET("/transactions/export", h.ExportTransactions)
}

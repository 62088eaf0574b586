package token

import "github.com/gin-gonic/gin"

func RegisterRoutes(router *gin.RouterGroup, h *Handler) {
	tokens := router.Group("/tokens")
	{
		tokens.GET("/balance", h.GetBalance)
		tokens.GET("/transactions", h.ListTransactions)
		tokens.GET("/packages", h.ListPackages)
	}
}

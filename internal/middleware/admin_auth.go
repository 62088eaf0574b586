package middleware

import (
	"net/http"

	"ugcads-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminOnly admits authenticated users listed in adminIDs. It must run after
// AuthMiddleware.
func AdminOnly(adminIDs []string, log *zap.Logger) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		allowed[id] = struct{}{}
	}

	return func(c *gin.Context) {
		userID := CurrentUserID(c)
		if _, ok := allowed[userID]; !ok || userID == "" {
			if log != nil {
				log.Warn("Unauthorized admin access attempt",
					zap.String("user_id", userID),
					zap.String("path", c.Request.URL.Path),
					zap.String("ip", c.ClientIP()),
				)
			}
			c.JSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, "Access denied: Admin privileges required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

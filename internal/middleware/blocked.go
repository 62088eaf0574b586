package middleware

import (
	"context"
	"net/http"

	"ugcads-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BlockChecker interface {
	IsBlocked(ctx context.Context, userID string) (bool, error)
}

// RejectBlocked runs after AuthMiddleware and turns suspended users away.
// Lookup failures let the request through.
func RejectBlocked(blocks BlockChecker, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := CurrentUserID(c)
		blocked, err := blocks.IsBlocked(c.Request.Context(), userID)
		if err != nil {
			if log != nil {
				log.Warn("Blocklist lookup failed", zap.String("user_id", userID), zap.Error(err))
			}
			c.Next()
			return
		}
		if blocked {
			c.JSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, "Account suspended"))
			c.Abort()
			return
		}
		c.Next()
	}
}

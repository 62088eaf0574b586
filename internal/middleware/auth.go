package middleware

import (
	"context"
	"net/http"

	"ugcads-backend/internal/identity"
	"ugcads-backend/internal/models"
	"ugcads-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	ContextUserIDKey = "user_id"
	ContextUserKey   = "user"
)

type TokenVerifier interface {
	Verify(token string) (*identity.Claims, error)
}

type UserProvisioner interface {
	EnsureUser(ctx context.Context, userID, email string) (*models.User, error)
}

// AuthMiddleware verifies the caller's Whop token and makes sure a local user
// row exists before the handler runs.
func AuthMiddleware(verifier TokenVerifier, users UserProvisioner, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := utils.ExtractToken(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, err.Error()))
			c.Abort()
			return
		}

		claims, err := verifier.Verify(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Invalid or expired token"))
			c.Abort()
			return
		}

		user, err := users.EnsureUser(c.Request.Context(), claims.UserID(), "")
		if err != nil {
			if log != nil {
				log.Error("Failed to provision user", zap.String("user_id", claims.UserID()), zap.Error(err))
			}
			c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to load user"))
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, user.ID)
		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// CurrentUserID returns the authenticated user's id, or "" outside AuthMiddleware.
func CurrentUserID(c *gin.Context) string {
	return c.GetString(ContextUserIDKey)
}

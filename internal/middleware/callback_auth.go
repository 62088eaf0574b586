package middleware

import (
	"crypto/subtle"
	"net/http"

	"ugcads-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

const CallbackSecretHeader = "X-Generation-Secret"

// CallbackAuth admits requests carrying the shared generation backend secret.
// With no secret configured every request is rejected.
func CallbackAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(CallbackSecretHeader)
		if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Invalid callback secret"))
			c.Abort()
			return
		}
		c.Next()
	}
}

package utils

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

// UserTokenHeader carries the identity token the Whop app proxy injects.
const UserTokenHeader = "x-whop-user-token"

// ExtractToken reads the caller's identity token from the Whop header,
// falling back to an Authorization bearer token. Browsers cannot set headers
// on a websocket handshake, so the token query parameter is accepted last.
func ExtractToken(c *gin.Context) (string, error) {
	if token := strings.TrimSpace(c.GetHeader(UserTokenHeader)); token != "" {
		return token, nil
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if token := c.Query("token"); token != "" && c.IsWebsocket() {
			return token, nil
		}
		return "", fmt.Errorf("authorization header is required")
	}

	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", fmt.Errorf("bearer token not found")
	}

	return strings.TrimPrefix(authHeader, bearerPrefix), nil
}

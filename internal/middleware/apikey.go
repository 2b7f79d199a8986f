package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireAPIKey guards the bot/worker routes with a shared X-API-Key header.
// An empty configured key disables the check (dev deployments).
func RequireAPIKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}
		got := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// RequireServiceAuth guards the internal routes: either the service bearer
// token or the internal API key header passes. With neither configured the
// check is disabled, mirroring RequireAPIKey.
func RequireServiceAuth(serviceToken, internalKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if serviceToken == "" && internalKey == "" {
			c.Next()
			return
		}

		if serviceToken != "" {
			auth := strings.TrimSpace(c.GetHeader("Authorization"))
			if strings.HasPrefix(auth, "Bearer ") {
				token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
				if subtle.ConstantTimeCompare([]byte(token), []byte(serviceToken)) == 1 {
					c.Next()
					return
				}
			}
		}
		if internalKey != "" {
			got := c.GetHeader("X-Internal-API-Key")
			if subtle.ConstantTimeCompare([]byte(got), []byte(internalKey)) == 1 {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "service_auth_required"})
	}
}

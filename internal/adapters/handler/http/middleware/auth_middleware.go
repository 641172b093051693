package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const (
	authorizationHeader = "Authorization"
	authorizationType   = "Bearer"
)

// APITokenMiddleware admits requests whose bearer token matches the bcrypt
// hash. An empty hash disables the protected routes entirely.
func APITokenMiddleware(tokenHash string) gin.HandlerFunc {
	hash := []byte(tokenHash)

	return func(c *gin.Context) {
		if len(hash) == 0 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "sync api disabled"})
			return
		}

		authHeader := c.GetHeader(authorizationHeader)
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		fields := strings.Fields(authHeader)
		if len(fields) != 2 || fields[0] != authorizationType {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		if err := bcrypt.CompareHashAndPassword(hash, []byte(fields[1])); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid api token"})
			c.Abort()
			return
		}

		c.Next()
	}
}

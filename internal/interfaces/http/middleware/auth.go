// internal/interfaces/http/middleware/auth.go
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-gateway/internal/config"
	"github.com/your-org/storefront-gateway/internal/pkg/auth"
)

// OptionalAuth distinguishes guest from authenticated sessions. A valid
// bearer token puts the request in authenticated mode; anything else
// falls through to guest mode rather than failing, because every cart
// route works for guests too.
func OptionalAuth(cfg *config.Config) gin.HandlerFunc {
	jwtManager := auth.NewJWTManager(cfg)

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		tokenString := auth.ExtractTokenFromHeader(authHeader)
		if tokenString == "" {
			c.Next()
			return
		}

		claims, err := jwtManager.ValidateAccessToken(tokenString)
		if err != nil {
			// Invalid token, continue as guest
			c.Next()
			return
		}

		c.Set("access_token", tokenString)
		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)

		c.Next()
	}
}

// GetAccessTokenFromContext extracts the validated bearer token from gin
// context, empty for guests
func GetAccessTokenFromContext(c *gin.Context) string {
	token, exists := c.Get("access_token")
	if !exists {
		return ""
	}
	return token.(string)
}

// GetUserIDFromContext extracts user ID from gin context
func GetUserIDFromContext(c *gin.Context) (uint, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	return userID.(uint), true
}

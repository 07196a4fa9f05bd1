// internal/interfaces/http/middleware/session.go
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-gateway/internal/session"
)

const sessionCookie = "sf_session"

// SessionID resolves the browser session identifier: an explicit
// X-Session-ID header wins, then the session cookie, then a fresh ID is
// minted and set as a cookie.
func SessionID() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("X-Session-ID")
		if sessionID == "" {
			if cookie, err := c.Cookie(sessionCookie); err == nil {
				sessionID = cookie
			}
		}
		if sessionID == "" {
			sessionID = session.NewSessionID()
			c.SetCookie(sessionCookie, sessionID, 86400, "/", "", false, true)
		}

		c.Set("session_id", sessionID)
		c.Next()
	}
}

// GetSessionIDFromContext extracts the session ID from gin context
func GetSessionIDFromContext(c *gin.Context) string {
	sessionID, exists := c.Get("session_id")
	if !exists {
		return ""
	}
	return sessionID.(string)
}

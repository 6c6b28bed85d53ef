package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// ExtractUserID exposes the authenticated user as "user_id_validated" for the
// idempotency keys and the per-user rate limiter. Must run after AuthMiddleware.
func ExtractUserID() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, exists := c.Get("user_id")
		if !exists {
			abortWithError(c, ErrMissingAuthContext, nil)
			return
		}

		userID, _ := raw.(string)
		userID = strings.TrimSpace(userID)
		if userID == "" {
			abortWithError(c, ErrInvalidToken, gin.H{"user_id": "empty or not a string"})
			return
		}

		c.Set("user_id_validated", userID)
		c.Next()
	}
}

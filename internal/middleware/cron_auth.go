package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CronAuthMiddleware creates a Gin middleware that validates the
// Authorization bearer token against the configured cron secret. The
// check is skipped in development mode so the recurring-transaction job
// can be triggered locally without credentials.
func CronAuthMiddleware(secret string, devMode bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if devMode {
			c.Next()
			return
		}
		if secret == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": gin.H{"code": "CRON_NOT_CONFIGURED", "message": "Cron endpoint is not configured"}})
			return
		}
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"error": gin.H{"code": "UNAUTHORIZED", "message": "Invalid or missing cron secret"}})
			return
		}
		c.Next()
	}
}

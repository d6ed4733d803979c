// Package middleware provides the gin middleware chain: recovery, trace,
// request logging, actor extraction and central error rendering.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kvtrade/pkg/logger"
)

// Recovery converts panics into 500 responses instead of killing the
// process.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error(c.Request.Context(), "panic recovered",
			"panic", recovered,
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "INTERNAL",
				"message": "Internal server error",
			},
		})
	})
}

package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"kvtrade/pkg/logger"
)

// Logger writes one structured line per request.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if c.Writer.Status() >= 500 {
			logger.Error(c.Request.Context(), "request failed", fields...)
		} else {
			logger.Info(c.Request.Context(), "request", fields...)
		}
	}
}

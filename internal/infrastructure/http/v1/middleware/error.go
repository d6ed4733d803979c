package middleware

import (
	"github.com/gin-gonic/gin"

	"kvtrade/internal/core/actor"
	"kvtrade/internal/core/apperror"
	"kvtrade/pkg/logger"
)

// ErrorHandler renders errors attached via c.Error into the common JSON
// envelope. Handlers never write error bodies themselves.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		appErr, ok := apperror.AsAppError(err)
		if !ok {
			appErr = apperror.NewInternal(err)
		}
		if appErr.Code == apperror.CodeInternal {
			logger.Error(c.Request.Context(), "internal error",
				"error", err, "path", c.Request.URL.Path)
		}

		body := gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		}
		if len(appErr.Details) > 0 {
			body["details"] = appErr.Details
		}
		if tc := actor.GetTrace(c.Request.Context()); tc != nil {
			body["requestId"] = tc.RequestID
		}
		c.AbortWithStatusJSON(appErr.HTTPStatus, gin.H{"error": body})
	}
}

// Package handlers implements the v1 HTTP handlers. Handlers bind and
// translate; domain services do the work. Errors are attached to the gin
// context and rendered centrally.
package handlers

import (
	"github.com/gin-gonic/gin"

	"kvtrade/internal/core/apperror"
	"kvtrade/internal/core/id"
)

// fail attaches an error for the central error middleware.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
}

// pathID parses a UUID path parameter.
func pathID(c *gin.Context, name string) (id.ID, bool) {
	parsed, err := id.Parse(c.Param(name))
	if err != nil {
		fail(c, apperror.NewValidation("invalid identifier").
			WithDetail("param", name).
			WithDetail("value", c.Param(name)))
		return id.Nil(), false
	}
	return parsed, true
}

// bindJSON binds the request body, converting bind failures to VALIDATION.
func bindJSON(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		fail(c, apperror.NewValidation("invalid request body").WithCause(err))
		return false
	}
	return true
}

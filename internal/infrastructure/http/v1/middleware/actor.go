package middleware

import (
	"github.com/gin-gonic/gin"

	"kvtrade/internal/core/actor"
)

// ActorHeader names the acting identity. Authentication happens upstream;
// the service records whatever identity the gateway forwards.
const ActorHeader = "X-Actor"

// Actor places the acting identity into the request context. Requests
// without the header act as "system".
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if name := c.GetHeader(ActorHeader); name != "" {
			ctx := actor.WithActor(c.Request.Context(), &actor.Actor{Name: name})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"kvtrade/internal/core/actor"
)

// RequestIDHeader carries the correlation id on requests and responses.
const RequestIDHeader = "X-Request-ID"

// Trace attaches a correlation id to every request. An incoming id is
// honoured, otherwise one is generated. The otel trace id is included when
// a span is active.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		tc := &actor.TraceContext{RequestID: requestID}
		if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().HasTraceID() {
			tc.TraceID = span.SpanContext().TraceID().String()
		}

		ctx := actor.WithTrace(c.Request.Context(), tc)
		c.Request = c.Request.WithContext(ctx)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chat-store/internal/observability"
)

const RequestIDContextKey = "request_id"

// RequestID propagates the caller's request id or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := observability.RequestIDFromRequest(c.Request)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDContextKey, requestID)
		c.Header(observability.RequestIDHeader, requestID)
		c.Next()
	}
}

package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chat-store/internal/middleware"
	"chat-store/internal/observability"
)

func requestIDFromContext(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDContextKey); id != "" {
		return id
	}

	requestID := observability.RequestIDFromRequest(c.Request)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(middleware.RequestIDContextKey, requestID)
	return requestID
}

func userIDFromContext(c *gin.Context) *string {
	if id := c.GetString(middleware.UserIDContextKey); id != "" {
		return &id
	}
	if header := c.GetHeader(middleware.UserIDHeader); header != "" {
		return &header
	}
	return nil
}

func currentUserID(c *gin.Context) string {
	return c.GetString(middleware.UserIDContextKey)
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"chat-store/internal/models"
	"chat-store/internal/repositories"
)

const (
	UserIDHeader     = "X-User-ID"
	UserIDContextKey = "userID"
)

// UserLookup is the part of the user repository the middleware needs.
type UserLookup interface {
	GetUser(ctx context.Context, userID string) (models.User, error)
}

// CurrentUser resolves the local user named by the X-User-ID header.
func CurrentUser(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing user id"})
			return
		}

		if _, err := users.GetUser(c.Request.Context(), userID); err != nil {
			switch {
			case errors.Is(err, repositories.ErrNotFound):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
			case errors.Is(err, repositories.ErrConnection):
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "could not resolve user"})
			}
			return
		}

		c.Set(UserIDContextKey, userID)
		c.Next()
	}
}

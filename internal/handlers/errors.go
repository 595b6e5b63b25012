package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-store/internal/repositories"
)

// statusFor maps the repository error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repositories.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, repositories.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repositories.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, repositories.ErrAlreadyExists), errors.Is(err, repositories.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, repositories.ErrConnection):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError writes err as a JSON error body. Internal failures get the
// fallback text so driver details stay in the logs.
func respondError(c *gin.Context, err error, fallback string) {
	_ = c.Error(err)
	status := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		msg = fallback
	}
	c.JSON(status, gin.H{"error": msg})
}

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-store/internal/logger"
	"chat-store/internal/models"
	"chat-store/internal/observability"
	"chat-store/internal/repositories"
)

type usersStub map[string]error

func (s usersStub) GetUser(_ context.Context, userID string) (models.User, error) {
	if err, ok := s[userID]; ok {
		return models.User{}, err
	}
	return models.User{ID: userID, Name: "u"}, nil
}

func setupRouter(users UserLookup) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), AccessLog(logger.Nop()))
	r.GET("/me", CurrentUser(users), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString(UserIDContextKey), "request_id": c.GetString(RequestIDContextKey)})
	})
	return r
}

func TestCurrentUserMissingHeader(t *testing.T) {
	router := setupRouter(usersStub{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCurrentUserStatusMapping(t *testing.T) {
	router := setupRouter(usersStub{
		"ghost": repositories.ErrUserNotFound,
		"down":  repositories.ErrConnection,
		"boom":  assert.AnError,
	})

	cases := map[string]int{
		"ghost": http.StatusUnauthorized,
		"down":  http.StatusServiceUnavailable,
		"boom":  http.StatusInternalServerError,
		"alice": http.StatusOK,
	}
	for userID, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(UserIDHeader, userID)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, userID)
	}
}

func TestRequestIDPropagatesHeader(t *testing.T) {
	router := setupRouter(usersStub{})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(UserIDHeader, "alice")
	req.Header.Set(observability.RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-1", rec.Header().Get(observability.RequestIDHeader))
	assert.Contains(t, rec.Body.String(), `"request_id":"req-1"`)
	assert.Contains(t, rec.Body.String(), `"user_id":"alice"`)
}

func TestRequestIDGeneratedWhenAbsent(t *testing.T) {
	router := setupRouter(usersStub{})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(UserIDHeader, "alice")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get(observability.RequestIDHeader))
}

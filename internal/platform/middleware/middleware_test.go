package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localpro-market/service-booking/internal/platform/auth"
)

func newRouter(jwtManager *auth.JWTManager, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	handlers := append([]gin.HandlerFunc{AuthMiddleware(jwtManager)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		id, _ := GetUserID(c)
		c.String(http.StatusOK, id.String())
	})
	r.GET("/me", handlers...)
	return r
}

func TestAuthMiddleware(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", "test", time.Hour)
	r := newRouter(jwtManager)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	userID := uuid.New()
	token, err := jwtManager.GenerateAccessToken(userID, auth.RoleClient)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID.String(), w.Body.String())
}

func TestRequireRole(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", "test", time.Hour)
	r := newRouter(jwtManager, RequireRole(auth.RoleAdmin))

	token, err := jwtManager.GenerateAccessToken(uuid.New(), auth.RoleProvider)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRateLimiterPerUser(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", "test", time.Hour)
	limiter := NewRateLimiter(0.001, 2)
	r := newRouter(jwtManager, limiter.Middleware())

	token, err := jwtManager.GenerateAccessToken(uuid.New(), auth.RoleClient)
	require.NoError(t, err)
	other, err := jwtManager.GenerateAccessToken(uuid.New(), auth.RoleClient)
	require.NoError(t, err)

	call := func(tok string) int {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, call(token))
	assert.Equal(t, http.StatusOK, call(token))
	assert.Equal(t, http.StatusTooManyRequests, call(token))
	assert.Equal(t, http.StatusOK, call(other))
}

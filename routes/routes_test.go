package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chatgroup/middleware"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, role string) string {
	t.Helper()
	claims := middleware.Claims{
		UserID: "64b0c7f2a1b2c3d4e5f60718",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestRouterAuthBoundary(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")
	router := SetupRouter()

	t.Run("health is public", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/api/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("protected routes reject missing tokens", func(t *testing.T) {
		for _, r := range []struct{ method, path string }{
			{"GET", "/api/chat-group/"},
			{"POST", "/api/chat-group/create"},
			{"GET", "/api/chat-group/chat/64b0c7f2a1b2c3d4e5f60718"},
			{"DELETE", "/api/chat-group/delete/64b0c7f2a1b2c3d4e5f60718"},
			{"POST", "/api/messages/"},
			{"GET", "/api/messages/chat/64b0c7f2a1b2c3d4e5f60718"},
			{"POST", "/api/messages/64b0c7f2a1b2c3d4e5f60718/read"},
		} {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(r.method, r.path, nil))
			assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", r.method, r.path)
		}
	})

	t.Run("create chat is admin-gated", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/chat-group/create", strings.NewReader(`{"name":"x"}`))
		req.Header.Set("Authorization", "Bearer "+signToken(t, "Developer"))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("unknown api routes return json 404", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/api/nope", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Endpoint not found")
	})
}

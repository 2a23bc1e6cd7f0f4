package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"heather-backend/internal/domain"
	"heather-backend/pkg/apperror"
	"heather-backend/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func signHS256(t *testing.T, secret string, claims auth.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), AuthMiddleware(auth.NewVerifier("secret", nil)))
	r.GET("/me", func(c *gin.Context) {
		ctx := c.Request.Context()
		c.JSON(http.StatusOK, gin.H{
			"id":   ctx.Value(domain.KeyUserID),
			"role": c.GetString(string(domain.KeyUserRole)),
			"name": ctx.Value(domain.KeyUserName),
		})
	})

	t.Run("missing header", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/me", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("bad signature", func(t *testing.T) {
		token := signHS256(t, "wrong", auth.Claims{RegisteredClaims: jwt.RegisteredClaims{
			Subject: "u1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}})
		w := perform(r, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer " + token})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token populates context", func(t *testing.T) {
		token := signHS256(t, "secret", auth.Claims{
			Email:        "ann@example.com",
			UserMetadata: domain.UserMetadata{Name: "Ann", Role: domain.RoleDoctor},
			RegisteredClaims: jwt.RegisteredClaims{
				Subject: "u1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		w := perform(r, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer " + token})
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":"u1","role":"doctor","name":"Ann"}`, w.Body.String())
	})
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), ErrorHandler())
	r.GET("/app", func(c *gin.Context) { _ = c.Error(apperror.NotFound("Profile not found")) })
	r.GET("/internal", func(c *gin.Context) { _ = c.Error(errors.New("pq: secret table details")) })

	w := perform(r, http.MethodGet, "/app", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Profile not found")

	w = perform(r, http.MethodGet, "/internal", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "secret table")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware("https://heather.health", true))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, http.MethodOptions, "/x", map[string]string{"Origin": "https://heather.health"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://heather.health", w.Header().Get("Access-Control-Allow-Origin"))

	w = perform(r, http.MethodOptions, "/x", map[string]string{"Origin": "http://localhost:5173"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = perform(r, http.MethodGet, "/x", map[string]string{"Origin": "https://evil.example"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimiterInMemory(t *testing.T) {
	limiter := NewRateLimiter(nil)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	r := gin.New()
	r.Use(limiter.Middleware(IPRateLimitConfig(2, time.Minute)))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/x", nil).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/x", nil).Code)

	w := perform(r, http.MethodGet, "/x", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	now = now.Add(61 * time.Second)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/x", nil).Code)

	now = now.Add(2 * time.Minute)
	limiter.Sweep()
	assert.Empty(t, limiter.entries)
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeadersMiddleware())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, http.MethodGet, "/x", map[string]string{"Authorization": "Bearer t"})
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
}

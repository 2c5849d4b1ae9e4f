package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/yourusername/stoolpool-api/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockCacheRepository реализует repository.CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Set(key string, value interface{}, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}

func (m *MockCacheRepository) Get(key string) (string, error) {
	args := m.Called(key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheRepository) Delete(key string) error {
	return m.Called(key).Error(0)
}

func (m *MockCacheRepository) Increment(key string) (int64, error) {
	args := m.Called(key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCacheRepository) Expire(key string, expiration time.Duration) error {
	return m.Called(key, expiration).Error(0)
}

func (m *MockCacheRepository) TTL(key string) (time.Duration, error) {
	args := m.Called(key)
	return args.Get(0).(time.Duration), args.Error(1)
}

func (m *MockCacheRepository) SetJSON(key string, value interface{}, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}

func (m *MockCacheRepository) GetJSON(key string, dest interface{}) error {
	return m.Called(key, dest).Error(0)
}

func (m *MockCacheRepository) SetNX(key string, value interface{}, expiration time.Duration) (bool, error) {
	args := m.Called(key, value, expiration)
	return args.Bool(0), args.Error(1)
}

// MockTokenParser реализует TokenParser
type MockTokenParser struct {
	mock.Mock
}

func (m *MockTokenParser) ParseToken(ctx context.Context, token string) (*auth.JWTCustomClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.JWTCustomClaims), args.Error(1)
}

func TestRateLimiter_Limit(t *testing.T) {
	// Arrange
	cache := new(MockCacheRepository)
	key := "rl:auth:192.0.2.1:/login"
	cache.On("Increment", key).Return(int64(1), nil).Once()
	cache.On("Increment", key).Return(int64(2), nil).Once()
	cache.On("Increment", key).Return(int64(3), nil).Once()
	cache.On("Expire", key, time.Minute).Return(nil).Once()
	cache.On("TTL", key).Return(42*time.Second, nil)

	router := gin.New()
	router.POST("/login", NewRateLimiter(cache).Limit(AuthRateLimitConfig(2, 60)), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		router.ServeHTTP(w, req)
		return w
	}

	// Act & Assert
	first := send()
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, send().Code)

	blocked := send()
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "42", blocked.Header().Get("Retry-After"))
	assert.Contains(t, blocked.Body.String(), "rate_limited")
	cache.AssertExpectations(t)
}

func TestRateLimiter_FailOpen(t *testing.T) {
	cache := new(MockCacheRepository)
	cache.On("Increment", mock.Anything).Return(int64(0), errors.New("redis down"))

	router := gin.New()
	router.GET("/x", NewRateLimiter(cache).LimitByIP(AuthRateLimitConfig(1, 1)), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAuthMiddleware_RequireAuth(t *testing.T) {
	parser := new(MockTokenParser)
	parser.On("ParseToken", "good").Return(&auth.JWTCustomClaims{UserID: 7, Email: "u@example.com"}, nil)
	parser.On("ParseToken", "revoked").Return(nil, auth.ErrTokenRevoked)
	parser.On("ParseToken", "bad").Return(nil, auth.ErrInvalidToken)
	parser.On("ParseToken", "flaky").Return(nil, errors.New("failed to check token revocation"))

	router := gin.New()
	router.GET("/me", NewAuthMiddleware(parser).RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.MustGet("user_id"), "email": c.MustGet("email")})
	})

	cases := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"без заголовка", "", http.StatusUnauthorized, "token_missing"},
		{"неверный формат", "Token good", http.StatusUnauthorized, "token_format"},
		{"валидный токен", "Bearer good", http.StatusOK, `"user_id":7`},
		{"регистр схемы не важен", "bearer good", http.StatusOK, `"email":"u@example.com"`},
		{"отозванный токен", "Bearer revoked", http.StatusUnauthorized, "token_revoked"},
		{"невалидный токен", "Bearer bad", http.StatusUnauthorized, "token_invalid"},
		{"кеш недоступен", "Bearer flaky", http.StatusServiceUnavailable, "auth_unavailable"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			router.ServeHTTP(w, req)

			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tc.wantBody)
		})
	}
}

func TestExtractUintParam(t *testing.T) {
	router := gin.New()
	router.GET("/entries/:id", ExtractUintParam("id", "entryID"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.MustGet("entryID").(uint)})
	})

	cases := map[string]int{
		"/entries/15":  http.StatusOK,
		"/entries/abc": http.StatusBadRequest,
		"/entries/-1":  http.StatusBadRequest,
		"/entries/0":   http.StatusBadRequest,
	}
	for path, status := range cases {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, status, w.Code, path)
		if status == http.StatusBadRequest {
			assert.Contains(t, w.Body.String(), "validation_error", path)
		}
	}
}

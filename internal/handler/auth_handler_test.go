package handler

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/stoolpool-api/internal/domain/entity"
	apperrors "github.com/yourusername/stoolpool-api/internal/pkg/errors"
	"github.com/yourusername/stoolpool-api/internal/service"
)

// ============================================================================
// Request validation tests: handler возвращает 400 до вызова сервиса
// ============================================================================

func TestRegister_ValidationErrors(t *testing.T) {
	handler := &AuthHandler{} // nil service - OK для validation tests

	tests := []struct {
		name string
		body interface{}
	}{
		{name: "empty body", body: nil},
		{name: "missing username", body: map[string]string{"email": "user@test.com", "password": "123456"}},
		{name: "username too short", body: map[string]string{"username": "ab", "email": "user@test.com", "password": "123456"}},
		{name: "username too long", body: map[string]string{"username": "abcdefghijklmnopqrstuvwxyz12345", "email": "user@test.com", "password": "123456"}},
		{name: "invalid email format", body: map[string]string{"username": "tester", "email": "not-an-email", "password": "123456"}},
		{name: "missing password", body: map[string]string{"username": "tester", "email": "user@test.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestGinContext("POST", "/api/auth/register", tt.body)
			handler.Register(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := parseJSONResponse(t, w)
			assert.Equal(t, "Invalid request data", resp["error"])
		})
	}
}

func TestLogin_ValidationErrors(t *testing.T) {
	handler := &AuthHandler{}

	for name, body := range map[string]interface{}{
		"empty body":       nil,
		"missing email":    map[string]string{"password": "123456"},
		"missing password": map[string]string{"email": "user@test.com"},
	} {
		t.Run(name, func(t *testing.T) {
			c, w := newTestGinContext("POST", "/api/auth/login", body)
			handler.Login(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestRegister_Success(t *testing.T) {
	// Arrange
	svc := new(MockAuthService)
	handler := NewAuthHandler(svc, 60)
	expiresAt := time.Date(2024, 6, 22, 10, 0, 0, 0, time.UTC)

	svc.On("RegisterUser", service.RegisterInput{Username: "tester", Email: "user@test.com", Password: "secret1"}).
		Return(&service.AuthResult{
			User:        &entity.User{ID: 7, Username: "tester", Email: "user@test.com", Notifications: entity.DefaultNotificationSettings()},
			AccessToken: "jwt-token",
			ExpiresAt:   expiresAt,
		}, nil)

	// Act
	c, w := newTestGinContext("POST", "/api/auth/register", map[string]string{
		"username": "tester", "email": "user@test.com", "password": "secret1",
	})
	handler.Register(c)

	// Assert
	require.Equal(t, http.StatusCreated, w.Code)
	resp := parseJSONResponse(t, w)
	assert.Equal(t, "jwt-token", resp["access_token"])
	assert.Equal(t, "Bearer", resp["token_type"])
	user := resp["user"].(map[string]interface{})
	assert.Equal(t, float64(7), user["id"])
	assert.NotContains(t, user, "password")
	assert.Equal(t, true, user["notificationSettings"].(map[string]interface{})["healthAlerts"])
}

func TestRegister_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"email занят", fmt.Errorf("%w: user with this email already exists", apperrors.ErrConflict), http.StatusConflict},
		{"короткий пароль", fmt.Errorf("%w: password must be at least 6 characters long", apperrors.ErrValidation), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAuthService)
			handler := NewAuthHandler(svc, 60)
			svc.On("RegisterUser", mock.Anything).Return(nil, tt.err)

			c, w := newTestGinContext("POST", "/api/auth/register", map[string]string{
				"username": "tester", "email": "user@test.com", "password": "123",
			})
			handler.Register(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := parseJSONResponse(t, w)
			assert.Contains(t, resp["details"], tt.err.Error())
		})
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := new(MockAuthService)
	handler := NewAuthHandler(svc, 60)
	svc.On("LoginUser", "user@test.com", "wrong").Return(nil, service.ErrInvalidCredentials)

	c, w := newTestGinContext("POST", "/api/auth/login", map[string]string{"email": "user@test.com", "password": "wrong"})
	handler.Login(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	resp := parseJSONResponse(t, w)
	assert.Equal(t, "invalid_credentials", resp["error_type"])
}

func TestGetWsTicket(t *testing.T) {
	svc := new(MockAuthService)
	handler := NewAuthHandler(svc, 45)
	svc.On("GenerateWsTicket", mock.Anything, uint(3), "user@example.com").Return("ticket-value", nil)

	c, w := newAuthedTestGinContext("POST", "/api/auth/ws-ticket", nil, 3)
	handler.GetWsTicket(c)

	require.Equal(t, http.StatusOK, w.Code)
	resp := parseJSONResponse(t, w)
	assert.Equal(t, "ticket-value", resp["ticket"])
	assert.Equal(t, float64(45), resp["expires_in"])
}

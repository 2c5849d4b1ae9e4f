package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/stoolpool-api/internal/domain/entity"
	"github.com/yourusername/stoolpool-api/internal/handler/dto"
	"github.com/yourusername/stoolpool-api/internal/service"
	"github.com/yourusername/stoolpool-api/internal/service/assessment"
	"github.com/yourusername/stoolpool-api/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestGinContext создает *gin.Context для тестов с JSON body.
// Строка передаётся как есть, остальные значения сериализуются в JSON.
func newTestGinContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()

	var req *http.Request
	switch b := body.(type) {
	case nil:
		req, _ = http.NewRequest(method, path, nil)
	case string:
		req, _ = http.NewRequest(method, path, bytes.NewReader([]byte(b)))
		req.Header.Set("Content-Type", "application/json")
	default:
		bodyBytes, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, path, bytes.NewReader(bodyBytes))
		req.Header.Set("Content-Type", "application/json")
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return c, w
}

// newAuthedTestGinContext - то же, но с пользователем, выставленным auth middleware
func newAuthedTestGinContext(method, path string, body interface{}, userID uint) (*gin.Context, *httptest.ResponseRecorder) {
	c, w := newTestGinContext(method, path, body)
	c.Set("user_id", userID)
	c.Set("email", "user@example.com")
	return c, w
}

// parseJSONResponse парсит JSON ответ из *httptest.ResponseRecorder
func parseJSONResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err, "Response body should be valid JSON: %s", w.Body.String())
	return resp
}

// --- MockAuthService ---

type MockAuthService struct{ mock.Mock }

func (m *MockAuthService) RegisterUser(input service.RegisterInput) (*service.AuthResult, error) {
	args := m.Called(input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

func (m *MockAuthService) LoginUser(email, password string) (*service.AuthResult, error) {
	args := m.Called(email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

func (m *MockAuthService) GenerateWsTicket(ctx context.Context, userID uint, email string) (string, error) {
	args := m.Called(ctx, userID, email)
	return args.String(0), args.Error(1)
}

// --- MockHealthService ---

type MockHealthService struct{ mock.Mock }

func (m *MockHealthService) PreviewScore(answers entity.AnswerRecord) (assessment.Evaluation, error) {
	args := m.Called(answers)
	return args.Get(0).(assessment.Evaluation), args.Error(1)
}

func (m *MockHealthService) CreateEntry(ctx context.Context, userID uint, input service.CreateEntryInput) (*service.CreateEntryResult, error) {
	args := m.Called(ctx, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CreateEntryResult), args.Error(1)
}

func (m *MockHealthService) ImportEntries(ctx context.Context, userID uint, inputs []service.ImportEntryInput) (*service.ImportResult, error) {
	args := m.Called(ctx, userID, inputs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ImportResult), args.Error(1)
}

func (m *MockHealthService) ListEntries(userID uint, page, limit int) (*service.EntryPage, error) {
	args := m.Called(userID, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.EntryPage), args.Error(1)
}

func (m *MockHealthService) GetEntry(userID, entryID uint) (*entity.HealthEntry, error) {
	args := m.Called(userID, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.HealthEntry), args.Error(1)
}

func (m *MockHealthService) DeleteEntry(ctx context.Context, userID, entryID uint) error {
	return m.Called(ctx, userID, entryID).Error(0)
}

func (m *MockHealthService) GetStats(ctx context.Context, userID uint) (*dto.StatsResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.StatsResponse), args.Error(1)
}

// --- MockUserService ---

type MockUserService struct{ mock.Mock }

func (m *MockUserService) GetProfile(userID uint) (*entity.User, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserService) UpdateProfile(userID uint, req dto.UpdateProfileRequest) (*entity.User, error) {
	args := m.Called(userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserService) ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error {
	return m.Called(ctx, userID, currentPassword, newPassword).Error(0)
}

func (m *MockUserService) UpdateNotifications(userID uint, req dto.UpdateNotificationsRequest) (*entity.NotificationSettings, error) {
	args := m.Called(userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.NotificationSettings), args.Error(1)
}

func (m *MockUserService) UpdatePrivacy(userID uint, req dto.UpdatePrivacyRequest) (*entity.PrivacySettings, error) {
	args := m.Called(userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.PrivacySettings), args.Error(1)
}

func (m *MockUserService) GetSettings(userID uint) (*dto.SettingsResponse, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SettingsResponse), args.Error(1)
}

func (m *MockUserService) ExportData(userID uint) (*dto.ExportDataDTO, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ExportDataDTO), args.Error(1)
}

func (m *MockUserService) DeleteAccount(ctx context.Context, userID uint, password string) error {
	return m.Called(ctx, userID, password).Error(0)
}

// --- MockTicketParser ---

type MockTicketParser struct{ mock.Mock }

func (m *MockTicketParser) ParseWSTicket(ticket string) (*auth.JWTCustomClaims, error) {
	args := m.Called(ticket)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.JWTCustomClaims), args.Error(1)
}

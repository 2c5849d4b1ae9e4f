package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/yourusername/stoolpool-api/internal/domain/entity"
	"github.com/yourusername/stoolpool-api/internal/service/assessment"
)

// MockUserRepository реализует repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *entity.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(id uint) (*entity.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(email string) (*entity.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(username string) (*entity.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) UpdateProfile(userID uint, updates map[string]interface{}) error {
	args := m.Called(userID, updates)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(userID uint, newPassword string) error {
	args := m.Called(userID, newPassword)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateNotifications(userID uint, settings entity.NotificationSettings) error {
	args := m.Called(userID, settings)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePrivacy(userID uint, settings entity.PrivacySettings) error {
	args := m.Called(userID, settings)
	return args.Error(0)
}

func (m *MockUserRepository) ListForWeeklyReport(since time.Time, limit, offset int) ([]entity.User, error) {
	args := m.Called(since, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.User), args.Error(1)
}

func (m *MockUserRepository) MarkReportSent(userID uint, at time.Time) error {
	args := m.Called(userID, at)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(userID uint) error {
	args := m.Called(userID)
	return args.Error(0)
}

// MockHealthEntryRepository реализует repository.HealthEntryRepository
type MockHealthEntryRepository struct {
	mock.Mock
}

func (m *MockHealthEntryRepository) Create(entry *entity.HealthEntry) error {
	args := m.Called(entry)
	return args.Error(0)
}

func (m *MockHealthEntryRepository) CreateBatch(entries []entity.HealthEntry) (int, error) {
	args := m.Called(entries)
	return args.Int(0), args.Error(1)
}

func (m *MockHealthEntryRepository) GetByID(userID, entryID uint) (*entity.HealthEntry, error) {
	args := m.Called(userID, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.HealthEntry), args.Error(1)
}

func (m *MockHealthEntryRepository) GetByClientID(userID uint, clientID string) (*entity.HealthEntry, error) {
	args := m.Called(userID, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.HealthEntry), args.Error(1)
}

func (m *MockHealthEntryRepository) ListLatestFirst(userID uint, limit, offset int) ([]entity.HealthEntry, int64, error) {
	args := m.Called(userID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.HealthEntry), args.Get(1).(int64), args.Error(2)
}

func (m *MockHealthEntryRepository) ListChronological(userID uint) ([]entity.HealthEntry, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.HealthEntry), args.Error(1)
}

func (m *MockHealthEntryRepository) Delete(userID, entryID uint) error {
	args := m.Called(userID, entryID)
	return args.Error(0)
}

// MockCacheRepository реализует repository.CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Set(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepository) Get(key string) (string, error) {
	args := m.Called(key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheRepository) Delete(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func (m *MockCacheRepository) Increment(key string) (int64, error) {
	args := m.Called(key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCacheRepository) Expire(key string, expiration time.Duration) error {
	args := m.Called(key, expiration)
	return args.Error(0)
}

func (m *MockCacheRepository) TTL(key string) (time.Duration, error) {
	args := m.Called(key)
	return args.Get(0).(time.Duration), args.Error(1)
}

func (m *MockCacheRepository) SetJSON(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepository) GetJSON(key string, dest interface{}) error {
	args := m.Called(key, dest)
	return args.Error(0)
}

func (m *MockCacheRepository) SetNX(key string, value interface{}, expiration time.Duration) (bool, error) {
	args := m.Called(key, value, expiration)
	return args.Bool(0), args.Error(1)
}

// MockEventNotifier реализует EventNotifier
type MockEventNotifier struct {
	mock.Mock
}

func (m *MockEventNotifier) SendEventToUser(userID string, eventType string, data interface{}) error {
	args := m.Called(userID, eventType, data)
	return args.Error(0)
}

func (m *MockEventNotifier) RevokeUserSessions(userID string, reason string) int {
	args := m.Called(userID, reason)
	return args.Int(0)
}

// MockEmailService реализует EmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendHealthAlert(ctx context.Context, user *entity.User, entry *entity.HealthEntry) error {
	args := m.Called(ctx, user, entry)
	return args.Error(0)
}

func (m *MockEmailService) SendWeeklyReport(ctx context.Context, user *entity.User, summary assessment.StatsSummary, periodStart time.Time) error {
	args := m.Called(ctx, user, summary, periodStart)
	return args.Error(0)
}

// MockTokenInvalidator реализует TokenInvalidator
type MockTokenInvalidator struct {
	mock.Mock
}

func (m *MockTokenInvalidator) InvalidateTokensForUser(ctx context.Context, userID uint) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

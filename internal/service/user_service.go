package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/yourusername/stoolpool-api/internal/domain/entity"
	"github.com/yourusername/stoolpool-api/internal/domain/repository"
	"github.com/yourusername/stoolpool-api/internal/handler/dto"
	apperrors "github.com/yourusername/stoolpool-api/internal/pkg/errors"
)

// reminderTimeLayout - формат времени напоминания HH:MM
const reminderTimeLayout = "15:04"

// TokenInvalidator отзывает все выданные пользователю токены
type TokenInvalidator interface {
	InvalidateTokensForUser(ctx context.Context, userID uint) error
}

// UserService предоставляет методы для работы с профилем и настройками пользователя
type UserService struct {
	userRepo          repository.UserRepository
	entryRepo         repository.HealthEntryRepository
	tokens            TokenInvalidator
	notifier          EventNotifier
	minPasswordLength int
	now               func() time.Time
}

// NewUserService создает новый сервис пользователей
func NewUserService(
	userRepo repository.UserRepository,
	entryRepo repository.HealthEntryRepository,
	tokens TokenInvalidator,
	notifier EventNotifier,
	minPasswordLength int,
) (*UserService, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("UserRepository is required for UserService")
	}
	if entryRepo == nil {
		return nil, fmt.Errorf("HealthEntryRepository is required for UserService")
	}
	if tokens == nil {
		return nil, fmt.Errorf("TokenInvalidator is required for UserService")
	}
	if minPasswordLength <= 0 {
		minPasswordLength = 6
	}

	return &UserService{
		userRepo:          userRepo,
		entryRepo:         entryRepo,
		tokens:            tokens,
		notifier:          notifier,
		minPasswordLength: minPasswordLength,
		now:               time.Now,
	}, nil
}

// GetProfile возвращает профиль пользователя
func (s *UserService) GetProfile(userID uint) (*entity.User, error) {
	return s.userRepo.GetByID(userID)
}

// UpdateProfile обновляет имя пользователя и/или email с проверкой уникальности
func (s *UserService) UpdateProfile(userID uint, req dto.UpdateProfileRequest) (*entity.User, error) {
	updates := make(map[string]interface{})

	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if err := validateUsername(username); err != nil {
			return nil, err
		}
		if err := s.ensureFree(userID, username, s.userRepo.GetByUsername, "username already taken"); err != nil {
			return nil, err
		}
		updates["username"] = username
	}

	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email == "" || !strings.Contains(email, "@") {
			return nil, fmt.Errorf("%w: invalid email", apperrors.ErrValidation)
		}
		if err := s.ensureFree(userID, email, s.userRepo.GetByEmail, "email already registered"); err != nil {
			return nil, err
		}
		updates["email"] = email
	}

	if len(updates) > 0 {
		if err := s.userRepo.UpdateProfile(userID, updates); err != nil {
			log.Printf("[UserService] Ошибка обновления профиля пользователя ID=%d: %v", userID, err)
			return nil, err
		}
	}
	return s.userRepo.GetByID(userID)
}

// ensureFree проверяет, что значение не занято другим пользователем
func (s *UserService) ensureFree(userID uint, value string, lookup func(string) (*entity.User, error), msg string) error {
	other, err := lookup(value)
	if err == nil {
		if other.ID != userID {
			return fmt.Errorf("%w: %s", apperrors.ErrConflict, msg)
		}
		return nil
	}
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	return fmt.Errorf("failed to check uniqueness: %w", err)
}

// ChangePassword меняет пароль и отзывает все ранее выданные токены
func (s *UserService) ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return fmt.Errorf("%w: please provide current password and new password", apperrors.ErrValidation)
	}
	if len(newPassword) < s.minPasswordLength {
		return fmt.Errorf("%w: new password must be at least %d characters long", apperrors.ErrValidation, s.minPasswordLength)
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if !user.CheckPassword(currentPassword) {
		return ErrIncorrectPassword
	}

	if err := s.userRepo.UpdatePassword(userID, newPassword); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	log.Printf("[UserService] Пароль пользователя ID=%d изменён", userID)

	return s.revokeSessions(ctx, userID, "password_changed")
}

// UpdateNotifications частично обновляет настройки уведомлений
func (s *UserService) UpdateNotifications(userID uint, req dto.UpdateNotificationsRequest) (*entity.NotificationSettings, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	settings := user.Notifications
	if req.DailyReminders != nil {
		settings.DailyReminders = *req.DailyReminders
	}
	if req.WeeklyReports != nil {
		settings.WeeklyReports = *req.WeeklyReports
	}
	if req.HealthAlerts != nil {
		settings.HealthAlerts = *req.HealthAlerts
	}
	if req.ReminderTime != nil {
		reminder := strings.TrimSpace(*req.ReminderTime)
		parsed, err := time.Parse(reminderTimeLayout, reminder)
		if err != nil {
			return nil, fmt.Errorf("%w: reminderTime must be in HH:MM format", apperrors.ErrValidation)
		}
		settings.ReminderTime = parsed.Format(reminderTimeLayout)
	}

	if err := s.userRepo.UpdateNotifications(userID, settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpdatePrivacy частично обновляет настройки приватности
func (s *UserService) UpdatePrivacy(userID uint, req dto.UpdatePrivacyRequest) (*entity.PrivacySettings, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	settings := user.Privacy
	if req.BiometricLock != nil {
		settings.BiometricLock = *req.BiometricLock
	}
	if req.AutoBackup != nil {
		settings.AutoBackup = *req.AutoBackup
	}
	if req.AnonymousData != nil {
		settings.AnonymousData = *req.AnonymousData
	}

	if err := s.userRepo.UpdatePrivacy(userID, settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// GetSettings возвращает все настройки пользователя
func (s *UserService) GetSettings(userID uint) (*dto.SettingsResponse, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	return &dto.SettingsResponse{
		NotificationSettings: user.Notifications,
		PrivacySettings:      user.Privacy,
	}, nil
}

// ExportData собирает профиль и всю историю пользователя
func (s *UserService) ExportData(userID uint) (*dto.ExportDataDTO, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	entries, err := s.entryRepo.ListChronological(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	export := dto.NewExportDataDTO(user, entries, s.now())
	log.Printf("[UserService] Подготовлена выгрузка данных пользователя ID=%d (%d записей)", userID, export.TotalEntries)
	return &export, nil
}

// DeleteAccount удаляет пользователя и все его записи после проверки пароля
func (s *UserService) DeleteAccount(ctx context.Context, userID uint, password string) error {
	if password == "" {
		return fmt.Errorf("%w: please provide your password to confirm account deletion", apperrors.ErrValidation)
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if !user.CheckPassword(password) {
		return ErrIncorrectPassword
	}

	if err := s.userRepo.Delete(userID); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	log.Printf("[UserService] Аккаунт пользователя ID=%d удалён", userID)

	return s.revokeSessions(ctx, userID, "account_deleted")
}

func (s *UserService) revokeSessions(ctx context.Context, userID uint, reason string) error {
	if err := s.tokens.InvalidateTokensForUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to invalidate tokens: %w", err)
	}
	if s.notifier != nil {
		s.notifier.RevokeUserSessions(fmt.Sprintf("%d", userID), reason)
	}
	return nil
}

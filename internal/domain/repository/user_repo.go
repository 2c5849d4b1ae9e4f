package repository

import (
	"time"

	"github.com/yourusername/stoolpool-api/internal/domain/entity"
)

// UserRepository определяет методы для работы с пользователями
type UserRepository interface {
	Create(user *entity.User) error
	GetByID(id uint) (*entity.User, error)
	GetByEmail(email string) (*entity.User, error)
	GetByUsername(username string) (*entity.User, error)
	UpdateProfile(userID uint, updates map[string]interface{}) error
	UpdatePassword(userID uint, newPassword string) error
	UpdateNotifications(userID uint, settings entity.NotificationSettings) error
	UpdatePrivacy(userID uint, settings entity.PrivacySettings) error
	// ListForWeeklyReport возвращает пользователей с включёнными отчётами, которым отчёт не отправлялся с since
	ListForWeeklyReport(since time.Time, limit, offset int) ([]entity.User, error)
	MarkReportSent(userID uint, at time.Time) error
	// Delete удаляет пользователя вместе со всеми его записями
	Delete(userID uint) error
}

package postgres

import (
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yourusername/stoolpool-api/internal/domain/entity"
	apperrors "github.com/yourusername/stoolpool-api/internal/pkg/errors"
)

// UserRepo реализует repository.UserRepository
type UserRepo struct {
	db *gorm.DB
}

// NewUserRepo создает новый репозиторий пользователей
func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create создает нового пользователя
func (r *UserRepo) Create(user *entity.User) error {
	if err := r.db.Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: user with this email or username already exists", apperrors.ErrConflict)
		}
		return err
	}
	return nil
}

// GetByID возвращает пользователя по ID
func (r *UserRepo) GetByID(id uint) (*entity.User, error) {
	return r.first("id = ?", id)
}

// GetByEmail возвращает пользователя по email
func (r *UserRepo) GetByEmail(email string) (*entity.User, error) {
	return r.first("email = ?", email)
}

// GetByUsername возвращает пользователя по имени пользователя
func (r *UserRepo) GetByUsername(username string) (*entity.User, error) {
	return r.first("username = ?", username)
}

func (r *UserRepo) first(query string, arg interface{}) (*entity.User, error) {
	var user entity.User
	err := r.db.Where(query, arg).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateProfile обновляет профиль пользователя без изменения пароля
func (r *UserRepo) UpdateProfile(userID uint, updates map[string]interface{}) error {
	// Пароль меняется только через UpdatePassword
	delete(updates, "password")
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now()

	result := r.db.Model(&entity.User{}).Where("id = ?", userID).Updates(updates)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return fmt.Errorf("%w: email or username already taken", apperrors.ErrConflict)
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpdatePassword безопасно обновляет пароль пользователя
func (r *UserRepo) UpdatePassword(userID uint, newPassword string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[UserRepo.UpdatePassword] Ошибка при хешировании пароля: %v", err)
		return err
	}

	// SQL напрямую, чтобы хук BeforeSave не захешировал пароль повторно
	result := r.db.Exec(
		"UPDATE users SET password = ?, updated_at = ? WHERE id = ?",
		string(hashedPassword),
		time.Now(),
		userID,
	)
	if result.Error != nil {
		log.Printf("[UserRepo.UpdatePassword] Ошибка при обновлении пароля для пользователя ID=%d: %v", userID, result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}

	log.Printf("[UserRepo.UpdatePassword] Пароль обновлён для пользователя ID=%d", userID)
	return nil
}

// UpdateNotifications сохраняет настройки уведомлений
func (r *UserRepo) UpdateNotifications(userID uint, settings entity.NotificationSettings) error {
	return r.updateColumns(userID, map[string]interface{}{
		"daily_reminders": settings.DailyReminders,
		"weekly_reports":  settings.WeeklyReports,
		"health_alerts":   settings.HealthAlerts,
		"reminder_time":   settings.ReminderTime,
	})
}

// UpdatePrivacy сохраняет настройки приватности
func (r *UserRepo) UpdatePrivacy(userID uint, settings entity.PrivacySettings) error {
	return r.updateColumns(userID, map[string]interface{}{
		"biometric_lock": settings.BiometricLock,
		"auto_backup":    settings.AutoBackup,
		"anonymous_data": settings.AnonymousData,
	})
}

func (r *UserRepo) updateColumns(userID uint, columns map[string]interface{}) error {
	columns["updated_at"] = time.Now()
	result := r.db.Model(&entity.User{}).Where("id = ?", userID).Updates(columns)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ListForWeeklyReport возвращает пользователей с включёнными еженедельными отчётами
func (r *UserRepo) ListForWeeklyReport(since time.Time, limit, offset int) ([]entity.User, error) {
	var users []entity.User
	err := r.db.
		Where("weekly_reports = ?", true).
		Where("last_report_at IS NULL OR last_report_at < ?", since).
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	return users, err
}

// MarkReportSent запоминает время отправки отчёта
func (r *UserRepo) MarkReportSent(userID uint, at time.Time) error {
	return r.db.Model(&entity.User{}).
		Where("id = ?", userID).
		UpdateColumn("last_report_at", at).Error
}

// Delete удаляет записи пользователя и самого пользователя в одной транзакции
func (r *UserRepo) Delete(userID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&entity.HealthEntry{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&entity.User{}, userID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
}

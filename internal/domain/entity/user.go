package entity

import (
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// NotificationSettings хранит настройки уведомлений пользователя
type NotificationSettings struct {
	DailyReminders bool   `gorm:"column:daily_reminders;not null;default:true" json:"dailyReminders"`
	WeeklyReports  bool   `gorm:"column:weekly_reports;not null;default:true" json:"weeklyReports"`
	HealthAlerts   bool   `gorm:"column:health_alerts;not null;default:true" json:"healthAlerts"`
	ReminderTime   string `gorm:"column:reminder_time;size:5;not null;default:'09:00'" json:"reminderTime"`
}

// PrivacySettings хранит настройки приватности пользователя
type PrivacySettings struct {
	BiometricLock bool `gorm:"column:biometric_lock;not null;default:false" json:"biometricLock"`
	AutoBackup    bool `gorm:"column:auto_backup;not null;default:true" json:"autoBackup"`
	AnonymousData bool `gorm:"column:anonymous_data;not null;default:false" json:"anonymousData"`
}

// DefaultNotificationSettings возвращает настройки уведомлений для нового пользователя
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		DailyReminders: true,
		WeeklyReports:  true,
		HealthAlerts:   true,
		ReminderTime:   "09:00",
	}
}

// DefaultPrivacySettings возвращает настройки приватности для нового пользователя
func DefaultPrivacySettings() PrivacySettings {
	return PrivacySettings{AutoBackup: true}
}

// User представляет пользователя в системе
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"size:30;not null;uniqueIndex" json:"username"`
	Email    string `gorm:"size:100;not null;uniqueIndex" json:"email"`
	Password string `gorm:"size:100;not null" json:"-"`

	Notifications NotificationSettings `gorm:"embedded" json:"notifications"`
	Privacy       PrivacySettings      `gorm:"embedded" json:"privacy"`

	LastReportAt *time.Time `gorm:"type:timestamp" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (User) TableName() string {
	return "users"
}

// BeforeSave хеширует пароль перед сохранением, только если он не является bcrypt-хешем
func (u *User) BeforeSave(tx *gorm.DB) error {
	if len(u.Password) > 0 && !IsPasswordHash(u.Password) {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("[User.BeforeSave] Ошибка при хешировании пароля для email=%s: %v", u.Email, err)
			return err
		}
		u.Password = string(hashedPassword)
	}
	return nil
}

// IsPasswordHash проверяет, что строка уже является bcrypt-хешем
func IsPasswordHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// CheckPassword проверяет, соответствует ли переданный пароль хешу
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

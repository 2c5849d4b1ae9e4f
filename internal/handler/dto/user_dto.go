package dto

import (
	"time"

	"github.com/yourusername/stoolpool-api/internal/domain/entity"
)

// RegisterRequest - запрос на регистрацию
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=30"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest - запрос на вход
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserDTO - профиль пользователя без пароля
type UserDTO struct {
	ID                   uint                        `json:"id"`
	Username             string                      `json:"username"`
	Email                string                      `json:"email"`
	NotificationSettings entity.NotificationSettings `json:"notificationSettings"`
	PrivacySettings      entity.PrivacySettings      `json:"privacySettings"`
	CreatedAt            time.Time                   `json:"createdAt"`
}

// NewUserDTO преобразует сущность пользователя в DTO
func NewUserDTO(u *entity.User) UserDTO {
	return UserDTO{
		ID:                   u.ID,
		Username:             u.Username,
		Email:                u.Email,
		NotificationSettings: u.Notifications,
		PrivacySettings:      u.Privacy,
		CreatedAt:            u.CreatedAt,
	}
}

// AuthResponse - ответ на регистрацию и вход
type AuthResponse struct {
	User        UserDTO   `json:"user"`
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// WSTicketResponse - одноразовый тикет для подключения к WebSocket
type WSTicketResponse struct {
	Ticket    string `json:"ticket"`
	ExpiresIn int    `json:"expires_in"`
}

// UpdateProfileRequest - частичное обновление профиля
type UpdateProfileRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

// ChangePasswordRequest - смена пароля
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// UpdateNotificationsRequest - частичное обновление настроек уведомлений
type UpdateNotificationsRequest struct {
	DailyReminders *bool   `json:"dailyReminders"`
	WeeklyReports  *bool   `json:"weeklyReports"`
	HealthAlerts   *bool   `json:"healthAlerts"`
	ReminderTime   *string `json:"reminderTime"`
}

// UpdatePrivacyRequest - частичное обновление настроек приватности
type UpdatePrivacyRequest struct {
	BiometricLock *bool `json:"biometricLock"`
	AutoBackup    *bool `json:"autoBackup"`
	AnonymousData *bool `json:"anonymousData"`
}

// SettingsResponse - все настройки пользователя
type SettingsResponse struct {
	NotificationSettings entity.NotificationSettings `json:"notificationSettings"`
	PrivacySettings      entity.PrivacySettings      `json:"privacySettings"`
}

// DeleteAccountRequest - подтверждение удаления аккаунта паролем
type DeleteAccountRequest struct {
	Password string `json:"password"`
}

// ExportUserDTO - профиль в выгрузке данных
type ExportUserDTO struct {
	Username             string                      `json:"username"`
	Email                string                      `json:"email"`
	CreatedAt            time.Time                   `json:"createdAt"`
	NotificationSettings entity.NotificationSettings `json:"notificationSettings"`
	PrivacySettings      entity.PrivacySettings      `json:"privacySettings"`
}

// ExportEntryDTO - запись истории в выгрузке данных
type ExportEntryDTO struct {
	Date      *time.Time          `json:"date"`
	Answers   entity.AnswerRecord `json:"answers"`
	Score     int                 `json:"score"`
	Result    string              `json:"result"`
	Color     string              `json:"color"`
	CreatedAt time.Time           `json:"createdAt"`
}

// ExportDataDTO - полная выгрузка данных пользователя
type ExportDataDTO struct {
	User          ExportUserDTO    `json:"user"`
	HealthEntries []ExportEntryDTO `json:"healthEntries"`
	ExportDate    time.Time        `json:"exportDate"`
	TotalEntries  int              `json:"totalEntries"`
}

// NewExportDataDTO собирает выгрузку из профиля и записей
func NewExportDataDTO(u *entity.User, entries []entity.HealthEntry, exportedAt time.Time) ExportDataDTO {
	out := ExportDataDTO{
		User: ExportUserDTO{
			Username:             u.Username,
			Email:                u.Email,
			CreatedAt:            u.CreatedAt,
			NotificationSettings: u.Notifications,
			PrivacySettings:      u.Privacy,
		},
		HealthEntries: make([]ExportEntryDTO, 0, len(entries)),
		ExportDate:    exportedAt.UTC(),
		TotalEntries:  len(entries),
	}
	for _, e := range entries {
		out.HealthEntries = append(out.HealthEntries, ExportEntryDTO{
			Date:      e.TakenAt,
			Answers:   e.Answers,
			Score:     e.Score,
			Result:    e.Result,
			Color:     e.Color,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}

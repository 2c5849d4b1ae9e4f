package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/stoolpool-api/internal/domain/entity"
	"github.com/yourusername/stoolpool-api/internal/handler/dto"
)

// UserProvider - операции с профилем и настройками, которые использует UserHandler
type UserProvider interface {
	GetProfile(userID uint) (*entity.User, error)
	UpdateProfile(userID uint, req dto.UpdateProfileRequest) (*entity.User, error)
	ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error
	UpdateNotifications(userID uint, req dto.UpdateNotificationsRequest) (*entity.NotificationSettings, error)
	UpdatePrivacy(userID uint, req dto.UpdatePrivacyRequest) (*entity.PrivacySettings, error)
	GetSettings(userID uint) (*dto.SettingsResponse, error)
	ExportData(userID uint) (*dto.ExportDataDTO, error)
	DeleteAccount(ctx context.Context, userID uint, password string) error
}

// UserHandler обрабатывает запросы профиля, настроек и выгрузки данных
type UserHandler struct {
	userService UserProvider
}

// NewUserHandler создает новый обработчик пользователя
func NewUserHandler(userService UserProvider) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetProfile возвращает профиль текущего пользователя
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	user, err := h.userService.GetProfile(userID)
	if err != nil {
		handleServiceError(c, "UserHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": dto.NewUserDTO(user)})
}

// UpdateProfile обновляет username и/или email
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	user, err := h.userService.UpdateProfile(userID, req)
	if err != nil {
		handleServiceError(c, "UserHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "user": dto.NewUserDTO(user)})
}

// ChangePassword меняет пароль. Все ранее выданные токены перестают действовать.
func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		handleServiceError(c, "UserHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

// UpdateNotifications частично обновляет настройки уведомлений
func (h *UserHandler) UpdateNotifications(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	var req dto.UpdateNotificationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	settings, err := h.userService.UpdateNotifications(userID, req)
	if err != nil {
		handleServiceError(c, "UserHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification settings updated", "notificationSettings": settings})
}

// UpdatePrivacy частично обновляет настройки приватности
func (h *UserHandler) UpdatePrivacy(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	var req dto.UpdatePrivacyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	settings, err := h.userService.UpdatePrivacy(userID, req)
	if err != nil {
		handleServiceError(c, "UserHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Privacy settings updated", "privacySettings": settings})
}

// GetSettings возвращает все настройки
func (h *UserHandler) GetSettings(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	settings, err := h.userService.GetSettings(userID)
	if err != nil {
		handleServiceError(c, "UserHandler", err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// ExportData выгружает профиль и историю в JSON, CSV или XLSX (?format=)
func (h *UserHandler) ExportData(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)
	format := c.DefaultQuery("format", "json")
	if format != "json" && format != "csv" && format != "xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported export format", "details": "format must be json, csv or xlsx"})
		return
	}

	export, err := h.userService.ExportData(userID)
	if err != nil {
		handleServiceError(c, "UserHandler", err)
		return
	}

	filename := fmt.Sprintf("stoolpool_export_%s", time.Now().Format("2006-01-02"))
	switch format {
	case "csv":
		exportCSV(c, export, filename)
	case "xlsx":
		exportXLSX(c, export, filename)
	default:
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.json\"", filename))
		c.JSON(http.StatusOK, export)
	}
}

// DeleteAccount удаляет аккаунт после подтверждения паролем
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	var req dto.DeleteAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	if err := h.userService.DeleteAccount(c.Request.Context(), userID, req.Password); err != nil {
		handleServiceError(c, "UserHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account deleted successfully"})
}

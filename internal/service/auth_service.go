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
	apperrors "github.com/yourusername/stoolpool-api/internal/pkg/errors"
	"github.com/yourusername/stoolpool-api/pkg/auth"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 30
)

// AuthService предоставляет методы для регистрации, входа и выдачи тикетов WebSocket
type AuthService struct {
	userRepo          repository.UserRepository
	jwtService        *auth.JWTService
	minPasswordLength int
}

// RegisterInput содержит все данные для регистрации
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// AuthResult - пользователь и выданный ему access-токен
type AuthResult struct {
	User        *entity.User
	AccessToken string
	ExpiresAt   time.Time
}

// NewAuthService создает новый сервис аутентификации и возвращает ошибку при проблемах
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService, minPasswordLength int) (*AuthService, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("UserRepository is required for AuthService")
	}
	if jwtService == nil {
		return nil, fmt.Errorf("JWTService is required for AuthService")
	}
	if minPasswordLength <= 0 {
		minPasswordLength = 6
	}

	return &AuthService{
		userRepo:          userRepo,
		jwtService:        jwtService,
		minPasswordLength: minPasswordLength,
	}, nil
}

// RegisterUser регистрирует нового пользователя и сразу выдаёт ему токен
func (s *AuthService) RegisterUser(input RegisterInput) (*AuthResult, error) {
	input.Email = normalizeEmail(input.Email)
	input.Username = strings.TrimSpace(input.Username)

	if err := validateUsername(input.Username); err != nil {
		return nil, err
	}
	if input.Email == "" {
		return nil, fmt.Errorf("%w: email is required", apperrors.ErrValidation)
	}
	if len(input.Password) < s.minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters long", apperrors.ErrValidation, s.minPasswordLength)
	}

	// Проверяем, существует ли пользователь с таким email
	_, err := s.userRepo.GetByEmail(input.Email)
	if err == nil {
		return nil, fmt.Errorf("%w: user with this email already exists", apperrors.ErrConflict)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}

	// Проверяем, существует ли пользователь с таким username
	_, err = s.userRepo.GetByUsername(input.Username)
	if err == nil {
		return nil, fmt.Errorf("%w: user with this username already exists", apperrors.ErrConflict)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check username existence: %w", err)
	}

	user := &entity.User{
		Username:      input.Username,
		Email:         input.Email,
		Password:      input.Password,
		Notifications: entity.DefaultNotificationSettings(),
		Privacy:       entity.DefaultPrivacySettings(),
	}
	if err := s.userRepo.Create(user); err != nil {
		// Уникальные индексы могли сработать при гонке регистраций
		return nil, err
	}
	log.Printf("[AuthService] Зарегистрирован пользователь ID=%d (%s)", user.ID, user.Username)

	return s.issueToken(user)
}

// LoginUser проверяет email и пароль и выдаёт access-токен
func (s *AuthService) LoginUser(email, password string) (*AuthResult, error) {
	user, err := s.AuthenticateUser(email, password)
	if err != nil {
		return nil, err
	}
	return s.issueToken(user)
}

// AuthenticateUser проверяет учетные данные, не выдавая токен
func (s *AuthService) AuthenticateUser(email, password string) (*entity.User, error) {
	user, err := s.userRepo.GetByEmail(normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.CheckPassword(password) {
		log.Printf("[AuthService] Неверный пароль для пользователя ID=%d", user.ID)
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) issueToken(user *entity.User) (*AuthResult, error) {
	token, expiresAt, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResult{User: user, AccessToken: token, ExpiresAt: expiresAt}, nil
}

// GetUserByID возвращает пользователя по ID
func (s *AuthService) GetUserByID(userID uint) (*entity.User, error) {
	return s.userRepo.GetByID(userID)
}

// GenerateWsTicket выдаёт одноразовый тикет для подключения к WebSocket
func (s *AuthService) GenerateWsTicket(ctx context.Context, userID uint, email string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ticket, err := s.jwtService.GenerateWSTicket(userID, email)
	if err != nil {
		return "", fmt.Errorf("failed to generate websocket ticket: %w", err)
	}
	return ticket, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateUsername(username string) error {
	if n := len([]rune(username)); n < minUsernameLength || n > maxUsernameLength {
		return fmt.Errorf("%w: username must be between %d and %d characters", apperrors.ErrValidation, minUsernameLength, maxUsernameLength)
	}
	return nil
}

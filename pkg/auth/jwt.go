package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/yourusername/stoolpool-api/internal/domain/entity"
	"github.com/yourusername/stoolpool-api/internal/domain/repository"
	apperrors "github.com/yourusername/stoolpool-api/internal/pkg/errors"
)

const usageWebSocket = "websocket_auth"

var (
	// ErrInvalidToken возвращается для неподписанных, просроченных или чужих токенов
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrTokenRevoked возвращается для токенов, выданных до смены пароля или удаления аккаунта
	ErrTokenRevoked = errors.New("token has been invalidated")
	// ErrTicketUsed возвращается при повторном использовании тикета WebSocket
	ErrTicketUsed = errors.New("websocket ticket already used")
)

// JWTCustomClaims содержит пользовательские поля для токена
type JWTCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	// Usage заполняется только для тикетов WebSocket
	Usage string `json:"usage,omitempty"`
	jwt.RegisteredClaims
}

// JWTService выпускает и проверяет access-токены (HS256) и короткоживущие тикеты WebSocket.
// Отзыв токенов хранится в кеше: все токены, выданные раньше отметки, недействительны.
type JWTService struct {
	secret         []byte
	expiration     time.Duration
	wsTicketExpiry time.Duration
	cache          repository.CacheRepository
	now            func() time.Time
}

// NewJWTService создает новый сервис JWT и возвращает ошибку при проблемах
func NewJWTService(secret string, expirationHrs, wsTicketExpirySec int, cache repository.CacheRepository) (*JWTService, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required for JWTService")
	}
	if cache == nil {
		return nil, fmt.Errorf("CacheRepository is required for JWTService")
	}
	if expirationHrs <= 0 {
		expirationHrs = 24
	}
	wsExpiry := time.Duration(wsTicketExpirySec) * time.Second
	if wsExpiry <= 0 {
		wsExpiry = 60 * time.Second
	}

	return &JWTService{
		secret:         []byte(secret),
		expiration:     time.Duration(expirationHrs) * time.Hour,
		wsTicketExpiry: wsExpiry,
		cache:          cache,
		now:            time.Now,
	}, nil
}

// GenerateToken выпускает access-токен и возвращает время его истечения
func (s *JWTService) GenerateToken(user *entity.User) (string, time.Time, error) {
	expiresAt := s.now().Add(s.expiration)
	claims := &JWTCustomClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(s.now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := s.sign(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// GenerateWSTicket выпускает одноразовый тикет для подключения к WebSocket
func (s *JWTService) GenerateWSTicket(userID uint, email string) (string, error) {
	claims := &JWTCustomClaims{
		UserID: userID,
		Email:  email,
		Usage:  usageWebSocket,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(s.now()),
			ExpiresAt: jwt.NewNumericDate(s.now().Add(s.wsTicketExpiry)),
		},
	}
	return s.sign(claims)
}

func (s *JWTService) sign(claims *JWTCustomClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken проверяет access-токен
func (s *JWTService) ParseToken(ctx context.Context, tokenString string) (*JWTCustomClaims, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Usage != "" {
		log.Printf("[JWT] Попытка использовать токен с назначением %q как access-токен, пользователь ID=%d", claims.Usage, claims.UserID)
		return nil, ErrInvalidToken
	}
	if err := s.checkRevoked(claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseWSTicket проверяет тикет WebSocket и помечает его использованным
func (s *JWTService) ParseWSTicket(ticketString string) (*JWTCustomClaims, error) {
	claims, err := s.parse(ticketString)
	if err != nil {
		return nil, err
	}
	if claims.Usage != usageWebSocket {
		return nil, ErrInvalidToken
	}
	if err := s.checkRevoked(claims); err != nil {
		return nil, err
	}

	first, err := s.cache.SetNX(fmt.Sprintf("auth:ws_ticket:%s", claims.ID), claims.UserID, s.wsTicketExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to mark websocket ticket as used: %w", err)
	}
	if !first {
		log.Printf("[JWT] Повторное использование тикета WebSocket %s пользователем ID=%d", claims.ID, claims.UserID)
		return nil, ErrTicketUsed
	}
	return claims, nil
}

func (s *JWTService) parse(tokenString string) (*JWTCustomClaims, error) {
	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == 0 || claims.IssuedAt == nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// checkRevoked сравнивает время выдачи токена с отметкой отзыва пользователя
func (s *JWTService) checkRevoked(claims *JWTCustomClaims) error {
	raw, err := s.cache.Get(revokedKey(claims.UserID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to check token revocation: %w", err)
	}

	revokedAtUnix, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Printf("[JWT] Некорректная отметка отзыва для пользователя ID=%d: %q", claims.UserID, raw)
		return nil
	}

	if claims.IssuedAt.Time.Unix() < revokedAtUnix {
		return ErrTokenRevoked
	}
	return nil
}

// InvalidateTokensForUser делает недействительными все ранее выданные токены пользователя
func (s *JWTService) InvalidateTokensForUser(ctx context.Context, userID uint) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := s.now()
	// Отметка живёт столько же, сколько самый долгий токен
	if err := s.cache.Set(revokedKey(userID), strconv.FormatInt(now.Unix(), 10), s.expiration); err != nil {
		log.Printf("[JWT] Ошибка при сохранении отметки отзыва для пользователя ID=%d: %v", userID, err)
		return err
	}

	log.Printf("[JWT] Токены инвалидированы для пользователя ID=%d в %v", userID, now)
	return nil
}

func revokedKey(userID uint) string {
	return fmt.Sprintf("auth:user:%d:revoked_at", userID)
}

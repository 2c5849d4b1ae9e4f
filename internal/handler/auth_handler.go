package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/stoolpool-api/internal/handler/dto"
	"github.com/yourusername/stoolpool-api/internal/service"
)

// AuthProvider - операции аутентификации, которые использует AuthHandler
type AuthProvider interface {
	RegisterUser(input service.RegisterInput) (*service.AuthResult, error)
	LoginUser(email, password string) (*service.AuthResult, error)
	GenerateWsTicket(ctx context.Context, userID uint, email string) (string, error)
}

// AuthHandler обрабатывает регистрацию, вход и выдачу тикетов WebSocket
type AuthHandler struct {
	authService       AuthProvider
	wsTicketExpirySec int
}

// NewAuthHandler создает новый обработчик аутентификации
func NewAuthHandler(authService AuthProvider, wsTicketExpirySec int) *AuthHandler {
	return &AuthHandler{
		authService:       authService,
		wsTicketExpirySec: wsTicketExpirySec,
	}
}

// Register обрабатывает запрос на регистрацию
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	result, err := h.authService.RegisterUser(service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		handleServiceError(c, "AuthHandler", err)
		return
	}

	log.Printf("[AuthHandler] Пользователь ID=%d (%s) успешно зарегистрирован", result.User.ID, result.User.Username)
	c.JSON(http.StatusCreated, newAuthResponse(result))
}

// Login обрабатывает запрос на вход
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	result, err := h.authService.LoginUser(req.Email, req.Password)
	if err != nil {
		handleServiceError(c, "AuthHandler", err)
		return
	}

	c.JSON(http.StatusOK, newAuthResponse(result))
}

// GetWsTicket выдаёт одноразовый тикет для подключения к /ws
func (h *AuthHandler) GetWsTicket(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)
	email, _ := c.Get("email")
	emailStr, _ := email.(string)

	ticket, err := h.authService.GenerateWsTicket(c.Request.Context(), userID, emailStr)
	if err != nil {
		handleServiceError(c, "AuthHandler", err)
		return
	}

	c.JSON(http.StatusOK, dto.WSTicketResponse{Ticket: ticket, ExpiresIn: h.wsTicketExpirySec})
}

func newAuthResponse(result *service.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		User:        dto.NewUserDTO(result.User),
		AccessToken: result.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   result.ExpiresAt,
	}
}

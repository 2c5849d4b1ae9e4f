package handler

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/yourusername/stoolpool-api/internal/websocket"
	"github.com/yourusername/stoolpool-api/pkg/auth"
)

// TicketParser проверяет одноразовые тикеты WebSocket
type TicketParser interface {
	ParseWSTicket(ticket string) (*auth.JWTCustomClaims, error)
}

// WSHandler обрабатывает WebSocket соединения
type WSHandler struct {
	wsHub        *websocket.Hub
	wsManager    *websocket.Manager
	tickets      TicketParser
	clientConfig websocket.ClientConfig
	upgrader     gorillaws.Upgrader
}

// NewWSHandler создает новый обработчик WebSocket
func NewWSHandler(
	wsHub *websocket.Hub,
	wsManager *websocket.Manager,
	tickets TicketParser,
	clientConfig websocket.ClientConfig,
	allowedOrigins []string,
) *WSHandler {
	handler := &WSHandler{
		wsHub:        wsHub,
		wsManager:    wsManager,
		tickets:      tickets,
		clientConfig: clientConfig,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:    4096,
			WriteBufferSize:   4096,
			CheckOrigin:       originChecker(allowedOrigins),
			EnableCompression: true,
		},
	}

	// Регистрируем обработчики сообщений один раз при создании обработчика
	handler.registerMessageHandlers()

	return handler
}

// originChecker разрешает подключения без Origin (мобильное приложение, curl)
// и из источников, разрешённых в CORS
func originChecker(allowedOrigins []string) func(r *http.Request) bool {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := allowed[origin]; ok {
			return true
		}
		log.Printf("[WSHandler] Отклонён неразрешённый origin: %s", origin)
		return false
	}
}

// HandleConnection обрабатывает входящее WebSocket соединение (?ticket=...)
func (h *WSHandler) HandleConnection(c *gin.Context) {
	// НЕ логируем тикет - это секретные данные аутентификации
	ticket := c.Query("ticket")
	if ticket == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing authentication ticket parameter"})
		return
	}

	claims, err := h.tickets.ParseWSTicket(ticket)
	if err != nil {
		log.Printf("[WSHandler] Недействительный тикет: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired ticket"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже записал ответ с ошибкой
		log.Printf("[WSHandler] Ошибка upgrade для пользователя ID=%d: %v", claims.UserID, err)
		return
	}

	client := websocket.NewClient(h.wsHub, conn, fmt.Sprintf("%d", claims.UserID), h.clientConfig)
	client.StartPumps(h.wsManager.HandleMessage)
}

// registerMessageHandlers регистрирует обработчики для входящих сообщений клиента
func (h *WSHandler) registerMessageHandlers() {
	h.wsManager.RegisterHandler(websocket.USER_HEARTBEAT, func(data json.RawMessage, client *websocket.Client) error {
		heartbeatResponse := map[string]interface{}{
			"timestamp": time.Now().UnixMilli(),
		}
		h.wsManager.SendToClient(client, websocket.SERVER_HEARTBEAT, heartbeatResponse)
		return nil // Никогда не закрываем соединение из-за heartbeat
	})
}

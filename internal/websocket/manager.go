package websocket

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
)

// Event представляет структуру WebSocket-сообщения
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// incomingEvent используется для разбора входящих сообщений без двойной сериализации
type incomingEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Manager обрабатывает WebSocket сообщения
type Manager struct {
	hub HubInterface

	mu             sync.RWMutex
	messageHandler map[string]func(data json.RawMessage, client *Client) error
}

// NewManager создает новый менеджер WebSocket
func NewManager(hub HubInterface) *Manager {
	return &Manager{
		hub:            hub,
		messageHandler: make(map[string]func(data json.RawMessage, client *Client) error),
	}
}

// RegisterHandler регистрирует обработчик для определенного типа сообщений
func (m *Manager) RegisterHandler(eventType string, handler func(data json.RawMessage, client *Client) error) {
	m.mu.Lock()
	m.messageHandler[eventType] = handler
	m.mu.Unlock()
	log.Printf("[WebSocketManager] Зарегистрирован обработчик для сообщений типа: %s", eventType)
}

// HandleMessage обрабатывает входящее сообщение от клиента.
// Возвращает error, если обработка не удалась и соединение нужно закрыть.
func (m *Manager) HandleMessage(message []byte, client *Client) error {
	var event incomingEvent
	if err := json.Unmarshal(message, &event); err != nil {
		log.Printf("Failed to unmarshal message from %s: %v, Message: %s", client.UserID, err, string(message))
		m.SendErrorToClient(client, "invalid_message_format", "Invalid JSON format")
		return err // Ошибка парсинга - закрываем соединение
	}

	m.mu.RLock()
	handler, ok := m.messageHandler[event.Type]
	m.mu.RUnlock()
	if !ok {
		log.Printf("No handler registered for message type '%s' from client %s", event.Type, client.UserID)
		m.SendErrorToClient(client, "unknown_message_type", fmt.Sprintf("Unknown message type: %s", event.Type))
		return nil // Неизвестный тип - не закрываем соединение
	}

	if err := handler(event.Data, client); err != nil {
		log.Printf("Handler for type '%s' returned error for client %s: %v", event.Type, client.UserID, err)
		return err
	}

	return nil
}

// SendErrorToClient отправляет стандартизированное сообщение об ошибке в конкретное соединение.
// Этот метод НЕ закрывает соединение.
func (m *Manager) SendErrorToClient(client *Client, code string, message string) {
	m.SendToClient(client, SERVER_ERROR, map[string]string{
		"code":    code,
		"message": message,
	})
}

// SendToClient отправляет событие в одно соединение, а не во все соединения пользователя
func (m *Manager) SendToClient(client *Client, eventType string, data interface{}) {
	payload, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		log.Printf("[WebSocketManager] Ошибка сериализации события %s: %v", eventType, err)
		return
	}
	if !client.enqueue(payload) {
		log.Printf("[WebSocketManager] Не удалось отправить событие %s клиенту %s (ConnID=%s)", eventType, client.UserID, client.ConnectionID)
	}
}

// SendEventToUser отправляет событие конкретному пользователю
func (m *Manager) SendEventToUser(userID string, eventType string, data interface{}) error {
	return m.hub.SendJSONToUser(userID, Event{Type: eventType, Data: data})
}

// RevokeUserSessions уведомляет пользователя и закрывает все его соединения
func (m *Manager) RevokeUserSessions(userID string, reason string) int {
	if err := m.SendEventToUser(userID, SESSION_REVOKED, map[string]string{"reason": reason}); err != nil {
		log.Printf("[WebSocketManager] Ошибка уведомления об отзыве сессии пользователя %s: %v", userID, err)
	}
	closed := m.hub.DisconnectUser(userID)
	if closed > 0 {
		log.Printf("[WebSocketManager] Закрыто %d соединений пользователя %s (%s)", closed, userID, reason)
	}
	return closed
}

// GetMetrics возвращает текущие метрики WebSocket-системы
func (m *Manager) GetMetrics() map[string]interface{} {
	return m.hub.GetMetrics()
}

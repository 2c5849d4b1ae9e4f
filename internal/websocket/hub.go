package websocket

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
)

// Hub хранит подключения, сгруппированные по пользователю.
// Один пользователь может держать несколько соединений (телефон и планшет).
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}

	messagesSent    atomic.Int64
	messagesDropped atomic.Int64
}

// NewHub создает новый хаб
func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*Client]struct{})}
}

// RegisterClient добавляет клиента в хаб
func (h *Hub) RegisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[client.UserID]
	if !ok {
		conns = make(map[*Client]struct{})
		h.clients[client.UserID] = conns
	}
	conns[client] = struct{}{}
	log.Printf("[Hub] Клиент зарегистрирован: UserID=%s ConnID=%s (соединений у пользователя: %d)",
		client.UserID, client.ConnectionID, len(conns))
}

// UnregisterClient удаляет клиента и закрывает его канал отправки
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	conns, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := conns[client]; !ok {
		return
	}
	delete(conns, client)
	if len(conns) == 0 {
		delete(h.clients, client.UserID)
	}
	client.CloseSend()
	log.Printf("[Hub] Клиент отключен: UserID=%s ConnID=%s", client.UserID, client.ConnectionID)
}

// SendToUser отправляет сообщение во все соединения пользователя.
// Возвращает true, если сообщение попало хотя бы в одно соединение.
func (h *Hub) SendToUser(userID string, message []byte) bool {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	delivered := false
	var slow []*Client
	for _, c := range targets {
		if c.enqueue(message) {
			c.bufferWarningCount.Store(0)
			h.messagesSent.Add(1)
			delivered = true
			continue
		}

		h.messagesDropped.Add(1)
		if c.bufferWarningCount.Add(1) >= maxBufferWarnings {
			slow = append(slow, c)
		}
	}

	if len(slow) > 0 {
		h.mu.Lock()
		for _, c := range slow {
			log.Printf("[Hub] Буфер клиента %s (ConnID=%s) переполнен %d раз подряд, отключаем", c.UserID, c.ConnectionID, maxBufferWarnings)
			h.removeLocked(c)
		}
		h.mu.Unlock()
	}

	return delivered
}

// SendJSONToUser отправляет структуру JSON конкретному пользователю.
// Отсутствие активных соединений не считается ошибкой.
func (h *Hub) SendJSONToUser(userID string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal websocket message: %w", err)
	}
	h.SendToUser(userID, data)
	return nil
}

// DisconnectUser закрывает все соединения пользователя (например, после смены пароля)
func (h *Hub) DisconnectUser(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.clients[userID]
	count := 0
	for c := range conns {
		h.removeLocked(c)
		count++
	}
	return count
}

// ClientCount возвращает количество подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, conns := range h.clients {
		total += len(conns)
	}
	return total
}

// GetMetrics возвращает метрики хаба
func (h *Hub) GetMetrics() map[string]interface{} {
	h.mu.RLock()
	users := len(h.clients)
	h.mu.RUnlock()

	return map[string]interface{}{
		"client_count":     h.ClientCount(),
		"connected_users":  users,
		"messages_sent":    h.messagesSent.Load(),
		"messages_dropped": h.messagesDropped.Load(),
	}
}

// Shutdown закрывает все соединения
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, conns := range h.clients {
		for c := range conns {
			h.removeLocked(c)
		}
	}
	log.Printf("[Hub] Все WebSocket соединения закрыты")
}

package websocket

// HubInterface - операции хаба, которыми пользуется Manager.
// Все события адресованы одному пользователю, общей рассылки нет.
type HubInterface interface {
	// SendJSONToUser доставляет событие во все соединения пользователя
	SendJSONToUser(userID string, v interface{}) error

	// DisconnectUser закрывает соединения пользователя и возвращает их количество
	DisconnectUser(userID string) int

	GetMetrics() map[string]interface{}
}

var _ HubInterface = (*Hub)(nil)

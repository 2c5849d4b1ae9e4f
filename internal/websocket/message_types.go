package websocket

// Типы событий дневника
const (
	// ENTRY_CREATED сообщает о новой записи (в том числе созданной с другого устройства)
	ENTRY_CREATED = "entry:created"

	// ENTRY_DELETED сообщает об удалении записи
	ENTRY_DELETED = "entry:deleted"

	// ENTRIES_IMPORTED сообщает об импорте истории с устройства
	ENTRIES_IMPORTED = "entries:imported"

	// STATS_UPDATED содержит пересчитанную сводку статистики
	STATS_UPDATED = "stats:updated"

	// HEALTH_ALERT сообщает о критическом результате оценки
	HEALTH_ALERT = "health:alert"
)

// Служебные типы сообщений
const (
	// USER_HEARTBEAT отправляется клиентом для проверки соединения
	USER_HEARTBEAT = "user:heartbeat"

	// SERVER_HEARTBEAT ответ сервера на USER_HEARTBEAT
	SERVER_HEARTBEAT = "server:heartbeat"

	// SERVER_ERROR сообщает клиенту об ошибке обработки сообщения
	SERVER_ERROR = "server:error"

	// SESSION_REVOKED отправляется перед закрытием соединений после смены пароля или удаления аккаунта
	SESSION_REVOKED = "session:revoked"
)

package repository

import (
	"github.com/yourusername/stoolpool-api/internal/domain/entity"
)

// HealthEntryRepository определяет методы для работы с записями истории
type HealthEntryRepository interface {
	// Create сохраняет запись. Повторный client_id того же пользователя даёт apperrors.ErrConflict
	Create(entry *entity.HealthEntry) error
	// CreateBatch сохраняет записи, пропуская уже существующие client_id. Возвращает число добавленных
	CreateBatch(entries []entity.HealthEntry) (int, error)
	GetByID(userID, entryID uint) (*entity.HealthEntry, error)
	GetByClientID(userID uint, clientID string) (*entity.HealthEntry, error)
	// ListLatestFirst возвращает страницу записей от новых к старым и общее количество
	ListLatestFirst(userID uint, limit, offset int) ([]entity.HealthEntry, int64, error)
	// ListChronological возвращает все записи пользователя в каноническом порядке
	ListChronological(userID uint) ([]entity.HealthEntry, error)
	Delete(userID, entryID uint) error
}

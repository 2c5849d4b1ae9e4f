package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/stoolpool-api/internal/domain/entity"
	apperrors "github.com/yourusername/stoolpool-api/internal/pkg/errors"
)

// Канонический порядок совпадает с assessment.History: запись без даты получает
// самую позднюю дату среди записей, добавленных до неё (по id), при равенстве решает id
const (
	sortKeyExpr        = "COALESCE(taken_at, MAX(taken_at) OVER (ORDER BY id ROWS BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW))"
	chronologicalOrder = sortKeyExpr + " ASC NULLS FIRST, id ASC"
	latestFirstOrder   = sortKeyExpr + " DESC NULLS LAST, id DESC"
)

// HealthEntryRepo реализует repository.HealthEntryRepository
type HealthEntryRepo struct {
	db *gorm.DB
}

// NewHealthEntryRepo создает новый репозиторий записей истории
func NewHealthEntryRepo(db *gorm.DB) *HealthEntryRepo {
	return &HealthEntryRepo{db: db}
}

// Create сохраняет новую запись
func (r *HealthEntryRepo) Create(entry *entity.HealthEntry) error {
	if err := r.db.Create(entry).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: entry %s already exists", apperrors.ErrConflict, entry.ClientID)
		}
		return err
	}
	return nil
}

// CreateBatch сохраняет записи одной транзакцией, уже существующие client_id пропускаются
func (r *HealthEntryRepo) CreateBatch(entries []entity.HealthEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	var inserted int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "client_id"}},
			DoNothing: true,
		}).CreateInBatches(&entries, 100)
		if result.Error != nil {
			return result.Error
		}
		inserted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(inserted), nil
}

// GetByID возвращает запись пользователя по ID
func (r *HealthEntryRepo) GetByID(userID, entryID uint) (*entity.HealthEntry, error) {
	var entry entity.HealthEntry
	err := r.db.Where("id = ? AND user_id = ?", entryID, userID).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// GetByClientID возвращает запись по идентификатору, присвоенному устройством
func (r *HealthEntryRepo) GetByClientID(userID uint, clientID string) (*entity.HealthEntry, error) {
	var entry entity.HealthEntry
	err := r.db.Where("user_id = ? AND client_id = ?", userID, clientID).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// ListLatestFirst возвращает страницу записей от новых к старым и общее количество
func (r *HealthEntryRepo) ListLatestFirst(userID uint, limit, offset int) ([]entity.HealthEntry, int64, error) {
	var entries []entity.HealthEntry
	var total int64

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.HealthEntry{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", userID).
			Order(latestFirstOrder).
			Limit(limit).
			Offset(offset).
			Find(&entries).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// ListChronological возвращает все записи пользователя в каноническом порядке
func (r *HealthEntryRepo) ListChronological(userID uint) ([]entity.HealthEntry, error) {
	var entries []entity.HealthEntry
	err := r.db.Where("user_id = ?", userID).Order(chronologicalOrder).Find(&entries).Error
	return entries, err
}

// Delete удаляет запись, если она принадлежит пользователю
func (r *HealthEntryRepo) Delete(userID, entryID uint) error {
	result := r.db.Where("id = ? AND user_id = ?", entryID, userID).Delete(&entity.HealthEntry{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

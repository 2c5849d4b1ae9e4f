package assessment

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/yourusername/stoolpool-api/internal/domain/entity"
)

// ErrIndexOutOfRange возвращается при удалении записи по несуществующему индексу
var ErrIndexOutOfRange = errors.New("history index out of range")

// HistoryStore - хранилище истории одного пользователя (например, локальный файл устройства)
type HistoryStore interface {
	Load(ctx context.Context) (*History, error)
	Append(ctx context.Context, entry entity.HealthEntry) error
	Remove(ctx context.Context, index int) error
}

// History хранит записи в каноническом хронологическом порядке (старые первыми).
// Запись без даты стоит там, куда её добавили: сразу после самой новой записи на момент добавления.
// При равных датах сохраняется порядок добавления.
type History struct {
	entries []entity.HealthEntry
	// sortKeys[i] - дата записи или унаследованная дата самой новой записи на момент добавления
	sortKeys []time.Time
	// inserted[i] - позиция записи в порядке добавления
	inserted []int
	next     int
}

// NewHistory строит историю из записей в порядке их добавления (порядок хранения)
func NewHistory(entries []entity.HealthEntry) *History {
	h := &History{}
	for _, e := range entries {
		h.Append(e)
	}
	return h
}

// Append вставляет запись после всех записей с той же или более ранней датой.
// Запись без даты становится последней.
func (h *History) Append(entry entity.HealthEntry) {
	var key time.Time
	if entry.HasValidDate() {
		key = *entry.TakenAt
	} else if n := len(h.sortKeys); n > 0 {
		key = h.sortKeys[n-1]
	}

	pos := sort.Search(len(h.entries), func(i int) bool {
		return key.Before(h.sortKeys[i])
	})

	h.entries = append(h.entries, entity.HealthEntry{})
	copy(h.entries[pos+1:], h.entries[pos:])
	h.entries[pos] = entry

	h.sortKeys = append(h.sortKeys, time.Time{})
	copy(h.sortKeys[pos+1:], h.sortKeys[pos:])
	h.sortKeys[pos] = key

	h.inserted = append(h.inserted, 0)
	copy(h.inserted[pos+1:], h.inserted[pos:])
	h.inserted[pos] = h.next
	h.next++
}

// Remove удаляет запись по индексу в каноническом порядке
func (h *History) Remove(index int) error {
	if index < 0 || index >= len(h.entries) {
		return ErrIndexOutOfRange
	}
	h.entries = append(h.entries[:index], h.entries[index+1:]...)
	h.sortKeys = append(h.sortKeys[:index], h.sortKeys[index+1:]...)
	h.inserted = append(h.inserted[:index], h.inserted[index+1:]...)
	return nil
}

// InsertionIndex возвращает позицию записи с каноническим индексом index в порядке добавления.
// Хранилища, сохраняющие записи в исходном порядке, удаляют по этой позиции.
func (h *History) InsertionIndex(index int) (int, error) {
	if index < 0 || index >= len(h.entries) {
		return 0, ErrIndexOutOfRange
	}
	return h.inserted[index], nil
}

// Entries возвращает копию записей в каноническом порядке
func (h *History) Entries() []entity.HealthEntry {
	result := make([]entity.HealthEntry, len(h.entries))
	copy(result, h.entries)
	return result
}

// Latest возвращает самую новую запись или nil для пустой истории
func (h *History) Latest() *entity.HealthEntry {
	if len(h.entries) == 0 {
		return nil
	}
	latest := h.entries[len(h.entries)-1]
	return &latest
}

// LatestFirst возвращает записи от новых к старым для отображения, не изменяя историю
func (h *History) LatestFirst() []entity.HealthEntry {
	result := make([]entity.HealthEntry, len(h.entries))
	for i, e := range h.entries {
		result[len(h.entries)-1-i] = e
	}
	return result
}

// Len возвращает количество записей
func (h *History) Len() int {
	return len(h.entries)
}

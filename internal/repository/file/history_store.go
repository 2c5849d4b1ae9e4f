package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/yourusername/stoolpool-api/internal/domain/entity"
	"github.com/yourusername/stoolpool-api/internal/service/assessment"
)

// slotRecord - формат записи в локальном слоте устройства ("stool_results").
// Ответы на диске лежат позиционным массивом, который читает мобильное приложение.
type slotRecord struct {
	ClientID string          `json:"id,omitempty"`
	Date     string          `json:"date"`
	Result   string          `json:"result"`
	Color    string          `json:"color"`
	Score    int             `json:"score"`
	Tier     string          `json:"tier,omitempty"`
	Answers  json.RawMessage `json:"answers"`
}

// slot - содержимое файла: исходные записи в порядке хранения и разобранная история
type slot struct {
	raw     []json.RawMessage
	history *assessment.History
}

// HistoryStore хранит историю одного пользователя в JSON-файле.
// Записи на диске лежат в порядке добавления и не переписываются:
// исходные строки дат и массивы ответов сохраняются как есть.
type HistoryStore struct {
	path     string
	location *time.Location
	mu       sync.Mutex
}

// NewHistoryStore создает файловое хранилище. Даты без часового пояса читаются в loc.
func NewHistoryStore(path string, loc *time.Location) *HistoryStore {
	if loc == nil {
		loc = time.Local
	}
	return &HistoryStore{path: path, location: loc}
}

// Load читает историю. Отсутствующий файл означает пустую историю.
func (s *HistoryStore) Load(ctx context.Context) (*assessment.History, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return current.history, nil
}

// Append дописывает запись в конец файла
func (s *HistoryStore) Append(ctx context.Context, entry entity.HealthEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	if err != nil {
		return err
	}
	record, err := encodeRecord(entry)
	if err != nil {
		return err
	}
	return s.save(ctx, append(current.raw, record))
}

// Remove удаляет запись по индексу в каноническом порядке и сохраняет файл
func (s *HistoryStore) Remove(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	if err != nil {
		return err
	}
	pos, err := current.history.InsertionIndex(index)
	if err != nil {
		return err
	}
	raw := append(current.raw[:pos:pos], current.raw[pos+1:]...)
	return s.save(ctx, raw)
}

func (s *HistoryStore) load(ctx context.Context) (*slot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &slot{history: assessment.NewHistory(nil)}, nil
		}
		return nil, fmt.Errorf("read history %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return &slot{history: assessment.NewHistory(nil)}, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode history %s: %w", s.path, err)
	}

	entries := make([]entity.HealthEntry, 0, len(raw))
	for i, item := range raw {
		var rec slotRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			return nil, fmt.Errorf("decode history %s record %d: %w", s.path, i, err)
		}
		var answers entity.AnswerRecord
		if err := json.Unmarshal(rec.Answers, &answers); err != nil && len(rec.Answers) > 0 {
			return nil, fmt.Errorf("decode history %s record %d answers: %w", s.path, i, err)
		}
		entries = append(entries, entity.HealthEntry{
			ClientID: rec.ClientID,
			TakenAt:  assessment.ParseLegacyDate(rec.Date, s.location),
			Answers:  answers,
			Score:    rec.Score,
			Result:   rec.Result,
			Color:    rec.Color,
			Tier:     rec.Tier,
		})
	}
	return &slot{raw: raw, history: assessment.NewHistory(entries)}, nil
}

// encodeRecord кодирует новую запись в формате слота
func encodeRecord(e entity.HealthEntry) (json.RawMessage, error) {
	answers, err := e.Answers.MarshalLegacy()
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}
	rec := slotRecord{
		ClientID: e.ClientID,
		Result:   e.Result,
		Color:    e.Color,
		Score:    e.Score,
		Tier:     e.Tier,
		Answers:  answers,
	}
	if e.HasValidDate() {
		rec.Date = e.TakenAt.Format(time.RFC3339)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode history record: %w", err)
	}
	return data, nil
}

func (s *HistoryStore) save(ctx context.Context, records []json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if records == nil {
		records = []json.RawMessage{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	// Пишем во временный файл и переименовываем, чтобы не оставить слот полузаписанным
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close history: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace history %s: %w", s.path, err)
	}
	return nil
}

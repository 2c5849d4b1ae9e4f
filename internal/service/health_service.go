package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/stoolpool-api/internal/domain/entity"
	"github.com/yourusername/stoolpool-api/internal/domain/repository"
	"github.com/yourusername/stoolpool-api/internal/handler/dto"
	apperrors "github.com/yourusername/stoolpool-api/internal/pkg/errors"
	"github.com/yourusername/stoolpool-api/internal/service/assessment"
	"github.com/yourusername/stoolpool-api/internal/websocket"
)

const (
	defaultEntriesLimit = 50
	maxEntriesLimit     = 100
	maxImportEntries    = 1000
)

// importNamespace задаёт пространство имён для детерминированных client_id импортированных записей
var importNamespace = uuid.MustParse("6f1c2d4e-8a3b-4c5d-9e7f-0a1b2c3d4e5f")

// EventNotifier доставляет события пользователю по WebSocket
type EventNotifier interface {
	SendEventToUser(userID string, eventType string, data interface{}) error
	RevokeUserSessions(userID string, reason string) int
}

// HealthService управляет историей результатов и статистикой
type HealthService struct {
	entryRepo repository.HealthEntryRepository
	userRepo  repository.UserRepository
	cacheRepo repository.CacheRepository
	notifier  EventNotifier
	email     EmailService
	statsTTL  time.Duration
	location  *time.Location
	now       func() time.Time
}

// CreateEntryInput - ответы квиза и необязательные поля от клиента.
// ClientScore, ClientResult и ClientColor только сверяются с пересчитанными значениями.
type CreateEntryInput struct {
	Answers      entity.AnswerRecord
	Date         string
	ClientID     string
	ClientScore  *int
	ClientResult string
	ClientColor  string
}

// ImportEntryInput - запись из локальной истории устройства
type ImportEntryInput struct {
	ClientID   string
	Date       string
	Answers    entity.AnswerRecord
	RawAnswers json.RawMessage
}

// CreateEntryResult - сохранённая запись и признак того, что она новая
type CreateEntryResult struct {
	Entry   *entity.HealthEntry
	Created bool
}

// ImportResult - итог импорта
type ImportResult struct {
	Imported int
	Skipped  int
}

// EntryPage - страница истории от новых к старым
type EntryPage struct {
	Entries []entity.HealthEntry
	Page    int
	Pages   int
	Total   int64
}

// NewHealthService создает сервис истории
func NewHealthService(
	entryRepo repository.HealthEntryRepository,
	userRepo repository.UserRepository,
	cacheRepo repository.CacheRepository,
	notifier EventNotifier,
	email EmailService,
	statsTTL time.Duration,
	location *time.Location,
) (*HealthService, error) {
	if entryRepo == nil {
		return nil, fmt.Errorf("HealthEntryRepository is required for HealthService")
	}
	if userRepo == nil {
		return nil, fmt.Errorf("UserRepository is required for HealthService")
	}
	if cacheRepo == nil {
		return nil, fmt.Errorf("CacheRepository is required for HealthService")
	}
	if email == nil {
		email = &NoopEmailService{}
	}
	if location == nil {
		location = time.UTC
	}

	return &HealthService{
		entryRepo: entryRepo,
		userRepo:  userRepo,
		cacheRepo: cacheRepo,
		notifier:  notifier,
		email:     email,
		statsTTL:  statsTTL,
		location:  location,
		now:       time.Now,
	}, nil
}

// PreviewScore считает балл и классификацию без сохранения
func (s *HealthService) PreviewScore(answers entity.AnswerRecord) (assessment.Evaluation, error) {
	if !assessment.IsPainInRange(answers.Pain) {
		return assessment.Evaluation{}, fmt.Errorf("%w: pain ratings must be between 0 and 10", apperrors.ErrValidation)
	}
	return assessment.Evaluate(answers, nil), nil
}

// CreateEntry сохраняет результат квиза. Повторный client_id возвращает уже сохранённую запись.
func (s *HealthService) CreateEntry(ctx context.Context, userID uint, input CreateEntryInput) (*CreateEntryResult, error) {
	if !assessment.IsPainInRange(input.Answers.Pain) {
		return nil, fmt.Errorf("%w: pain ratings must be between 0 and 10", apperrors.ErrValidation)
	}

	clientID := strings.TrimSpace(input.ClientID)
	if clientID == "" {
		clientID = uuid.NewString()
	} else {
		parsed, err := uuid.Parse(clientID)
		if err != nil {
			return nil, fmt.Errorf("%w: client_id must be a UUID", apperrors.ErrValidation)
		}
		clientID = parsed.String()

		existing, err := s.entryRepo.GetByClientID(userID, clientID)
		if err == nil {
			log.Printf("[HealthService] Повторная отправка записи client_id=%s пользователем ID=%d", clientID, userID)
			return &CreateEntryResult{Entry: existing}, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("failed to check client_id: %w", err)
		}
	}

	takenAt, err := s.resolveDate(input.Date)
	if err != nil {
		return nil, err
	}

	evaluation := assessment.Evaluate(input.Answers, takenAt)
	s.logClientMismatch(userID, input, evaluation)

	entry := evaluation.Entry(userID, clientID)
	if err := s.entryRepo.Create(&entry); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			// Параллельный запрос с тем же client_id успел раньше
			existing, getErr := s.entryRepo.GetByClientID(userID, clientID)
			if getErr == nil {
				return &CreateEntryResult{Entry: existing}, nil
			}
		}
		return nil, err
	}
	log.Printf("[HealthService] Сохранена запись ID=%d пользователя ID=%d: score=%d tier=%s", entry.ID, userID, entry.Score, entry.Tier)

	s.invalidateStats(userID)
	s.notify(userID, websocket.ENTRY_CREATED, dto.NewEntryDTO(&entry))
	s.publishStats(ctx, userID)

	if entry.Tier == string(assessment.TierCritical) {
		s.sendHealthAlert(ctx, userID, &entry)
	}

	return &CreateEntryResult{Entry: &entry, Created: true}, nil
}

// resolveDate возвращает текущее время для пустой даты и ошибку для нераспознанной
func (s *HealthService) resolveDate(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		now := s.now()
		return &now, nil
	}
	takenAt := assessment.ParseLegacyDate(raw, s.location)
	if takenAt == nil {
		return nil, fmt.Errorf("%w: unrecognized date %q", apperrors.ErrValidation, raw)
	}
	return takenAt, nil
}

func (s *HealthService) logClientMismatch(userID uint, input CreateEntryInput, evaluation assessment.Evaluation) {
	if input.ClientScore != nil && *input.ClientScore != evaluation.Score {
		log.Printf("[HealthService] Балл клиента (%d) не совпал с пересчитанным (%d), пользователь ID=%d", *input.ClientScore, evaluation.Score, userID)
	}
	if input.ClientColor != "" && input.ClientColor != evaluation.Color {
		log.Printf("[HealthService] Цвет клиента (%s) не совпал с пересчитанным (%s), пользователь ID=%d", input.ClientColor, evaluation.Color, userID)
	}
	if input.ClientResult != "" && input.ClientResult != evaluation.Message {
		log.Printf("[HealthService] Результат клиента %q не совпал с пересчитанным %q, пользователь ID=%d", input.ClientResult, evaluation.Message, userID)
	}
}

// ImportEntries переносит локальную историю устройства на сервер.
// Нераспознанные даты сохраняются как неизвестные, повторный импорт не создаёт дубликатов.
func (s *HealthService) ImportEntries(ctx context.Context, userID uint, inputs []ImportEntryInput) (*ImportResult, error) {
	if len(inputs) == 0 {
		return &ImportResult{}, nil
	}
	if len(inputs) > maxImportEntries {
		return nil, fmt.Errorf("%w: at most %d entries can be imported at once", apperrors.ErrValidation, maxImportEntries)
	}

	entries := make([]entity.HealthEntry, 0, len(inputs))
	for _, in := range inputs {
		takenAt := assessment.ParseLegacyDate(in.Date, s.location)
		if takenAt == nil && strings.TrimSpace(in.Date) != "" {
			log.Printf("[HealthService] Импорт: нераспознанная дата %q, запись сохраняется без даты", in.Date)
		}
		entry := assessment.Evaluate(in.Answers, takenAt).Entry(userID, importClientID(userID, in))
		entries = append(entries, entry)
	}

	imported, err := s.entryRepo.CreateBatch(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to import entries: %w", err)
	}
	result := &ImportResult{Imported: imported, Skipped: len(entries) - imported}
	log.Printf("[HealthService] Импорт для пользователя ID=%d: добавлено %d, пропущено %d", userID, result.Imported, result.Skipped)

	if imported > 0 {
		s.invalidateStats(userID)
		s.notify(userID, websocket.ENTRIES_IMPORTED, map[string]int{"imported": imported})
		s.publishStats(ctx, userID)
	}
	return result, nil
}

// importClientID берёт client_id клиента, а при его отсутствии выводит стабильный UUID из содержимого записи
func importClientID(userID uint, in ImportEntryInput) string {
	if parsed, err := uuid.Parse(strings.TrimSpace(in.ClientID)); err == nil {
		return parsed.String()
	}
	payload := in.RawAnswers
	if len(payload) == 0 {
		payload, _ = json.Marshal(in.Answers)
	}
	seed := strconv.FormatUint(uint64(userID), 10) + "|" + in.Date + "|" + string(payload)
	return uuid.NewSHA1(importNamespace, []byte(seed)).String()
}

// ListEntries возвращает страницу истории от новых к старым
func (s *HealthService) ListEntries(userID uint, page, limit int) (*EntryPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultEntriesLimit
	} else if limit > maxEntriesLimit {
		limit = maxEntriesLimit
	}

	entries, total, err := s.entryRepo.ListLatestFirst(userID, limit, (page-1)*limit)
	if err != nil {
		log.Printf("[HealthService] Ошибка при получении истории пользователя ID=%d: %v", userID, err)
		return nil, err
	}

	pages := int((total + int64(limit) - 1) / int64(limit))
	return &EntryPage{Entries: entries, Page: page, Pages: pages, Total: total}, nil
}

// GetEntry возвращает запись пользователя
func (s *HealthService) GetEntry(userID, entryID uint) (*entity.HealthEntry, error) {
	return s.entryRepo.GetByID(userID, entryID)
}

// DeleteEntry удаляет запись пользователя
func (s *HealthService) DeleteEntry(ctx context.Context, userID, entryID uint) error {
	if err := s.entryRepo.Delete(userID, entryID); err != nil {
		return err
	}
	log.Printf("[HealthService] Удалена запись ID=%d пользователя ID=%d", entryID, userID)

	s.invalidateStats(userID)
	s.notify(userID, websocket.ENTRY_DELETED, map[string]uint{"id": entryID})
	s.publishStats(ctx, userID)
	return nil
}

// GetStats возвращает статистику пользователя, используя кеш
func (s *HealthService) GetStats(ctx context.Context, userID uint) (*dto.StatsResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := statsCacheKey(userID)
	var cached dto.StatsResponse
	if err := s.cacheRepo.GetJSON(key, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		log.Printf("[HealthService] Ошибка чтения кеша статистики пользователя ID=%d: %v", userID, err)
	}

	entries, err := s.entryRepo.ListChronological(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	summary := assessment.Aggregate(entries, assessment.AggregateOptions{Now: s.now(), Location: s.location})
	stats := dto.NewStatsResponse(summary)

	if s.statsTTL > 0 {
		if err := s.cacheRepo.SetJSON(key, stats, s.statsTTL); err != nil {
			log.Printf("[HealthService] Ошибка записи кеша статистики пользователя ID=%d: %v", userID, err)
		}
	}
	return &stats, nil
}

func (s *HealthService) invalidateStats(userID uint) {
	if err := s.cacheRepo.Delete(statsCacheKey(userID)); err != nil {
		log.Printf("[HealthService] Ошибка сброса кеша статистики пользователя ID=%d: %v", userID, err)
	}
}

func (s *HealthService) publishStats(ctx context.Context, userID uint) {
	if s.notifier == nil {
		return
	}
	stats, err := s.GetStats(ctx, userID)
	if err != nil {
		log.Printf("[HealthService] Не удалось пересчитать статистику для WebSocket, пользователь ID=%d: %v", userID, err)
		return
	}
	s.notify(userID, websocket.STATS_UPDATED, stats)
}

func (s *HealthService) notify(userID uint, eventType string, data interface{}) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendEventToUser(fmt.Sprintf("%d", userID), eventType, data); err != nil {
		log.Printf("[HealthService] Ошибка отправки события %s пользователю ID=%d: %v", eventType, userID, err)
	}
}

// sendHealthAlert уведомляет о критическом результате, если пользователь включил оповещения
func (s *HealthService) sendHealthAlert(ctx context.Context, userID uint, entry *entity.HealthEntry) {
	s.notify(userID, websocket.HEALTH_ALERT, dto.NewEntryDTO(entry))

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		log.Printf("[HealthService] Не удалось загрузить пользователя ID=%d для оповещения: %v", userID, err)
		return
	}
	if !user.Notifications.HealthAlerts {
		return
	}
	if err := s.email.SendHealthAlert(ctx, user, entry); err != nil {
		log.Printf("[HealthService] Ошибка отправки оповещения пользователю ID=%d: %v", userID, err)
	}
}

func statsCacheKey(userID uint) string {
	return fmt.Sprintf("stats:user:%d", userID)
}

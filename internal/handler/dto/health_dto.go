package dto

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/yourusername/stoolpool-api/internal/domain/entity"
	"github.com/yourusername/stoolpool-api/internal/service/assessment"
)

// CreateEntryRequest - запрос на сохранение результата квиза.
// Score, Result и Color присылает клиент, но сервер пересчитывает их сам.
type CreateEntryRequest struct {
	Answers  json.RawMessage `json:"answers"`
	Date     string          `json:"date,omitempty"`
	ClientID string          `json:"client_id,omitempty"`
	Score    *int            `json:"score,omitempty"`
	Result   string          `json:"result,omitempty"`
	Color    string          `json:"color,omitempty"`
}

// ImportEntryRequest - одна запись из локальной истории устройства
type ImportEntryRequest struct {
	ID       string          `json:"id,omitempty"`
	ClientID string          `json:"client_id,omitempty"`
	Date     string          `json:"date"`
	Answers  json.RawMessage `json:"answers"`
}

// ImportEntriesRequest - пакетный импорт локальной истории
type ImportEntriesRequest struct {
	Entries []ImportEntryRequest `json:"entries" binding:"required"`
}

// ImportEntriesResponse - итог импорта
type ImportEntriesResponse struct {
	Message  string `json:"message"`
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
}

// ScoreRequest - ответы для предварительного расчёта без сохранения
type ScoreRequest struct {
	Answers json.RawMessage `json:"answers"`
}

// ScoreResponse - балл и классификация
type ScoreResponse struct {
	Score   int    `json:"score"`
	Tier    string `json:"tier"`
	Color   string `json:"color"`
	Message string `json:"message"`
}

// EntryDTO - запись истории для клиента
type EntryDTO struct {
	ID        uint                `json:"id"`
	ClientID  string              `json:"client_id"`
	Date      *time.Time          `json:"date"`
	Answers   entity.AnswerRecord `json:"answers"`
	Score     int                 `json:"score"`
	Result    string              `json:"result"`
	Color     string              `json:"color"`
	Tier      string              `json:"tier"`
	CreatedAt time.Time           `json:"created_at"`
}

// NewEntryDTO преобразует сущность в DTO
func NewEntryDTO(e *entity.HealthEntry) EntryDTO {
	return EntryDTO{
		ID:        e.ID,
		ClientID:  e.ClientID,
		Date:      e.TakenAt,
		Answers:   e.Answers,
		Score:     e.Score,
		Result:    e.Result,
		Color:     e.Color,
		Tier:      e.Tier,
		CreatedAt: e.CreatedAt,
	}
}

// EntryResponse - ответ на создание записи
type EntryResponse struct {
	Message string   `json:"message"`
	Entry   EntryDTO `json:"entry"`
}

// PaginationDTO - параметры страницы
type PaginationDTO struct {
	Current int   `json:"current"`
	Pages   int   `json:"pages"`
	Total   int64 `json:"total"`
}

// EntriesResponse - страница истории от новых к старым
type EntriesResponse struct {
	Entries    []EntryDTO    `json:"entries"`
	Pagination PaginationDTO `json:"pagination"`
}

// LastEntryDTO - краткая информация о последней записи
type LastEntryDTO struct {
	ID     uint       `json:"id"`
	Date   *time.Time `json:"date"`
	Result string     `json:"result"`
	Score  int        `json:"score"`
	Color  string     `json:"color"`
}

// PatternsDTO - самые частые ответы и средняя боль
type PatternsDTO struct {
	MostCommonColor string `json:"mostCommonColor"`
	MostCommonShape string `json:"mostCommonShape"`
	MostCommonSmell string `json:"mostCommonSmell"`
	AvgPainRating   string `json:"avgPainRating"`
	MostCommonFloat string `json:"mostCommonFloat"`
}

// StatsResponse - статистика для главного экрана
type StatsResponse struct {
	TotalLogs        int                     `json:"totalLogs"`
	LastEntry        *LastEntryDTO           `json:"lastEntry"`
	MostCommonResult *string                 `json:"mostCommonResult"`
	WeeklyAverage    int                     `json:"weeklyAverage"`
	DailyAverage     string                  `json:"dailyAverage"`
	Streak           int                     `json:"streak"`
	AvgScore         string                  `json:"avgScore"`
	RecentTrend      []assessment.TrendPoint `json:"recentTrend"`
	Patterns         *PatternsDTO            `json:"patterns,omitempty"`
}

// NewStatsResponse преобразует сводку в ответ API.
// Для пустой истории lastEntry и mostCommonResult равны null, patterns отсутствует.
func NewStatsResponse(s assessment.StatsSummary) StatsResponse {
	resp := StatsResponse{
		TotalLogs:     s.TotalCount,
		WeeklyAverage: s.WeeklyCount,
		DailyAverage:  fmt.Sprintf("%.1f", s.DailyAverage),
		Streak:        s.Streak,
		AvgScore:      fmt.Sprintf("%.1f", s.AverageScore),
		RecentTrend:   s.Trend,
	}
	if resp.RecentTrend == nil {
		resp.RecentTrend = []assessment.TrendPoint{}
	}
	if s.TotalCount == 0 {
		return resp
	}

	if s.LastEntry != nil {
		resp.LastEntry = &LastEntryDTO{
			ID:     s.LastEntry.ID,
			Date:   s.LastEntry.TakenAt,
			Result: s.LastEntry.Result,
			Score:  s.LastEntry.Score,
			Color:  s.LastEntry.Color,
		}
	}
	mostCommon := s.MostCommonResult
	resp.MostCommonResult = &mostCommon
	resp.Patterns = &PatternsDTO{
		MostCommonColor: s.Patterns.MostCommonColor,
		MostCommonShape: s.Patterns.MostCommonShape,
		MostCommonSmell: s.Patterns.MostCommonSmell,
		AvgPainRating:   fmt.Sprintf("%.1f", s.AveragePain),
		MostCommonFloat: s.Patterns.MostCommonFloat,
	}
	return resp
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/stoolpool-api/internal/domain/entity"
	"github.com/yourusername/stoolpool-api/internal/handler/dto"
	"github.com/yourusername/stoolpool-api/internal/service"
	"github.com/yourusername/stoolpool-api/internal/service/assessment"
)

var errAnswersRequired = errors.New("answers are required")

// HealthProvider - операции с историей, которые использует HealthHandler
type HealthProvider interface {
	PreviewScore(answers entity.AnswerRecord) (assessment.Evaluation, error)
	CreateEntry(ctx context.Context, userID uint, input service.CreateEntryInput) (*service.CreateEntryResult, error)
	ImportEntries(ctx context.Context, userID uint, inputs []service.ImportEntryInput) (*service.ImportResult, error)
	ListEntries(userID uint, page, limit int) (*service.EntryPage, error)
	GetEntry(userID, entryID uint) (*entity.HealthEntry, error)
	DeleteEntry(ctx context.Context, userID, entryID uint) error
	GetStats(ctx context.Context, userID uint) (*dto.StatsResponse, error)
}

// HealthHandler обрабатывает запросы к истории результатов
type HealthHandler struct {
	healthService HealthProvider
}

// NewHealthHandler создает новый обработчик истории
func NewHealthHandler(healthService HealthProvider) *HealthHandler {
	return &HealthHandler{healthService: healthService}
}

// decodeAnswers разбирает ответы квиза в именованном или позиционном формате
func decodeAnswers(raw json.RawMessage) (entity.AnswerRecord, error) {
	var answers entity.AnswerRecord
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return answers, errAnswersRequired
	}
	if err := json.Unmarshal(trimmed, &answers); err != nil {
		return answers, err
	}
	return answers, nil
}

// CreateEntry сохраняет результат квиза
func (h *HealthHandler) CreateEntry(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	var req dto.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	answers, err := decodeAnswers(req.Answers)
	if err != nil {
		invalidRequest(c, err)
		return
	}

	result, err := h.healthService.CreateEntry(c.Request.Context(), userID, service.CreateEntryInput{
		Answers:      answers,
		Date:         req.Date,
		ClientID:     req.ClientID,
		ClientScore:  req.Score,
		ClientResult: req.Result,
		ClientColor:  req.Color,
	})
	if err != nil {
		handleServiceError(c, "HealthHandler", err)
		return
	}

	if !result.Created {
		c.JSON(http.StatusOK, dto.EntryResponse{Message: "Health entry already saved", Entry: dto.NewEntryDTO(result.Entry)})
		return
	}
	c.JSON(http.StatusCreated, dto.EntryResponse{Message: "Health entry saved successfully", Entry: dto.NewEntryDTO(result.Entry)})
}

// ImportEntries переносит локальную историю устройства.
// Записи с нераспознаваемыми ответами пропускаются и учитываются в skipped.
func (h *HealthHandler) ImportEntries(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	var req dto.ImportEntriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	inputs := make([]service.ImportEntryInput, 0, len(req.Entries))
	invalid := 0
	for i, e := range req.Entries {
		answers, err := decodeAnswers(e.Answers)
		if err != nil {
			log.Printf("[HealthHandler] Импорт пользователя ID=%d: запись #%d пропущена: %v", userID, i, err)
			invalid++
			continue
		}
		clientID := e.ClientID
		if clientID == "" {
			clientID = e.ID
		}
		inputs = append(inputs, service.ImportEntryInput{
			ClientID:   clientID,
			Date:       e.Date,
			Answers:    answers,
			RawAnswers: e.Answers,
		})
	}

	result, err := h.healthService.ImportEntries(c.Request.Context(), userID, inputs)
	if err != nil {
		handleServiceError(c, "HealthHandler", err)
		return
	}

	c.JSON(http.StatusOK, dto.ImportEntriesResponse{
		Message:  fmt.Sprintf("Imported %d entries", result.Imported),
		Imported: result.Imported,
		Skipped:  result.Skipped + invalid,
	})
}

// ListEntries возвращает страницу истории от новых к старым
func (h *HealthHandler) ListEntries(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}

	result, err := h.healthService.ListEntries(userID, page, limit)
	if err != nil {
		handleServiceError(c, "HealthHandler", err)
		return
	}

	resp := dto.EntriesResponse{
		Entries: make([]dto.EntryDTO, 0, len(result.Entries)),
		Pagination: dto.PaginationDTO{
			Current: result.Page,
			Pages:   result.Pages,
			Total:   result.Total,
		},
	}
	for i := range result.Entries {
		resp.Entries = append(resp.Entries, dto.NewEntryDTO(&result.Entries[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// GetEntry возвращает одну запись пользователя
func (h *HealthHandler) GetEntry(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)
	entryID := c.MustGet("entryID").(uint)

	entry, err := h.healthService.GetEntry(userID, entryID)
	if err != nil {
		handleServiceError(c, "HealthHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": dto.NewEntryDTO(entry)})
}

// DeleteEntry удаляет запись пользователя
func (h *HealthHandler) DeleteEntry(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)
	entryID := c.MustGet("entryID").(uint)

	if err := h.healthService.DeleteEntry(c.Request.Context(), userID, entryID); err != nil {
		handleServiceError(c, "HealthHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Health entry deleted successfully"})
}

// GetStats возвращает статистику для главного экрана
func (h *HealthHandler) GetStats(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	stats, err := h.healthService.GetStats(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, "HealthHandler", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// PreviewScore считает балл без сохранения
func (h *HealthHandler) PreviewScore(c *gin.Context) {
	var req dto.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	answers, err := decodeAnswers(req.Answers)
	if err != nil {
		invalidRequest(c, err)
		return
	}

	evaluation, err := h.healthService.PreviewScore(answers)
	if err != nil {
		handleServiceError(c, "HealthHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.ScoreResponse{
		Score:   evaluation.Score,
		Tier:    string(evaluation.Tier),
		Color:   evaluation.Color,
		Message: evaluation.Message,
	})
}

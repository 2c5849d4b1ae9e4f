package entity

import (
	"time"
)

// Цвета результата, которые видит пользователь
const (
	ResultColorGreen  = "green"
	ResultColorYellow = "yellow"
	ResultColorRed    = "red"
	ResultColorBlack  = "black"
)

// IsValidResultColor проверяет, что цвет результата входит в допустимый набор
func IsValidResultColor(color string) bool {
	switch color {
	case ResultColorGreen, ResultColorYellow, ResultColorRed, ResultColorBlack:
		return true
	}
	return false
}

// HealthEntry представляет сохранённый результат одного прохождения квиза.
// Запись создаётся один раз и больше не изменяется.
type HealthEntry struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	UserID   uint   `gorm:"not null;index:idx_health_entries_user_taken,priority:1;uniqueIndex:idx_health_entries_user_client,priority:1" json:"user_id"`
	ClientID string `gorm:"size:36;not null;uniqueIndex:idx_health_entries_user_client,priority:2" json:"client_id"`

	// TakenAt равен nil, если дату не удалось распознать
	TakenAt *time.Time   `gorm:"type:timestamp;index:idx_health_entries_user_taken,priority:2" json:"taken_at"`
	Answers AnswerRecord `gorm:"type:jsonb;not null" json:"answers"`
	Score   int          `gorm:"not null;default:0" json:"score"`
	Result  string       `gorm:"size:100;not null" json:"result"`
	Color   string       `gorm:"size:10;not null" json:"color"`
	Tier    string       `gorm:"size:10;not null" json:"tier"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (HealthEntry) TableName() string {
	return "health_entries"
}

// HasValidDate сообщает, известна ли дата прохождения
func (e *HealthEntry) HasValidDate() bool {
	return e.TakenAt != nil && !e.TakenAt.IsZero()
}

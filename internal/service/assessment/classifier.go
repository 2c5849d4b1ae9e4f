package assessment

import (
	"time"

	"github.com/yourusername/stoolpool-api/internal/domain/entity"
)

// Tier - уровень тяжести результата
type Tier string

const (
	TierCritical Tier = "critical"
	TierWarning  Tier = "warning"
	TierModerate Tier = "moderate"
	TierGood     Tier = "good"
)

// Classification - уровень, цвет и сообщение для пользователя
type Classification struct {
	Tier    Tier   `json:"tier"`
	Color   string `json:"color"`
	Message string `json:"message"`
}

// Пороги проверяются сверху вниз, первый подходящий выигрывает
var thresholds = []struct {
	minScore       int
	classification Classification
}{
	{18, Classification{Tier: TierCritical, Color: entity.ResultColorBlack, Message: "Take immediate medical attention!"}},
	{10, Classification{Tier: TierWarning, Color: entity.ResultColorRed, Message: "Go for a medical checkup."}},
	{5, Classification{Tier: TierModerate, Color: entity.ResultColorYellow, Message: "Watch your diet."}},
}

var goodClassification = Classification{Tier: TierGood, Color: entity.ResultColorGreen, Message: "You are in the clear!"}

// Classify переводит балл в уровень тяжести. Отрицательный балл считается хорошим результатом.
func Classify(score int) Classification {
	for _, t := range thresholds {
		if score >= t.minScore {
			return t.classification
		}
	}
	return goodClassification
}

// Evaluation - результат оценки одного прохождения квиза
type Evaluation struct {
	Classification
	Score   int
	TakenAt *time.Time
	Answers entity.AnswerRecord
}

// Evaluate считает балл и классифицирует его
func Evaluate(answers entity.AnswerRecord, takenAt *time.Time) Evaluation {
	score := Score(answers)
	return Evaluation{
		Classification: Classify(score),
		Score:          score,
		TakenAt:        takenAt,
		Answers:        answers,
	}
}

// Entry собирает запись истории из оценки
func (e Evaluation) Entry(userID uint, clientID string) entity.HealthEntry {
	return entity.HealthEntry{
		UserID:   userID,
		ClientID: clientID,
		TakenAt:  e.TakenAt,
		Answers:  e.Answers,
		Score:    e.Score,
		Result:   e.Message,
		Color:    e.Color,
		Tier:     string(e.Tier),
	}
}

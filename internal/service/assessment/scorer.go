package assessment

import (
	"github.com/yourusername/stoolpool-api/internal/domain/entity"
)

const (
	minPainValue = 0
	maxPainValue = 10
)

// Scorer считает суммарный балл по таблицам Weights
type Scorer struct {
	Weights Weights
}

// NewScorer создает новый Scorer с указанными таблицами
func NewScorer(weights Weights) *Scorer {
	return &Scorer{Weights: weights}
}

// Score считает балл по таблицам DefaultWeights
func Score(answers entity.AnswerRecord) int {
	return Scorer{Weights: DefaultWeights}.Score(answers)
}

// Score возвращает неотрицательный балл для набора ответов.
// Пропущенные вопросы и неизвестные метки не влияют на результат, заметки не оцениваются.
func (s Scorer) Score(answers entity.AnswerRecord) int {
	score := 0

	score += s.Weights.Color[answers.Color]
	score += s.Weights.Consistency[answers.Consistency]
	score += s.Weights.Smell[answers.Smell]

	if answers.Pain != nil {
		score += clampPain(answers.Pain.Before)
		score += clampPain(answers.Pain.During)
		score += clampPain(answers.Pain.After)
	}

	// Ответ без ':' засчитывается только в статистике типов
	if fs := answers.FloatSink; fs != nil && !fs.Unstructured {
		score += s.Weights.Float[fs.Type]
		for _, detail := range fs.Details {
			score += s.Weights.FloatDetails[detail]
		}
	}

	if score < 0 {
		return 0
	}
	return score
}

func clampPain(v int) int {
	if v < minPainValue {
		return minPainValue
	}
	if v > maxPainValue {
		return maxPainValue
	}
	return v
}

// IsPainInRange проверяет, что все оценки боли лежат в диапазоне 0-10
func IsPainInRange(p *entity.PainRating) bool {
	if p == nil {
		return true
	}
	for _, v := range []int{p.Before, p.During, p.After} {
		if v < minPainValue || v > maxPainValue {
			return false
		}
	}
	return true
}

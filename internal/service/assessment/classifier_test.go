package assessment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yourusername/stoolpool-api/internal/domain/entity"
)

func TestClassify_Boundaries(t *testing.T) {
	testCases := []struct {
		score   int
		tier    Tier
		color   string
		message string
	}{
		{-3, TierGood, entity.ResultColorGreen, "You are in the clear!"},
		{0, TierGood, entity.ResultColorGreen, "You are in the clear!"},
		{4, TierGood, entity.ResultColorGreen, "You are in the clear!"},
		{5, TierModerate, entity.ResultColorYellow, "Watch your diet."},
		{9, TierModerate, entity.ResultColorYellow, "Watch your diet."},
		{10, TierWarning, entity.ResultColorRed, "Go for a medical checkup."},
		{17, TierWarning, entity.ResultColorRed, "Go for a medical checkup."},
		{18, TierCritical, entity.ResultColorBlack, "Take immediate medical attention!"},
		{100, TierCritical, entity.ResultColorBlack, "Take immediate medical attention!"},
	}

	for _, tc := range testCases {
		c := Classify(tc.score)

		assert.Equal(t, tc.tier, c.Tier, "score=%d", tc.score)
		assert.Equal(t, tc.color, c.Color, "score=%d", tc.score)
		assert.Equal(t, tc.message, c.Message, "score=%d", tc.score)
	}
}

func TestClassify_IsMonotonic(t *testing.T) {
	rank := map[Tier]int{TierGood: 0, TierModerate: 1, TierWarning: 2, TierCritical: 3}

	prev := rank[Classify(-1).Tier]
	for score := 0; score <= 40; score++ {
		current := rank[Classify(score).Tier]
		assert.GreaterOrEqual(t, current, prev, "score=%d", score)
		prev = current
	}
}

func TestEvaluate_BuildsEntry(t *testing.T) {
	// Arrange
	takenAt := time.Date(2024, 3, 10, 8, 30, 0, 0, time.UTC)
	answers := entity.AnswerRecord{Color: "Yellow", Consistency: "Lumpy"}

	// Act
	evaluation := Evaluate(answers, &takenAt)
	entry := evaluation.Entry(7, "4b0e4b8c-3a3c-4a1e-9b1a-1a7a3c1b2d3e")

	// Assert
	assert.Equal(t, 15, evaluation.Score)
	assert.Equal(t, TierWarning, evaluation.Tier)
	assert.Equal(t, uint(7), entry.UserID)
	assert.Equal(t, "4b0e4b8c-3a3c-4a1e-9b1a-1a7a3c1b2d3e", entry.ClientID)
	assert.Equal(t, 15, entry.Score)
	assert.Equal(t, "Go for a medical checkup.", entry.Result)
	assert.Equal(t, entity.ResultColorRed, entry.Color)
	assert.Equal(t, "warning", entry.Tier)
	assert.Equal(t, &takenAt, entry.TakenAt)
	assert.Equal(t, answers, entry.Answers)
}

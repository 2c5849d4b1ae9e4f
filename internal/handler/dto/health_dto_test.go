package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/stoolpool-api/internal/domain/entity"
	"github.com/yourusername/stoolpool-api/internal/service/assessment"
)

func TestNewStatsResponse_EmptyHistory(t *testing.T) {
	resp := NewStatsResponse(assessment.Aggregate(nil, assessment.AggregateOptions{}))

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"totalLogs": 0,
		"lastEntry": null,
		"mostCommonResult": null,
		"weeklyAverage": 0,
		"dailyAverage": "0.0",
		"streak": 0,
		"avgScore": "0.0",
		"recentTrend": []
	}`, string(raw))
}

func TestNewStatsResponse_WithEntries(t *testing.T) {
	// Arrange
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	day := func(d int) *time.Time {
		ts := now.AddDate(0, 0, -d)
		return &ts
	}
	entries := []entity.HealthEntry{
		{ID: 1, TakenAt: day(2), Score: 0, Result: "You are in the clear!", Color: "green",
			Answers: entity.AnswerRecord{Color: "Brown", Pain: &entity.PainRating{Before: 1, During: 2, After: 3}}},
		{ID: 2, TakenAt: day(1), Score: 12, Result: "Go for a medical checkup.", Color: "red",
			Answers: entity.AnswerRecord{Color: "Red", Pain: &entity.PainRating{Before: 4, During: 4, After: 4}}},
	}

	// Act
	resp := NewStatsResponse(assessment.Aggregate(entries, assessment.AggregateOptions{Now: now}))

	// Assert
	assert.Equal(t, 2, resp.TotalLogs)
	require.NotNil(t, resp.LastEntry)
	assert.Equal(t, uint(2), resp.LastEntry.ID)
	require.NotNil(t, resp.MostCommonResult)
	assert.Equal(t, "You are in the clear!", *resp.MostCommonResult)
	assert.Equal(t, 2, resp.WeeklyAverage)
	assert.Equal(t, "0.3", resp.DailyAverage)
	assert.Equal(t, 2, resp.Streak)
	assert.Equal(t, "6.0", resp.AvgScore)
	require.NotNil(t, resp.Patterns)
	assert.Equal(t, "3.0", resp.Patterns.AvgPainRating)
	assert.Equal(t, "Brown", resp.Patterns.MostCommonColor)
	assert.Equal(t, assessment.NotAvailable, resp.Patterns.MostCommonFloat)
	assert.Len(t, resp.RecentTrend, 2)
}

func TestNewStatsResponse_StreakSkipsUndatedEntries(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	entries := []entity.HealthEntry{
		{ID: 1, TakenAt: &yesterday, Score: 3},
		{ID: 2, Score: 4},
		{ID: 3, TakenAt: &now, Score: 4},
	}

	resp := NewStatsResponse(assessment.Aggregate(entries, assessment.AggregateOptions{Now: now}))

	assert.Equal(t, 2, resp.Streak)
	assert.Equal(t, "3.7", resp.AvgScore)
}

func TestNewExportDataDTO(t *testing.T) {
	user := &entity.User{Username: "stooltracker", Email: "a@b.c", Notifications: entity.DefaultNotificationSettings()}
	entries := []entity.HealthEntry{{Score: 4, Result: "You are in the clear!", Color: "green"}}

	out := NewExportDataDTO(user, entries, time.Now())

	assert.Equal(t, 1, out.TotalEntries)
	assert.Equal(t, "stooltracker", out.User.Username)
	assert.Equal(t, "09:00", out.User.NotificationSettings.ReminderTime)
	assert.Nil(t, out.HealthEntries[0].Date)
}

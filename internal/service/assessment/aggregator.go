package assessment

import (
	"time"

	"github.com/yourusername/stoolpool-api/internal/domain/entity"
)

const (
	// NotAvailable подставляется, когда по измерению нет ни одного ответа
	NotAvailable = "N/A"
	// InvalidDate подставляется в тренд для записей без даты
	InvalidDate = "Invalid Date"

	trendSize       = 7
	weeklyWindow    = 7 * 24 * time.Hour
	trendDateLayout = "Jan 2"
)

// AggregateOptions задаёт текущее время и часовой пояс для форматирования дат
type AggregateOptions struct {
	Now      time.Time
	Location *time.Location
}

// Patterns - самые частые ответы по каждому измерению
type Patterns struct {
	MostCommonColor string `json:"mostCommonColor"`
	MostCommonShape string `json:"mostCommonShape"`
	MostCommonSmell string `json:"mostCommonSmell"`
	MostCommonFloat string `json:"mostCommonFloat"`
}

// TrendPoint - одна точка графика последних результатов
type TrendPoint struct {
	Date  string `json:"date"`
	Score int    `json:"score"`
	Color string `json:"color"`
}

// StatsSummary - сводная статистика по истории пользователя
type StatsSummary struct {
	TotalCount       int
	LastEntry        *entity.HealthEntry
	MostCommonResult string
	Patterns         Patterns
	AveragePain      float64
	AverageScore     float64
	// Streak - сколько календарных дней подряд есть записи, заканчивая днём самой поздней записи
	Streak           int
	WeeklyCount      int
	DailyAverage     float64
	Trend            []TrendPoint
}

// frequency считает вхождения и помнит порядок первого появления
type frequency struct {
	counts map[string]int
	order  []string
}

func newFrequency() *frequency {
	return &frequency{counts: make(map[string]int)}
}

func (f *frequency) add(value string) {
	if value == "" {
		return
	}
	if _, ok := f.counts[value]; !ok {
		f.order = append(f.order, value)
	}
	f.counts[value]++
}

// mostCommon при равенстве возвращает значение, встретившееся первым
func (f *frequency) mostCommon() string {
	best, bestCount := NotAvailable, 0
	for _, value := range f.order {
		if f.counts[value] > bestCount {
			best, bestCount = value, f.counts[value]
		}
	}
	return best
}

// Aggregate строит сводку по записям. Записи приводятся к каноническому порядку.
func Aggregate(entries []entity.HealthEntry, opts AggregateOptions) StatsSummary {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	history := NewHistory(entries)
	ordered := history.entries

	results := newFrequency()
	colors := newFrequency()
	shapes := newFrequency()
	smells := newFrequency()
	floats := newFrequency()

	var painSum float64
	painCount := 0
	scoreSum := 0
	weekly := 0
	windowStart := now.Add(-weeklyWindow)

	for i := range ordered {
		e := &ordered[i]

		results.add(e.Result)
		scoreSum += e.Score
		colors.add(e.Answers.Color)
		shapes.add(e.Answers.Consistency)
		smells.add(e.Answers.Smell)
		floats.add(e.Answers.FloatType())

		if e.Answers.Pain != nil {
			painSum += e.Answers.Pain.Average()
			painCount++
		}

		if e.HasValidDate() && !e.TakenAt.Before(windowStart) {
			weekly++
		}
	}

	summary := StatsSummary{
		TotalCount:       len(ordered),
		LastEntry:        history.Latest(),
		MostCommonResult: results.mostCommon(),
		Patterns: Patterns{
			MostCommonColor: colors.mostCommon(),
			MostCommonShape: shapes.mostCommon(),
			MostCommonSmell: smells.mostCommon(),
			MostCommonFloat: floats.mostCommon(),
		},
		WeeklyCount:  weekly,
		DailyAverage: float64(weekly) / 7,
		Trend:        buildTrend(ordered, loc),
		Streak:       dayStreak(ordered, loc),
	}
	if painCount > 0 {
		summary.AveragePain = painSum / float64(painCount)
	}
	if len(ordered) > 0 {
		summary.AverageScore = float64(scoreSum) / float64(len(ordered))
	}

	return summary
}

// buildTrend возвращает до семи последних записей от старых к новым
func buildTrend(ordered []entity.HealthEntry, loc *time.Location) []TrendPoint {
	start := len(ordered) - trendSize
	if start < 0 {
		start = 0
	}

	trend := make([]TrendPoint, 0, len(ordered)-start)
	for _, e := range ordered[start:] {
		date := InvalidDate
		if e.HasValidDate() {
			date = e.TakenAt.In(loc).Format(trendDateLayout)
		}
		trend = append(trend, TrendPoint{Date: date, Score: e.Score, Color: e.Color})
	}
	return trend
}

// dayStreak считает дни подряд в loc, заканчивая днём самой поздней датированной записи.
// Записи без даты пропускаются, несколько записей за день считаются одним днём.
func dayStreak(ordered []entity.HealthEntry, loc *time.Location) int {
	days := make(map[time.Time]struct{})
	var latest time.Time
	for i := range ordered {
		e := &ordered[i]
		if !e.HasValidDate() {
			continue
		}
		day := calendarDay(*e.TakenAt, loc)
		days[day] = struct{}{}
		if day.After(latest) {
			latest = day
		}
	}
	if len(days) == 0 {
		return 0
	}

	streak := 0
	for day := latest; ; day = day.AddDate(0, 0, -1) {
		if _, ok := days[day]; !ok {
			return streak
		}
		streak++
	}
}

func calendarDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

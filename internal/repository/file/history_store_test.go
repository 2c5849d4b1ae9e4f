package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/stoolpool-api/internal/domain/entity"
	"github.com/yourusername/stoolpool-api/internal/service/assessment"
)

func TestHistoryStore_LoadMissingFile(t *testing.T) {
	store := NewHistoryStore(filepath.Join(t.TempDir(), "stool_results.json"), time.UTC)

	history, err := store.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, history.Len())
}

func TestHistoryStore_LoadLegacySlot(t *testing.T) {
	// Arrange: слот старого приложения хранит записи в порядке добавления и позиционные ответы
	path := filepath.Join(t.TempDir(), "stool_results.json")
	legacy := `[
		{"date":"6/16/2024, 9:00:00 AM","result":"You are in the clear!","color":"green","score":0,
		 "answers":[null,"Formed","Normal",null,"Sink: Sank fast",null]},
		{"date":"broken","result":"Watch your diet.","color":"yellow","score":6,"answers":["Green","Hard"]},
		{"date":"6/15/2024, 9:00:00 AM","result":"Go for a medical checkup.","color":"red","score":12,"answers":["Red"]}
	]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o600))
	store := NewHistoryStore(path, time.UTC)

	// Act
	history, err := store.Load(context.Background())

	// Assert
	require.NoError(t, err)
	entries := history.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "Red", entries[0].Answers.Color)
	assert.Equal(t, "Formed", entries[1].Answers.Consistency)
	assert.Equal(t, "Sink", entries[1].Answers.FloatType())
	// Запись с нераспознанной датой остаётся после той, за которой была добавлена
	assert.Nil(t, entries[2].TakenAt)
	assert.Equal(t, "Green", entries[2].Answers.Color)
}

func TestHistoryStore_AppendRemoveRoundTrip(t *testing.T) {
	// Arrange
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "stool_results.json")
	store := NewHistoryStore(path, time.UTC)

	first := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	second := first.Add(24 * time.Hour)
	require.NoError(t, store.Append(ctx, assessment.Evaluate(entity.AnswerRecord{Color: "Black"}, &second).Entry(0, "b")))
	require.NoError(t, store.Append(ctx, assessment.Evaluate(entity.AnswerRecord{Color: "Brown"}, &first).Entry(0, "a")))

	// Act
	history, err := NewHistoryStore(path, time.UTC).Load(ctx)

	// Assert
	require.NoError(t, err)
	require.Equal(t, 2, history.Len())
	assert.Equal(t, "a", history.Entries()[0].ClientID)
	latest := history.Latest()
	require.NotNil(t, latest)
	assert.Equal(t, "b", latest.ClientID)
	assert.Equal(t, 18, latest.Score)
	assert.True(t, second.Equal(*latest.TakenAt))

	require.NoError(t, store.Remove(ctx, 0))
	history, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, history.Len())
	assert.Equal(t, "b", history.Entries()[0].ClientID)

	assert.ErrorIs(t, store.Remove(ctx, 5), assessment.ErrIndexOutOfRange)
}

func TestHistoryStore_AppendKeepsExistingRecords(t *testing.T) {
	// Arrange: даты в локали устройства и позиционные ответы, которые сервер не умеет разобрать полностью
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "stool_results.json")
	legacy := `[
		{"date":"1/2/2025, 3:04:05 PM","result":"Go for a medical checkup.","color":"red","score":12,"answers":["Red"]},
		{"date":"Mittwoch 3. Jan","result":"Watch your diet.","color":"yellow","score":6,"answers":["Green","Hard",null,null,"Float: Foamy: x, Layered"]}
	]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o600))
	store := NewHistoryStore(path, time.UTC)

	// Act
	added := time.Date(2025, 1, 4, 8, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(ctx, assessment.Evaluate(entity.AnswerRecord{Color: "Brown", Consistency: "Formed"}, &added).Entry(0, "c")))

	// Assert: старые записи не изменились и стоят в прежнем порядке, новая дописана в конец
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var records []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 3)

	assert.JSONEq(t, `"1/2/2025, 3:04:05 PM"`, string(records[0]["date"]))
	assert.JSONEq(t, `["Red"]`, string(records[0]["answers"]))
	assert.JSONEq(t, `"Mittwoch 3. Jan"`, string(records[1]["date"]))
	assert.JSONEq(t, `["Green","Hard",null,null,"Float: Foamy: x, Layered"]`, string(records[1]["answers"]))
	_, hasID := records[0]["id"]
	assert.False(t, hasID)

	assert.JSONEq(t, `"2025-01-04T08:00:00Z"`, string(records[2]["date"]))
	assert.JSONEq(t, `["Brown","Formed",null,null,null,null]`, string(records[2]["answers"]))
	assert.JSONEq(t, `"c"`, string(records[2]["id"]))

	history, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c", history.Latest().ClientID)
}

func TestHistoryStore_AppendUndatedBecomesLatest(t *testing.T) {
	ctx := context.Background()
	store := NewHistoryStore(filepath.Join(t.TempDir(), "stool_results.json"), time.UTC)
	dated := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(ctx, assessment.Evaluate(entity.AnswerRecord{Color: "Brown"}, &dated).Entry(0, "a")))
	require.NoError(t, store.Append(ctx, assessment.Evaluate(entity.AnswerRecord{Color: "Red"}, nil).Entry(0, "new-undated")))

	history, err := store.Load(ctx)

	require.NoError(t, err)
	require.Equal(t, 2, history.Len())
	assert.Equal(t, "new-undated", history.Latest().ClientID)
	summary := assessment.Aggregate(history.Entries(), assessment.AggregateOptions{Now: dated, Location: time.UTC})
	require.NotNil(t, summary.LastEntry)
	assert.Equal(t, "new-undated", summary.LastEntry.ClientID)
}

func TestHistoryStore_RemoveUsesCanonicalIndex(t *testing.T) {
	// Arrange: на диске порядок добавления отличается от хронологического
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "stool_results.json")
	legacy := `[
		{"id":"late","date":"2024-06-16T09:00:00Z","result":"","color":"","score":0,"answers":["Brown"]},
		{"id":"broken","date":"not a date","result":"","color":"","score":0,"answers":["Green"]},
		{"id":"early","date":"2024-06-15T09:00:00Z","result":"","color":"","score":0,"answers":["Red"]}
	]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o600))
	store := NewHistoryStore(path, time.UTC)

	// Act: канонический индекс 0 - самая ранняя запись, на диске она третья
	require.NoError(t, store.Remove(ctx, 0))

	// Assert
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var records []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 2)
	assert.JSONEq(t, `"late"`, string(records[0]["id"]))
	assert.JSONEq(t, `"broken"`, string(records[1]["id"]))
	assert.JSONEq(t, `"not a date"`, string(records[1]["date"]))
}

func TestHistoryStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stool_results.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not":"a list"}`), 0o600))

	_, err := NewHistoryStore(path, time.UTC).Load(context.Background())

	assert.Error(t, err)
}

func TestHistoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHistoryStore(filepath.Join(t.TempDir(), "x.json"), time.UTC).Load(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}

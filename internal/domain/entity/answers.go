package entity

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidAnswers возвращается, когда ответы квиза пришли не массивом и не объектом
var ErrInvalidAnswers = errors.New("answers must be an array or an object")

// Позиции ответов в устаревшем (позиционном) формате мобильного приложения
const (
	legacyColorIndex = iota
	legacyConsistencyIndex
	legacySmellIndex
	legacyPainIndex
	legacyFloatIndex
	legacyNotesIndex
)

// PainRating хранит оценку боли до, во время и после (0-10)
type PainRating struct {
	Before int `json:"before"`
	During int `json:"during"`
	After  int `json:"after"`
}

// Total возвращает сумму трёх оценок
func (p PainRating) Total() int {
	return p.Before + p.During + p.After
}

// Average возвращает среднюю оценку боли
func (p PainRating) Average() float64 {
	return float64(p.Total()) / 3
}

// FloatSink описывает ответ "всплыл/утонул" вместе с уточнениями.
// Unstructured=true означает, что исходная строка не содержала разделителя ':'
type FloatSink struct {
	Type         string   `json:"type"`
	Details      []string `json:"details,omitempty"`
	Unstructured bool     `json:"unstructured,omitempty"`
}

// ParseFloatSink разбирает составную строку вида "Float: Foamy, Layered".
// Уточнения берутся только между первым и вторым ':', остальное отбрасывается.
// Пустая строка даёт nil.
func ParseFloatSink(raw string) *FloatSink {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ":")
	if len(parts) == 1 {
		return &FloatSink{Type: strings.TrimSpace(raw), Unstructured: true}
	}

	fs := &FloatSink{Type: strings.TrimSpace(parts[0])}
	for _, token := range strings.Split(parts[1], ",") {
		fs.Details = append(fs.Details, strings.TrimSpace(token))
	}
	return fs
}

// String собирает обратно составную строку в формате мобильного приложения
func (f FloatSink) String() string {
	if f.Unstructured {
		return f.Type
	}
	return f.Type + ": " + strings.Join(f.Details, ", ")
}

// UnmarshalJSON принимает как объект, так и устаревшую строку "Type: a, b"
func (f *FloatSink) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var raw string
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		if parsed := ParseFloatSink(raw); parsed != nil {
			*f = *parsed
		} else {
			*f = FloatSink{}
		}
		return nil
	}

	type floatSinkAlias FloatSink
	var alias floatSinkAlias
	if err := json.Unmarshal(trimmed, &alias); err != nil {
		return err
	}
	*f = FloatSink(alias)
	return nil
}

// AnswerRecord представляет один пройденный квиз.
// Пустая строка или nil означает, что вопрос был пропущен.
type AnswerRecord struct {
	Color       string      `json:"color,omitempty"`
	Consistency string      `json:"consistency,omitempty"`
	Smell       string      `json:"smell,omitempty"`
	Pain        *PainRating `json:"pain,omitempty"`
	FloatSink   *FloatSink  `json:"float_sink,omitempty"`
	Notes       string      `json:"notes,omitempty"`
}

// FloatType возвращает тип "всплыл/утонул" или пустую строку, если ответа нет
func (a AnswerRecord) FloatType() string {
	if a.FloatSink == nil {
		return ""
	}
	return a.FloatSink.Type
}

// IsEmpty сообщает, что все вопросы были пропущены
func (a AnswerRecord) IsEmpty() bool {
	return a.Color == "" && a.Consistency == "" && a.Smell == "" &&
		a.Pain == nil && a.FloatSink == nil && a.Notes == ""
}

// UnmarshalJSON принимает именованный объект или позиционный массив из шести элементов,
// который мобильное приложение хранит локально
func (a *AnswerRecord) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	switch trimmed[0] {
	case '[':
		return a.unmarshalLegacy(trimmed)
	case '{':
		type answerRecordAlias AnswerRecord
		var alias answerRecordAlias
		if err := json.Unmarshal(trimmed, &alias); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAnswers, err)
		}
		*a = AnswerRecord(alias)
		return nil
	default:
		return ErrInvalidAnswers
	}
}

// MarshalLegacy кодирует ответы позиционным массивом из шести элементов,
// который читает мобильное приложение. Пропущенные вопросы пишутся как null.
func (a AnswerRecord) MarshalLegacy() ([]byte, error) {
	items := make([]interface{}, legacyNotesIndex+1)
	if a.Color != "" {
		items[legacyColorIndex] = a.Color
	}
	if a.Consistency != "" {
		items[legacyConsistencyIndex] = a.Consistency
	}
	if a.Smell != "" {
		items[legacySmellIndex] = a.Smell
	}
	if a.Pain != nil {
		items[legacyPainIndex] = a.Pain
	}
	if a.FloatSink != nil {
		items[legacyFloatIndex] = a.FloatSink.String()
	}
	if a.Notes != "" {
		items[legacyNotesIndex] = a.Notes
	}
	return json.Marshal(items)
}

// unmarshalLegacy разбирает позиционный массив. Элементы неверного типа считаются пропущенными.
func (a *AnswerRecord) unmarshalLegacy(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAnswers, err)
	}

	record := AnswerRecord{}
	for i, item := range items {
		switch i {
		case legacyColorIndex:
			record.Color = decodeLegacyString(item)
		case legacyConsistencyIndex:
			record.Consistency = decodeLegacyString(item)
		case legacySmellIndex:
			record.Smell = decodeLegacyString(item)
		case legacyPainIndex:
			record.Pain = decodeLegacyPain(item)
		case legacyFloatIndex:
			record.FloatSink = ParseFloatSink(decodeLegacyString(item))
		case legacyNotesIndex:
			record.Notes = decodeLegacyString(item)
		}
	}

	*a = record
	return nil
}

func decodeLegacyString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func decodeLegacyPain(raw json.RawMessage) *PainRating {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil
	}

	return &PainRating{
		Before: decodeLegacyInt(fields["before"]),
		During: decodeLegacyInt(fields["during"]),
		After:  decodeLegacyInt(fields["after"]),
	}
}

// decodeLegacyInt возвращает 0 для отсутствующих и нечисловых значений
func decodeLegacyInt(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(math.Round(f))
}

// Scan реализует интерфейс sql.Scanner для чтения JSONB
func (a *AnswerRecord) Scan(value interface{}) error {
	if value == nil {
		*a = AnswerRecord{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	if len(data) == 0 {
		*a = AnswerRecord{}
		return nil
	}
	return a.UnmarshalJSON(data)
}

// Value реализует интерфейс driver.Valuer, ответы всегда пишутся в именованном виде
func (a AnswerRecord) Value() (driver.Value, error) {
	return json.Marshal(a)
}

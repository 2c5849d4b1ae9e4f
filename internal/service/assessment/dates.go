package assessment

import (
	"strings"
	"time"
)

// Форматы, в которых мобильное приложение сохраняло дату (toLocaleString на разных устройствах)
var legacyDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"1/2/2006, 3:04:05 PM",
	"1/2/2006, 3:04 PM",
	"1/2/2006 3:04:05 PM",
	"02/01/2006, 15:04:05",
	"02.01.2006, 15:04:05",
	"2.1.2006, 15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02",
	"1/2/2006",
}

// ParseLegacyDate пробует распознать дату в одном из известных форматов.
// Даты без часового пояса интерпретируются в loc. Нераспознанная дата даёт nil.
func ParseLegacyDate(raw string, loc *time.Location) *time.Time {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}

	// Некоторые движки вставляют узкий неразрывный пробел перед AM/PM
	value = strings.ReplaceAll(value, "\u202f", " ")
	value = strings.ReplaceAll(value, "\u00a0", " ")

	for _, layout := range legacyDateLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return &t
		}
	}
	return nil
}

// Package mappers translates between persisted rows and domain models.
//
// All functions are pure. Malformed optional values are tolerated: an
// unparseable timestamp becomes the zero time and a missing id becomes
// uuid.Nil rather than an error.
package mappers

import (
	"strconv"
	"time"

	"github.com/chepyr/go-kanban/internal/rowstore"
	"github.com/google/uuid"
)

// Column names shared by more than one table.
const (
	colID        = "id"
	colCreatedAt = "created_at"
	colUpdatedAt = "updated_at"
	colPosition  = "position"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func stringValue(row rowstore.Row, key string) string {
	switch v := row[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	}
	return ""
}

func intValue(row rowstore.Row, key string) int {
	switch v := row[key].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}

func uuidValue(row rowstore.Row, key string) uuid.UUID {
	id, err := uuid.Parse(stringValue(row, key))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func timeValue(row rowstore.Row, key string) time.Time {
	switch v := row[key].(type) {
	case time.Time:
		return v.UTC()
	case string:
		return parseTime(v)
	}
	return time.Time{}
}

func parseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

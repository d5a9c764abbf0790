package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// recordKey extracts the key part of a SurrealDB record id. Values may come
// back as "table:key" strings, RecordID structs, or {"tb", "id"} maps.
func recordKey(id interface{}) string {
	switch v := id.(type) {
	case string:
		if _, key, ok := strings.Cut(v, ":"); ok {
			return strings.Trim(key, "⟨⟩`")
		}
		return v
	case models.RecordID:
		return fmt.Sprint(v.ID)
	case *models.RecordID:
		if v != nil {
			return fmt.Sprint(v.ID)
		}
	case map[string]interface{}:
		if key, ok := v["id"]; ok {
			return fmt.Sprint(key)
		}
	}
	return ""
}

// getString extracts a string value from a map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// getBool extracts a bool value from a map
func getBool(m map[string]interface{}, key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}

// getDecimal extracts an exact amount. Amounts are stored as strings; numeric
// values are accepted for records written by other clients.
func getDecimal(m map[string]interface{}, key string) (decimal.Decimal, error) {
	switch v := m[key].(type) {
	case string:
		return decimal.NewFromString(v)
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case nil:
		return decimal.Zero, fmt.Errorf("missing %s", key)
	default:
		return decimal.Zero, fmt.Errorf("unexpected %s type %T", key, v)
	}
}

// getTime extracts a time value from a map
func getTime(m map[string]interface{}, key string) *time.Time {
	t, ok := parseTime(m[key])
	if !ok {
		return nil
	}
	return &t
}

// parseTime parses time from the representations SurrealDB hands back
func parseTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), true
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed.UTC(), true
		}
	case models.CustomDateTime:
		return t.Time.UTC(), true
	case *models.CustomDateTime:
		if t != nil {
			return t.Time.UTC(), true
		}
	}
	return time.Time{}, false
}

// formatTime renders t for a <datetime> cast
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

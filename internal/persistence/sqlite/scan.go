package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// formatTime stores UTC timestamps at second precision. RFC3339 text with a
// fixed width keeps lexicographic comparisons in SQL consistent with time
// ordering; fractional seconds would break that.
func formatTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored timestamp %q: %w", value, err)
	}
	return t, nil
}

func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseNullableTime(value sql.NullString) (*time.Time, error) {
	if !value.Valid {
		return nil, nil
	}
	t, err := parseTime(value.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func fromNullString(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	s := value.String
	return &s
}

func encodeEquipment(equipment []string) (string, error) {
	if equipment == nil {
		equipment = []string{}
	}
	encoded, err := json.Marshal(equipment)
	if err != nil {
		return "", fmt.Errorf("encode equipment: %w", err)
	}
	return string(encoded), nil
}

func decodeEquipment(value string) ([]string, error) {
	if value == "" {
		return nil, nil
	}
	var equipment []string
	if err := json.Unmarshal([]byte(value), &equipment); err != nil {
		return nil, fmt.Errorf("decode equipment: %w", err)
	}
	return equipment, nil
}

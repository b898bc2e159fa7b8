package shared

import (
	"strings"
	"time"
)

const DateLayout = time.DateOnly

// ParseDate accepts YYYY-MM-DD or RFC3339 and returns the calendar day at UTC midnight.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if parsed, err := time.Parse(DateLayout, value); err == nil {
		return parsed, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC), nil
}

func FormatDate(value time.Time) string {
	return value.Format(DateLayout)
}

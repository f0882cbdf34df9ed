package services

import (
	"fmt"
	"strings"
	"time"
)

// Accepted date layouts, tried in order. The first is the canonical storage format.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	time.RFC3339,
	"2006-01-02T15:04",
}

// ParseDate parses a date string in the supported formats and returns the
// calendar day at UTC midnight.
func ParseDate(dateStr string) (time.Time, error) {
	s := strings.TrimSpace(dateStr)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date format: expected YYYY-MM-DD")
}

// NormalizeDate rewrites a parseable date to YYYY-MM-DD and leaves anything
// else untouched.
func NormalizeDate(dateStr string) string {
	t, err := ParseDate(dateStr)
	if err != nil {
		return strings.TrimSpace(dateStr)
	}
	return t.Format("2006-01-02")
}

// midnight returns the calendar day of t (in t's location) at UTC midnight
func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

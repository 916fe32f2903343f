// Package dates holds the calendar-day rules shared by the family and
// interview domains: every stored date is a UTC midnight and every
// day count is a difference of calendar days.
package dates

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const Layout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

// Parse accepts YYYY-MM-DD or an RFC 3339 timestamp and returns the calendar
// day at midnight UTC. A blank value yields nil.
func Parse(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	if parsed, err := time.Parse(Layout, value); err == nil {
		return &parsed, nil
	}

	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			day := Midnight(parsed)
			return &day, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrInvalidDate, value)
}

func Midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Format renders a nullable date for form pre-fill; nil becomes "".
func Format(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(Layout)
}

// DaysBetween counts calendar days from from to to; negative when to is earlier.
func DaysBetween(from, to time.Time) int {
	return int(Midnight(to).Sub(Midnight(from)).Hours() / 24)
}

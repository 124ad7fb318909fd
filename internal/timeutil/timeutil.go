package timeutil

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrEmptyTimestamp is returned when no timestamp value is present.
var ErrEmptyTimestamp = errors.New("timeutil: empty timestamp")

var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts RFC3339-style strings or a unix epoch in milliseconds.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(strings.Trim(strings.TrimSpace(value), `"`))
	if value == "" || value == "null" {
		return time.Time{}, ErrEmptyTimestamp
	}
	if ms, err := strconv.ParseFloat(value, 64); err == nil {
		return time.UnixMilli(int64(ms)).UTC(), nil
	}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// OrNow returns t, or now when t is zero.
func OrNow(t time.Time, now time.Time) time.Time {
	if t.IsZero() {
		return now
	}
	return t
}

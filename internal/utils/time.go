package utils

import (
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var expiryLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

// ParseDate parses an event date in the client wire format ("2006-01-02").
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// ParseExpiry parses an expiry timestamp. A bare date is promoted to the end
// of that day. Returns the zero time for empty or unparseable input.
func ParseExpiry(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range expiryLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if layout == DateLayout {
			t = EndOfDay(t)
		}
		return t
	}
	return time.Time{}
}

// EndOfDay returns 23:59:59 on the day of t, the default expiry for an event
// that did not specify one.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

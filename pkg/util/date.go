package util

import (
	"strings"
	"time"
)

// DateLayouts are the accepted calendar date formats, tried in order.
var DateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// ParseDate parses s with DateLayouts and truncates the result to UTC midnight.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DayOf(t), true
		}
	}
	return time.Time{}, false
}

// DayOf returns the UTC midnight of t's calendar day as seen in t's own location.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

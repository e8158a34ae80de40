package protocol

import (
	"strings"
	"time"
)

var fullLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// The simulator clock only sends the time of day.
var clockLayouts = []string{
	"15:04:05.000",
	"15:04:05",
}

// ParseTimestamp reads a frame timestamp. Clock-only values are placed on
// now's calendar date in now's location. ok is false when s is empty or
// matches no known layout.
func ParseTimestamp(s string, now time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range fullLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t, true
		}
	}
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		y, mo, d := now.Date()
		return time.Date(y, mo, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), now.Location()), true
	}
	return time.Time{}, false
}

// OccurredAt is ParseTimestamp with a fallback to now.
func OccurredAt(m Message, now time.Time) time.Time {
	if t, ok := ParseTimestamp(m.Stamp(), now); ok {
		return t
	}
	return now
}

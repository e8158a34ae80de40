package protocol

import (
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	got, ok := ParseTimestamp("14:30:05.123", now)
	if !ok {
		t.Fatalf("clock form should parse")
	}
	want := time.Date(2026, 3, 14, 14, 30, 5, 123000000, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("clock form: got %v want %v", got, want)
	}

	got, ok = ParseTimestamp("2026-03-13T22:15:00Z", now)
	if !ok || !got.Equal(time.Date(2026, 3, 13, 22, 15, 0, 0, time.UTC)) {
		t.Fatalf("rfc3339: got %v %v", got, ok)
	}

	got, ok = ParseTimestamp("2026-03-13T22:15:00.5", now)
	if !ok || got.Nanosecond() != 500000000 {
		t.Fatalf("local datetime: got %v %v", got, ok)
	}

	for _, bad := range []string{"", "  ", "yesterday", "25:99"} {
		if _, ok := ParseTimestamp(bad, now); ok {
			t.Fatalf("%q should not parse", bad)
		}
	}
}

func TestOccurredAtFallsBackToNow(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m := LogNotice{Meta: Meta{Type: TypeLog, Timestamp: "garbage"}, Message: "x"}
	if got := OccurredAt(m, now); !got.Equal(now) {
		t.Fatalf("expected fallback to now, got %v", got)
	}
}

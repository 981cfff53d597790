package utils

import (
	"testing"
	"time"
)

func TestParseIncidentTimeRFC3339(t *testing.T) {
	got := ParseIncidentTime("2024-01-01T00:00:00Z")
	if got == nil {
		t.Fatalf("expected timestamp")
	}
	if *got != 1704067200000 {
		t.Fatalf("unexpected millis: %d", *got)
	}
}

func TestParseIncidentTimeOffset(t *testing.T) {
	got := ParseIncidentTime("2024-01-01T02:00:00+02:00")
	if got == nil || *got != 1704067200000 {
		t.Fatalf("expected offset to be normalised, got %v", got)
	}
}

func TestParseIncidentTimeInvalid(t *testing.T) {
	for _, value := range []string{"", "   ", "definitely not a date"} {
		if got := ParseIncidentTime(value); got != nil {
			t.Fatalf("expected nil for %q, got %d", value, *got)
		}
	}
}

func TestParseIncidentTimeRejectsRelativeAndPartial(t *testing.T) {
	for _, value := range []string{"ok", "12", "2024", "1 2", "now", "yesterday", "2 hours ago"} {
		if got := ParseIncidentTime(value); got != nil {
			t.Fatalf("expected nil for %q, got %d", value, *got)
		}
	}
}

func TestParseIncidentTimeLenientAbsolute(t *testing.T) {
	first := ParseIncidentTime("2024-01-02 03:04:05")
	if first == nil {
		t.Fatalf("expected timestamp")
	}
	if *first != 1704164645000 {
		t.Fatalf("unexpected millis: %d", *first)
	}

	time.Sleep(1100 * time.Millisecond)
	second := ParseIncidentTime("2024-01-02 03:04:05")
	if second == nil || *second != *first {
		t.Fatalf("expected the same instant on a later call, got %v", second)
	}
}

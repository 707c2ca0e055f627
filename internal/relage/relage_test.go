package relage

import (
	"testing"
	"time"
)

var now = time.Date(2026, 2, 19, 12, 0, 0, 0, time.UTC)

func TestSinceTiers(t *testing.T) {
	tests := []struct {
		ts   string
		want string
	}{
		{"2026-02-19T12:00:00Z", "0m ago"},
		{"2026-02-19T11:59:30Z", "0m ago"},
		{"2026-02-19T11:15:00.000Z", "45m ago"},
		{"2026-02-19T11:00:01Z", "59m ago"},
		{"2026-02-19T11:00:00Z", "1h ago"},
		{"2026-02-19T09:00:00+00:00", "3h ago"},
		{"2026-02-18T12:00:01Z", "23h ago"},
		{"2026-02-18T12:00:00Z", "1d ago"},
		{"2026-02-12T11:00:00Z", "7d ago"},
	}
	for _, tt := range tests {
		if got := Since(tt.ts, now); got != tt.want {
			t.Errorf("Since(%q) = %q, want %q", tt.ts, got, tt.want)
		}
	}
}

func TestSinceRFC822(t *testing.T) {
	got := Since("Thu, 19 Feb 2026 08:00:00 +0000", now)
	if got != "4h ago" {
		t.Errorf("expected '4h ago', got %q", got)
	}

	got = Since("Thu, 19 Feb 2026 18:00:00 +0800", now)
	if got != "2h ago" {
		t.Errorf("expected '2h ago' for offset timestamp, got %q", got)
	}
}

func TestSinceMissingOrInvalid(t *testing.T) {
	for _, ts := range []string{"", "   ", "not a date"} {
		if got := Since(ts, now); got != "" {
			t.Errorf("Since(%q) = %q, want empty", ts, got)
		}
		if got := Display(ts, now); got != "" {
			t.Errorf("Display(%q) = %q, want empty", ts, got)
		}
	}
}

func TestSinceFutureClampsToZero(t *testing.T) {
	if got := Since("2026-02-19T13:00:00Z", now); got != "0m ago" {
		t.Errorf("expected '0m ago' for future timestamp, got %q", got)
	}
}

func TestDisplayJustNow(t *testing.T) {
	if got := Display("2026-02-19T11:59:30Z", now); got != "Just now" {
		t.Errorf("expected 'Just now', got %q", got)
	}
	if got := Display("2026-02-19T11:58:00Z", now); got != "2m ago" {
		t.Errorf("expected '2m ago', got %q", got)
	}
	if got := Display("2026-02-17T11:00:00Z", now); got != Since("2026-02-17T11:00:00Z", now) {
		t.Errorf("Display and Since should agree above one minute, got %q", got)
	}
}

// Package relage renders how long ago a feed entry was published.
//
// Since is the persisted form written into the snapshot at refresh time.
// Display is the form used when an age is re-derived for presentation; it
// differs only in reporting ages under a minute as "Just now".
package relage

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Parse reads an ISO-8601 or RFC-822 style timestamp.
func Parse(ts string) (time.Time, bool) {
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, ts); err == nil {
		return t, true
	}
	t, err := dateparse.ParseAny(ts)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Since returns "{m}m ago", "{h}h ago" or "{d}d ago" for ts relative to now,
// or "" when ts is empty or unparseable.
func Since(ts string, now time.Time) string {
	t, ok := Parse(ts)
	if !ok {
		return ""
	}
	return format(elapsedMinutes(t, now))
}

// Display is Since with an extra "Just now" tier below one minute.
func Display(ts string, now time.Time) string {
	t, ok := Parse(ts)
	if !ok {
		return ""
	}
	minutes := elapsedMinutes(t, now)
	if minutes < 1 {
		return "Just now"
	}
	return format(minutes)
}

// elapsedMinutes floors the elapsed time to whole minutes. Timestamps in the
// future count as zero.
func elapsedMinutes(t, now time.Time) int64 {
	d := now.Sub(t)
	if d < 0 {
		return 0
	}
	return int64(d / time.Minute)
}

func format(minutes int64) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm ago", minutes)
	}
	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%dh ago", hours)
	}
	return fmt.Sprintf("%dd ago", hours/24)
}

package util

import (
	"strconv"
	"strings"
	"time"
)

var layouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"}

// ParseTime accepts RFC3339, a plain date or unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.UTC(), true
		}
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0).UTC(), true
	}
	return time.Time{}, false
}

// ParseIntDefault parses s or returns def if empty or invalid.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// NormalizeRange fills a missing bound relative to now and orders the pair.
func NormalizeRange(from, to, now time.Time, span time.Duration) (time.Time, time.Time) {
	if to.IsZero() {
		to = now
	}
	if from.IsZero() {
		from = to.Add(-span)
	}
	if from.After(to) {
		from, to = to, from
	}
	return from, to
}

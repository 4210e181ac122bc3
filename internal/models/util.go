package models

import (
	"strings"
	"time"
)

// ClampPct bounds a percentage to [0, 100].
func ClampPct(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// ParseRFC3339Ptr parses an RFC 3339 timestamp into a pointer, treating
// blank or malformed input as absent rather than an error.
func ParseRFC3339Ptr(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &t
}

// UnixPtr converts unix seconds to a UTC time pointer; zero and negative
// values read as absent.
func UnixPtr(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}

package issueparse

import (
	"strconv"
	"strings"
	"time"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05,000",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04",
	"01/02/2006",
	time.RFC1123Z,
	time.RFC1123,
}

// ParseTime accepts a timestamp as a string in one of the common layouts, a
// time.Time (as produced by YAML decoding), or a Unix epoch number whose unit
// is inferred from its magnitude.
func ParseTime(value interface{}) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), !v.IsZero()
	case string:
		return parseTimeString(v)
	case float64:
		return parseUnix(int64(v)), true
	case int:
		return parseUnix(int64(v)), true
	case int64:
		return parseUnix(v), true
	case uint64:
		return parseUnix(int64(v)), true
	}
	return time.Time{}, false
}

func parseTimeString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return parseUnix(n), true
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseUnix picks seconds, milliseconds, microseconds or nanoseconds by size.
func parseUnix(n int64) time.Time {
	abs := n
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs < 1e11:
		return time.Unix(n, 0).UTC()
	case abs < 1e14:
		return time.UnixMilli(n).UTC()
	case abs < 1e17:
		return time.UnixMicro(n).UTC()
	default:
		return time.Unix(0, n).UTC()
	}
}

package document

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the record-level timestamp format.
const TimestampLayout = "2006-01-02 15:04:05.000000"

// parseLayout accepts an optional fractional second of any precision.
const parseLayout = "2006-01-02 15:04:05"

// Epoch is the substitute for an unreadable incoming timestamp.
var Epoch = time.Unix(0, 0).UTC()

// FormatTimestamp renders t in UTC with microsecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a record timestamp, with or without fractional seconds.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	t, err := time.ParseInLocation(parseLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}

	return t, nil
}

// CollectionStamp renders t as the collection-level epoch-millis string.
func CollectionStamp(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// ParseCollectionStamp parses an epoch-millis collection timestamp.
func ParseCollectionStamp(s string) (time.Time, error) {
	ms, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid collection timestamp %q: %w", s, err)
	}
	return time.UnixMilli(ms).UTC(), nil
}

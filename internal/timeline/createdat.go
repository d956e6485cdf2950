package timeline

import (
	"strings"
	"time"
)

// LegacyLayout is the created_at format used by X's legacy tweet objects,
// e.g. "Wed Oct 10 20:19:24 +0000 2018".
const LegacyLayout = "Mon Jan 02 15:04:05 -0700 2006"

// legacyParseLayout also accepts unpadded days.
const legacyParseLayout = "Mon Jan _2 15:04:05 -0700 2006"

// SentinelEpoch marks a timestamp that could not be parsed. It is old
// enough that the sanity filter always drops it.
var SentinelEpoch = time.Unix(0, 0).UTC()

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-0700",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseCreatedAt parses a post timestamp in the legacy or ISO-8601 format.
// It returns SentinelEpoch for empty or unrecognised input and never fails.
func ParseCreatedAt(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return SentinelEpoch
	}

	if t, err := time.Parse(legacyParseLayout, value); err == nil {
		return t.UTC()
	}

	// Offset-less ISO values are taken as UTC.
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}

	return SentinelEpoch
}

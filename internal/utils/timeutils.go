package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"
)

// timestampParser only accepts absolute dates. Relative phrases ("now",
// "2 hours ago") and bare numbers would resolve against the wall clock.
var timestampParser = &dateparser.Parser{
	ParserTypes: []dateparser.ParserType{
		dateparser.CustomFormat,
		dateparser.AbsoluteTime,
	},
}

// timestampConfig requires a complete date and pins the reference time so a
// given input always yields the same instant.
var timestampConfig = &dateparser.Configuration{
	CurrentTime:     time.Unix(0, 0).UTC(),
	DefaultTimezone: time.UTC,
	StrictParsing:   true,
	RequiredParts:   []string{"year", "month", "day"},
}

// ParseTimestamp parses an incident timestamp. RFC 3339 values take the fast
// path; other absolute dates with a year, month and day go through dateparser
// so the formats PagerDuty has used over time (and hand-written fixtures) are
// accepted.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty time value")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	parsed, err := timestampParser.Parse(timestampConfig, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", value, err)
	}
	if parsed.Time.IsZero() {
		return time.Time{}, fmt.Errorf("parse time %q: no date found", value)
	}
	return parsed.Time, nil
}

// ParseIncidentTime returns value as milliseconds since the Unix epoch, or nil
// when it cannot be parsed.
func ParseIncidentTime(value string) *int64 {
	t, err := ParseTimestamp(value)
	if err != nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

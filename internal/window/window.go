// Package window drops items published outside a recency window.
package window

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrDateParse is returned for publication timestamps in an unknown format.
var ErrDateParse = errors.New("unparseable publication date")

var numericLayouts = []string{
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	time.RFC3339,
}

var namedLayouts = []string{
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 MST",
}

// rfc822Zones holds the zone names RFC 822 defines, as hours east of UTC.
var rfc822Zones = map[string]int{
	"UT": 0, "UTC": 0, "GMT": 0,
	"EST": -5, "EDT": -4,
	"CST": -6, "CDT": -5,
	"MST": -7, "MDT": -6,
	"PST": -8, "PDT": -7,
}

// ParsePubDate parses an RFC-822 style timestamp such as
// "Mon, 02 Jan 2006 15:04:05 -0700".
func ParsePubDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrDateParse)
	}
	for _, layout := range numericLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	// time.Parse needs at least three letters for a zone name.
	named := raw
	if strings.HasSuffix(named, " UT") {
		named += "C"
	}
	for _, layout := range namedLayouts {
		if ts, err := time.Parse(layout, named); err == nil {
			return resolveZone(ts, raw)
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrDateParse, raw)
}

// resolveZone pins a named zone to its RFC 822 offset. time.Parse reads
// unknown abbreviations as UTC, so those are rejected.
func resolveZone(ts time.Time, raw string) (time.Time, error) {
	name, _ := ts.Zone()
	hours, ok := rfc822Zones[name]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: unknown zone %q in %q", ErrDateParse, name, raw)
	}
	return time.Date(ts.Year(), ts.Month(), ts.Day(), ts.Hour(), ts.Minute(), ts.Second(), ts.Nanosecond(),
		time.FixedZone(name, hours*3600)), nil
}

// Contains reports whether published lies within d before now. An item
// exactly d old is kept.
func Contains(published, now time.Time, d time.Duration) bool {
	return now.Sub(published) <= d
}

// Within parses raw and applies Contains. Unparseable timestamps fail closed.
func Within(raw string, now time.Time, d time.Duration) bool {
	ts, err := ParsePubDate(raw)
	if err != nil {
		return false
	}
	return Contains(ts, now, d)
}

package source

import (
	"strings"
	"time"
)

// ISOLayout matches JavaScript's Date.prototype.toISOString output.
const ISOLayout = "2006-01-02T15:04:05.000Z"

const (
	icalUTCLayout   = "20060102T150405Z"
	icalLocalLayout = "20060102T150405"
)

// zonedLayouts carry their own offset.
var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	icalUTCLayout,
}

// naiveLayouts are read as wall clock time in the display zone.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	icalLocalLayout,
}

// FormatISO renders t as a canonical UTC instant string.
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

// parseInstant converts a raw date value into an instant. It accepts YAML
// timestamps, date strings and the imported {timezone, datetime,
// datetime_utc} mapping. Unknown shapes report false.
func parseInstant(v any, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	switch x := v.(type) {
	case time.Time:
		return x, !x.IsZero()
	case string:
		return parseInstantString(strings.TrimSpace(x), loc)
	case map[string]any, map[any]any:
		if utc := scalarString(lookup(x, "datetime_utc")); utc != "" {
			if t, err := time.Parse(icalUTCLayout, utc); err == nil {
				return t, true
			}
		}
		local := scalarString(lookup(x, "datetime"))
		if local == "" {
			return time.Time{}, false
		}
		zone := loc
		if name := scalarString(lookup(x, "timezone")); name != "" {
			if z, err := time.LoadLocation(name); err == nil {
				zone = z
			}
		}
		t, err := time.ParseInLocation(icalLocalLayout, local, zone)
		return t, err == nil
	default:
		return time.Time{}, false
	}
}

func parseInstantString(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	// Date-only strings are UTC midnight, the same as unquoted YAML dates.
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// isoAt is an accessor for the canonical instant string of the date value
// found at path inside rec.
func isoAt(rec any, loc *time.Location, path ...string) accessor {
	return func() string {
		t, ok := parseInstant(lookup(rec, path...), loc)
		if !ok {
			return ""
		}
		return FormatISO(t)
	}
}

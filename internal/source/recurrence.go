package source

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

const (
	maxOccurrencesPerSeries = 500

	// maxSkippedOccurrences bounds the walk from dtstart to the window start.
	maxSkippedOccurrences = 100_000
)

// expandRecurrence expands a series-level recurrence block
//
//	recurrence:
//	  rrule: FREQ=MONTHLY;BYDAY=1TU
//	  dtstart: "2024-01-02 18:00"
//	  title: Prague Gophers
//	  url: https://example.com
//	  venue: {name: Impact Hub}
//
// into native-shape records within the loader's horizon. dtstart is read as
// wall clock time in the loader's location, so occurrences keep their local
// start time across DST changes.
func (l Loader) expandRecurrence(seriesID string, rule any) ([]any, error) {
	if l.HorizonDays <= 0 || l.Today.IsZero() {
		return nil, nil
	}

	raw := scalarString(lookup(rule, "rrule"))
	if raw == "" {
		return nil, errors.New("recurrence: rrule is empty")
	}
	start, ok := parseInstant(lookup(rule, "dtstart"), l.location())
	if !ok {
		return nil, errors.New("recurrence: dtstart is missing or invalid")
	}

	r, err := rrule.StrToRRule(raw)
	if err != nil {
		return nil, fmt.Errorf("recurrence: parse rrule %q: %w", raw, err)
	}
	r.DTStart(wallClock(start, l.location()))

	occurrences, err := l.window(r.Iterator())
	if err != nil {
		return nil, err
	}

	records := make([]any, 0, len(occurrences))
	for _, occ := range occurrences {
		records = append(records, map[string]any{
			"id":    seriesID + "-" + occ.Format("20060102"),
			"title": lookup(rule, "title"),
			"url":   lookup(rule, "url"),
			"venue": lookup(rule, "venue"),
			"date":  occ,
		})
	}
	return records, nil
}

// wallClock re-anchors the calendar fields of t in loc.
func wallClock(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
}

// window walks next and collects occurrences in [Today, Today+HorizonDays].
// The walk stops at the first occurrence past the window or once
// maxOccurrencesPerSeries have been collected.
func (l Loader) window(next rrule.Next) ([]time.Time, error) {
	start := l.Today
	end := l.Today.AddDate(0, 0, l.HorizonDays)

	var out []time.Time
	skipped := 0
	for len(out) < maxOccurrencesPerSeries {
		occ, ok := next()
		if !ok || occ.After(end) {
			break
		}
		if occ.Before(start) {
			skipped++
			if skipped > maxSkippedOccurrences {
				return nil, fmt.Errorf("recurrence: more than %d occurrences before %s", maxSkippedOccurrences, start.Format(time.DateOnly))
			}
			continue
		}
		out = append(out, occ)
	}
	return out, nil
}

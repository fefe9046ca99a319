package feed

import (
	"slices"
	"strings"
	"time"

	"itsrazy/internal/model"
	"itsrazy/internal/source"
)

// Today returns local midnight of now in loc. It is computed once per build
// and passed down so that filtering and grouping agree within one run.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	n := now.In(loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
}

// Upcoming flattens all series, keeps events starting at or after today
// and sorts them by StartDate. Events without a parseable StartDate are
// dropped. Equal start dates are ordered by title, id, url and location so
// the result does not depend on file or series order; fully equal events
// keep their input order.
func Upcoming(all []model.Series, today time.Time) []model.Event {
	var out []model.Event
	for _, s := range all {
		for _, ev := range s.Events {
			start, ok := parseStart(ev)
			if !ok || start.Before(today) {
				continue
			}
			out = append(out, ev)
		}
	}

	// Lexical order of fixed-width UTC instants is chronological order.
	slices.SortStableFunc(out, func(a, b model.Event) int {
		return cmpOr(
			strings.Compare(a.StartDate, b.StartDate),
			strings.Compare(a.Title, b.Title),
			strings.Compare(a.ID, b.ID),
			strings.Compare(a.URL, b.URL),
			strings.Compare(a.Location, b.Location),
		)
	})
	return out
}

func parseStart(ev model.Event) (time.Time, bool) {
	if ev.StartDate == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(source.ISOLayout, ev.StartDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

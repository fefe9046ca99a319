package feed

import (
	"time"

	"itsrazy/internal/model"
)

// Day groups the events of one calendar day in the display zone.
type Day struct {
	Date   time.Time     `json:"date"`
	Events []model.Event `json:"events"`
}

// Month groups the events of one calendar month, split further by day.
type Month struct {
	Year   int           `json:"year"`
	Month  time.Month    `json:"month"`
	Events []model.Event `json:"-"`
	Days   []Day         `json:"days"`
}

// Feed is the presentation-ready result of one build.
type Feed struct {
	Today  time.Time     `json:"today"`
	Events []model.Event `json:"events"`
	Months []Month       `json:"months"`
}

type monthKey struct {
	year  int
	month time.Month
}

type dayKey struct {
	year  int
	month time.Month
	day   int
}

// Build runs filter, sort, dedup and month/day grouping over the corpus.
// today is local midnight (see Today); its location is the display zone
// used for grouping.
func Build(all []model.Series, today time.Time) Feed {
	loc := today.Location()
	events := Dedup(Upcoming(all, today))

	f := Feed{
		Today:  today,
		Events: events,
		Months: []Month{},
	}

	for _, monthEvents := range Group(events, func(ev model.Event) monthKey {
		t := localStart(ev, loc)
		return monthKey{t.Year(), t.Month()}
	}) {
		first := localStart(monthEvents[0], loc)
		m := Month{
			Year:   first.Year(),
			Month:  first.Month(),
			Events: monthEvents,
		}
		for _, dayEvents := range Group(monthEvents, func(ev model.Event) dayKey {
			t := localStart(ev, loc)
			return dayKey{t.Year(), t.Month(), t.Day()}
		}) {
			d := localStart(dayEvents[0], loc)
			m.Days = append(m.Days, Day{
				Date:   time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc),
				Events: dayEvents,
			})
		}
		f.Months = append(f.Months, m)
	}

	return f
}

// localStart is only called on events that passed Upcoming, so the start
// date is known to parse.
func localStart(ev model.Event, loc *time.Location) time.Time {
	t, _ := parseStart(ev)
	return t.In(loc)
}

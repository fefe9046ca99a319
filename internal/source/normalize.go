package source

import (
	"time"

	"itsrazy/internal/model"
)

// NormalizeRecord converts one raw record into an Event. Two shapes are
// understood: native records (id, title, url, venue.name, date) and
// records imported from meetup.com, nested under "meetupcom". Missing
// fields never fail; they fall through to the next candidate.
func NormalizeRecord(rec any, loc *time.Location) model.Event {
	id := first(
		at(rec, "id"),
		at(rec, "meetupcom", "ical", "uid"),
		at(rec, "url"),
	)

	return model.Event{
		ID: id,
		Title: first(
			at(rec, "title"),
			at(rec, "meetupcom", "ical", "summary"),
			at(rec, "meetupcom", "og_title"),
			value(id),
			at(rec, "url"),
		),
		URL: first(
			at(rec, "url"),
			at(rec, "meetupcom", "url"),
		),
		Location: first(
			at(rec, "venue", "name"),
			at(rec, "meetupcom", "ical", "location"),
		),
		StartDate: first(
			isoAt(rec, loc, "date"),
			isoAt(rec, loc, "meetupcom", "ical", "dtstart"),
		),
	}
}

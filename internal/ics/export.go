package ics

import (
	"time"

	ical "github.com/arran4/golang-ical"

	"itsrazy/internal/model"
	"itsrazy/internal/source"
)

// ExportOptions describes the generated calendar.
type ExportOptions struct {
	// Name is used for NAME and X-WR-CALNAME.
	Name string
	// Stamp is written as DTSTAMP on every event.
	Stamp time.Time
}

// Export renders events as a PUBLISH calendar, one VEVENT per event.
// Events whose start date cannot be parsed are left out.
func Export(events []model.Event, opts ExportOptions) string {
	cal := ical.NewCalendarFor("itsrazy")
	cal.SetMethod(ical.MethodPublish)
	if opts.Name != "" {
		cal.SetName(opts.Name)
		cal.SetXWRCalName(opts.Name)
	}

	for _, ev := range events {
		start, err := time.Parse(source.ISOLayout, ev.StartDate)
		if err != nil {
			continue
		}

		uid := ev.ID
		if uid == "" {
			uid = ev.StartDate + "@itsrazy"
		}

		vev := cal.AddEvent(uid)
		vev.SetDtStampTime(opts.Stamp)
		vev.SetStartAt(start)
		if ev.Title != "" {
			vev.SetSummary(ev.Title)
		}
		if ev.URL != "" {
			vev.SetURL(ev.URL)
		}
		if ev.Location != "" {
			vev.SetLocation(ev.Location)
		}
	}

	return cal.Serialize()
}

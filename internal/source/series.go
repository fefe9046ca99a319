package source

import (
	"time"

	appLog "itsrazy/internal/log"
	"itsrazy/internal/model"
)

// Loader turns parsed YAML documents into Series.
type Loader struct {
	// Location interprets naive date strings and recurrence wall clocks.
	// Nil means time.Local.
	Location *time.Location

	// Today and HorizonDays bound recurrence expansion to
	// [Today, Today+HorizonDays], both ends inclusive. With HorizonDays <= 0
	// recurrence rules are ignored.
	Today       time.Time
	HorizonDays int
}

func (l Loader) location() *time.Location {
	if l.Location == nil {
		return time.Local
	}
	return l.Location
}

// LoadSeries builds a Series from one parsed document. fallbackID is used
// when the document does not name its series. Documents without a "series"
// key report false.
func (l Loader) LoadSeries(doc any, fallbackID string) (model.Series, bool) {
	raw := lookup(doc, "series")
	if raw == nil {
		return model.Series{}, false
	}

	s := model.Series{
		ID:     first(at(raw, "id"), value(fallbackID)),
		Events: []model.Event{},
	}

	loc := l.location()
	if events, ok := lookup(raw, "events").([]any); ok {
		for _, rec := range events {
			s.Events = append(s.Events, NormalizeRecord(rec, loc))
		}
	}

	if rule := lookup(raw, "recurrence"); rule != nil {
		generated, err := l.expandRecurrence(s.ID, rule)
		if err != nil {
			appLog.Warn("series recurrence ignored", "series", s.ID, "err", err)
		}
		for _, rec := range generated {
			s.Events = append(s.Events, NormalizeRecord(rec, loc))
		}
	}

	return s, true
}

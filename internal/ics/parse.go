package ics

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "itsrazy/internal/log"
)

// ParsedEvent is the subset of a VEVENT kept when importing a pre-fetched
// meetup.com calendar file.
type ParsedEvent struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Status      string
	URL         string

	// Lat/Lon come from GEO; HasGeo reports whether it was present.
	Lat, Lon float64
	HasGeo   bool

	Start   time.Time
	End     time.Time
	StartTZ string
	EndTZ   string
}

// ParseICS parses an ICS payload into its VEVENTs. Events without a UID or
// a readable DTSTART are logged and skipped.
func ParseICS(body []byte) ([]ParsedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	events := make([]ParsedEvent, 0)
	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(comp)
		if perr != nil {
			appLog.Error("ics vevent skipped", perr)
			continue
		}
		events = append(events, ev)
	}

	appLog.Debug("ics parse completed", "event_count", len(events))
	return events, nil
}

func parseVEvent(ve *ical.VEvent) (ParsedEvent, error) {
	var out ParsedEvent

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	out.Summary = propValue(ve, ical.ComponentPropertySummary)
	out.Description = propValue(ve, ical.ComponentPropertyDescription)
	out.Location = propValue(ve, ical.ComponentPropertyLocation)
	out.Status = propValue(ve, ical.ComponentPropertyStatus)
	out.URL = propValue(ve, ical.ComponentPropertyUrl)

	if geo := propValue(ve, ical.ComponentPropertyGeo); geo != "" {
		out.Lat, out.Lon, out.HasGeo = parseGeo(geo)
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return out, err
	}
	out.Start = start
	out.StartTZ = zoneOf(ve.GetProperty(ical.ComponentPropertyDtStart), start)

	if end, err := ve.GetEndAt(); err == nil {
		out.End = end
		out.EndTZ = zoneOf(ve.GetProperty(ical.ComponentPropertyDtEnd), end)
	}

	return out, nil
}

func propValue(ve *ical.VEvent, p ical.ComponentProperty) string {
	if prop := ve.GetProperty(p); prop != nil {
		return prop.Value
	}
	return ""
}

// zoneOf returns the TZID of a date-time property, falling back to the
// location name of the parsed value ("UTC" for Z-suffixed values).
func zoneOf(prop *ical.IANAProperty, t time.Time) string {
	if prop != nil {
		if tzs, ok := prop.ICalParameters["TZID"]; ok && len(tzs) > 0 {
			return tzs[0]
		}
	}
	return t.Location().String()
}

// parseGeo parses a GEO value ("50.08;14.43").
func parseGeo(v string) (lat, lon float64, ok bool) {
	latStr, lonStr, found := strings.Cut(v, ";")
	if !found {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

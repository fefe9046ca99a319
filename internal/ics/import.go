package ics

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"itsrazy/internal/config"
	appLog "itsrazy/internal/log"
)

// ImportResult counts the records touched by an import.
type ImportResult struct {
	Added   int
	Updated int
}

type icalTime struct {
	Timezone    string `yaml:"timezone"`
	Datetime    string `yaml:"datetime"`
	DatetimeUTC string `yaml:"datetime_utc"`
}

type icalGeo struct {
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
}

// icalRecord is stored under meetupcom.ical of a series event.
type icalRecord struct {
	Summary     string    `yaml:"summary,omitempty"`
	Description string    `yaml:"description,omitempty"`
	Location    string    `yaml:"location,omitempty"`
	Geo         *icalGeo  `yaml:"geo,omitempty"`
	Status      string    `yaml:"status,omitempty"`
	UID         string    `yaml:"uid"`
	URL         string    `yaml:"url,omitempty"`
	DTStart     icalTime  `yaml:"dtstart"`
	DTEnd       *icalTime `yaml:"dtend,omitempty"`
}

func newICalTime(t time.Time, zone string) icalTime {
	return icalTime{
		Timezone:    zone,
		Datetime:    t.Format("20060102T150405"),
		DatetimeUTC: t.UTC().Format("20060102T150405Z"),
	}
}

func toRecord(ev ParsedEvent) icalRecord {
	rec := icalRecord{
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		Status:      ev.Status,
		UID:         ev.UID,
		URL:         ev.URL,
		DTStart:     newICalTime(ev.Start, ev.StartTZ),
	}
	if ev.HasGeo {
		rec.Geo = &icalGeo{Lat: ev.Lat, Lon: ev.Lon}
	}
	if !ev.End.IsZero() {
		end := newICalTime(ev.End, ev.EndTZ)
		rec.DTEnd = &end
	}
	return rec
}

// ImportFile merges the events of a pre-fetched .ics file into the series
// document at seriesPath and rewrites it in place. A missing series file is
// created.
func ImportFile(icsPath, seriesPath string) (ImportResult, error) {
	body, err := os.ReadFile(icsPath)
	if err != nil {
		return ImportResult{}, err
	}

	doc, err := os.ReadFile(seriesPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ImportResult{}, err
	}

	out, res, err := Import(body, doc)
	if err != nil {
		return res, fmt.Errorf("import %s into %s: %w", icsPath, seriesPath, err)
	}

	if err := config.WriteFileAtomic(seriesPath, out, 0o644); err != nil {
		return res, err
	}

	appLog.Info("ics import completed", "ics", icsPath, "series", seriesPath, "added", res.Added, "updated", res.Updated)
	return res, nil
}

// Import upserts every VEVENT of body into the series document doc under
// series.events[].meetupcom. Records are matched by meetupcom.url, then by
// meetupcom.ical.uid. Key order and unrelated content of doc are kept.
func Import(body, doc []byte) ([]byte, ImportResult, error) {
	var res ImportResult

	events, err := ParseICS(body)
	if err != nil {
		return nil, res, err
	}

	var root yaml.Node
	if len(bytes.TrimSpace(doc)) > 0 {
		if err := yaml.Unmarshal(doc, &root); err != nil {
			return nil, res, err
		}
	}
	if root.Kind == 0 {
		root = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode}}}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, res, errors.New("series document is not a mapping")
	}

	series, err := ensureMapping(root.Content[0], "series")
	if err != nil {
		return nil, res, err
	}
	list := mapGet(series, "events")
	if list == nil {
		list = &yaml.Node{Kind: yaml.SequenceNode}
		mapSet(series, "events", list)
	}
	if list.Kind != yaml.SequenceNode {
		return nil, res, errors.New("series.events is not a sequence")
	}

	for _, ev := range events {
		item := findRecord(list, ev)
		if item == nil {
			item = &yaml.Node{Kind: yaml.MappingNode}
			list.Content = append(list.Content, item)
			res.Added++
		} else {
			res.Updated++
		}

		meetup, err := ensureMapping(item, "meetupcom")
		if err != nil {
			return nil, res, err
		}
		if ev.URL != "" && scalarValue(mapGet(meetup, "url")) == "" {
			mapSet(meetup, "url", stringNode(ev.URL))
		}

		var icalNode yaml.Node
		if err := icalNode.Encode(toRecord(ev)); err != nil {
			return nil, res, err
		}
		mapSet(meetup, "ical", &icalNode)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&root); err != nil {
		return nil, res, err
	}
	if err := enc.Close(); err != nil {
		return nil, res, err
	}
	return buf.Bytes(), res, nil
}

// findRecord returns the item whose meetupcom.url equals the event URL, or
// failing that the item whose meetupcom.ical.uid equals the event UID.
func findRecord(list *yaml.Node, ev ParsedEvent) *yaml.Node {
	if ev.URL != "" {
		for _, item := range list.Content {
			if scalarValue(mapGet(mapGet(item, "meetupcom"), "url")) == ev.URL {
				return item
			}
		}
	}
	if ev.UID != "" {
		for _, item := range list.Content {
			if scalarValue(mapGet(mapGet(mapGet(item, "meetupcom"), "ical"), "uid")) == ev.UID {
				return item
			}
		}
	}
	return nil
}

func mapGet(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func mapSet(m *yaml.Node, key string, v *yaml.Node) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = v
			return
		}
	}
	m.Content = append(m.Content, stringNode(key), v)
}

// ensureMapping returns the mapping stored at key, creating it when the key
// is absent or null.
func ensureMapping(m *yaml.Node, key string) (*yaml.Node, error) {
	v := mapGet(m, key)
	if v == nil || v.Tag == "!!null" {
		v = &yaml.Node{Kind: yaml.MappingNode}
		mapSet(m, key, v)
		return v, nil
	}
	if v.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s is not a mapping", key)
	}
	return v, nil
}

func scalarValue(n *yaml.Node) string {
	if n == nil || n.Kind != yaml.ScalarNode {
		return ""
	}
	return n.Value
}

func stringNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

package ics

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"itsrazy/internal/model"
	"itsrazy/internal/source"
)

func readFixture(t *testing.T) []byte {
	t.Helper()
	body, err := os.ReadFile(filepath.Join("testdata", "ux-monday.ics"))
	require.NoError(t, err)
	return body
}

func TestParseICS(t *testing.T) {
	events, err := ParseICS(readFixture(t))
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "event_280440185@meetup.com", ev.UID)
	assert.Equal(t, "UX Monday: Podpora začínajících designérů v týmu", ev.Summary)
	assert.Equal(t, "Asociace UX\nMonday, September 6 at 6:30 PM", ev.Description)
	assert.Equal(t, "Svornosti 3321/2 (Svornosti 3321/2, Smíchov, Praha-Praha 5, Czech Republic 150 00)", ev.Location)
	assert.Equal(t, "CONFIRMED", ev.Status)
	assert.Equal(t, "https://www.meetup.com/asociace-ux/events/280440185/", ev.URL)
	assert.True(t, ev.HasGeo)
	assert.InDelta(t, 50.08, ev.Lat, 1e-9)
	assert.InDelta(t, 14.43, ev.Lon, 1e-9)

	assert.Equal(t, "Europe/Prague", ev.StartTZ)
	assert.True(t, ev.Start.Equal(time.Date(2021, 9, 6, 16, 30, 0, 0, time.UTC)))
	assert.True(t, ev.End.Equal(time.Date(2021, 9, 6, 18, 30, 0, 0, time.UTC)))
}

func TestParseICS_Empty(t *testing.T) {
	_, err := ParseICS(nil)
	assert.Error(t, err)
}

func TestParseGeo(t *testing.T) {
	lat, lon, ok := parseGeo("50.08;14.43")
	assert.True(t, ok)
	assert.Equal(t, 50.08, lat)
	assert.Equal(t, 14.43, lon)

	_, _, ok = parseGeo("50.08")
	assert.False(t, ok)
	_, _, ok = parseGeo("north;south")
	assert.False(t, ok)
}

func TestImport_NewDocument(t *testing.T) {
	out, res, err := Import(readFixture(t), nil)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Added: 1}, res)

	var doc any
	require.NoError(t, yaml.Unmarshal(out, &doc))

	s, ok := source.Loader{}.LoadSeries(doc, "asociace-ux")
	require.True(t, ok)
	require.Len(t, s.Events, 1)
	assert.Equal(t, model.Event{
		ID:        "event_280440185@meetup.com",
		Title:     "UX Monday: Podpora začínajících designérů v týmu",
		URL:       "https://www.meetup.com/asociace-ux/events/280440185/",
		Location:  "Svornosti 3321/2 (Svornosti 3321/2, Smíchov, Praha-Praha 5, Czech Republic 150 00)",
		StartDate: "2021-09-06T16:30:00.000Z",
	}, s.Events[0])
}

func TestImport_UpdatesExistingAndKeepsOrder(t *testing.T) {
	doc := []byte(`# UX Monday
series:
  id: asociace-ux
  meetupcom:
    url: https://www.meetup.com/asociace-ux/
  events:
    - id: native-1
      title: Hand written
      date: 2021-10-04T16:30:00Z
    - meetupcom:
        url: https://www.meetup.com/asociace-ux/events/280440185/
        og_title: UX Monday (old)
        ical:
          summary: stale
`)

	out, res, err := Import(readFixture(t), doc)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Updated: 1}, res)

	text := string(out)
	assert.True(t, strings.HasPrefix(text, "# UX Monday\nseries:\n  id: asociace-ux\n"), text)
	assert.Less(t, strings.Index(text, "native-1"), strings.Index(text, "og_title"))
	assert.NotContains(t, text, "stale")
	assert.Contains(t, text, "datetime_utc: 20210906T163000Z")

	// Importing the same file again is a no-op.
	again, res, err := Import(readFixture(t), out)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Updated: 1}, res)
	assert.Equal(t, text, string(again))
}

func TestImport_URLMatchBeatsEarlierUIDMatch(t *testing.T) {
	doc := []byte(`series:
  events:
    - meetupcom:
        url: https://www.meetup.com/asociace-ux/events/1/
        ical:
          uid: event_280440185@meetup.com
          summary: same uid
    - meetupcom:
        url: https://www.meetup.com/asociace-ux/events/280440185/
        ical:
          summary: same url
`)

	out, res, err := Import(readFixture(t), doc)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Updated: 1}, res)

	var parsed struct {
		Series struct {
			Events []struct {
				Meetupcom struct {
					URL  string `yaml:"url"`
					Ical struct {
						Summary string `yaml:"summary"`
					} `yaml:"ical"`
				} `yaml:"meetupcom"`
			} `yaml:"events"`
		} `yaml:"series"`
	}
	require.NoError(t, yaml.Unmarshal(out, &parsed))
	require.Len(t, parsed.Series.Events, 2)
	assert.Equal(t, "same uid", parsed.Series.Events[0].Meetupcom.Ical.Summary)
	assert.Equal(t, "UX Monday: Podpora začínajících designérů v týmu", parsed.Series.Events[1].Meetupcom.Ical.Summary)
}

func TestImport_MatchesByUIDWithoutURL(t *testing.T) {
	doc := []byte(`series:
  events:
    - meetupcom:
        ical:
          uid: event_280440185@meetup.com
`)

	out, res, err := Import(readFixture(t), doc)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Updated: 1}, res)
	assert.Equal(t, 1, strings.Count(string(out), "uid: event_280440185@meetup.com"))
	assert.Contains(t, string(out), "datetime_utc: 20210906T163000Z")
}

func TestImportFile_MissingFiles(t *testing.T) {
	dir := t.TempDir()
	icsPath := filepath.Join(dir, "x.ics")
	require.NoError(t, os.WriteFile(icsPath, readFixture(t), 0o644))

	_, err := ImportFile(icsPath, filepath.Join(dir, "ux.yaml"))
	require.NoError(t, err)

	_, err = ImportFile(filepath.Join(dir, "missing.ics"), filepath.Join(dir, "ux.yaml"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestImport_RejectsNonMappingSeries(t *testing.T) {
	_, _, err := Import(readFixture(t), []byte("series: [1, 2]\n"))
	assert.Error(t, err)
}

func TestImportFile(t *testing.T) {
	dir := t.TempDir()
	icsPath := filepath.Join(dir, "x.ics")
	seriesPath := filepath.Join(dir, "data", "ux.yaml")
	require.NoError(t, os.WriteFile(icsPath, readFixture(t), 0o644))

	res, err := ImportFile(icsPath, seriesPath)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)

	all, err := source.Loader{}.LoadCorpus(filepath.Dir(seriesPath))
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "ux", all[0].ID)
}

func TestExport(t *testing.T) {
	stamp := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	events := []model.Event{
		{ID: "a", Title: "Gophers, again", URL: "https://g.test", Location: "Hub; 1st floor", StartDate: "2024-03-01T17:00:00.000Z"},
		{Title: "No id", StartDate: "2024-03-02T17:00:00.000Z"},
		{ID: "undated", Title: "skipped"},
	}

	out := Export(events, ExportOptions{Name: "ITsrazy.cz", Stamp: stamp})

	cal, err := ical.ParseCalendar(bytes.NewReader([]byte(out)))
	require.NoError(t, err)
	got := cal.Events()
	require.Len(t, got, 2)

	assert.Equal(t, "a", got[0].Id())
	assert.Equal(t, "Gophers, again", got[0].GetProperty(ical.ComponentPropertySummary).Value)
	assert.Equal(t, "Hub; 1st floor", got[0].GetProperty(ical.ComponentPropertyLocation).Value)
	assert.Equal(t, "https://g.test", got[0].GetProperty(ical.ComponentPropertyUrl).Value)
	start, err := got[0].GetStartAt()
	require.NoError(t, err)
	assert.True(t, start.Equal(time.Date(2024, 3, 1, 17, 0, 0, 0, time.UTC)))

	assert.Equal(t, "2024-03-02T17:00:00.000Z@itsrazy", got[1].Id())
	assert.Contains(t, out, "X-WR-CALNAME:ITsrazy.cz")
	assert.Contains(t, out, "METHOD:PUBLISH")
}

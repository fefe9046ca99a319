package feed

import (
	"time"

	appLog "itsrazy/internal/log"
	"itsrazy/internal/source"
)

// Pipeline rebuilds the feed from the corpus on every call. Nothing is
// cached between runs.
type Pipeline struct {
	DataDir     string
	Location    *time.Location
	HorizonDays int
}

// Run loads the corpus and builds the feed as seen at now. "Today" is
// derived once from now and shared by loading, filtering and grouping.
func (p Pipeline) Run(now time.Time) (Feed, error) {
	today := Today(now, p.Location)

	loader := source.Loader{
		Location:    today.Location(),
		Today:       today,
		HorizonDays: p.HorizonDays,
	}
	all, err := loader.LoadCorpus(p.DataDir)
	if err != nil {
		return Feed{}, err
	}

	f := Build(all, today)
	appLog.Debug("feed built", "today", today.Format(time.DateOnly), "event_count", len(f.Events), "month_count", len(f.Months))
	return f, nil
}

package feed

import "itsrazy/internal/model"

// Dedup drops an event when its (StartDate, Title) pair equals that of the
// previous input element, whether or not that element was itself kept.
// Only adjacent duplicates collapse; run it after Upcoming so that
// identical keys are neighbours.
func Dedup(events []model.Event) []model.Event {
	out := make([]model.Event, 0, len(events))
	for i, ev := range events {
		if i > 0 && sameSlot(events[i-1], ev) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func sameSlot(a, b model.Event) bool {
	return a.StartDate == b.StartDate && a.Title == b.Title
}

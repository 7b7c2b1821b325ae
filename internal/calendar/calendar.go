package calendar

import (
	"sort"
	"time"

	"github.com/example/dfg-downloader/internal/ui"
)

// DateAvailability is one day cell of the rendered calendar. Cell is a
// live reference valid only for the page snapshot it was read from;
// pagination invalidates it, so it must be consumed or discarded before
// the next PrevMonth call. Re-resolve by date via a fresh VisibleDates
// instead of retaining it.
type DateAvailability struct {
	Cell      ui.Element
	Date      time.Time
	Available bool
}

// Index maps each date to its most recently observed availability.
// Overlapping page views overwrite earlier records for the same date.
type Index map[time.Time]DateAvailability

func (ix Index) Merge(other Index) {
	for d, a := range other {
		ix[d] = a
	}
}

// Dates returns the available dates in ascending order.
func (ix Index) Dates() []time.Time {
	out := make([]time.Time, 0, len(ix))
	for d, a := range ix {
		if a.Available {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Day normalizes a timestamp to its UTC midnight, the canonical key
// form used throughout the index.
func Day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// View is the slice of the interactive surface the scanner needs: read
// the day cells currently rendered and page the calendar backward.
type View interface {
	VisibleDates() ([]DateAvailability, error)
	PrevMonth(n int) error
}

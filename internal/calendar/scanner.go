package calendar

import (
	"errors"
	"fmt"
	"time"
)

// ErrScan marks a structural failure reading the calendar page. It is
// fatal: the run aborts before any download starts.
var ErrScan = errors.New("calendar scan failed")

// Scanner walks the calendar backward and assembles the full
// availability index.
type Scanner struct {
	view View

	// PageStep is how many months PrevMonth moves between page reads.
	// Each page shows about two months, so stepping by two skips past
	// already-seen cells.
	PageStep int
}

func NewScanner(v View) *Scanner {
	return &Scanner{view: v, PageStep: 2}
}

// ScanPage snapshots the currently rendered page and reports how many
// of its dates are available.
func (s *Scanner) ScanPage() (Index, int, error) {
	cells, err := s.view.VisibleDates()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrScan, err)
	}
	ix := make(Index, len(cells))
	available := 0
	for _, c := range cells {
		ix[c.Date] = c
		if c.Available {
			available++
		}
	}
	return ix, available, nil
}

// ScanAll pages backward through the calendar, merging page snapshots,
// until a page yields zero available dates. That stopping rule is a
// heuristic: a run of fully unavailable months followed by older data
// would be read as end-of-range. The view is left scrolled to the
// earliest page reached.
func (s *Scanner) ScanAll() ([]time.Time, error) {
	total := make(Index)
	for {
		ix, available, err := s.ScanPage()
		if err != nil {
			return nil, err
		}
		total.Merge(ix)
		// Pagination happens before the zero check, so the view ends up
		// one step past the last page that held data.
		if err := s.view.PrevMonth(s.PageStep); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrScan, err)
		}
		if available == 0 {
			break
		}
	}
	return total.Dates(), nil
}

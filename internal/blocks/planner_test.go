package blocks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func span(from, to time.Time) []time.Time {
	var out []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

func TestPlanTenDaysBlockSizeThree(t *testing.T) {
	dates := span(day(2020, 3, 1), day(2020, 3, 10))

	planned, err := Plan(dates, 3)
	require.NoError(t, err)

	require.Len(t, planned, 2)
	assert.Equal(t, Block{Newer: day(2020, 3, 10), Older: day(2020, 3, 7)}, planned[0])
	assert.Equal(t, Block{Newer: day(2020, 3, 7), Older: day(2020, 3, 4)}, planned[1])

	// The flush carries the remainder down to the minimum, so the
	// submitted pairs are (10,7), (7,4), (4,1).
	flush := Flush(planned, dates)
	assert.Equal(t, Block{Newer: day(2020, 3, 4), Older: day(2020, 3, 1)}, flush)
}

func TestPlanSparseDatesKeepsComputedEndpoints(t *testing.T) {
	// Only two real dates with a gap: the planner walks computed
	// cursors and must not fabricate intermediate available dates.
	dates := []time.Time{day(2020, 3, 1), day(2020, 3, 15)}

	planned, err := Plan(dates, 5)
	require.NoError(t, err)

	require.Len(t, planned, 2)
	assert.Equal(t, Block{Newer: day(2020, 3, 15), Older: day(2020, 3, 10)}, planned[0])
	assert.Equal(t, Block{Newer: day(2020, 3, 10), Older: day(2020, 3, 5)}, planned[1])
	assert.Equal(t, Block{Newer: day(2020, 3, 5), Older: day(2020, 3, 1)}, Flush(planned, dates))
}

func TestPlanBlockSizeExceedsRange(t *testing.T) {
	dates := span(day(2020, 3, 1), day(2020, 3, 10))

	planned, err := Plan(dates, 30)
	require.NoError(t, err)

	// Nothing to plan: the flush alone covers the whole range.
	assert.Empty(t, planned)
	assert.Equal(t, Block{Newer: day(2020, 3, 10), Older: day(2020, 3, 1)}, Flush(planned, dates))
}

func TestPlanSingleDate(t *testing.T) {
	dates := []time.Time{day(2020, 3, 1)}

	planned, err := Plan(dates, 7)
	require.NoError(t, err)
	assert.Empty(t, planned)
	assert.Equal(t, Block{Newer: day(2020, 3, 1), Older: day(2020, 3, 1)}, Flush(planned, dates))
}

func TestPlanRejectsBadInput(t *testing.T) {
	_, err := Plan(nil, 3)
	assert.ErrorIs(t, err, ErrEmptyRange)

	_, err = Plan(span(day(2020, 3, 1), day(2020, 3, 10)), 0)
	assert.Error(t, err)
}

func TestPlanCoverageAndOrdering(t *testing.T) {
	// For any range and block size, planned blocks plus the flush must
	// tile [min, max] exactly, descending, with shared endpoints only.
	ranges := []struct {
		from, to time.Time
	}{
		{day(2020, 1, 1), day(2020, 1, 2)},
		{day(2020, 2, 20), day(2020, 4, 7)},
		{day(2019, 12, 28), day(2020, 1, 31)},
	}
	for _, r := range ranges {
		dates := span(r.from, r.to)
		for size := 1; size <= 45; size++ {
			planned, err := Plan(dates, size)
			require.NoError(t, err)

			all := append(append([]Block{}, planned...), Flush(planned, dates))
			assert.Equal(t, r.to, all[0].Newer)
			assert.Equal(t, r.from, all[len(all)-1].Older)
			for i, b := range all {
				assert.False(t, b.Newer.Before(b.Older), "block %d inverted (size=%d)", i, size)
				if i > 0 {
					// Strictly descending, adjacent blocks share one endpoint.
					assert.True(t, b.Newer.Before(all[i-1].Newer), "not descending (size=%d)", size)
					assert.Equal(t, all[i-1].Older, b.Newer, "gap or overlap (size=%d)", size)
				}
				if i < len(all)-1 {
					assert.Equal(t, size, b.Days(), "planned block has wrong size")
				}
			}
		}
	}
}

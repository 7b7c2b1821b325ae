package blocks

import (
	"errors"
	"fmt"
	"time"
)

// Block is one bounded download request, a closed date interval with
// Older < Newer. Blocks are generated in descending order and consumed
// immediately; they are never persisted.
type Block struct {
	Newer time.Time
	Older time.Time
}

// Days is the number of calendar days a block spans.
func (b Block) Days() int {
	return int(b.Newer.Sub(b.Older).Hours() / 24)
}

var ErrEmptyRange = errors.New("no available dates to plan")

// Plan partitions the available range into fixed-size blocks, walking
// backward from the newest date. The remainder below the last emitted
// cursor is not planned here: the orchestrator flushes it as a final
// block of whatever size is left. A block size that exceeds the whole
// range therefore plans zero blocks and the flush covers everything.
func Plan(dates []time.Time, blockSizeDays int) ([]Block, error) {
	if len(dates) == 0 {
		return nil, ErrEmptyRange
	}
	if blockSizeDays < 1 {
		return nil, fmt.Errorf("block size must be at least 1 day, got %d", blockSizeDays)
	}

	min := dates[0]
	cursor := dates[len(dates)-1]

	var out []Block
	for {
		next := cursor.AddDate(0, 0, -blockSizeDays)
		if !next.After(min) {
			break
		}
		out = append(out, Block{Newer: cursor, Older: next})
		cursor = next
	}
	return out, nil
}

// Flush returns the final remainder block for a plan: from the cursor
// the planner stopped at down to the minimum available date.
func Flush(planned []Block, dates []time.Time) Block {
	min := dates[0]
	cursor := dates[len(dates)-1]
	if n := len(planned); n > 0 {
		cursor = planned[n-1].Older
	}
	return Block{Newer: cursor, Older: min}
}

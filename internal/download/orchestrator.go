package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/dfg-downloader/internal/blocks"
	"github.com/example/dfg-downloader/internal/calendar"
)

// Portal is the slice of the platform driver the orchestrator needs.
type Portal interface {
	OpenDownloadDialog() error
	OpenCalendar() error
	VisibleDates() ([]calendar.DateAvailability, error)
	PrevMonth(n int) error
	Refresh() error
	SubmitDownload() error
}

// ErrEndpointNotFound means a block endpoint could not be resolved on
// the visible calendar page even after one page-back retry. It is fatal
// for the run: retrying further would risk paging backward forever.
var ErrEndpointNotFound = errors.New("endpoint date not selectable on visible page")

// Options tunes a run.
type Options struct {
	BlockSizeDays int

	// Strict requires the newer endpoint to resolve as well. By default
	// a missing newer endpoint is tolerated and the selection proceeds
	// with whatever succeeded, mirroring the portal's observed behavior.
	Strict bool

	Poller Poller
	Logger *slog.Logger

	// OnBlock, when set, is notified after each block attempt with the
	// time it took, including the final flush block.
	OnBlock func(b blocks.Block, elapsed time.Duration, err error)
}

// Session is the per-run state. It is created once the scan has
// finished and mutated by the orchestrator once per block.
type Session struct {
	// Visible is the index of the calendar page as of the last re-scan.
	// Its cell handles die on the next pagination; it is refreshed
	// before every selection and never trusted across one.
	Visible calendar.Index

	// Cursor is the newest date not yet covered by a submitted block.
	Cursor time.Time

	Monitor Monitor
}

// Orchestrator drives the planned blocks through the download dialog
// one at a time. There is no internal parallelism: at most one block is
// in flight by construction.
type Orchestrator struct {
	portal Portal
	opts   Options
	logger *slog.Logger
}

func NewOrchestrator(p Portal, opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{portal: p, opts: opts, logger: logger}
}

// Run submits one download request per planned block, waiting for each
// transfer to settle before the next, then flushes the remainder down
// to the minimum available date. With no available dates it performs
// zero iterations and returns nil.
func (o *Orchestrator) Run(ctx context.Context, dates []time.Time, monitor Monitor) error {
	if len(dates) == 0 {
		o.logger.Info("no available dates, nothing to download")
		return nil
	}

	planned, err := blocks.Plan(dates, o.opts.BlockSizeDays)
	if err != nil {
		return err
	}

	sess := &Session{Cursor: dates[len(dates)-1], Monitor: monitor}

	if err := o.portal.OpenDownloadDialog(); err != nil {
		return err
	}
	if err := o.portal.OpenCalendar(); err != nil {
		return err
	}

	start := time.Now()
	for _, b := range planned {
		o.logger.Info("downloading block",
			"from", b.Older.Format("2006-01-02"),
			"to", b.Newer.Format("2006-01-02"),
			"elapsed", time.Since(start).Round(time.Second))

		if err := o.submitBlock(ctx, sess, b); err != nil {
			return err
		}

		// Submitting closed the dialog and the calendar panel.
		if err := o.portal.OpenDownloadDialog(); err != nil {
			return err
		}
		if err := o.portal.OpenCalendar(); err != nil {
			return err
		}
	}

	// The remainder is whatever is left between the cursor and the
	// minimum available date; its size is not forced to the block size.
	tail := blocks.Flush(planned, dates)
	o.logger.Info("downloading final block",
		"from", tail.Older.Format("2006-01-02"),
		"to", tail.Newer.Format("2006-01-02"),
		"elapsed", time.Since(start).Round(time.Second))
	if err := o.portal.PrevMonth(1); err != nil {
		return err
	}
	if err := o.submitBlock(ctx, sess, tail); err != nil {
		return err
	}

	o.logger.Info("all blocks submitted", "blocks", len(planned)+1,
		"elapsed", time.Since(start).Round(time.Second))
	return nil
}

// submitBlock selects the block endpoints, applies the range, triggers
// the download and blocks until the transfer settles.
func (o *Orchestrator) submitBlock(ctx context.Context, sess *Session, b blocks.Block) error {
	start := time.Now()
	err := o.driveBlock(ctx, sess, b)
	if o.opts.OnBlock != nil {
		o.opts.OnBlock(b, time.Since(start), err)
	}
	return err
}

func (o *Orchestrator) driveBlock(ctx context.Context, sess *Session, b blocks.Block) error {
	if err := o.selectEndpoints(sess, b.Newer, b.Older); err != nil {
		return err
	}
	if err := o.portal.Refresh(); err != nil {
		return err
	}
	if err := o.portal.SubmitDownload(); err != nil {
		return err
	}
	sess.Cursor = b.Older

	return o.opts.Poller.Await(ctx, sess.Monitor)
}

// selectEndpoints clicks the two endpoint dates on the currently
// visible page. The page is always re-scanned first: the index built
// during the full scan is stale by now and its handles are dead.
//
// A newer endpoint missing from the view is tolerated unless Strict is
// set. A missing older endpoint gets exactly one page-back retry; on
// the retry only the older endpoint is clicked, matching the portal's
// range-selection behavior once one end is already picked.
func (o *Orchestrator) selectEndpoints(sess *Session, newer, older time.Time) error {
	ix, err := o.scanVisible(sess)
	if err != nil {
		return err
	}

	if cell, ok := selectable(ix, newer); ok {
		if err := cell.Click(); err != nil {
			return fmt.Errorf("select newer endpoint %s: %w", newer.Format("2006-01-02"), err)
		}
	} else if o.opts.Strict {
		return fmt.Errorf("%w: %s (newer)", ErrEndpointNotFound, newer.Format("2006-01-02"))
	} else {
		o.logger.Warn("newer endpoint not on visible page, proceeding without it",
			"date", newer.Format("2006-01-02"))
	}

	if cell, ok := selectable(ix, older); ok {
		if err := cell.Click(); err != nil {
			return fmt.Errorf("select older endpoint %s: %w", older.Format("2006-01-02"), err)
		}
		return nil
	}

	// The older endpoint may sit on the previous pane. One page back,
	// one re-scan, no further retries.
	if err := o.portal.PrevMonth(1); err != nil {
		return err
	}
	ix, err = o.scanVisible(sess)
	if err != nil {
		return err
	}
	cell, ok := selectable(ix, older)
	if !ok {
		return fmt.Errorf("%w: %s (older)", ErrEndpointNotFound, older.Format("2006-01-02"))
	}
	if err := cell.Click(); err != nil {
		return fmt.Errorf("select older endpoint %s: %w", older.Format("2006-01-02"), err)
	}
	return nil
}

func (o *Orchestrator) scanVisible(sess *Session) (calendar.Index, error) {
	ix, _, err := calendar.NewScanner(o.portal).ScanPage()
	if err != nil {
		return nil, err
	}
	sess.Visible = ix
	return ix, nil
}

// selectable reports the cell for a date when it is both rendered on
// the visible page and marked available.
func selectable(ix calendar.Index, date time.Time) (cell interface{ Click() error }, ok bool) {
	a, found := ix[date]
	if !found || !a.Available || a.Cell == nil {
		return nil, false
	}
	return a.Cell, true
}

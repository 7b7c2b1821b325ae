package download

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Transfer is one entry of the transfer monitor surface. A transfer is
// still in progress while it reports no terminal state.
type Transfer struct {
	ID    string
	State string
}

func (t Transfer) Terminal() bool {
	return t.State != ""
}

// Monitor is the secondary surface the poller watches, typically the
// browser's own download list.
type Monitor interface {
	Transfers() ([]Transfer, error)
}

// ErrPollTimeout is returned only when a MaxWait cap was set; the
// default poller never times out.
var ErrPollTimeout = errors.New("completion poll exceeded maximum wait")

// Poller blocks until the monitor lists at least one transfer and every
// listed transfer reaches a terminal state. The default contract is an
// unbounded wait at a fixed 1s interval: a transfer that never settles
// blocks forever. MaxWait exists so tests (and cautious operators) can
// cap the wait; zero means no cap.
type Poller struct {
	Interval time.Duration
	MaxWait  time.Duration
}

func (p Poller) Await(ctx context.Context, m Monitor) error {
	interval := p.Interval
	if interval == 0 {
		interval = time.Second
	}

	var deadline time.Time
	if p.MaxWait > 0 {
		deadline = time.Now().Add(p.MaxWait)
	}

	for {
		transfers, err := m.Transfers()
		if err != nil {
			return fmt.Errorf("read transfer monitor: %w", err)
		}
		// An empty snapshot means the just-submitted transfer has not
		// registered in the monitor yet: still waiting, not done.
		settled := len(transfers) > 0
		for _, t := range transfers {
			if !t.Terminal() {
				settled = false
				break
			}
		}
		if settled {
			return nil
		}

		if !deadline.IsZero() && time.Now().After(deadline) {
			return ErrPollTimeout
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

package download

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedMonitor struct {
	polls       int
	settleAfter int // number of in-progress polls before settling; -1 never settles
}

func (m *scriptedMonitor) Transfers() ([]Transfer, error) {
	m.polls++
	if m.settleAfter >= 0 && m.polls > m.settleAfter {
		return []Transfer{{ID: "t1", State: "succeeded"}}, nil
	}
	return []Transfer{{ID: "t1", State: ""}}, nil
}

func TestAwaitReturnsWhenAllTransfersSettle(t *testing.T) {
	m := &scriptedMonitor{settleAfter: 3}
	p := Poller{Interval: time.Millisecond}

	err := p.Await(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, 4, m.polls)
}

// registeringMonitor shows nothing for the first registerAfter polls,
// then an in-progress transfer for settleAfter polls, then a terminal
// one. This is what about:downloads looks like right after submitting.
type registeringMonitor struct {
	polls         int
	registerAfter int
	settleAfter   int
}

func (m *registeringMonitor) Transfers() ([]Transfer, error) {
	m.polls++
	if m.polls <= m.registerAfter {
		return nil, nil
	}
	if m.polls <= m.registerAfter+m.settleAfter {
		return []Transfer{{ID: "t1", State: ""}}, nil
	}
	return []Transfer{{ID: "t1", State: "succeeded"}}, nil
}

func TestAwaitWaitsForTransferToRegister(t *testing.T) {
	// An empty snapshot must not count as completion: the wait holds
	// until the transfer shows up and then settles.
	m := &registeringMonitor{registerAfter: 2, settleAfter: 3}
	p := Poller{Interval: time.Millisecond}

	require.NoError(t, p.Await(context.Background(), m))
	assert.Equal(t, 6, m.polls)
}

type emptyMonitor struct{ polls int }

func (m *emptyMonitor) Transfers() ([]Transfer, error) {
	m.polls++
	return nil, nil
}

func TestAwaitEmptyMonitorKeepsWaiting(t *testing.T) {
	m := &emptyMonitor{}
	p := Poller{Interval: time.Millisecond, MaxWait: 20 * time.Millisecond}

	err := p.Await(context.Background(), m)
	assert.ErrorIs(t, err, ErrPollTimeout)
	assert.Greater(t, m.polls, 1)
}

func TestAwaitHonorsInjectedMaxWait(t *testing.T) {
	// The production default is an unbounded wait; a transfer that
	// never settles can only be asserted through an injected cap.
	m := &scriptedMonitor{settleAfter: -1}
	p := Poller{Interval: time.Millisecond, MaxWait: 20 * time.Millisecond}

	err := p.Await(context.Background(), m)
	assert.ErrorIs(t, err, ErrPollTimeout)
	assert.Greater(t, m.polls, 1)
}

func TestAwaitStopsOnContextCancel(t *testing.T) {
	m := &scriptedMonitor{settleAfter: -1}
	p := Poller{Interval: time.Millisecond}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := p.Await(ctx, m)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTransferTerminal(t *testing.T) {
	assert.False(t, Transfer{}.Terminal())
	assert.True(t, Transfer{State: "succeeded"}.Terminal())
	assert.True(t, Transfer{State: "failed"}.Terminal())
}

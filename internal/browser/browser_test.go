package browser

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollEnabledReturnsOnceEnabled(t *testing.T) {
	calls := 0
	probe := func() (bool, error) {
		calls++
		return calls >= 3, nil
	}

	require.NoError(t, pollEnabled(probe, time.Now().Add(time.Second), time.Millisecond))
	assert.Equal(t, 3, calls)
}

func TestPollEnabledTimesOut(t *testing.T) {
	probe := func() (bool, error) { return false, nil }

	err := pollEnabled(probe, time.Now().Add(10*time.Millisecond), time.Millisecond)
	assert.ErrorContains(t, err, "did not become enabled")
}

func TestPollEnabledPropagatesProbeError(t *testing.T) {
	probeErr := errors.New("element detached")
	probe := func() (bool, error) { return false, probeErr }

	err := pollEnabled(probe, time.Now().Add(time.Second), time.Millisecond)
	assert.ErrorIs(t, err, probeErr)
}

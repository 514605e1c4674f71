package engine

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerRemainingDerivedFromDeadline(t *testing.T) {
	clock := newFakeClock(t0)
	tc := NewTimerController(clock, t0.Add(10*time.Minute), func() {})
	tc.Start()
	defer tc.Stop()

	assert.Equal(t, 10*time.Minute, tc.Remaining())

	// A clock jump is reflected immediately; remaining is recomputed from
	// the deadline rather than decremented tick by tick.
	clock.Advance(7 * time.Minute)
	assert.Eventually(t, func() bool {
		return tc.Remaining() == 3*time.Minute
	}, time.Second, 5*time.Millisecond)
}

func TestTimerExpiresExactlyOnce(t *testing.T) {
	clock := newFakeClock(t0)
	var fired atomic.Int32
	done := make(chan struct{})

	tc := NewTimerController(clock, t0.Add(time.Minute), func() {
		fired.Add(1)
		close(done)
	})
	tc.Start()

	clock.Advance(30 * time.Second)
	assert.Equal(t, TimerRunning, tc.State())

	// Pile several past-deadline ticks into the channel before the loop
	// drains them; the callback must still fire once.
	clock.Advance(time.Minute)
	clock.Advance(time.Second)
	clock.Advance(time.Second)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expiry callback never fired")
	}

	require.Eventually(t, func() bool {
		return tc.State() == TimerExpired
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
	assert.Equal(t, time.Duration(0), tc.Remaining())

	// Stopping after expiry changes nothing.
	tc.Stop()
	assert.Equal(t, TimerExpired, tc.State())
}

func TestTimerStartPastDeadlineExpiresImmediately(t *testing.T) {
	clock := newFakeClock(t0)
	done := make(chan struct{})

	tc := NewTimerController(clock, t0.Add(-time.Second), func() { close(done) })
	tc.Start()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expiry callback never fired")
	}
	assert.Equal(t, TimerExpired, tc.State())
}

func TestTimerStopPreventsExpiry(t *testing.T) {
	clock := newFakeClock(t0)
	var fired atomic.Int32

	tc := NewTimerController(clock, t0.Add(time.Minute), func() { fired.Add(1) })
	tc.Start()
	tc.Stop()

	assert.Equal(t, TimerStopped, tc.State())

	// Ticks past the deadline after a stop are ignored. The tick channel is
	// buffered, so the sends never block even with the loop gone.
	clock.Advance(2 * time.Minute)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
	assert.Equal(t, TimerStopped, tc.State())

	// Stop is idempotent.
	tc.Stop()
}

package engine

import (
	"sync"
	"time"
)

// TimerState enumerates the countdown lifecycle.
type TimerState string

const (
	TimerIdle    TimerState = "IDLE"
	TimerRunning TimerState = "RUNNING"
	TimerExpired TimerState = "EXPIRED"
	TimerStopped TimerState = "STOPPED"
)

// TimerController drives the countdown of one attempt. Remaining time is
// always derived as deadline minus the clock's now, never accumulated by
// per-second decrements, so multi-hour sessions cannot drift. Granularity is
// one second.
type TimerController struct {
	mu       sync.Mutex
	clock    Clock
	deadline time.Time
	state    TimerState
	cancel   chan struct{}

	// onExpire fires exactly once even when tick callbacks overlap.
	onExpire   func()
	expireOnce sync.Once
}

// NewTimerController creates an idle timer for the given absolute deadline.
// onExpire is invoked from the tick goroutine when the deadline passes.
func NewTimerController(clock Clock, deadline time.Time, onExpire func()) *TimerController {
	return &TimerController{
		clock:    clock,
		deadline: deadline,
		state:    TimerIdle,
		cancel:   make(chan struct{}),
		onExpire: onExpire,
	}
}

// Start transitions idle → running and begins ticking. Starting a timer whose
// deadline already passed (a resume after a long absence) expires it on the
// first check.
func (t *TimerController) Start() {
	t.mu.Lock()
	if t.state != TimerIdle {
		t.mu.Unlock()
		return
	}
	t.state = TimerRunning
	t.mu.Unlock()

	go t.run()
}

func (t *TimerController) run() {
	if t.checkExpiry() {
		return
	}

	ticks, stop := t.clock.Tick(time.Second)
	defer stop()

	for {
		select {
		case <-t.cancel:
			return
		case <-ticks:
			if t.checkExpiry() {
				return
			}
		}
	}
}

// checkExpiry transitions to expired and fires the callback when the deadline
// has passed. Returns true when the timer is no longer running.
func (t *TimerController) checkExpiry() bool {
	t.mu.Lock()
	if t.state != TimerRunning {
		t.mu.Unlock()
		return true
	}
	if t.clock.Now().Before(t.deadline) {
		t.mu.Unlock()
		return false
	}
	t.state = TimerExpired
	t.mu.Unlock()

	t.expireOnce.Do(t.onExpire)
	return true
}

// Stop cancels the running tick when a manual submission wins the race.
// Stopping an expired or already stopped timer is a no-op.
func (t *TimerController) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != TimerRunning && t.state != TimerIdle {
		return
	}
	t.state = TimerStopped
	close(t.cancel)
}

// State returns the current timer state.
func (t *TimerController) State() TimerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Remaining is a read-only derived value for display. It never goes below
// zero and cannot be set externally.
func (t *TimerController) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	r := t.deadline.Sub(t.clock.Now())
	if r < 0 {
		return 0
	}
	return r
}

package engine

import "time"

// Clock abstracts wall time and ticking so timer behavior is deterministic
// under test. Production code uses SystemClock; tests inject a fake that
// advances manually.
type Clock interface {
	Now() time.Time
	// Tick returns a channel delivering ticks at roughly the given interval
	// and a function that releases the underlying ticker.
	Tick(interval time.Duration) (<-chan time.Time, func())
}

// SystemClock is the real-time Clock implementation.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) Tick(interval time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(interval)
	return t.C, t.Stop
}

// Package chrono provides a stopwatch that can be switched off.
//
// A disabled Chronometer accepts every call and reports zero values, so callers
// never have to check whether timing is wanted before starting or stopping it.
package chrono

import (
	"sync"
	"time"
)

// Clock returns the current time. It is swapped out in tests.
type Clock func() time.Time

// Chronometer measures the wall-clock time of a single unit of work.
type Chronometer struct {
	enabled bool
	now     Clock

	mu      sync.Mutex
	start   time.Time
	end     time.Time
	running bool
}

// New creates a Chronometer backed by time.Now.
func New(enabled bool) *Chronometer {
	return NewWithClock(enabled, time.Now)
}

// NewWithClock creates a Chronometer backed by the given clock.
func NewWithClock(enabled bool, now Clock) *Chronometer {
	if now == nil {
		now = time.Now
	}
	return &Chronometer{enabled: enabled, now: now}
}

// Enabled reports whether the chronometer records anything.
func (c *Chronometer) Enabled() bool {
	return c.enabled
}

// Start begins measuring. Calling Start on a running or disabled chronometer is a no-op.
func (c *Chronometer) Start() {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.start = c.now()
	c.end = time.Time{}
	c.running = true
}

// Stop ends the measurement. Calling Stop on a stopped or disabled chronometer is a no-op.
func (c *Chronometer) Stop() {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.end = c.now()
	c.running = false
}

// Running reports whether Start was called without a matching Stop.
func (c *Chronometer) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// StartTime returns when the measurement started, or the zero time.
func (c *Chronometer) StartTime() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.start
}

// EndTime returns when the measurement stopped, or the zero time while running.
func (c *Chronometer) EndTime() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.end
}

// Elapsed returns the measured duration. While running it is the time since Start.
func (c *Chronometer) Elapsed() time.Duration {
	if !c.enabled {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.start.IsZero() {
		return 0
	}
	if c.running {
		return c.now().Sub(c.start)
	}
	return c.end.Sub(c.start)
}

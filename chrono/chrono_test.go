package chrono

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepClock advances by step on every call
func stepClock(start time.Time, step time.Duration) Clock {
	current := start
	return func() time.Time {
		now := current
		current = current.Add(step)
		return now
	}
}

func TestChronometer_MeasuresElapsedTime(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewWithClock(true, stepClock(base, time.Second))

	c.Start()
	require.True(t, c.Running())
	c.Stop()
	require.False(t, c.Running())

	assert.Equal(t, base, c.StartTime())
	assert.Equal(t, base.Add(time.Second), c.EndTime())
	assert.Equal(t, time.Second, c.Elapsed())
}

func TestChronometer_ElapsedWhileRunning(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewWithClock(true, stepClock(base, 250*time.Millisecond))

	c.Start()
	assert.Equal(t, 250*time.Millisecond, c.Elapsed())
	assert.True(t, c.EndTime().IsZero())
}

func TestChronometer_RepeatedCallsAreNoops(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewWithClock(true, stepClock(base, time.Second))

	c.Start()
	c.Start() // must not reset the start time
	c.Stop()
	end := c.EndTime()
	c.Stop() // must not move the end time

	assert.Equal(t, base, c.StartTime())
	assert.Equal(t, end, c.EndTime())
}

func TestChronometer_Disabled(t *testing.T) {
	calls := 0
	c := NewWithClock(false, func() time.Time {
		calls++
		return time.Now()
	})

	c.Start()
	c.Stop()

	assert.False(t, c.Enabled())
	assert.False(t, c.Running())
	assert.True(t, c.StartTime().IsZero())
	assert.True(t, c.EndTime().IsZero())
	assert.Zero(t, c.Elapsed())
	assert.Zero(t, calls, "disabled chronometer must never read the clock")
}

func TestChronometer_NeverStarted(t *testing.T) {
	c := New(true)
	assert.Zero(t, c.Elapsed())
	c.Stop()
	assert.True(t, c.EndTime().IsZero())
}

package bulb

import "time"

// TimeSource returns a monotonic reading relative to an arbitrary origin.
type TimeSource func() time.Duration

// MonotonicSource returns a TimeSource anchored at the moment of the call.
// time.Since uses the monotonic clock reading, so wall clock jumps do not
// leak into the animation.
func MonotonicSource() TimeSource {
	start := time.Now()
	return func() time.Duration { return time.Since(start) }
}

// Clock tracks active elapsed time: wall time minus every paused span.
//
// The reported value freezes at the instant a pause begins and resumes
// from the frozen value when the pause ends. Paused time is accumulated
// per sample from the delta since the previous sample, so toggling
// rapidly never drifts.
//
// Clock is not safe for concurrent use; the Controller serializes access.
type Clock struct {
	src TimeSource

	paused      bool
	pausedTotal time.Duration
	last        time.Duration
	elapsed     time.Duration
}

// NewClock creates a running clock reading from src. A nil src uses
// MonotonicSource. The first sample is taken at construction so elapsed
// time starts at zero.
func NewClock(src TimeSource) *Clock {
	if src == nil {
		src = MonotonicSource()
	}
	c := &Clock{src: src}
	now := src()
	c.last = now
	c.pausedTotal = now
	return c
}

// Sample reads the time source and returns active elapsed time.
func (c *Clock) Sample() time.Duration {
	return c.SampleAt(c.src())
}

// SampleAt returns active elapsed time at now.
//
// While paused, the delta since the previous sample is added to the paused
// total and the reported value does not change. A now that runs backwards
// is accepted; the value may then transiently decrease.
func (c *Clock) SampleAt(now time.Duration) time.Duration {
	if c.paused {
		c.pausedTotal += now - c.last
	} else {
		c.elapsed = now - c.pausedTotal
	}
	c.last = now
	return c.elapsed
}

// Elapsed returns the most recently reported active time without sampling.
func (c *Clock) Elapsed() time.Duration {
	return c.elapsed
}

// Paused reports whether the clock is paused.
func (c *Clock) Paused() bool {
	return c.paused
}

// SetPaused pauses or resumes the clock at the current time source reading.
func (c *Clock) SetPaused(paused bool) {
	c.SetPausedAt(paused, c.src())
}

// SetPausedAt pauses or resumes the clock at now. The clock is settled
// with a sample at now before the flag changes, so a pause freezes the
// value at exactly now and a resume stops accumulating at exactly now.
// Setting the current state again is a no-op.
func (c *Clock) SetPausedAt(paused bool, now time.Duration) {
	if c.paused == paused {
		return
	}
	c.SampleAt(now)
	c.paused = paused
}

// Toggle flips the paused state and returns the new state.
func (c *Clock) Toggle() bool {
	c.SetPaused(!c.paused)
	return c.paused
}

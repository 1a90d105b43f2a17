package particles

import (
	"time"
)

// FrameClock measures the time between frames. A non-zero Fixed step
// replaces wall clock deltas.
type FrameClock struct {
	Time  time.Time
	Dt    time.Duration
	Fixed time.Duration
	Frame uint64
}

func NewFrameClock(fixed time.Duration) *FrameClock {
	return &FrameClock{
		Time:  time.Now(),
		Dt:    0,
		Fixed: fixed,
	}
}

// Tick advances the clock by one frame and returns the delta in seconds.
func (c *FrameClock) Tick() float32 {
	now := time.Now()

	if c.Fixed > 0 {
		c.Dt = c.Fixed
	} else {
		c.Dt = now.Sub(c.Time)
	}
	c.Time = now
	c.Frame++

	return float32(c.Dt.Seconds())
}

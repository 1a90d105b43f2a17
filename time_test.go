package particles

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFrameClock_Fixed(t *testing.T) {
	clock := NewFrameClock(250 * time.Millisecond)
	assert.Equal(t, float32(0.25), clock.Tick())
	assert.Equal(t, float32(0.25), clock.Tick())
	assert.Equal(t, uint64(2), clock.Frame)
}

func TestFrameClock_WallClock(t *testing.T) {
	clock := NewFrameClock(0)
	time.Sleep(5 * time.Millisecond)
	dt := clock.Tick()
	assert.GreaterOrEqual(t, dt, float32(0.005))
	assert.Equal(t, uint64(1), clock.Frame)
}

package core

import (
	"math/rand"
	"time"
)

// Rand is the subset of *rand.Rand particles draw from.
// Tests substitute scripted sequences.
type Rand interface {
	// Float32 returns a pseudo-random number in [0,1).
	Float32() float32
}

// NewRand returns a seeded source. A zero seed uses the current time.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// RandomInRange draws uniformly from [min,max).
func RandomInRange(r Rand, min, max float32) float32 {
	return min + (max-min)*r.Float32()
}

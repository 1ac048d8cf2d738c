package sim

import (
	"fmt"
	"math/rand"
)

// maxBackoffExponent caps k+1 so the backoff window stays representable.
const maxBackoffExponent = 30

// GateProbability returns min(channels/population, 1), the per-slot chance
// that a ready transmitter actually attempts.
func GateProbability(channels, population int) float64 {
	if channels <= 0 || population <= 0 {
		panic(fmt.Sprintf("GateProbability: channels=%d population=%d must be positive", channels, population))
	}
	if channels >= population {
		return 1
	}
	return float64(channels) / float64(population)
}

// BernoulliGate draws one Bernoulli(p) trial. p >= 1 always passes and
// p <= 0 never does; neither consumes randomness.
func BernoulliGate(rng *rand.Rand, p float64) bool {
	if p >= 1 {
		return true
	}
	if p <= 0 {
		return false
	}
	return rng.Float64() < p
}

// BackoffWindow returns the inclusive upper bound 2^(k+1)-1 of the backoff
// draw after k previous collisions.
func BackoffWindow(collisions int) int {
	if collisions < 0 {
		panic(fmt.Sprintf("BackoffWindow: negative collision count %d", collisions))
	}
	exp := collisions + 1
	if exp > maxBackoffExponent {
		exp = maxBackoffExponent
	}
	return 1<<exp - 1
}

// BackoffSlots draws the number of slots to wait, uniform on [1, 2^(k+1)-1].
// k=0 always yields 1.
func BackoffSlots(rng *rand.Rand, collisions int) int {
	window := BackoffWindow(collisions)
	if window == 1 {
		return 1
	}
	return 1 + rng.Intn(window)
}

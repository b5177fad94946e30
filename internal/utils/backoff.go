package utils

import (
	"math/rand/v2"
	"time"
)

// JitteredBackoff computes the delay before retry attempt n (0-based):
// base * factor^n scaled by a random multiplier in [0.5, 1.0), capped at
// maxDelay. The jitter keeps concurrent submissions from hammering the same
// regional endpoint in lockstep.
func JitteredBackoff(n uint, base time.Duration, factor float64, maxDelay time.Duration) time.Duration {
	delay := float64(base)
	for i := uint(0); i < n; i++ {
		delay *= factor
		if delay >= float64(maxDelay) {
			break
		}
	}
	if delay > float64(maxDelay) {
		delay = float64(maxDelay)
	}
	delay *= 0.5 + 0.5*rand.Float64()
	return time.Duration(delay)
}

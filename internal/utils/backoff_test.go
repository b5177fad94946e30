package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJitteredBackoff(t *testing.T) {
	base := 1 * time.Second
	maxDelay := 60 * time.Second

	t.Run("first_retry_within_jitter_window", func(t *testing.T) {
		for i := 0; i < 50; i++ {
			delay := JitteredBackoff(0, base, 1.5, maxDelay)
			assert.GreaterOrEqual(t, delay, base/2)
			assert.Less(t, delay, base)
		}
	})

	t.Run("grows_with_attempt_number", func(t *testing.T) {
		// Jitter spans [0.5, 1.0), so attempt 4 (1.5^4 ≈ 5.06x) can never
		// undercut half of attempt 0's upper bound.
		delay := JitteredBackoff(4, base, 1.5, maxDelay)
		assert.GreaterOrEqual(t, delay, 2*time.Second)
	})

	t.Run("capped_at_max_delay", func(t *testing.T) {
		for i := 0; i < 50; i++ {
			delay := JitteredBackoff(40, base, 1.5, maxDelay)
			assert.LessOrEqual(t, delay, maxDelay)
		}
	})
}

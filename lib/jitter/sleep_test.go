package jitter

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCeilingMs(t *testing.T) {
	assert.Equal(t, 500, ceilingMs(500, 3500, 0))
	assert.Equal(t, 1000, ceilingMs(500, 3500, 1))
	assert.Equal(t, 2000, ceilingMs(500, 3500, 2))
	// Capped
	assert.Equal(t, 3500, ceilingMs(500, 3500, 3))
	assert.Equal(t, 3500, ceilingMs(500, 3500, math.MaxInt))
	// Without a base the cap applies from the start.
	assert.Equal(t, 3500, ceilingMs(0, 3500, 2))
}

func TestJitter(t *testing.T) {
	{
		// No sleep without a positive cap
		assert.Zero(t, Jitter(10, 0, 0))
		assert.Zero(t, Jitter(10, -1, 100))
	}
	{
		// First attempt is bounded by baseMs.
		for range 50 {
			assert.Less(t, Jitter(10, 1000, 0), 10*time.Millisecond)
		}
	}
	{
		// Many attempts stay under the cap.
		assert.Less(t, Jitter(10, 100, 200), 100*time.Millisecond)
		assert.Less(t, Jitter(10, 100, math.MaxInt), 100*time.Millisecond)
	}
}

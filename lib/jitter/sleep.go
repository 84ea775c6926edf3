package jitter

import (
	"math/rand/v2"
	"time"
)

// maxDoublings keeps baseMs << attempt from overflowing.
const maxDoublings = 30

// ceilingMs is the upper bound of the sleep before [attempt], which doubles from [baseMs] until it reaches [maxMs].
func ceilingMs(baseMs, maxMs, attempt int) int {
	if grown := baseMs << min(max(attempt, 0), maxDoublings); grown > 0 {
		return min(maxMs, grown)
	}
	return maxMs
}

// Jitter picks a full-jitter backoff, uniform in [0, ceiling). No sleep when [maxMs] is not positive.
// https://aws.amazon.com/blogs/architecture/exponential-backoff-and-jitter/
func Jitter(baseMs, maxMs, attempt int) time.Duration {
	if maxMs <= 0 {
		return 0
	}

	return time.Duration(rand.IntN(ceilingMs(baseMs, maxMs, attempt))) * time.Millisecond
}

package retry

import "time"

// Backoff ladder for job-level retries. Attempts past the end of the ladder
// fall back to exponential growth capped at maxDelay.
var ladder = []time.Duration{
	15 * time.Minute,
	30 * time.Minute,
	1 * time.Hour,
	2 * time.Hour,
	4 * time.Hour,
}

const (
	baseDelay = 15 * time.Minute
	maxDelay  = 4 * time.Hour
)

// Delay returns how long to wait before the given attempt (0-indexed).
func Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt < len(ladder) {
		return ladder[attempt]
	}

	d := baseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= maxDelay {
			return maxDelay
		}
	}
	return d
}

// NextAttempt returns the earliest time the next attempt may run. Never
// before now.
func NextAttempt(now time.Time, attempt int) time.Time {
	return now.Add(Delay(attempt))
}

// IsExhausted reports whether the job has used up its retry budget.
func IsExhausted(attempt, maxRetries int) bool {
	return attempt >= maxRetries
}

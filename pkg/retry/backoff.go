package retry

import (
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ReconnectBackoff returns a deterministic exponential backoff: it starts at
// initialInterval, doubles on every attempt, and never exceeds maxInterval.
// Randomization is disabled so the retry cadence is predictable.
func ReconnectBackoff(initialInterval, maxInterval time.Duration) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = initialInterval
	exp.MaxInterval = maxInterval
	exp.Multiplier = 2.0
	exp.RandomizationFactor = 0
	exp.MaxElapsedTime = 0
	exp.Reset()
	return exp
}

func CalculateBackoffDuration(attempt int, initialInterval time.Duration, multiplier float64, maxInterval time.Duration) time.Duration {
	duration := float64(initialInterval) * math.Pow(multiplier, float64(attempt))
	if duration > float64(maxInterval) {
		return maxInterval
	}
	return time.Duration(duration)
}

package retry

import (
	"errors"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var ErrInvalidSchedule = errors.New("invalid exponential schedule")

func ExponentialBackoff(initialInterval, maxInterval time.Duration, multiplier float64) *backoff.ExponentialBackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = initialInterval
	exp.MaxInterval = maxInterval
	exp.Multiplier = multiplier
	exp.MaxElapsedTime = 0
	return exp
}

// ExponentialSchedule expands an exponential policy into steps whole-second
// delays. Jitter is disabled so the table is deterministic and non-decreasing.
// A zero maxInterval leaves growth uncapped.
func ExponentialSchedule(initialInterval, maxInterval time.Duration, multiplier float64, steps int) ([]int, error) {
	if initialInterval <= 0 || multiplier < 1 || steps <= 0 {
		return nil, ErrInvalidSchedule
	}
	if maxInterval <= 0 {
		maxInterval = time.Duration(math.MaxInt64)
	}

	exp := ExponentialBackoff(initialInterval, maxInterval, multiplier)
	exp.RandomizationFactor = 0
	exp.Reset()

	delays := make([]int, 0, steps)
	prev := 0
	for i := 0; i < steps; i++ {
		next := exp.NextBackOff()
		if next == backoff.Stop {
			break
		}
		seconds := int(math.Ceil(next.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		if seconds < prev {
			seconds = prev
		}
		delays = append(delays, seconds)
		prev = seconds
	}

	return delays, nil
}

func CalculateBackoffDuration(attempt int, initialInterval time.Duration, multiplier float64, maxInterval time.Duration) time.Duration {
	duration := float64(initialInterval) * math.Pow(multiplier, float64(attempt))
	if duration > float64(maxInterval) {
		return maxInterval
	}
	return time.Duration(duration)
}

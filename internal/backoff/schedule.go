package backoff

import (
	"errors"
	"fmt"

	"sqsbackoff/internal/constants"
)

var (
	ErrEmptyDelays        = errors.New("backoff schedule requires at least one delay")
	ErrInvalidDelay       = errors.New("backoff delays must be positive")
	ErrDecreasingDelay    = errors.New("backoff delays must be non-decreasing")
	ErrInvalidMaxAttempts = errors.New("max attempts out of range")
	ErrInvalidMaxDelay    = errors.New("max allowed delay out of range")
)

// Schedule is the validated, read-only retry table shared by every batch.
// Index 0 of Delays is the visibility delay applied after the first failure.
type Schedule struct {
	delays          []int
	maxAttempts     int
	maxAllowedDelay int
}

// NewSchedule validates its inputs and copies delays so the schedule cannot be
// mutated by the caller afterwards. A zero maxAllowedDelay selects the SQS ceiling.
func NewSchedule(delays []int, maxAttempts, maxAllowedDelay int) (Schedule, error) {
	if len(delays) == 0 {
		return Schedule{}, ErrEmptyDelays
	}

	if maxAttempts <= 0 || maxAttempts > constants.MaxRedriveReceiveCount {
		return Schedule{}, fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidMaxAttempts, maxAttempts, constants.MaxRedriveReceiveCount)
	}

	if maxAllowedDelay == 0 {
		maxAllowedDelay = constants.MaxVisibilityTimeoutSeconds
	}
	if maxAllowedDelay < 0 || maxAllowedDelay > constants.MaxVisibilityTimeoutSeconds {
		return Schedule{}, fmt.Errorf("%w: %d not in (0, %d]", ErrInvalidMaxDelay, maxAllowedDelay, constants.MaxVisibilityTimeoutSeconds)
	}

	copied := make([]int, len(delays))
	for i, d := range delays {
		if d <= 0 {
			return Schedule{}, fmt.Errorf("%w: delays[%d]=%d", ErrInvalidDelay, i, d)
		}
		if i > 0 && d < delays[i-1] {
			return Schedule{}, fmt.Errorf("%w: delays[%d]=%d < delays[%d]=%d", ErrDecreasingDelay, i, d, i-1, delays[i-1])
		}
		copied[i] = d
	}

	return Schedule{
		delays:          copied,
		maxAttempts:     maxAttempts,
		maxAllowedDelay: maxAllowedDelay,
	}, nil
}

// MustSchedule is NewSchedule for static tables known to be valid.
func MustSchedule(delays []int, maxAttempts, maxAllowedDelay int) Schedule {
	s, err := NewSchedule(delays, maxAttempts, maxAllowedDelay)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Schedule) Delays() []int {
	out := make([]int, len(s.delays))
	copy(out, s.delays)
	return out
}

func (s Schedule) MaxAttempts() int {
	return s.maxAttempts
}

func (s Schedule) MaxAllowedDelay() int {
	return s.maxAllowedDelay
}

// IsZero reports whether s was built without NewSchedule.
func (s Schedule) IsZero() bool {
	return len(s.delays) == 0
}

package backoff

import (
	"fmt"

	"sqsbackoff/internal/config"
	"sqsbackoff/pkg/retry"
)

// FromConfig builds the process-wide schedule. When backoff.generate is set
// the delay table is derived from the exponential policy.
func FromConfig(cfg config.BackoffConfig) (Schedule, error) {
	delays := cfg.Delays
	if cfg.Generate != nil {
		generated, err := retry.ExponentialSchedule(
			cfg.Generate.InitialInterval,
			cfg.Generate.MaxInterval,
			cfg.Generate.Multiplier,
			cfg.Generate.Steps,
		)
		if err != nil {
			return Schedule{}, fmt.Errorf("failed to generate backoff delays: %w", err)
		}
		delays = generated
	}

	return NewSchedule(delays, cfg.MaxAttempts, cfg.MaxAllowedDelay)
}

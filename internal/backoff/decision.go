package backoff

import (
	"strconv"
	"strings"
)

// Decision is the result of consulting the schedule for one delivery.
type Decision struct {
	ShouldRetry  bool `json:"should_retry"`
	AttemptIndex int  `json:"attempt_index"`
	DelaySeconds int  `json:"delay_seconds"`
}

// Decide maps a delivery count to a retry decision. Counts below 1 are
// treated as the first delivery. The attempt index is deliveryCount-1, the
// number of earlier failed deliveries, and retries are permitted while it is
// below MaxAttempts. Decide has no side effects.
func (s Schedule) Decide(deliveryCount int) Decision {
	if deliveryCount < 1 {
		deliveryCount = 1
	}

	d := Decision{AttemptIndex: deliveryCount - 1}
	if s.IsZero() || d.AttemptIndex >= s.maxAttempts {
		return d
	}

	idx := min(d.AttemptIndex, len(s.delays)-1)
	d.ShouldRetry = true
	d.DelaySeconds = min(s.delays[idx], s.maxAllowedDelay)
	return d
}

// DecideRaw parses a transport-supplied count and decides. Malformed input
// fails open to the first delivery.
func (s Schedule) DecideRaw(rawDeliveryCount string) Decision {
	return s.Decide(ParseDeliveryCount(rawDeliveryCount))
}

// ParseDeliveryCount converts an ApproximateReceiveCount attribute value.
// Missing, non-numeric or non-positive values yield 1.
func ParseDeliveryCount(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Table returns the decisions for delivery counts 1..MaxAttempts+1, which
// covers every retry and the first exhausted delivery.
func (s Schedule) Table() []Decision {
	out := make([]Decision, 0, s.maxAttempts+1)
	for count := 1; count <= s.maxAttempts+1; count++ {
		out = append(out, s.Decide(count))
	}
	return out
}

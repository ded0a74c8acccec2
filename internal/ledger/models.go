package ledger

import (
	"time"

	"sqsbackoff/internal/batch"
)

// Entry is the last recorded outcome for a message id. It is written for
// operators only and is never consulted when deciding retries.
type Entry struct {
	MessageID     string    `json:"message_id"`
	Outcome       string    `json:"outcome"`
	Action        string    `json:"action"`
	DeliveryCount int       `json:"delivery_count"`
	AttemptIndex  int       `json:"attempt_index"`
	ShouldRetry   bool      `json:"should_retry"`
	DelaySeconds  int       `json:"delay_seconds"`
	Skipped       bool      `json:"skipped,omitempty"`
	Error         string    `json:"error,omitempty"`
	RecordedAt    time.Time `json:"recorded_at"`
}

func NewEntry(obs batch.Observation, now time.Time) Entry {
	e := Entry{
		MessageID:     obs.Envelope.ID,
		Outcome:       obs.Result.Kind.String(),
		Action:        obs.Action.String(),
		DeliveryCount: obs.Envelope.DeliveryCount,
		Skipped:       obs.Skipped,
		Error:         obs.Result.ErrMessage(),
		RecordedAt:    now.UTC(),
	}
	if obs.Skipped {
		e.Outcome = "skipped"
	}
	if obs.Backoff {
		e.AttemptIndex = obs.Decision.AttemptIndex
		e.ShouldRetry = obs.Decision.ShouldRetry
		e.DelaySeconds = obs.Decision.DelaySeconds
	}
	return e
}

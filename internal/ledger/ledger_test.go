package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqsbackoff/internal/backoff"
	"sqsbackoff/internal/batch"
	"sqsbackoff/internal/config"
	"sqsbackoff/internal/logger"
	"sqsbackoff/internal/message"
	"sqsbackoff/internal/outcome"
	"sqsbackoff/pkg/circuitbreaker"
	apperrors "sqsbackoff/pkg/errors"
)

type memoryRepository struct {
	entries map[string]Entry
	err     error
	saves   int
	gets    int
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{entries: make(map[string]Entry)}
}

func (m *memoryRepository) Save(ctx context.Context, entry Entry) error {
	m.saves++
	if m.err != nil {
		return m.err
	}
	m.entries[entry.MessageID] = entry
	return nil
}

func (m *memoryRepository) Get(ctx context.Context, messageID string) (Entry, error) {
	m.gets++
	if m.err != nil {
		return Entry{}, m.err
	}
	e, ok := m.entries[messageID]
	if !ok {
		return Entry{}, apperrors.ErrNotFound
	}
	return e, nil
}

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestNewEntry(t *testing.T) {
	env := message.New("m1", "{}", "rh", map[string]string{"ApproximateReceiveCount": "2"})

	tests := []struct {
		name string
		obs  batch.Observation
		want Entry
	}{
		{
			name: "recoverable with retry",
			obs: batch.Observation{
				Envelope: env,
				Result:   outcome.Retry(errors.New("timeout")),
				Action:   outcome.Redeliver,
				Decision: backoff.Decision{ShouldRetry: true, AttemptIndex: 1, DelaySeconds: 900},
				Backoff:  true,
			},
			want: Entry{
				MessageID: "m1", Outcome: "recoverable", Action: "redeliver",
				DeliveryCount: 2, AttemptIndex: 1, ShouldRetry: true, DelaySeconds: 900,
				Error: "timeout", RecordedAt: now,
			},
		},
		{
			name: "success",
			obs: batch.Observation{
				Envelope: env,
				Result:   outcome.Succeeded(),
				Action:   outcome.Acknowledge,
			},
			want: Entry{
				MessageID: "m1", Outcome: "success", Action: "acknowledge",
				DeliveryCount: 2, RecordedAt: now,
			},
		},
		{
			name: "skipped",
			obs: batch.Observation{
				Envelope: env,
				Result:   outcome.Fail(context.Canceled),
				Action:   outcome.Redeliver,
				Skipped:  true,
			},
			want: Entry{
				MessageID: "m1", Outcome: "skipped", Action: "redeliver",
				DeliveryCount: 2, Skipped: true, Error: "context canceled", RecordedAt: now,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewEntry(tt.obs, now))
		})
	}
}

func TestRecorder_Observe(t *testing.T) {
	repo := newMemoryRepository()
	rec := NewRecorder(repo, logger.NopLogger())
	rec.now = func() time.Time { return now }

	rec.Observe(context.Background(), batch.Observation{
		Envelope: message.New("m1", "{}", "rh", nil),
		Result:   outcome.Fail(errors.New("bad")),
		Action:   outcome.Redeliver,
	})

	got, err := repo.Get(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "unrecoverable", got.Outcome)
	assert.Equal(t, now, got.RecordedAt)
}

func TestRecorder_SaveErrorIsSwallowed(t *testing.T) {
	repo := newMemoryRepository()
	repo.err = errors.New("connection refused")
	rec := NewRecorder(repo, logger.NopLogger())

	assert.NotPanics(t, func() {
		rec.Observe(context.Background(), batch.Observation{Envelope: message.New("m1", "{}", "rh", nil)})
	})
	assert.Equal(t, 1, repo.saves)
}

func TestCircuitBreakerRepository_Disabled(t *testing.T) {
	repo := newMemoryRepository()
	cbRepo := NewCircuitBreakerRepository(repo, config.CircuitBreakerConfig{})

	require.NoError(t, cbRepo.Save(context.Background(), Entry{MessageID: "m1"}))
	_, err := cbRepo.Get(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "disabled", cbRepo.State())
	assert.False(t, cbRepo.IsOpen())
}

func TestCircuitBreakerRepository_NotFoundDoesNotTrip(t *testing.T) {
	repo := newMemoryRepository()
	cbRepo := NewCircuitBreakerRepository(repo, config.CircuitBreakerConfig{
		Enabled:      true,
		FailureRatio: 0.5,
		MinRequests:  2,
		Timeout:      time.Minute,
	})

	for i := 0; i < 5; i++ {
		_, err := cbRepo.Get(context.Background(), "unknown")
		assert.True(t, apperrors.IsNotFound(err))
	}
	assert.False(t, cbRepo.IsOpen())
	assert.Equal(t, 5, repo.gets)
}

func TestCircuitBreakerRepository_OpensOnFailures(t *testing.T) {
	repo := newMemoryRepository()
	repo.err = errors.New("i/o timeout")
	cbRepo := NewCircuitBreakerRepository(repo, config.CircuitBreakerConfig{
		Enabled:      true,
		FailureRatio: 0.5,
		MinRequests:  2,
		Timeout:      time.Minute,
	})

	for i := 0; i < 2; i++ {
		assert.Error(t, cbRepo.Save(context.Background(), Entry{MessageID: "m1"}))
	}
	require.True(t, cbRepo.IsOpen())

	err := cbRepo.Save(context.Background(), Entry{MessageID: "m1"})
	assert.True(t, circuitbreaker.IsOpen(err))
	assert.Equal(t, 2, repo.saves)

	_, err = cbRepo.Get(context.Background(), "m1")
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavailable)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "backoff:outcome:abc-123", Key("abc-123"))
}

package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqsbackoff/internal/config"
)

func TestFromSettings_Disabled(t *testing.T) {
	assert.Nil(t, FromSettings("sqs-visibility", config.CircuitBreakerConfig{Enabled: false}))
}

func TestWrapper_OpensAfterFailures(t *testing.T) {
	w := FromSettings("test-open", config.CircuitBreakerConfig{
		Enabled:      true,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		FailureRatio: 0.5,
		MinRequests:  2,
	})
	require.NotNil(t, w)

	boom := errors.New("boom")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		err := w.Do(ctx, func(context.Context) error { return boom })
		assert.ErrorIs(t, err, boom)
	}

	assert.True(t, w.IsOpen())

	called := false
	err := w.Do(ctx, func(context.Context) error {
		called = true
		return nil
	})
	assert.False(t, called)
	assert.True(t, IsOpen(err))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestWrapper_CancelledContext(t *testing.T) {
	w := NewWrapper(DefaultConfig("test-ctx"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.Do(ctx, func(context.Context) error {
		t.Fatal("should not run")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint32(0), w.Counts().Requests)
}

func TestWrapper_CancelledDuringCallIsNotAFailure(t *testing.T) {
	w := NewWrapper(DefaultConfig("test-ctx-during"))
	ctx, cancel := context.WithCancel(context.Background())

	err := w.Do(ctx, func(ctx context.Context) error {
		cancel()
		return ctx.Err()
	})

	assert.ErrorIs(t, err, context.Canceled)
	counts := w.Counts()
	assert.Equal(t, uint32(1), counts.Requests)
	assert.Equal(t, uint32(0), counts.TotalFailures)
	assert.Equal(t, uint32(0), counts.ConsecutiveFailures)
}

func TestWrapper_DeadlineCountsAsFailure(t *testing.T) {
	w := NewWrapper(DefaultConfig("test-deadline"))

	err := w.Do(context.Background(), func(context.Context) error {
		return context.DeadlineExceeded
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, uint32(1), w.Counts().TotalFailures)
}

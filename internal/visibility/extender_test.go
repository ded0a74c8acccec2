package visibility

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqsbackoff/internal/config"
	"sqsbackoff/internal/logger"
	"sqsbackoff/pkg/circuitbreaker"
	"sqsbackoff/pkg/metrics"
)

type fakeAPI struct {
	mu    sync.Mutex
	err   error
	calls []*sqs.ChangeMessageVisibilityInput
}

func (f *fakeAPI) ChangeMessageVisibility(ctx context.Context, params *sqs.ChangeMessageVisibilityInput, optFns ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.ChangeMessageVisibilityOutput{}, nil
}

func (f *fakeAPI) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

const queueURL = "https://sqs.eu-west-1.amazonaws.com/123456789012/orders"

func TestExtend_Success(t *testing.T) {
	api := &fakeAPI{}
	e := NewExtender(api, queueURL, logger.NopLogger())

	e.Extend(context.Background(), "rh-1", 900)

	require.Equal(t, 1, api.count())
	call := api.calls[0]
	assert.Equal(t, queueURL, aws.ToString(call.QueueUrl))
	assert.Equal(t, "rh-1", aws.ToString(call.ReceiptHandle))
	assert.Equal(t, int32(900), call.VisibilityTimeout)
}

func TestExtend_ErrorIsSwallowed(t *testing.T) {
	api := &fakeAPI{err: errors.New("ReceiptHandleIsInvalid")}
	e := NewExtender(api, queueURL, logger.NopLogger())

	assert.NotPanics(t, func() {
		e.Extend(context.Background(), "rh-1", 600)
	})
	assert.Equal(t, 1, api.count())
}

func TestExtend_PreconditionsSkipTheCall(t *testing.T) {
	api := &fakeAPI{}
	e := NewExtender(api, queueURL, logger.NopLogger())

	e.Extend(context.Background(), "", 600)
	e.Extend(context.Background(), "rh-1", 0)
	e.Extend(context.Background(), "rh-1", 43201)

	assert.Equal(t, 0, api.count())

	assert.ErrorIs(t, e.change(context.Background(), "", 10), ErrEmptyReceipt)
	assert.ErrorIs(t, e.change(context.Background(), "rh", -1), ErrInvalidDelay)
}

func TestExtend_CircuitBreakerStopsCalls(t *testing.T) {
	api := &fakeAPI{err: errors.New("throttled")}
	cb := circuitbreaker.FromSettings("test-visibility", config.CircuitBreakerConfig{
		Enabled:      true,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		FailureRatio: 1,
		MinRequests:  2,
	})
	e := NewExtender(api, queueURL, logger.NopLogger(), WithCircuitBreaker(cb))

	for i := 0; i < 5; i++ {
		e.Extend(context.Background(), "rh", 60)
	}

	assert.Equal(t, 2, api.count())
	err := e.change(context.Background(), "rh", 60)
	assert.True(t, circuitbreaker.IsOpen(err))
}

func TestExtend_CancelledContext(t *testing.T) {
	api := &fakeAPI{}
	cb := circuitbreaker.NewWrapper(circuitbreaker.DefaultConfig("test-visibility-ctx"))
	e := NewExtender(api, queueURL, logger.NopLogger(), WithCircuitBreaker(cb))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e.Extend(ctx, "rh", 60)

	assert.Equal(t, 0, api.count())
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestExtend_OpenBreakerSkipsCallAndCounts(t *testing.T) {
	api := &fakeAPI{err: errors.New("ServiceUnavailable")}
	cb := circuitbreaker.FromSettings("test-visibility-open", config.CircuitBreakerConfig{
		Enabled:      true,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		FailureRatio: 1,
		MinRequests:  1,
	})
	e := NewExtender(api, queueURL, logger.NopLogger(), WithCircuitBreaker(cb))

	e.Extend(context.Background(), "rh-1", 600)
	require.True(t, cb.IsOpen())
	require.Equal(t, 1, api.count())

	openCounter := metrics.VisibilityExtensionsTotal.WithLabelValues("circuit_open")
	errorCounter := metrics.VisibilityExtensionsTotal.WithLabelValues("error")
	openBefore := counterValue(t, openCounter)
	errorBefore := counterValue(t, errorCounter)

	e.Extend(context.Background(), "rh-2", 900)

	assert.Equal(t, 1, api.count(), "open breaker must not reach SQS")
	assert.Equal(t, openBefore+1, counterValue(t, openCounter))
	assert.Equal(t, errorBefore, counterValue(t, errorCounter))
}

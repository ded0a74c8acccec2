package visibility

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"sqsbackoff/internal/constants"
	"sqsbackoff/internal/logger"
	"sqsbackoff/pkg/circuitbreaker"
	"sqsbackoff/pkg/metrics"
	"sqsbackoff/pkg/ratelimit"
)

var (
	ErrEmptyReceipt = errors.New("empty receipt token")
	ErrInvalidDelay = errors.New("visibility delay out of range")
)

// API is the subset of the SQS client used to move a message's visibility.
type API interface {
	ChangeMessageVisibility(ctx context.Context, params *sqs.ChangeMessageVisibilityInput, optFns ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error)
}

// Extender asks the queue to hide a message for the chosen delay. Extend is
// best effort: the message is reported failed whether or not the call lands,
// so errors are logged and counted and never returned.
type Extender struct {
	api      API
	queueURL string
	logger   logger.Logger
	breaker  *circuitbreaker.Wrapper
	throttle *ratelimit.Throttle
	timeout  time.Duration
}

type Option func(*Extender)

func WithCircuitBreaker(cb *circuitbreaker.Wrapper) Option {
	return func(e *Extender) {
		e.breaker = cb
	}
}

func WithThrottle(t *ratelimit.Throttle) Option {
	return func(e *Extender) {
		e.throttle = t
	}
}

func WithTimeout(d time.Duration) Option {
	return func(e *Extender) {
		e.timeout = d
	}
}

func NewExtender(api API, queueURL string, log logger.Logger, opts ...Option) *Extender {
	e := &Extender{
		api:      api,
		queueURL: queueURL,
		logger:   log,
		timeout:  constants.VisibilityCallTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Extender) Extend(ctx context.Context, receiptToken string, delaySeconds int) {
	start := time.Now()
	err := e.change(ctx, receiptToken, delaySeconds)
	metrics.ObserveQueueOperation("change_visibility", err, time.Since(start))

	if err != nil {
		status := "error"
		if circuitbreaker.IsOpen(err) {
			status = "circuit_open"
		}
		metrics.IncVisibilityExtension(status)
		e.logger.WarnwCtx(ctx, "Failed to extend message visibility",
			"error", err,
			"delay_seconds", delaySeconds,
		)
		return
	}

	metrics.IncVisibilityExtension("success")
	e.logger.DebugwCtx(ctx, "Extended message visibility",
		"delay_seconds", delaySeconds,
	)
}

func (e *Extender) change(ctx context.Context, receiptToken string, delaySeconds int) error {
	if receiptToken == "" {
		return ErrEmptyReceipt
	}
	if delaySeconds <= 0 || delaySeconds > constants.MaxVisibilityTimeoutSeconds {
		return fmt.Errorf("%w: %d", ErrInvalidDelay, delaySeconds)
	}

	if err := e.throttle.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	call := func(ctx context.Context) error {
		if e.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, e.timeout)
			defer cancel()
		}
		_, err := e.api.ChangeMessageVisibility(ctx, &sqs.ChangeMessageVisibilityInput{
			QueueUrl:          aws.String(e.queueURL),
			ReceiptHandle:     aws.String(receiptToken),
			VisibilityTimeout: int32(delaySeconds),
		})
		if err != nil {
			return fmt.Errorf("change message visibility: %w", err)
		}
		return nil
	}

	if e.breaker == nil {
		return call(ctx)
	}
	return e.breaker.Do(ctx, call)
}

package batch

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"sqsbackoff/internal/backoff"
	"sqsbackoff/internal/logger"
	"sqsbackoff/internal/message"
	"sqsbackoff/internal/outcome"
	apperrors "sqsbackoff/pkg/errors"
	"sqsbackoff/pkg/logging"
	"sqsbackoff/pkg/metrics"
	"sqsbackoff/pkg/tracing"
)

// ProcessFunc handles one message. It must not acknowledge or delete it.
type ProcessFunc func(ctx context.Context, env message.Envelope) outcome.Result

// Extender hides a message for delaySeconds. Failures are the extender's
// concern and never change the message's reported status.
type Extender interface {
	Extend(ctx context.Context, receiptToken string, delaySeconds int)
}

// Observation is what the driver learned about a single message.
type Observation struct {
	Envelope message.Envelope
	Result   outcome.Result
	Action   outcome.Action
	Decision backoff.Decision
	// Backoff is true when the schedule was consulted.
	Backoff bool
	// Skipped is true when the batch was cancelled before the message ran.
	Skipped bool
}

type Observer interface {
	Observe(ctx context.Context, obs Observation)
}

type Driver struct {
	schedule  backoff.Schedule
	extender  Extender
	observer  Observer
	logger    logger.Logger
	queueName string
}

type Option func(*Driver)

func WithObserver(o Observer) Option {
	return func(d *Driver) {
		d.observer = o
	}
}

func WithQueueName(name string) Option {
	return func(d *Driver) {
		d.queueName = name
	}
}

func NewDriver(schedule backoff.Schedule, extender Extender, log logger.Logger, opts ...Option) *Driver {
	d := &Driver{
		schedule: schedule,
		extender: extender,
		logger:   log,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run processes the batch in order and returns the ids to redeliver.
//
// A recoverable failure consults the schedule and, when a retry is allowed
// with a positive delay, hides the message for that delay. The message is
// reported failed either way so the queue's redrive policy takes over once
// retries are exhausted. Unrecoverable failures are reported failed without
// touching visibility. If ctx is cancelled mid-batch the remaining messages
// are reported failed unprocessed, so nothing unprocessed is deleted.
func (d *Driver) Run(ctx context.Context, batch []message.Envelope, process ProcessFunc) *Report {
	start := time.Now()
	report := NewReport()

	ctx = logging.WithQueue(ctx, d.queueName)
	ctx, span := tracing.StartBatchSpan(ctx, d.queueName, len(batch))
	defer span.End()

	for i, env := range batch {
		if err := ctx.Err(); err != nil {
			d.skipRemaining(ctx, batch[i:], report, err)
			d.logger.WarnwCtx(ctx, "Batch interrupted, remaining messages will be redelivered",
				"remaining", len(batch)-i,
				"error", err,
			)
			break
		}
		d.handle(ctx, env, process, report)
	}

	failed := report.Len()
	metrics.ObserveBatch(len(batch), failed, time.Since(start))
	span.SetAttributes(attribute.Int("backoff.batch.failed", failed))

	d.logger.DebugwCtx(ctx, "Batch processed",
		"size", len(batch),
		"failed", failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return report
}

func (d *Driver) handle(ctx context.Context, env message.Envelope, process ProcessFunc, report *Report) {
	ctx, span := tracing.StartMessageSpan(ctx, env.ID, env.MessageAttributes)
	defer span.End()

	ctx = logging.WithMessageID(ctx, env.ID)
	ctx = logging.WithReceiveCount(ctx, env.DeliveryCount)
	if traceID := tracing.TraceID(ctx); traceID != "" {
		ctx = logging.WithTraceID(ctx, traceID)
	}

	result := d.safeProcess(ctx, env, process)
	obs := Observation{
		Envelope: env,
		Result:   result,
		Action:   outcome.Classify(result),
	}

	metrics.IncMessageProcessed(result.Kind.String())
	span.SetAttributes(attribute.String("backoff.outcome", result.Kind.String()))

	switch {
	case result.IsSuccess():
		d.logger.DebugwCtx(ctx, "Message processed")

	case outcome.NeedsBackoff(result):
		span.SetStatus(codes.Error, result.ErrMessage())
		obs.Backoff = true
		obs.Decision = d.schedule.Decide(env.DeliveryCount)
		d.applyDecision(ctx, env, obs.Decision, result)
		report.Add(env.ID)

	default:
		span.SetStatus(codes.Error, result.ErrMessage())
		d.logger.WarnwCtx(ctx, "Unrecoverable failure, message will be redelivered without backoff",
			"error", result.ErrMessage(),
		)
		report.Add(env.ID)
	}

	d.observe(ctx, obs)
}

func (d *Driver) applyDecision(ctx context.Context, env message.Envelope, decision backoff.Decision, result outcome.Result) {
	if !decision.ShouldRetry {
		metrics.IncBackoffExhausted()
		d.logger.WarnwCtx(ctx, "Retry attempts exhausted, leaving message to redrive policy",
			"attempt_index", decision.AttemptIndex,
			"error", result.ErrMessage(),
		)
		return
	}

	metrics.IncBackoffRetry(decision.DelaySeconds)
	d.logger.InfowCtx(ctx, "Recoverable failure, backing off",
		"attempt_index", decision.AttemptIndex,
		"delay_seconds", decision.DelaySeconds,
		"error", result.ErrMessage(),
	)

	if decision.DelaySeconds > 0 {
		d.extender.Extend(ctx, env.ReceiptToken, decision.DelaySeconds)
	}
}

// safeProcess turns a panicking handler into an unrecoverable failure so one
// message cannot take down the rest of the batch.
func (d *Driver) safeProcess(ctx context.Context, env message.Envelope, process ProcessFunc) (result outcome.Result) {
	defer func() {
		if r := recover(); r != nil {
			err := apperrors.RecoverPanic(r)
			d.logger.ErrorwCtx(ctx, "Handler panicked", "error", err)
			result = outcome.Fail(err)
		}
	}()
	return process(ctx, env)
}

func (d *Driver) skipRemaining(ctx context.Context, rest []message.Envelope, report *Report, cause error) {
	for _, env := range rest {
		report.Add(env.ID)
		d.observe(logging.WithMessageID(ctx, env.ID), Observation{
			Envelope: env,
			Result:   outcome.Fail(cause),
			Action:   outcome.Redeliver,
			Skipped:  true,
		})
	}
}

func (d *Driver) observe(ctx context.Context, obs Observation) {
	if d.observer == nil {
		return
	}
	d.observer.Observe(context.WithoutCancel(ctx), obs)
}

package broker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"sqsbackoff/internal/batch"
	"sqsbackoff/internal/config"
	"sqsbackoff/internal/constants"
	"sqsbackoff/internal/logger"
	"sqsbackoff/internal/message"
	"sqsbackoff/pkg/logging"
	"sqsbackoff/pkg/metrics"
	"sqsbackoff/pkg/retry"
)

const deleteTimeout = 10 * time.Second

// Poller long-polls a queue and runs each batch through the driver. Messages
// not in the batch report are deleted; reported ones are left for the queue
// to redeliver after their visibility timeout.
type Poller struct {
	api         ReceiveAPI
	cfg         config.QueueConfig
	driver      *batch.Driver
	process     batch.ProcessFunc
	logger      logger.Logger
	policy      retry.Policy
	serviceName string
}

func NewPoller(api ReceiveAPI, cfg config.QueueConfig, driver *batch.Driver, process batch.ProcessFunc, log logger.Logger) *Poller {
	return &Poller{
		api:         api,
		cfg:         cfg,
		driver:      driver,
		process:     process,
		logger:      log,
		policy:      retryPolicy(cfg.Retry),
		serviceName: "unknown",
	}
}

func (p *Poller) SetServiceName(name string) {
	p.serviceName = name
}

// Run polls until ctx is cancelled. Receive errors are logged and polling
// resumes after a short pause.
func (p *Poller) Run(ctx context.Context) error {
	ctx = logging.WithServiceName(ctx, p.serviceName)
	ctx = logging.WithQueue(ctx, p.cfg.URL)

	p.logger.InfowCtx(ctx, "Started polling",
		"max_messages", p.maxMessages(),
		"wait_time_seconds", p.waitTime(),
	)

	consecutiveErrors := 0
	for {
		if ctx.Err() != nil {
			p.logger.InfowCtx(ctx, "Stopped polling", "reason", "context canceled")
			return ctx.Err()
		}

		if _, err := p.PollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			pause := retry.CalculateBackoffDuration(consecutiveErrors, constants.ReceiveErrorPause, 2, constants.MaxReceiveErrorPause)
			consecutiveErrors++
			p.logger.ErrorwCtx(ctx, "Error receiving messages",
				"error", err,
				"consecutive_errors", consecutiveErrors,
				"pause", pause,
			)

			select {
			case <-time.After(pause):
			case <-ctx.Done():
			}
			continue
		}
		consecutiveErrors = 0
	}
}

// PollOnce receives one batch, processes it and deletes the acknowledged
// messages. It returns the number of messages received.
func (p *Poller) PollOnce(ctx context.Context) (int, error) {
	msgs, err := p.receive(ctx)
	if err != nil {
		return 0, err
	}
	if len(msgs) == 0 {
		return 0, nil
	}

	envs := message.FromSQSBatch(msgs)
	report := p.driver.Run(ctx, envs, p.process)

	entries := make([]sqstypes.DeleteMessageBatchRequestEntry, 0, len(envs))
	for i, env := range envs {
		if report.Contains(env.ID) {
			continue
		}
		entries = append(entries, sqstypes.DeleteMessageBatchRequestEntry{
			Id:            aws.String(strconv.Itoa(i)),
			ReceiptHandle: aws.String(env.ReceiptToken),
		})
	}

	// Acknowledged work is deleted even when ctx was cancelled mid-batch.
	deleteCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deleteTimeout)
	defer cancel()
	p.delete(deleteCtx, entries)

	return len(msgs), nil
}

func (p *Poller) receive(ctx context.Context) ([]sqstypes.Message, error) {
	input := &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(p.cfg.URL),
		MaxNumberOfMessages: p.maxMessages(),
		WaitTimeSeconds:     p.waitTime(),
		MessageSystemAttributeNames: []sqstypes.MessageSystemAttributeName{
			sqstypes.MessageSystemAttributeNameApproximateReceiveCount,
		},
		MessageAttributeNames: []string{"All"},
	}
	if p.cfg.VisibilityTimeoutSeconds > 0 {
		input.VisibilityTimeout = int32(p.cfg.VisibilityTimeoutSeconds)
	}

	var out *sqs.ReceiveMessageOutput
	err := retry.RetryWithCallback(ctx, p.policy, func() error {
		start := time.Now()
		var err error
		out, err = p.api.ReceiveMessage(ctx, input)
		metrics.ObserveQueueOperation("receive", err, time.Since(start))
		if err != nil && ctx.Err() != nil {
			return retry.Permanent(err)
		}
		return err
	}, func(attempt int, err error, nextDelay time.Duration) {
		p.logger.WarnwCtx(ctx, "Retrying receive",
			"attempt", attempt,
			"max_attempts", p.policy.MaxAttempts,
			"next_delay", nextDelay,
			"error", err,
		)
	})
	if err != nil {
		return nil, fmt.Errorf("receive message: %w", err)
	}

	return out.Messages, nil
}

func (p *Poller) delete(ctx context.Context, entries []sqstypes.DeleteMessageBatchRequestEntry) {
	for start := 0; start < len(entries); start += constants.MaxDeleteBatchSize {
		end := min(start+constants.MaxDeleteBatchSize, len(entries))
		chunk := entries[start:end]

		began := time.Now()
		out, err := p.api.DeleteMessageBatch(ctx, &sqs.DeleteMessageBatchInput{
			QueueUrl: aws.String(p.cfg.URL),
			Entries:  chunk,
		})
		metrics.ObserveQueueOperation("delete", err, time.Since(began))

		if err != nil {
			p.logger.ErrorwCtx(ctx, "Failed to delete messages, they will be redelivered",
				"count", len(chunk),
				"error", err,
			)
			continue
		}

		for _, failed := range out.Failed {
			p.logger.WarnwCtx(ctx, "Failed to delete message",
				"entry_id", aws.ToString(failed.Id),
				"code", aws.ToString(failed.Code),
				"reason", aws.ToString(failed.Message),
			)
		}
	}
}

func (p *Poller) maxMessages() int32 {
	n := p.cfg.MaxMessages
	if n <= 0 || n > constants.MaxReceiveBatchSize {
		n = constants.DefaultMaxMessages
	}
	return int32(n)
}

func (p *Poller) waitTime() int32 {
	n := p.cfg.WaitTimeSeconds
	if n < 0 || n > constants.MaxWaitTimeSeconds {
		n = constants.DefaultWaitTimeSeconds
	}
	return int32(n)
}

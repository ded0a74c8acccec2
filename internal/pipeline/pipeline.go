package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sqsbackoff/internal/backoff"
	"sqsbackoff/internal/batch"
	"sqsbackoff/internal/config"
	"sqsbackoff/internal/ledger"
	"sqsbackoff/internal/logger"
	"sqsbackoff/internal/message"
	"sqsbackoff/internal/processing"
	"sqsbackoff/internal/visibility"
	"sqsbackoff/pkg/circuitbreaker"
	"sqsbackoff/pkg/ratelimit"
)

// Pipeline holds everything built once per process: the schedule, the
// business processor, the visibility extender and the batch driver.
type Pipeline struct {
	Schedule  backoff.Schedule
	Processor *processing.Processor
	Driver    *batch.Driver
	// Ledger is nil when the outcome ledger is disabled.
	Ledger ledger.Repository
}

// New validates configuration-derived components. Any error here should
// stop the process before it consumes messages.
func New(cfg *config.Config, log logger.Logger, api visibility.API, rdb *redis.Client) (*Pipeline, error) {
	schedule, err := backoff.FromConfig(cfg.Backoff)
	if err != nil {
		return nil, fmt.Errorf("invalid backoff schedule: %w", err)
	}

	handler, err := processing.NewRuleHandler(cfg.Processing, log)
	if err != nil {
		return nil, err
	}

	extender := visibility.NewExtender(api, cfg.Queue.URL, log,
		visibility.WithThrottle(ratelimit.NewThrottle("sqs-visibility", cfg.Queue.VisibilityRPS, cfg.Queue.VisibilityBurst)),
		visibility.WithCircuitBreaker(circuitbreaker.FromSettings("sqs-visibility", cfg.CircuitBreaker)),
	)

	p := &Pipeline{
		Schedule:  schedule,
		Processor: processing.NewProcessor(handler, log),
	}

	opts := []batch.Option{batch.WithQueueName(cfg.Queue.URL)}
	if rdb != nil {
		ttl := time.Duration(cfg.Ledger.TTLSeconds) * time.Second
		p.Ledger = ledger.NewCircuitBreakerRepository(ledger.NewRepository(rdb, ttl), cfg.CircuitBreaker)
		opts = append(opts, batch.WithObserver(ledger.NewRecorder(p.Ledger, log)))
	}

	p.Driver = batch.NewDriver(schedule, extender, log, opts...)

	log.Infow("Backoff schedule loaded",
		"delays", schedule.Delays(),
		"max_attempts", schedule.MaxAttempts(),
		"max_allowed_delay", schedule.MaxAllowedDelay(),
		"ledger_enabled", p.Ledger != nil,
	)

	return p, nil
}

// Handle runs one batch and returns the ids to redeliver.
func (p *Pipeline) Handle(ctx context.Context, envs []message.Envelope) *batch.Report {
	return p.Driver.Run(ctx, envs, p.Processor.Process)
}

package bootstrap

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"sqsbackoff/internal/broker"
	"sqsbackoff/internal/config"
	"sqsbackoff/internal/logger"
)

type Base struct {
	Config *config.Config
	Logger logger.Logger
	SQS    *sqs.Client
}

func NewBase(cfg *config.Config, log logger.Logger) *Base {
	return &Base{
		Config: cfg,
		Logger: log,
	}
}

func (b *Base) InitSQS(ctx context.Context) error {
	client, err := broker.NewClient(ctx, b.Config.Queue)
	if err != nil {
		return fmt.Errorf("failed to create SQS client: %w", err)
	}

	b.SQS = client
	b.Logger.Infow("SQS client configured",
		"queue_url", b.Config.Queue.URL,
		"region", b.Config.Queue.Region,
		"endpoint", b.Config.Queue.Endpoint,
	)
	return nil
}

func (b *Base) Shutdown(ctx context.Context, additionalShutdown func(ctx context.Context) []error) error {
	b.Logger.Info("Shutting down application...")

	var errs []error

	if additionalShutdown != nil {
		errs = append(errs, additionalShutdown(ctx)...)
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	b.Logger.Info("Application exited successfully")
	return nil
}

package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"

	"sqsbackoff/internal/logger"
	"sqsbackoff/internal/message"
	"sqsbackoff/internal/pipeline"
	"sqsbackoff/pkg/logging"
	"sqsbackoff/pkg/tracing"
)

// newHandler returns the SQS event handler. Only the messages listed in
// BatchItemFailures are redelivered. The handler never returns an error,
// since that would redeliver the whole batch.
func newHandler(p *pipeline.Pipeline, tp *tracing.TracerProvider, log logger.Logger) func(context.Context, events.SQSEvent) (events.SQSEventResponse, error) {
	return func(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
		ctx = logging.WithServiceName(ctx, serviceName)

		report := p.Handle(ctx, message.FromLambdaEvent(event))

		resp := events.SQSEventResponse{
			BatchItemFailures: make([]events.SQSBatchItemFailure, 0, report.Len()),
		}
		for _, id := range report.FailedIDs() {
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: id})
		}

		log.InfowCtx(ctx, "Batch handled",
			"records", len(event.Records),
			"failures", len(resp.BatchItemFailures),
		)

		if err := tp.ForceFlush(ctx); err != nil {
			log.WarnwCtx(ctx, "Failed to flush spans", "error", err)
		}
		return resp, nil
	}
}

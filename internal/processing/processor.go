package processing

import (
	"context"

	"sqsbackoff/internal/logger"
	"sqsbackoff/internal/message"
	"sqsbackoff/internal/outcome"
	apperrors "sqsbackoff/pkg/errors"
	"sqsbackoff/pkg/logging"
)

// Handler runs business logic for one decoded message.
type Handler interface {
	Handle(ctx context.Context, env message.Envelope, msg message.Message) outcome.Result
}

type HandlerFunc func(ctx context.Context, env message.Envelope, msg message.Message) outcome.Result

func (f HandlerFunc) Handle(ctx context.Context, env message.Envelope, msg message.Message) outcome.Result {
	return f(ctx, env, msg)
}

// ErrorHandler adapts an error-returning function; see outcome.FromError.
func ErrorHandler(fn func(ctx context.Context, msg message.Message) error) Handler {
	return HandlerFunc(func(ctx context.Context, env message.Envelope, msg message.Message) outcome.Result {
		return outcome.FromError(fn(ctx, msg))
	})
}

type Processor struct {
	handler Handler
	logger  logger.Logger
}

func NewProcessor(handler Handler, log logger.Logger) *Processor {
	return &Processor{handler: handler, logger: log}
}

// Process decodes the body and hands it to the handler. A body that cannot
// be decoded will never succeed, so it is an unrecoverable failure.
func (p *Processor) Process(ctx context.Context, env message.Envelope) (result outcome.Result) {
	msg, err := message.Decode(env.Body)
	if err != nil {
		p.logger.WarnwCtx(ctx, "Failed to decode message body", "error", err)
		return outcome.Fail(apperrors.Wrap(err, apperrors.ErrDecode))
	}

	if msg.TraceID != "" && logging.GetTraceID(ctx) == "" {
		ctx = logging.WithTraceID(ctx, msg.TraceID)
	}

	defer func() {
		if r := recover(); r != nil {
			err := apperrors.RecoverPanic(r)
			p.logger.ErrorwCtx(ctx, "Panic recovered during message processing", "error", err)
			result = outcome.Fail(err)
		}
	}()

	return p.handler.Handle(ctx, env, msg)
}

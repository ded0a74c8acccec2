package broker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"

	"sqsbackoff/internal/constants"
	"sqsbackoff/internal/logger"
	"sqsbackoff/internal/message"
	"sqsbackoff/pkg/metrics"
	"sqsbackoff/pkg/tracing"
)

// Sender publishes message bodies to a queue. FIFO queues get a message
// group id and a per-message deduplication id.
type Sender struct {
	api      SendAPI
	queueURL string
	groupID  string
	logger   logger.Logger
}

func NewSender(api SendAPI, queueURL string, log logger.Logger) *Sender {
	return &Sender{
		api:      api,
		queueURL: queueURL,
		groupID:  constants.DefaultMessageGroupID,
		logger:   log,
	}
}

func (s *Sender) WithGroupID(groupID string) *Sender {
	if groupID != "" {
		s.groupID = groupID
	}
	return s
}

func (s *Sender) isFIFO() bool {
	return strings.HasSuffix(s.queueURL, constants.FIFOQueueSuffix)
}

// Publish sends msg and returns the queue-assigned message id. A trace id is
// generated when msg has none.
func (s *Sender) Publish(ctx context.Context, msg message.Message) (string, error) {
	if msg.TraceID == "" {
		if msg.TraceID = tracing.TraceID(ctx); msg.TraceID == "" {
			msg.TraceID = uuid.New().String()
		}
	}

	body, err := message.Encode(msg)
	if err != nil {
		return "", err
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(body),
	}
	if attrs := tracing.InjectMessageAttributes(ctx, nil); len(attrs) > 0 {
		input.MessageAttributes = attrs
	}
	if s.isFIFO() {
		input.MessageGroupId = aws.String(s.groupID)
		input.MessageDeduplicationId = aws.String(uuid.New().String())
	}

	start := time.Now()
	out, err := s.api.SendMessage(ctx, input)
	metrics.ObserveQueueOperation("send", err, time.Since(start))
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}

	id := aws.ToString(out.MessageId)
	s.logger.InfowCtx(ctx, "Message sent",
		"message_id", id,
		"trace_id", msg.TraceID,
	)
	return id, nil
}

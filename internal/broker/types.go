package broker

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"sqsbackoff/internal/message"
)

// ReceiveAPI is the part of the SQS client the poller uses.
type ReceiveAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessageBatch(ctx context.Context, params *sqs.DeleteMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageBatchOutput, error)
}

type SendAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

type Producer interface {
	Publish(ctx context.Context, msg message.Message) (string, error)
}

type Consumer interface {
	Run(ctx context.Context) error
	SetServiceName(name string)
}

var (
	_ Consumer = (*Poller)(nil)
	_ Producer = (*Sender)(nil)
)

package message

import (
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"sqsbackoff/internal/backoff"
	"sqsbackoff/internal/constants"
)

// Envelope is one delivery of a queue message. ReceiptToken is only valid
// for this delivery; DeliveryCount is whatever the transport reported.
type Envelope struct {
	ID                string
	Body              string
	ReceiptToken      string
	DeliveryCount     int
	Attributes        map[string]string
	MessageAttributes map[string]string
}

func New(id, body, receiptToken string, attributes map[string]string) Envelope {
	return Envelope{
		ID:            id,
		Body:          body,
		ReceiptToken:  receiptToken,
		DeliveryCount: backoff.ParseDeliveryCount(attributes[constants.AttributeApproximateReceiveCount]),
		Attributes:    attributes,
	}
}

// FromSQS converts a message returned by ReceiveMessage.
func FromSQS(m sqstypes.Message) Envelope {
	env := New(
		aws.ToString(m.MessageId),
		aws.ToString(m.Body),
		aws.ToString(m.ReceiptHandle),
		m.Attributes,
	)

	if len(m.MessageAttributes) > 0 {
		env.MessageAttributes = make(map[string]string, len(m.MessageAttributes))
		for k, v := range m.MessageAttributes {
			if v.StringValue != nil {
				env.MessageAttributes[k] = *v.StringValue
			}
		}
	}

	return env
}

// FromLambda converts a record of an SQS-triggered Lambda event.
func FromLambda(m events.SQSMessage) Envelope {
	env := New(m.MessageId, m.Body, m.ReceiptHandle, m.Attributes)

	if len(m.MessageAttributes) > 0 {
		env.MessageAttributes = make(map[string]string, len(m.MessageAttributes))
		for k, v := range m.MessageAttributes {
			if v.StringValue != nil {
				env.MessageAttributes[k] = *v.StringValue
			}
		}
	}

	return env
}

func FromLambdaEvent(event events.SQSEvent) []Envelope {
	out := make([]Envelope, 0, len(event.Records))
	for _, r := range event.Records {
		out = append(out, FromLambda(r))
	}
	return out
}

func FromSQSBatch(msgs []sqstypes.Message) []Envelope {
	out := make([]Envelope, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, FromSQS(m))
	}
	return out
}

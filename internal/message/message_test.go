package message

import (
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSQS(t *testing.T) {
	m := sqstypes.Message{
		MessageId:     aws.String("m-1"),
		Body:          aws.String(`{"payload":{}}`),
		ReceiptHandle: aws.String("rh-1"),
		Attributes:    map[string]string{"ApproximateReceiveCount": "3"},
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"traceparent": {DataType: aws.String("String"), StringValue: aws.String("00-abc-def-01")},
			"blob":        {DataType: aws.String("Binary"), BinaryValue: []byte{1}},
		},
	}

	env := FromSQS(m)
	assert.Equal(t, "m-1", env.ID)
	assert.Equal(t, "rh-1", env.ReceiptToken)
	assert.Equal(t, 3, env.DeliveryCount)
	assert.Equal(t, map[string]string{"traceparent": "00-abc-def-01"}, env.MessageAttributes)
}

func TestFromLambda_MissingReceiveCount(t *testing.T) {
	env := FromLambda(events.SQSMessage{
		MessageId:     "m-2",
		ReceiptHandle: "rh-2",
		Body:          "{}",
	})

	assert.Equal(t, 1, env.DeliveryCount)
	assert.Nil(t, env.MessageAttributes)
}

func TestFromLambdaEvent_PreservesOrder(t *testing.T) {
	event := events.SQSEvent{Records: []events.SQSMessage{
		{MessageId: "a", Attributes: map[string]string{"ApproximateReceiveCount": "2"}},
		{MessageId: "b", Attributes: map[string]string{"ApproximateReceiveCount": "garbage"}},
	}}

	envs := FromLambdaEvent(event)
	require.Len(t, envs, 2)
	assert.Equal(t, "a", envs[0].ID)
	assert.Equal(t, 2, envs[0].DeliveryCount)
	assert.Equal(t, "b", envs[1].ID)
	assert.Equal(t, 1, envs[1].DeliveryCount)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"payload":{"specialRetry":true},"trace_id":"t-1"}`, false},
		{"empty payload object", `{"payload":{}}`, false},
		{"invalid json", `{"payload":`, true},
		{"missing payload", `{"other":1}`, true},
		{"null payload", `{"payload":null}`, true},
		{"payload not an object", `{"payload":[1,2]}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode(tt.body)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, msg.Payload)
		})
	}
}

func TestEncode(t *testing.T) {
	body, err := Encode(Message{Payload: map[string]interface{}{"k": "v"}, TraceID: "t"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"payload":{"k":"v"},"trace_id":"t"}`, body)

	_, err = Encode(Message{})
	assert.ErrorIs(t, err, ErrMissingPayload)
}

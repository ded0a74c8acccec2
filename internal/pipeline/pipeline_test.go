package pipeline

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqsbackoff/internal/config"
	"sqsbackoff/internal/constants"
	"sqsbackoff/internal/logger"
	"sqsbackoff/internal/message"
)

type visibilityCall struct {
	receipt string
	timeout int32
}

type fakeVisibilityAPI struct {
	calls []visibilityCall
}

func (f *fakeVisibilityAPI) ChangeMessageVisibility(ctx context.Context, params *sqs.ChangeMessageVisibilityInput, optFns ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error) {
	f.calls = append(f.calls, visibilityCall{receipt: aws.ToString(params.ReceiptHandle), timeout: params.VisibilityTimeout})
	return &sqs.ChangeMessageVisibilityOutput{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Queue: config.QueueConfig{URL: "https://sqs.local/orders"},
		Backoff: config.BackoffConfig{
			Delays:          []int{600, 900, 1200},
			MaxAttempts:     4,
			MaxAllowedDelay: constants.MaxVisibilityTimeoutSeconds,
		},
		Processing: config.ProcessingConfig{
			RetryWhen: constants.DefaultRetryWhen,
			FailWhen:  `has(payload.poison) && payload.poison == true`,
		},
	}
}

func env(id, body, count string) message.Envelope {
	return message.New(id, body, "rh-"+id, map[string]string{
		constants.AttributeApproximateReceiveCount: count,
	})
}

func TestPipeline_Handle(t *testing.T) {
	api := &fakeVisibilityAPI{}
	p, err := New(testConfig(), logger.NopLogger(), api, nil)
	require.NoError(t, err)
	assert.Nil(t, p.Ledger)

	report := p.Handle(context.Background(), []message.Envelope{
		env("m1", `{"payload":{"id":1}}`, "1"),
		env("m2", `{"payload":{"specialRetry":true}}`, "2"),
		env("m3", `{"payload":{"poison":true}}`, "1"),
		env("m4", `not json`, "1"),
		env("m5", `{"payload":{"specialRetry":true}}`, "5"),
	})

	assert.Equal(t, []string{"m2", "m3", "m4", "m5"}, report.FailedIDs())
	require.Len(t, api.calls, 1)
	assert.Equal(t, visibilityCall{receipt: "rh-m2", timeout: 900}, api.calls[0])
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{name: "empty delays", mutate: func(c *config.Config) { c.Backoff.Delays = nil }},
		{name: "zero attempts", mutate: func(c *config.Config) { c.Backoff.MaxAttempts = 0 }},
		{name: "bad rule", mutate: func(c *config.Config) { c.Processing.RetryWhen = "payload.(" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)
			_, err := New(cfg, logger.NopLogger(), &fakeVisibilityAPI{}, nil)
			assert.Error(t, err)
		})
	}
}

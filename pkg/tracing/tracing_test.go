package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqsbackoff/internal/config"
)

func TestSampler(t *testing.T) {
	tests := []struct {
		kind string
		want string
	}{
		{kind: "always_off", want: "AlwaysOffSampler"},
		{kind: "always_on", want: "AlwaysOnSampler"},
		{kind: "", want: "AlwaysOnSampler"},
		{kind: "traceidratio", want: "TraceIDRatioBased{0.5}"},
		{kind: "parentbased_always_on", want: "ParentBased{root:AlwaysOnSampler"},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			s := sampler(config.SamplerConfig{Type: tt.kind, Param: 0.5})
			assert.Contains(t, s.Description(), tt.want)
		})
	}
}

func TestInit_Disabled(t *testing.T) {
	tp, err := Init(config.TracingConfig{Enabled: false}, "test")
	require.NoError(t, err)

	assert.NoError(t, tp.ForceFlush(context.Background()))
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestProvider_NilIsSafe(t *testing.T) {
	var tp *TracerProvider
	assert.NoError(t, tp.ForceFlush(context.Background()))
	assert.NoError(t, tp.Shutdown(context.Background()))
}

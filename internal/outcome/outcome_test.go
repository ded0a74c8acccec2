package outcome

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name        string
		result      Result
		wantAction  Action
		wantBackoff bool
	}{
		{"success", Succeeded(), Acknowledge, false},
		{"recoverable", Retry(boom), Redeliver, true},
		{"unrecoverable", Fail(boom), Redeliver, false},
		{"unknown kind", Result{Kind: Kind(42), Err: boom}, Redeliver, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantAction, Classify(tt.result))
			assert.Equal(t, tt.wantBackoff, NeedsBackoff(tt.result))
		})
	}
}

func TestFromError(t *testing.T) {
	base := errors.New("downstream timeout")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil is success", nil, Success},
		{"plain error is unrecoverable", base, UnrecoverableFailure},
		{"recoverable", NewRecoverable(base), RecoverableFailure},
		{"wrapped recoverable", fmt.Errorf("handler: %w", NewRecoverable(base)), RecoverableFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := FromError(tt.err)
			assert.Equal(t, tt.want, r.Kind)
			if tt.err != nil {
				assert.ErrorIs(t, r.Err, base)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "recoverable", RecoverableFailure.String())
	assert.Equal(t, "unrecoverable", UnrecoverableFailure.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
	assert.Equal(t, "acknowledge", Acknowledge.String())
	assert.Equal(t, "redeliver", Redeliver.String())
}

func TestRecoverableError_NilCause(t *testing.T) {
	err := NewRecoverable(nil)
	assert.Equal(t, "recoverable failure", err.Error())
	assert.True(t, IsRecoverable(err))
	assert.False(t, IsRecoverable(errors.New("x")))
}

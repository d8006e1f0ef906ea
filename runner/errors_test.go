package runner

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ethereum-optimism/infra/op-runrun/types"
)

func TestOutcomeFor(t *testing.T) {
	assertion := &AssertionError{Message: "boom"}
	tests := []struct {
		name string
		err  error
		want types.Outcome
	}{
		{name: "nil", err: nil, want: types.OutcomeSuccess},
		{name: "assertion", err: assertion, want: types.OutcomeAssertion},
		{name: "wrapped assertion", err: fmt.Errorf("step: %w", assertion), want: types.OutcomeAssertion},
		{name: "plain", err: errors.New("plain"), want: types.OutcomeException},
		{name: "timeout", err: &TimeoutError{Name: "t", Timeout: time.Second}, want: types.OutcomeException},
		{name: "panic", err: &PanicError{Value: "x"}, want: types.OutcomeException},
		{name: "hook wrapping assertion", err: &HookError{Hook: HookBeforeEach, Suite: "s", Err: assertion}, want: types.OutcomeException},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, outcomeFor(tt.err))
		})
	}
}

func TestNewFailure(t *testing.T) {
	tc := NewContext(nil, map[string]any{"x": 1})

	f := newFailure(errors.New("\x1b[1mplain\x1b[0m"), tc)
	assert.Equal(t, "plain", f.Message)
	assert.Equal(t, types.OutcomeException, f.Outcome)
	assert.Equal(t, map[string]any{"x": 1}, f.Context)

	f = newFailure(&AssertionError{Message: "boom", Expected: 1, Actual: 2, Context: map[string]any{"y": 2}}, tc)
	assert.Equal(t, types.OutcomeAssertion, f.Outcome)
	assert.Equal(t, 1, f.Expected)
	assert.Equal(t, 2, f.Actual)
	assert.Equal(t, map[string]any{"y": 2}, f.Context)

	f = newFailure(&PanicError{Value: errors.New("inner"), Stack: []byte("stack")}, nil)
	assert.Equal(t, "panic: inner", f.Message)
	assert.Equal(t, "stack", f.Stack)
	assert.Nil(t, f.Context)
}

func TestErrorMessages(t *testing.T) {
	inner := errors.New("inner")
	assert.Equal(t, "slow timed out after 1.5s", (&TimeoutError{Name: "slow", Timeout: 1500 * time.Millisecond}).Error())
	assert.ErrorIs(t, &PanicError{Value: inner}, inner)
	assert.ErrorIs(t, &HookError{Hook: HookAfter, Suite: "s", Err: inner}, inner)
	assert.Equal(t, `after hook of "s" failed: inner`, (&HookError{Hook: HookAfter, Suite: "s", Err: inner}).Error())
}

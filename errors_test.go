package runrun

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-runrun/types"
)

func TestRuntimeError(t *testing.T) {
	cause := errors.New("address in use")
	err := NewRuntimeError("service", cause)
	assert.Equal(t, "runtime error during service: address in use", err.Error())
	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("starting: %w", err)
	assert.True(t, IsRuntimeError(wrapped))
	assert.False(t, IsTestFailureError(wrapped))

	assert.Equal(t, "runtime error: address in use", NewRuntimeError("", cause).Error())
}

func TestTestFailureError(t *testing.T) {
	res := runCatalog(t)

	err := NewTestFailureError(res)
	assert.Equal(t, "formatter", err.Title)
	assert.Equal(t, res.RunID, err.RunID)
	assert.Equal(t, res.Totals, err.Totals)
	assert.Equal(t, []string{"Math/2+2=5"}, err.Failed)
	assert.Equal(t, "test failure: formatter: 1 of 6 executed tests failed: Math/2+2=5", err.Error())

	assert.True(t, IsTestFailureError(fmt.Errorf("run: %w", err)))
	assert.False(t, IsRuntimeError(err))
}

func TestTestFailureError_HookFailures(t *testing.T) {
	res := &types.TestRunResult{
		Title: "hooks",
		SuiteResult: &types.SuiteResult{
			HookFailure: &types.Failure{Message: "root setup", Outcome: types.OutcomeException},
			Totals:      types.Totals{Skipped: 1},
			Results: []types.Result{
				&types.SuiteResult{
					Name:        "db",
					Path:        []string{"db"},
					HookFailure: &types.Failure{Message: "teardown", Outcome: types.OutcomeException},
				},
			},
		},
	}

	err := NewTestFailureError(res)
	require.Len(t, err.Failed, 2)
	assert.Equal(t, "hooks (hook)", err.Failed[0])
	assert.Equal(t, "db (hook)", err.Failed[1])
	assert.Contains(t, err.Error(), "0 of 0 executed tests failed")
}

package metrics

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/ethereum-optimism/infra/op-runrun/types"
)

func TestErrToLabel(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{
			name: "nil error",
			err:  nil,
		},
		{
			name: "simple error",
			err:  errors.New("test error"),
		},
		{
			name: "error with special chars",
			err:  errors.New("test@error#123"),
		},
		{
			name: "error with multiple spaces",
			err:  errors.New("test   error"),
		},
	}

	validLabelRegex := regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := errToLabel(tt.err)
			assert.Regexp(t, validLabelRegex, result)
		})
	}
}

func TestRecordErrorDetails(t *testing.T) {
	before := testutil.ToFloat64(errorsTotal.WithLabelValues("declaration.boom"))
	RecordErrorDetails("declaration", errors.New("boom"))
	RecordErrorDetails("declaration", nil)
	assert.Equal(t, before+1, testutil.ToFloat64(errorsTotal.WithLabelValues("declaration.boom")))
}

func TestRecordTest(t *testing.T) {
	success := testsTotal.WithLabelValues(string(types.OutcomeSuccess))
	skipped := testsTotal.WithLabelValues(string(types.OutcomeSkipped))
	beforeSuccess := testutil.ToFloat64(success)
	beforeSkipped := testutil.ToFloat64(skipped)

	RecordTest(types.OutcomeSuccess, 20*time.Millisecond)
	RecordTest(types.OutcomeSkipped, 0)
	RecordTest(types.Outcome("pending"), 0)

	assert.Equal(t, beforeSuccess+1, testutil.ToFloat64(success))
	assert.Equal(t, beforeSkipped+1, testutil.ToFloat64(skipped))
}

func TestRecordHookFailureAndTimeout(t *testing.T) {
	hook := hookFailuresTotal.WithLabelValues("before")
	beforeHook := testutil.ToFloat64(hook)
	beforeTimeouts := testutil.ToFloat64(timeoutsTotal)

	RecordHookFailure("before")
	RecordTimeout()

	assert.Equal(t, beforeHook+1, testutil.ToFloat64(hook))
	assert.Equal(t, beforeTimeouts+1, testutil.ToFloat64(timeoutsTotal))
}

func TestRecordRun(t *testing.T) {
	totals := types.Totals{Executed: 3, Succeeded: 2, Failed: 1, Skipped: 4}
	RecordRun("metrics-test", string(types.VerdictFail), totals, 1500*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(runResults.WithLabelValues("metrics-test", "fail")))
	assert.Equal(t, 0.0, testutil.ToFloat64(runResults.WithLabelValues("metrics-test", "pass")))
	assert.Equal(t, 3.0, testutil.ToFloat64(runTests.WithLabelValues("metrics-test", "executed")))
	assert.Equal(t, 4.0, testutil.ToFloat64(runTests.WithLabelValues("metrics-test", "skipped")))
	assert.Equal(t, 1.5, testutil.ToFloat64(runDuration.WithLabelValues("metrics-test")))

	RecordRun("metrics-test", string(types.VerdictPass), types.Totals{Executed: 1, Succeeded: 1}, time.Second)
	assert.Equal(t, 0.0, testutil.ToFloat64(runResults.WithLabelValues("metrics-test", "fail")))
	assert.Equal(t, 1.0, testutil.ToFloat64(runResults.WithLabelValues("metrics-test", "pass")))
	assert.Equal(t, 2.0, testutil.ToFloat64(runsTotal.WithLabelValues("metrics-test")))
}

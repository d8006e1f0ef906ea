package runrun

import (
	"bytes"
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-runrun/catalog"
	"github.com/ethereum-optimism/infra/op-runrun/runner"
	"github.com/ethereum-optimism/infra/op-runrun/types"
)

func runCatalog(t *testing.T) *types.TestRunResult {
	t.Helper()
	rn, err := runner.New(runner.Config{
		Log:         log.NewLogger(log.DiscardHandler()),
		Title:       "formatter",
		Chronometer: true,
	})
	require.NoError(t, err)
	for _, def := range catalog.All {
		_, err := rn.Describe(def.Name, def.Define, def.Options...)
		require.NoError(t, err)
	}
	res, err := rn.Run(context.Background())
	require.NoError(t, err)
	return res
}

func TestConsoleResultFormatter(t *testing.T) {
	res := runCatalog(t)

	var buf bytes.Buffer
	f := NewConsoleResultFormatter(log.NewLogger(log.DiscardHandler()), &buf)
	require.NoError(t, f.FormatResults(res))

	out := buf.String()
	assert.Contains(t, out, "├── Math")
	assert.Contains(t, out, "└── Square Class")
	assert.Contains(t, out, "├── 2+2=4")
	assert.Contains(t, out, "2+2 should be 5 (expected 5, actual 4)")
	assert.Contains(t, out, "Strings")
	assert.Contains(t, out, "splitIntoQuarters")
	assert.Contains(t, out, "TOTAL")
	assert.Contains(t, out, "Failures:\n└── Math/2+2=5 [failure-assertion]\n    ↳ 2+2 should be 5\n    ↳ expected: 5, actual: 4\n")
}

func TestConsoleResultFormatter_NoFailureDetailsWhenPassing(t *testing.T) {
	rn, err := runner.New(runner.Config{Log: log.NewLogger(log.DiscardHandler()), Title: "green"})
	require.NoError(t, err)
	_, err = rn.Describe("ok", func(s *runner.Scope) {
		s.It("passes", func(ctx context.Context, tc *runner.Context) error { return nil })
	})
	require.NoError(t, err)
	res, err := rn.Run(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewConsoleResultFormatter(log.NewLogger(log.DiscardHandler()), &buf).FormatResults(res))
	assert.NotContains(t, buf.String(), "Failures:")
	assert.Contains(t, buf.String(), "passes")
}

func TestConsoleResultFormatter_NilResult(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleResultFormatter(log.NewLogger(log.DiscardHandler()), &buf)
	require.Error(t, f.FormatResults(nil))
	require.Error(t, f.FormatResults(&types.TestRunResult{}))
}

func TestFailureMessage(t *testing.T) {
	assert.Equal(t, "", failureMessage(nil))
	assert.Equal(t, "first line", failureMessage(&types.Failure{Message: "  first line\nsecond line"}))
	assert.Equal(t, "bad (expected 1, actual 2)", failureMessage(&types.Failure{Message: "bad", Expected: 1, Actual: 2}))
}

func TestOutcomeStrings(t *testing.T) {
	assert.Equal(t, "✓ pass", getOutcomeString(types.OutcomeSuccess))
	assert.Equal(t, "✗ fail", getOutcomeString(types.OutcomeAssertion))
	assert.Equal(t, "✗ error", getOutcomeString(types.OutcomeException))
	assert.Equal(t, "- skip", getOutcomeString(types.OutcomeSkipped))
	assert.Equal(t, "✗ fail", getVerdictString(types.VerdictFail))
	assert.Equal(t, 1, boolToInt(true))
	assert.Equal(t, 0, boolToInt(false))
}

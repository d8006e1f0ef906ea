package runrun

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/infra/op-runrun/types"
	"github.com/ethereum-optimism/infra/op-runrun/ui"
)

// ResultFormatter is responsible for formatting and displaying test results.
type ResultFormatter interface {
	FormatResults(result *types.TestRunResult) error
}

// ConsoleResultFormatter renders the result tree as a table
type ConsoleResultFormatter struct {
	logger log.Logger
	out    io.Writer
}

func NewConsoleResultFormatter(logger log.Logger, out io.Writer) *ConsoleResultFormatter {
	return &ConsoleResultFormatter{
		logger: logger,
		out:    out,
	}
}

// FormatResults formats and displays the test results.
func (f *ConsoleResultFormatter) FormatResults(result *types.TestRunResult) error {
	if result == nil || result.SuiteResult == nil {
		return fmt.Errorf("no result to format")
	}
	f.logger.Debug("Printing results...", "runID", result.RunID)

	t := table.NewWriter()
	t.SetOutputMirror(f.out)
	t.SetTitle(fmt.Sprintf("Test Run Results: %s (%s)", result.Title, formatDuration(result.WallClock())))

	t.AppendHeader(table.Row{
		"Type", "Name", "Duration", "Tests", "Passed", "Failed", "Skipped", "Status", "Error",
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Type", AutoMerge: true},
		{Name: "Name", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Tests", Align: text.AlignRight},
		{Name: "Passed", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
		{Name: "Skipped", Align: text.AlignRight},
		{Name: "Error", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})

	appendRows(t, result.SuiteResult, 0, nil)

	switch result.Verdict() {
	case types.VerdictPass:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	case types.VerdictSkip:
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}

	totals := result.Totals
	t.AppendFooter(table.Row{
		"TOTAL",
		fmt.Sprintf("%.1f%% passed", totals.PassPercent()),
		formatDuration(result.WallClock()),
		totals.Registered(),
		totals.Succeeded,
		totals.Failed,
		totals.Skipped,
		getVerdictString(result.Verdict()),
		"",
	})

	t.Render()
	return f.writeFailureDetails(result.FailedTests())
}

// writeFailureDetails lists every failed test with its complete, possibly multi-line, message
func (f *ConsoleResultFormatter) writeFailureDetails(failed []*types.TestResult) error {
	if len(failed) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString("Failures:\n")
	for i, t := range failed {
		isLast := i == len(failed)-1
		b.WriteString(fmt.Sprintf("%s%s [%s]\n", ui.BuildTreePrefix(1, isLast, nil), t.FullPath(), t.Outcome))
		if t.Failure == nil {
			continue
		}
		indent := ui.BuildContinuation(1, []bool{isLast})
		for _, line := range strings.Split(strings.TrimSpace(t.Failure.Message), "\n") {
			b.WriteString(indent + ui.TreeDetail + line + "\n")
		}
		if t.Failure.Expected != nil || t.Failure.Actual != nil {
			b.WriteString(fmt.Sprintf("%s%sexpected: %v, actual: %v\n", indent, ui.TreeDetail, t.Failure.Expected, t.Failure.Actual))
		}
	}
	_, err := io.WriteString(f.out, b.String())
	return err
}

func appendRows(t table.Writer, s *types.SuiteResult, depth int, parentIsLast []bool) {
	for i, r := range s.Results {
		isLast := i == len(s.Results)-1
		prefix := ui.BuildTreePrefix(depth+1, isLast, parentIsLast)

		switch r := r.(type) {
		case *types.SuiteResult:
			t.AppendRow(table.Row{
				"Suite",
				prefix + r.Name,
				formatDuration(r.Duration),
				r.Totals.Registered(),
				r.Totals.Succeeded,
				r.Totals.Failed,
				r.Totals.Skipped,
				getVerdictString(r.Verdict()),
				failureMessage(r.HookFailure),
			})
			appendRows(t, r, depth+1, append(slices.Clone(parentIsLast), isLast))
			if depth == 0 {
				t.AppendSeparator()
			}
		case *types.TestResult:
			t.AppendRow(table.Row{
				"Test",
				prefix + r.Name,
				formatDuration(r.Duration),
				1,
				boolToInt(r.Outcome == types.OutcomeSuccess),
				boolToInt(r.Outcome.IsFailure()),
				boolToInt(r.Outcome == types.OutcomeSkipped),
				getOutcomeString(r.Outcome),
				failureMessage(r.Failure),
			})
		}
	}
}

// failureMessage keeps the first line of a failure, testify messages span many
func failureMessage(f *types.Failure) string {
	if f == nil {
		return ""
	}
	msg := strings.TrimSpace(f.Message)
	if first, _, found := strings.Cut(msg, "\n"); found {
		msg = strings.TrimSpace(first)
	}
	if f.Expected != nil || f.Actual != nil {
		msg = fmt.Sprintf("%s (expected %v, actual %v)", msg, f.Expected, f.Actual)
	}
	return msg
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func getVerdictString(v types.Verdict) string {
	switch v {
	case types.VerdictPass:
		return "✓ pass"
	case types.VerdictSkip:
		return "- skip"
	default:
		return "✗ fail"
	}
}

func getOutcomeString(o types.Outcome) string {
	switch o {
	case types.OutcomeSuccess:
		return "✓ pass"
	case types.OutcomeSkipped:
		return "- skip"
	case types.OutcomeAssertion:
		return "✗ fail"
	default:
		return "✗ error"
	}
}

// Helper function to format duration to seconds with 1 decimal place
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}

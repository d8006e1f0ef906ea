package types

import (
	"fmt"
	"strings"
	"time"
)

// SuiteStatus is the terminal state of a suite run
type SuiteStatus string

const (
	SuiteStatusCompleted SuiteStatus = "completed"
	SuiteStatusSkipped   SuiteStatus = "skipped"
)

// Verdict is a display summary of a result tree. It is derived from the totals and
// is never stored.
type Verdict string

const (
	VerdictPass Verdict = "pass"
	VerdictFail Verdict = "fail"
	VerdictSkip Verdict = "skip"
)

// SuiteResult captures the aggregated outcome of a suite.
// Results always follow declaration order, whatever the execution order was.
type SuiteResult struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Type        NodeType      `json:"type"`
	Scope       string        `json:"scope,omitempty"` // identifier of the parent suite, empty for the root
	Path        []string      `json:"path"`
	Status      SuiteStatus   `json:"status"`
	Results     []Result      `json:"results"`
	Totals      Totals        `json:"totals"`
	HookFailure *Failure      `json:"hookFailure,omitempty"`
	Start       time.Time     `json:"start"`
	End         time.Time     `json:"end"`
	Duration    time.Duration `json:"duration"`
}

func (s *SuiteResult) ResultName() string { return s.Name }

// HasFailure reports whether any test below the suite failed or any hook of the
// suite, or of a nested suite, failed.
func (s *SuiteResult) HasFailure() bool {
	if s.Totals.Failed > 0 || s.HookFailure != nil {
		return true
	}
	for _, r := range s.Results {
		if r.HasFailure() {
			return true
		}
	}
	return false
}

func (*SuiteResult) isResult() {}

// FullPath returns the hierarchical path joined with "/"
func (s *SuiteResult) FullPath() string {
	return strings.Join(s.Path, "/")
}

// Verdict summarises the suite: fail on any failure, skip when nothing executed, pass otherwise
func (s *SuiteResult) Verdict() Verdict {
	switch {
	case s.HasFailure():
		return VerdictFail
	case s.Totals.Executed == 0:
		return VerdictSkip
	default:
		return VerdictPass
	}
}

// Tests returns the direct test results of the suite
func (s *SuiteResult) Tests() []*TestResult {
	var tests []*TestResult
	for _, r := range s.Results {
		if t, ok := r.(*TestResult); ok {
			tests = append(tests, t)
		}
	}
	return tests
}

// Suites returns the direct child suite results
func (s *SuiteResult) Suites() []*SuiteResult {
	var suites []*SuiteResult
	for _, r := range s.Results {
		if c, ok := r.(*SuiteResult); ok {
			suites = append(suites, c)
		}
	}
	return suites
}

// Walk visits every entry below the suite depth-first in declaration order.
// Returning false from fn stops the descent into that entry.
func (s *SuiteResult) Walk(fn func(r Result, depth int) bool) {
	s.walk(fn, 0)
}

func (s *SuiteResult) walk(fn func(r Result, depth int) bool, depth int) {
	for _, r := range s.Results {
		if !fn(r, depth) {
			continue
		}
		if c, ok := r.(*SuiteResult); ok {
			c.walk(fn, depth+1)
		}
	}
}

// AllTests returns every test result below the suite in declaration order
func (s *SuiteResult) AllTests() []*TestResult {
	var tests []*TestResult
	s.Walk(func(r Result, _ int) bool {
		if t, ok := r.(*TestResult); ok {
			tests = append(tests, t)
		}
		return true
	})
	return tests
}

// FailedTests returns every failed test result below the suite
func (s *SuiteResult) FailedTests() []*TestResult {
	var failed []*TestResult
	for _, t := range s.AllTests() {
		if t.Outcome.IsFailure() {
			failed = append(failed, t)
		}
	}
	return failed
}

// Find looks up an entry by the names below this suite, e.g. Find("Strings", "concat")
func (s *SuiteResult) Find(names ...string) Result {
	if len(names) == 0 {
		return nil
	}
	for _, r := range s.Results {
		if r.ResultName() != names[0] {
			continue
		}
		if len(names) == 1 {
			return r
		}
		if c, ok := r.(*SuiteResult); ok {
			if found := c.Find(names[1:]...); found != nil {
				return found
			}
		}
	}
	return nil
}

// TestRunResult wraps the root suite result with run metadata
type TestRunResult struct {
	*SuiteResult
	Title      string    `json:"title"`
	Root       bool      `json:"root"`
	RunID      string    `json:"runId"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// WallClock returns the wall-clock duration of the run
func (r *TestRunResult) WallClock() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// String returns a short multi-line summary of the run
func (r *TestRunResult) String() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Test Run Results: %s (%s)\n", r.Title, formatDuration(r.WallClock())))
	b.WriteString(fmt.Sprintf("Executed: %d, Succeeded: %d, Failed: %d, Skipped: %d\n",
		r.Totals.Executed, r.Totals.Succeeded, r.Totals.Failed, r.Totals.Skipped))
	for _, t := range r.FailedTests() {
		b.WriteString(fmt.Sprintf("└── %s [%s]", t.FullPath(), t.Outcome))
		if t.Failure != nil && t.Failure.Message != "" {
			b.WriteString(": " + t.Failure.Message)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}

package types

import (
	"errors"
	"fmt"
)

// Totals tracks unit statistics at each level of the tree.
// Only test units are counted; suites never count as a test.
// Skipped units are not executed: Executed == Succeeded + Failed.
type Totals struct {
	Executed  int `json:"executed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// Record counts a single unit outcome
func (t *Totals) Record(o Outcome) {
	switch o {
	case OutcomeSuccess:
		t.Executed++
		t.Succeeded++
	case OutcomeAssertion, OutcomeException:
		t.Executed++
		t.Failed++
	case OutcomeSkipped:
		t.Skipped++
	}
}

// Add merges other into t
func (t *Totals) Add(other Totals) {
	t.Executed += other.Executed
	t.Succeeded += other.Succeeded
	t.Failed += other.Failed
	t.Skipped += other.Skipped
}

// Registered returns the number of units counted, executed or not
func (t Totals) Registered() int {
	return t.Executed + t.Skipped
}

// PassPercent returns the share of executed units that succeeded, in percent
func (t Totals) PassPercent() float64 {
	if t.Executed == 0 {
		return 0
	}
	return float64(t.Succeeded) / float64(t.Executed) * 100
}

// Validate checks the internal consistency of the counters
func (t Totals) Validate() error {
	if t.Executed < 0 || t.Succeeded < 0 || t.Failed < 0 || t.Skipped < 0 {
		return fmt.Errorf("negative totals: %+v", t)
	}
	if t.Executed != t.Succeeded+t.Failed {
		return fmt.Errorf("executed %d != succeeded %d + failed %d", t.Executed, t.Succeeded, t.Failed)
	}
	return nil
}

// Aggregate sums the direct test outcomes and the child suite totals of results
func Aggregate(results []Result) Totals {
	var totals Totals
	for _, r := range results {
		switch r := r.(type) {
		case *TestResult:
			totals.Record(r.Outcome)
		case *SuiteResult:
			totals.Add(r.Totals)
		}
	}
	return totals
}

// Validate checks recursively that every suite's totals are consistent and equal
// the exact sum of its children.
func (s *SuiteResult) Validate() error {
	var errs []error
	if err := s.Totals.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("suite %q: %w", s.FullPath(), err))
	}
	if sum := Aggregate(s.Results); sum != s.Totals {
		errs = append(errs, fmt.Errorf("suite %q: totals %+v do not match children %+v", s.FullPath(), s.Totals, sum))
	}
	for _, r := range s.Results {
		switch r := r.(type) {
		case *SuiteResult:
			if err := r.Validate(); err != nil {
				errs = append(errs, err)
			}
		case *TestResult:
			if !r.Outcome.IsValid() {
				errs = append(errs, fmt.Errorf("test %q: invalid outcome %q", r.FullPath(), r.Outcome))
			}
		case nil:
			errs = append(errs, fmt.Errorf("suite %q: missing result", s.FullPath()))
		}
	}
	return errors.Join(errs...)
}

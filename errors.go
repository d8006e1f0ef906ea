package runrun

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum-optimism/infra/op-runrun/types"
)

// RuntimeError means a run could not happen at all (exit code 2): a bad plan,
// an unknown suite, an invalid test tree or a service that cannot bind.
type RuntimeError struct {
	Stage string // config, declare, run, service or list
	Err   error
}

func (e *RuntimeError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("runtime error: %v", e.Err)
	}
	return fmt.Sprintf("runtime error during %s: %v", e.Stage, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func NewRuntimeError(stage string, err error) *RuntimeError {
	return &RuntimeError{Stage: stage, Err: err}
}

// IsRuntimeError checks if the error is or wraps a RuntimeError
func IsRuntimeError(err error) bool {
	var runtimeErr *RuntimeError
	return errors.As(err, &runtimeErr)
}

// TestFailureError reports a completed run with failed tests or hooks (exit code 1)
type TestFailureError struct {
	Title  string
	RunID  string
	Totals types.Totals
	Failed []string // paths of failed tests, and of suites whose hooks failed
}

// NewTestFailureError summarises the failures of res
func NewTestFailureError(res *types.TestRunResult) *TestFailureError {
	e := &TestFailureError{
		Title:  res.Title,
		RunID:  res.RunID,
		Totals: res.Totals,
	}
	if res.SuiteResult == nil {
		return e
	}
	if res.HookFailure != nil {
		e.Failed = append(e.Failed, res.Title+" (hook)")
	}
	res.Walk(func(r types.Result, _ int) bool {
		switch r := r.(type) {
		case *types.TestResult:
			if r.Outcome.IsFailure() {
				e.Failed = append(e.Failed, r.FullPath())
			}
		case *types.SuiteResult:
			if r.HookFailure != nil {
				e.Failed = append(e.Failed, r.FullPath()+" (hook)")
			}
		}
		return true
	})
	return e
}

func (e *TestFailureError) Error() string {
	return fmt.Sprintf("test failure: %s: %d of %d executed tests failed: %s",
		e.Title, e.Totals.Failed, e.Totals.Executed, strings.Join(e.Failed, ", "))
}

// IsTestFailureError checks if the error is or wraps a TestFailureError
func IsTestFailureError(err error) bool {
	var testErr *TestFailureError
	return errors.As(err, &testErr)
}

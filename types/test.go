package types

import (
	"strings"
	"time"
)

// Outcome represents the possible outcomes of a single test unit run
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeAssertion Outcome = "failure-assertion" // raised through the fail contract
	OutcomeException Outcome = "failure-exception" // any other error, panic, timeout or hook failure
	OutcomeSkipped   Outcome = "skipped"
)

// IsFailure reports whether the outcome is one of the failure outcomes
func (o Outcome) IsFailure() bool {
	return o == OutcomeAssertion || o == OutcomeException
}

// IsValid reports whether o is a known outcome
func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeSuccess, OutcomeAssertion, OutcomeException, OutcomeSkipped:
		return true
	}
	return false
}

// NodeType distinguishes test and suite entries in a result tree
type NodeType string

const (
	NodeTypeTest  NodeType = "test"
	NodeTypeSuite NodeType = "suite"
)

// Failure carries the details of a failed test, or of a failed suite hook.
// Context is a snapshot of the execution context without engine bindings.
// Hook failures always carry OutcomeException.
type Failure struct {
	Message  string         `json:"message"`
	Outcome  Outcome        `json:"outcome,omitempty"`
	Expected any            `json:"expected,omitempty"`
	Actual   any            `json:"actual,omitempty"`
	Context  map[string]any `json:"context,omitempty"`
	Stack    string         `json:"stack,omitempty"`
}

// Result is an entry in a suite's ordered result list: either a *TestResult or a *SuiteResult
type Result interface {
	// ResultName returns the declared name of the test or suite
	ResultName() string
	// HasFailure reports whether the entry, or anything below it, failed
	HasFailure() bool

	isResult()
}

var (
	_ Result = (*TestResult)(nil)
	_ Result = (*SuiteResult)(nil)
)

// TestResult captures the outcome of a single test unit run
type TestResult struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Type     NodeType      `json:"type"`
	Scope    string        `json:"scope"` // identifier of the owning suite
	Path     []string      `json:"path"`  // suite names from the root down to this test, inclusive
	Outcome  Outcome       `json:"outcome"`
	Failure  *Failure      `json:"failure,omitempty"`
	Start    time.Time     `json:"start"`
	End      time.Time     `json:"end"`
	Duration time.Duration `json:"duration"`
}

func (r *TestResult) ResultName() string { return r.Name }

func (r *TestResult) HasFailure() bool { return r.Outcome.IsFailure() }

func (*TestResult) isResult() {}

// FullPath returns the hierarchical path joined with "/"
func (r *TestResult) FullPath() string {
	return strings.Join(r.Path, "/")
}

package runner

import (
	"errors"
	"fmt"
	"time"

	"github.com/acarl005/stripansi"

	"github.com/ethereum-optimism/infra/op-runrun/types"
)

var (
	// ErrNoActiveSuite is returned when a test or hook is declared outside of any Describe
	ErrNoActiveSuite = errors.New("must be called inside a describe()")
	// ErrHookAlreadySet is returned when the same hook is declared twice on a suite
	ErrHookAlreadySet = errors.New("hook already set")
	// ErrDeclarationClosed is returned when a scope is used after its definition returned
	ErrDeclarationClosed = errors.New("declaration scope is closed")
	// ErrAlreadyRun is returned by a second call to Runner.Run
	ErrAlreadyRun = errors.New("runner has already run")
	// ErrReservedBinding is returned when a context value would shadow an engine binding
	ErrReservedBinding = errors.New("reserved context binding")
	// ErrContextFrozen is returned when a suite context is mutated during the run phase
	ErrContextFrozen = errors.New("context is frozen")
	// ErrInvalidModifier is returned for modifiers that do not apply to the declared node
	ErrInvalidModifier = errors.New("invalid modifier")
)

// AssertionError is raised through the fail binding of a Context.
// It is the only error that produces a failure-assertion outcome.
type AssertionError struct {
	Message  string
	Expected any
	Actual   any
	Context  map[string]any
}

func (e *AssertionError) Error() string {
	return e.Message
}

// TimeoutError is recorded when a body or hook does not complete in time
type TimeoutError struct {
	Name    string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %v", e.Name, e.Timeout)
}

// PanicError wraps a value recovered from a panicking body
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// HookError wraps the failure of a suite hook
type HookError struct {
	Hook  HookKind
	Suite string
	Err   error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("%s hook of %q failed: %v", e.Hook, e.Suite, e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}

// outcomeFor classifies a body error. Hook failures are exceptions even when the
// hook itself called fail.
func outcomeFor(err error) types.Outcome {
	if err == nil {
		return types.OutcomeSuccess
	}
	var hookErr *HookError
	if errors.As(err, &hookErr) {
		return types.OutcomeException
	}
	var assertErr *AssertionError
	if errors.As(err, &assertErr) {
		return types.OutcomeAssertion
	}
	return types.OutcomeException
}

// newFailure converts err into failure details. The context snapshot of tc is used
// unless the assertion carried its own.
func newFailure(err error, tc *Context) *types.Failure {
	f := &types.Failure{
		Message: stripansi.Strip(err.Error()),
		Outcome: outcomeFor(err),
	}

	var assertErr *AssertionError
	if errors.As(err, &assertErr) {
		f.Expected = assertErr.Expected
		f.Actual = assertErr.Actual
		f.Context = assertErr.Context
	}
	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		f.Stack = string(panicErr.Stack)
	}
	if f.Context == nil && tc != nil {
		f.Context = tc.Snapshot()
	}
	if len(f.Context) == 0 {
		f.Context = nil
	}
	return f
}

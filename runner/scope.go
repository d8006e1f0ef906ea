package runner

import (
	"fmt"
	"sync/atomic"
)

// Scope is handed to a suite definition. It declares the children, hooks and
// context values of that suite and is closed once the definition returns.
type Scope struct {
	runner *Runner
	suite  *Suite
	closed atomic.Bool
}

// Suite returns the suite being defined
func (sc *Scope) Suite() *Suite {
	return sc.suite
}

// Describe declares a nested suite and runs def immediately
func (sc *Scope) Describe(name string, def func(s *Scope), opts ...Option) (*Suite, error) {
	if err := sc.check(); err != nil {
		return nil, sc.runner.record(err)
	}
	return sc.runner.describe(sc, name, def, opts)
}

// It declares a test in the suite
func (sc *Scope) It(name string, body Body, opts ...Option) (*Unit, error) {
	if err := sc.check(); err != nil {
		return nil, sc.runner.record(err)
	}
	return sc.runner.it(sc, name, body, opts)
}

// Before sets the hook run once before the children of the suite
func (sc *Scope) Before(h Body) error { return sc.setHook(HookBefore, h) }

// After sets the hook run once after the children of the suite, even when they failed
func (sc *Scope) After(h Body) error { return sc.setHook(HookAfter, h) }

// BeforeEach sets the hook run before every direct test of the suite
func (sc *Scope) BeforeEach(h Body) error { return sc.setHook(HookBeforeEach, h) }

// AfterEach sets the hook run after every direct test of the suite
func (sc *Scope) AfterEach(h Body) error { return sc.setHook(HookAfterEach, h) }

// Set stores a value in the suite context. Nested suites declared afterwards and
// every test of the suite see it; siblings never do.
func (sc *Scope) Set(name string, value any) error {
	if err := sc.check(); err != nil {
		return sc.runner.record(err)
	}
	if err := sc.suite.ctx.Set(name, value); err != nil {
		return sc.runner.record(err)
	}
	return nil
}

// Get reads a value from the suite context
func (sc *Scope) Get(name string) (any, bool) {
	return sc.suite.ctx.Get(name)
}

func (sc *Scope) setHook(kind HookKind, h Body) error {
	if err := sc.check(); err != nil {
		return sc.runner.record(err)
	}
	if err := sc.suite.setHook(kind, h); err != nil {
		return sc.runner.record(err)
	}
	return nil
}

func (sc *Scope) check() error {
	if sc.closed.Load() {
		return fmt.Errorf("%w: %q", ErrDeclarationClosed, sc.suite.name)
	}
	return nil
}

// scopeStack tracks the definitions currently executing, innermost last
type scopeStack struct {
	scopes []*Scope
}

func (st *scopeStack) push(sc *Scope) {
	st.scopes = append(st.scopes, sc)
}

func (st *scopeStack) pop() *Scope {
	if len(st.scopes) == 0 {
		return nil
	}
	sc := st.scopes[len(st.scopes)-1]
	st.scopes = st.scopes[:len(st.scopes)-1]
	return sc
}

func (st *scopeStack) top() *Scope {
	if len(st.scopes) == 0 {
		return nil
	}
	return st.scopes[len(st.scopes)-1]
}

func (st *scopeStack) depth() int {
	return len(st.scopes)
}

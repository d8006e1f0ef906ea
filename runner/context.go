package runner

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/huandu/go-clone"
)

// Engine bindings. They are resolved by Get but never stored with user values,
// so they never show up in a Snapshot.
const (
	BindingFail  = "fail"
	BindingSuite = "suite"
	BindingTest  = "test"
)

var reservedBindings = []string{BindingFail, BindingSuite, BindingTest}

// Cloner is implemented by context values that need their own deep copy
type Cloner interface {
	Clone() any
}

// Details carries the expected and actual values of a failed assertion
type Details struct {
	Expected any
	Actual   any
}

// FailFunc is the value of the fail binding
type FailFunc func(message string, details ...Details)

// Context holds the named values visible to a running body.
//
// Every suite owns a Context derived from its parent when the suite is declared,
// and every test run gets a fresh derivative of its suite's Context. Derivation
// deep-copies container values, so mutations never leak to parents or siblings.
// Context also implements the testify TestingT interfaces.
type Context struct {
	mu     sync.RWMutex
	values map[string]any
	frozen bool

	suite *Suite
	unit  *Unit

	errs []string
}

// NewContext returns an independent Context holding every value of parent plus
// overrides. Overrides win; reserved names are ignored.
func NewContext(parent *Context, overrides map[string]any) *Context {
	c := &Context{values: make(map[string]any)}
	if parent != nil {
		parent.mu.RLock()
		for k, v := range parent.values {
			c.values[k] = cloneValue(v)
		}
		c.suite = parent.suite
		parent.mu.RUnlock()
	}
	for k, v := range overrides {
		if isReserved(k) {
			continue
		}
		c.values[k] = cloneValue(v)
	}
	return c
}

// derive returns a fresh, unfrozen per-run Context bound to s and u
func (c *Context) derive(s *Suite, u *Unit) *Context {
	d := NewContext(c, nil)
	d.suite = s
	d.unit = u
	return d
}

// Get resolves name against the engine bindings first, then the user values
func (c *Context) Get(name string) (any, bool) {
	switch name {
	case BindingFail:
		return FailFunc(c.Fail), true
	case BindingSuite:
		if c.suite == nil {
			return nil, false
		}
		return c.suite, true
	case BindingTest:
		if c.unit == nil {
			return nil, false
		}
		return c.unit, true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[name]
	return v, ok
}

// Value is Get without the presence flag
func (c *Context) Value(name string) any {
	v, _ := c.Get(name)
	return v
}

// Set stores a value. Engine bindings cannot be overwritten and suite contexts
// are read-only once the run started.
func (c *Context) Set(name string, value any) error {
	if isReserved(name) {
		return fmt.Errorf("%w: %q", ErrReservedBinding, name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen {
		return fmt.Errorf("%w: cannot set %q", ErrContextFrozen, name)
	}
	c.values[name] = value
	return nil
}

// Keys returns the sorted names of the user values
func (c *Context) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Snapshot returns a deep copy of the user values, without engine bindings
func (c *Context) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := make(map[string]any, len(c.values))
	for k, v := range c.values {
		snap[k] = cloneValue(v)
	}
	return snap
}

// Suite returns the suite the context belongs to
func (c *Context) Suite() *Suite {
	return c.suite
}

// Unit returns the running test, nil inside suite hooks
func (c *Context) Unit() *Unit {
	return c.unit
}

// Fail aborts the running body with a failure-assertion outcome. It never returns.
func (c *Context) Fail(message string, details ...Details) {
	err := &AssertionError{
		Message: message,
		Context: c.Snapshot(),
	}
	if len(details) > 0 {
		err.Expected = details[0].Expected
		err.Actual = details[0].Actual
	}
	panic(err)
}

// Errorf records an assertion failure without aborting the body
func (c *Context) Errorf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// FailNow aborts the running body with the failures recorded by Errorf
func (c *Context) FailNow() {
	err := c.recordedFailure()
	if err == nil {
		err = &AssertionError{Message: "FailNow called", Context: c.Snapshot()}
	}
	panic(err)
}

func (c *Context) Helper() {}

// Failed reports whether Errorf was called
func (c *Context) Failed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.errs) > 0
}

func (c *Context) recordedFailure() *AssertionError {
	c.mu.RLock()
	msgs := slices.Clone(c.errs)
	c.mu.RUnlock()
	if len(msgs) == 0 {
		return nil
	}
	return &AssertionError{Message: strings.Join(msgs, "\n"), Context: c.Snapshot()}
}

func (c *Context) freeze() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frozen = true
}

// Lookup returns the value stored under name when it has type T
func Lookup[T any](c *Context, name string) (T, bool) {
	var zero T
	v, ok := c.Get(name)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

func isReserved(name string) bool {
	return slices.Contains(reservedBindings, name)
}

// cloneValue deep-copies v. Cloner values copy themselves; everything else,
// pointers and cyclic values included, goes through go-clone.
func cloneValue(v any) any {
	if c, ok := v.(Cloner); ok {
		return c.Clone()
	}
	return clone.Slowly(v)
}

package runner

import (
	"fmt"
	"time"
)

// DefaultTimeout applies to bodies and hooks when neither the node, its ancestors
// nor the runner configuration set one.
const DefaultTimeout = 5 * time.Second

// Option modifies a declared suite or test
type Option func(*modifiers) error

type modifiers struct {
	skip     bool
	timeout  time.Duration
	sequence bool
	story    bool
}

// Skip marks the node as skipped: its bodies never run and every test below it is
// recorded as skipped.
func Skip() Option {
	return func(m *modifiers) error {
		m.skip = true
		return nil
	}
}

// SkipIf is Skip when cond holds
func SkipIf(cond bool) Option {
	return func(m *modifiers) error {
		m.skip = m.skip || cond
		return nil
	}
}

// Timeout bounds the run time of every body and hook of the node.
// Nested nodes without their own timeout inherit it.
func Timeout(d time.Duration) Option {
	return func(m *modifiers) error {
		if d <= 0 {
			return fmt.Errorf("%w: timeout must be positive, got %v", ErrInvalidModifier, d)
		}
		m.timeout = d
		return nil
	}
}

// Sequence runs the children of a suite one at a time in declaration order
func Sequence() Option {
	return func(m *modifiers) error {
		m.sequence = true
		return nil
	}
}

// Story runs the children of a suite one at a time in declaration order and skips
// the remaining ones after the first failure.
func Story() Option {
	return func(m *modifiers) error {
		m.story = true
		return nil
	}
}

func applyOptions(opts []Option, forUnit bool) (modifiers, error) {
	var m modifiers
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&m); err != nil {
			return modifiers{}, err
		}
	}
	if forUnit && (m.sequence || m.story) {
		return modifiers{}, fmt.Errorf("%w: sequence and story only apply to suites", ErrInvalidModifier)
	}
	return m, nil
}

type mode int

const (
	modeConcurrent mode = iota
	modeSequence
	modeStory
)

func (m modifiers) mode() mode {
	switch {
	case m.story:
		return modeStory
	case m.sequence:
		return modeSequence
	default:
		return modeConcurrent
	}
}

func (m mode) String() string {
	switch m {
	case modeStory:
		return "story"
	case modeSequence:
		return "sequence"
	default:
		return "concurrent"
	}
}

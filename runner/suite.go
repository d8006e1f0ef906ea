package runner

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/op-runrun/metrics"
	"github.com/ethereum-optimism/infra/op-runrun/types"
)

// HookKind names one of the four suite hooks
type HookKind string

const (
	HookBefore     HookKind = "before"
	HookAfter      HookKind = "after"
	HookBeforeEach HookKind = "beforeEach"
	HookAfterEach  HookKind = "afterEach"
)

// node is a child of a suite: a *Unit or a *Suite
type node interface {
	// runIn executes the node as a child of parent
	runIn(ctx context.Context, parent *Suite) types.Result
	// skipped builds the result of a node that is never attempted
	skipped() types.Result
}

var (
	_ node = (*Unit)(nil)
	_ node = (*Suite)(nil)
)

// Suite is a named group of tests and nested suites
type Suite struct {
	id     string
	name   string
	parent *Suite
	path   []string
	mods   modifiers
	ctx    *Context
	env    *engine

	mu       sync.Mutex
	children []node
	hooks    map[HookKind]Body

	once   sync.Once
	result *types.SuiteResult
}

func (s *Suite) ID() string       { return s.id }
func (s *Suite) Name() string     { return s.name }
func (s *Suite) Parent() *Suite   { return s.parent }
func (s *Suite) Path() []string   { return slices.Clone(s.path) }
func (s *Suite) Skipped() bool    { return s.mods.skip }
func (s *Suite) FullPath() string { return joinPath(s.path) }

// Context returns the suite's own context
func (s *Suite) Context() *Context { return s.ctx }

// Mode returns how the children are scheduled: concurrent, sequence or story
func (s *Suite) Mode() string { return s.mods.mode().String() }

// Timeout returns the effective timeout of the suite's hooks and of tests that do
// not set their own.
func (s *Suite) Timeout() time.Duration {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.mods.timeout > 0 {
			return cur.mods.timeout
		}
	}
	return s.env.defaultTimeout
}

// Units returns the direct test children in declaration order
func (s *Suite) Units() []*Unit {
	s.mu.Lock()
	defer s.mu.Unlock()
	var units []*Unit
	for _, c := range s.children {
		if u, ok := c.(*Unit); ok {
			units = append(units, u)
		}
	}
	return units
}

// Suites returns the direct child suites in declaration order
func (s *Suite) Suites() []*Suite {
	s.mu.Lock()
	defer s.mu.Unlock()
	var suites []*Suite
	for _, c := range s.children {
		if child, ok := c.(*Suite); ok {
			suites = append(suites, child)
		}
	}
	return suites
}

// Result returns the recorded result, nil before the suite ran
func (s *Suite) Result() *types.SuiteResult {
	return s.result
}

func (s *Suite) addChild(n node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.children = append(s.children, n)
}

func (s *Suite) setHook(kind HookKind, h Body) error {
	if h == nil {
		return fmt.Errorf("%s hook of %q: nil body", kind, s.name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hooks[kind]; ok {
		return fmt.Errorf("%w: %s on %q", ErrHookAlreadySet, kind, s.name)
	}
	s.hooks[kind] = h
	return nil
}

func (s *Suite) hook(kind HookKind) Body {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hooks[kind]
}

// freeze makes the suite contexts of the whole subtree read-only
func (s *Suite) freeze() {
	s.ctx.freeze()
	for _, c := range s.Suites() {
		c.freeze()
	}
}

// Run executes the suite at most once and returns its result. Run never panics
// on test failures and never returns an error: every failure is part of the result.
func (s *Suite) Run(ctx context.Context) *types.SuiteResult {
	s.once.Do(func() {
		s.result = s.execute(ctx)
		metrics.RecordSuite(s.result.Status)
	})
	return s.result
}

func (s *Suite) runIn(ctx context.Context, _ *Suite) types.Result {
	return s.Run(ctx)
}

func (u *Unit) runIn(ctx context.Context, parent *Suite) types.Result {
	return u.runWith(ctx, parent.hook(HookBeforeEach), parent.hook(HookAfterEach))
}

func (s *Suite) newResult() *types.SuiteResult {
	res := &types.SuiteResult{
		ID:     s.id,
		Name:   s.name,
		Type:   types.NodeTypeSuite,
		Path:   s.Path(),
		Status: types.SuiteStatusCompleted,
	}
	if s.parent != nil {
		res.Scope = s.parent.id
	}
	return res
}

func (s *Suite) execute(ctx context.Context) *types.SuiteResult {
	log := s.env.log.New("suite", s.FullPath())
	if s.mods.skip {
		log.Debug("Skipping suite")
		return s.skippedResult()
	}
	if ctx.Err() != nil {
		log.Debug("Run cancelled, skipping suite")
		return s.skippedResult()
	}

	ctx, span := s.env.tracer.Start(ctx, fmt.Sprintf("suite %s", s.name),
		trace.WithAttributes(
			attribute.String("id", s.id),
			attribute.String("path", s.FullPath()),
			attribute.String("mode", s.Mode()),
		))
	defer span.End()

	res := s.newResult()
	watch := s.env.stopwatch()
	watch.Start()

	if before := s.hook(HookBefore); before != nil {
		if err := s.runHook(ctx, HookBefore, before); err != nil {
			res.HookFailure = newFailure(err, nil)
		}
	}

	if res.HookFailure == nil {
		res.Results = s.schedule(ctx)
	} else {
		log.Warn("Before hook failed, skipping children", "err", res.HookFailure.Message)
		res.Results = s.skippedChildren()
	}

	if after := s.hook(HookAfter); after != nil {
		if err := s.runHook(ctx, HookAfter, after); err != nil && res.HookFailure == nil {
			res.HookFailure = newFailure(err, nil)
		}
	}

	watch.Stop()
	res.Totals = types.Aggregate(res.Results)
	res.Start = watch.StartTime()
	res.End = watch.EndTime()
	res.Duration = watch.Elapsed()

	if res.HasFailure() {
		span.SetStatus(codes.Error, "suite has failures")
	}
	span.SetAttributes(
		attribute.Int("executed", res.Totals.Executed),
		attribute.Int("failed", res.Totals.Failed),
		attribute.Int("skipped", res.Totals.Skipped),
	)
	log.Debug("Suite completed", "totals", fmt.Sprintf("%+v", res.Totals), "duration", res.Duration)
	return res
}

// runHook runs a before or after hook with a fresh context derived from the suite's
func (s *Suite) runHook(ctx context.Context, kind HookKind, h Body) error {
	ctx, span := s.env.tracer.Start(ctx, fmt.Sprintf("hook %s %s", kind, s.name))
	defer span.End()

	tc := s.ctx.derive(s, nil)
	if err := s.env.call(ctx, string(kind), s.Timeout(), h, tc); err != nil {
		hookErr := &HookError{Hook: kind, Suite: s.name, Err: err}
		span.SetStatus(codes.Error, hookErr.Error())
		metrics.RecordHookFailure(string(kind))
		return hookErr
	}
	return nil
}

func joinPath(path []string) string {
	return strings.Join(path, "/")
}

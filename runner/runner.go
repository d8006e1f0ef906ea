package runner

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/ethereum-optimism/infra/op-runrun/chrono"
	"github.com/ethereum-optimism/infra/op-runrun/metrics"
	"github.com/ethereum-optimism/infra/op-runrun/types"
)

// RootName is the name of the implicit suite holding the top-level declarations
const RootName = "root"

// Config holds the runner configuration
type Config struct {
	Log            log.Logger
	Title          string
	Chronometer    bool          // record start, end and duration of tests and suites
	DefaultTimeout time.Duration // zero means DefaultTimeout, negative disables timeouts
	MaxConcurrency int           // maximum number of bodies running at once, zero for no limit
	Grep           string        // only run tests whose path matches this glob
	Clock          chrono.Clock  // defaults to time.Now
}

// Runner owns a test tree: it collects declarations and runs them once.
// Runners are independent of each other.
type Runner struct {
	log   log.Logger
	title string
	env   *engine
	clock chrono.Clock

	mu        sync.Mutex
	root      *Suite
	rootScope *Scope
	stack     scopeStack
	errs      []error
	ran       bool
}

// New creates a runner with an empty root suite
func New(cfg Config) (*Runner, error) {
	if cfg.Log == nil {
		cfg.Log = log.Root()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.MaxConcurrency < 0 {
		return nil, fmt.Errorf("max concurrency cannot be negative: %d", cfg.MaxConcurrency)
	}
	f, err := newFilter(cfg.Grep)
	if err != nil {
		return nil, err
	}

	timeout := cfg.DefaultTimeout
	switch {
	case timeout == 0:
		timeout = DefaultTimeout
	case timeout < 0:
		timeout = 0
	}

	env := &engine{
		log:            cfg.Log.New("component", "runner"),
		tracer:         otel.Tracer("runrun"),
		clock:          cfg.Clock,
		chronometer:    cfg.Chronometer,
		defaultTimeout: timeout,
		filter:         f,
	}
	if cfg.MaxConcurrency > 0 {
		env.slots = semaphore.NewWeighted(int64(cfg.MaxConcurrency))
	}

	r := &Runner{
		log:   env.log,
		title: cfg.Title,
		env:   env,
		clock: cfg.Clock,
	}
	r.root = &Suite{
		id:    uuid.New().String(),
		name:  RootName,
		path:  []string{},
		ctx:   NewContext(nil, nil),
		env:   env,
		hooks: make(map[HookKind]Body),
	}
	r.root.ctx.suite = r.root
	r.rootScope = &Scope{runner: r, suite: r.root}
	return r, nil
}

// Root returns the implicit root suite
func (r *Runner) Root() *Suite {
	return r.root
}

// Describe declares a suite under the innermost definition being executed, or at
// the top level, and runs def immediately.
func (r *Runner) Describe(name string, def func(s *Scope), opts ...Option) (*Suite, error) {
	return r.activeOrRoot().Describe(name, def, opts...)
}

// It declares a test in the innermost definition being executed
func (r *Runner) It(name string, body Body, opts ...Option) (*Unit, error) {
	sc, err := r.active()
	if err != nil {
		return nil, err
	}
	return sc.It(name, body, opts...)
}

func (r *Runner) Before(h Body) error     { return r.hook(HookBefore, h) }
func (r *Runner) After(h Body) error      { return r.hook(HookAfter, h) }
func (r *Runner) BeforeEach(h Body) error { return r.hook(HookBeforeEach, h) }
func (r *Runner) AfterEach(h Body) error  { return r.hook(HookAfterEach, h) }

func (r *Runner) hook(kind HookKind, h Body) error {
	sc, err := r.active()
	if err != nil {
		return err
	}
	return sc.setHook(kind, h)
}

// Set stores a value in the context of the innermost definition, or of the root
func (r *Runner) Set(name string, value any) error {
	return r.activeOrRoot().Set(name, value)
}

// Errors returns the declaration errors recorded so far
func (r *Runner) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

func (r *Runner) active() (*Scope, error) {
	r.mu.Lock()
	sc := r.stack.top()
	r.mu.Unlock()
	if sc == nil {
		return nil, r.record(ErrNoActiveSuite)
	}
	return sc, nil
}

func (r *Runner) activeOrRoot() *Scope {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sc := r.stack.top(); sc != nil {
		return sc
	}
	return r.rootScope
}

func (r *Runner) record(err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
	return err
}

func (r *Runner) closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ran
}

func (r *Runner) describe(parent *Scope, name string, def func(s *Scope), opts []Option) (*Suite, error) {
	if r.closed() {
		return nil, r.record(fmt.Errorf("%w: cannot declare suite %q", ErrDeclarationClosed, name))
	}
	mods, err := applyOptions(opts, false)
	if err != nil {
		return nil, r.record(fmt.Errorf("suite %q: %w", name, err))
	}

	p := parent.suite
	s := &Suite{
		id:     uuid.New().String(),
		name:   name,
		parent: p,
		path:   append(p.Path(), name),
		mods:   mods,
		env:    r.env,
		hooks:  make(map[HookKind]Body),
	}
	s.ctx = p.ctx.derive(s, nil)
	p.addChild(s)

	if def != nil {
		sc := &Scope{runner: r, suite: s}
		r.mu.Lock()
		r.stack.push(sc)
		r.mu.Unlock()
		r.define(sc, def)
		r.mu.Lock()
		r.stack.pop()
		r.mu.Unlock()
		sc.closed.Store(true)
	}
	return s, nil
}

func (r *Runner) define(sc *Scope, def func(s *Scope)) {
	defer func() {
		if p := recover(); p != nil {
			r.record(fmt.Errorf("definition of suite %q panicked: %v", sc.suite.FullPath(), p))
		}
	}()
	def(sc)
}

func (r *Runner) it(sc *Scope, name string, body Body, opts []Option) (*Unit, error) {
	if r.closed() {
		return nil, r.record(fmt.Errorf("%w: cannot declare test %q", ErrDeclarationClosed, name))
	}
	if body == nil {
		return nil, r.record(fmt.Errorf("test %q: nil body", name))
	}
	mods, err := applyOptions(opts, true)
	if err != nil {
		return nil, r.record(fmt.Errorf("test %q: %w", name, err))
	}
	s := sc.suite
	u := &Unit{
		id:    uuid.New().String(),
		name:  name,
		body:  body,
		suite: s,
		mods:  mods,
		path:  append(s.Path(), name),
		env:   r.env,
	}
	s.addChild(u)
	return u, nil
}

// Run executes the declared tree and returns its results. It only fails when the
// tree could not be built or walked; test and hook failures are part of the result.
func (r *Runner) Run(ctx context.Context) (result *types.TestRunResult, err error) {
	r.mu.Lock()
	if r.ran {
		r.mu.Unlock()
		return nil, ErrAlreadyRun
	}
	if r.stack.depth() > 0 {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: run called from inside a definition", ErrDeclarationClosed)
	}
	r.ran = true
	declErr := errors.Join(r.errs...)
	r.mu.Unlock()

	if declErr != nil {
		metrics.RecordErrorDetails("declaration", declErr)
		return nil, fmt.Errorf("invalid test tree: %w", declErr)
	}

	defer func() {
		if p := recover(); p != nil {
			r.log.Error("Engine fault", "panic", p, "stack", string(debug.Stack()))
			metrics.RecordError("engine_fault")
			result = nil
			err = fmt.Errorf("engine fault: %v", p)
		}
	}()

	r.root.freeze()
	runID := uuid.New().String()

	ctx, span := r.env.tracer.Start(ctx, fmt.Sprintf("run %s", r.title),
		trace.WithAttributes(attribute.String("run_id", runID)))
	defer span.End()

	r.log.Info("Starting run", "title", r.title, "runID", runID)
	started := r.clock()
	res := r.root.Run(ctx)
	finished := r.clock()

	result = &types.TestRunResult{
		SuiteResult: res,
		Title:       r.title,
		Root:        true,
		RunID:       runID,
		StartedAt:   started,
		FinishedAt:  finished,
	}
	metrics.RecordRun(r.title, string(res.Verdict()), res.Totals, result.WallClock())
	r.log.Info("Run completed",
		"executed", res.Totals.Executed,
		"succeeded", res.Totals.Succeeded,
		"failed", res.Totals.Failed,
		"skipped", res.Totals.Skipped,
		"duration", result.WallClock())
	return result, nil
}

package runner

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/op-runrun/metrics"
	"github.com/ethereum-optimism/infra/op-runrun/types"
)

// Unit is a single test
type Unit struct {
	id    string
	name  string
	body  Body
	suite *Suite
	mods  modifiers
	path  []string
	env   *engine

	once   sync.Once
	result *types.TestResult
}

func (u *Unit) ID() string       { return u.id }
func (u *Unit) Name() string     { return u.name }
func (u *Unit) Suite() *Suite    { return u.suite }
func (u *Unit) Path() []string   { return slices.Clone(u.path) }
func (u *Unit) Skipped() bool    { return u.mods.skip }
func (u *Unit) FullPath() string { return joinPath(u.path) }

// Timeout returns the effective timeout: the unit's own, else the nearest
// ancestor's, else the runner default. Zero means no timeout.
func (u *Unit) Timeout() time.Duration {
	if u.mods.timeout > 0 {
		return u.mods.timeout
	}
	return u.suite.Timeout()
}

// Result returns the recorded result, nil before the unit ran
func (u *Unit) Result() *types.TestResult {
	return u.result
}

// Run executes the unit at most once and returns its result. Later calls return
// the recorded result. Run never panics and never returns an error: every failure
// is part of the result.
func (u *Unit) Run(ctx context.Context) *types.TestResult {
	return u.runWith(ctx, nil, nil)
}

func (u *Unit) runWith(ctx context.Context, beforeEach, afterEach Body) *types.TestResult {
	u.once.Do(func() {
		u.result = u.execute(ctx, beforeEach, afterEach)
		metrics.RecordTest(u.result.Outcome, u.result.Duration)
	})
	return u.result
}

func (u *Unit) newResult() *types.TestResult {
	return &types.TestResult{
		ID:    u.id,
		Name:  u.name,
		Type:  types.NodeTypeTest,
		Scope: u.suite.id,
		Path:  u.Path(),
	}
}

// skippedResult is the result of a unit that is never attempted
func (u *Unit) skippedResult() *types.TestResult {
	res := u.newResult()
	res.Outcome = types.OutcomeSkipped
	return res
}

func (u *Unit) execute(ctx context.Context, beforeEach, afterEach Body) *types.TestResult {
	log := u.env.log.New("test", u.FullPath())
	if u.mods.skip || !u.env.filter.match(u.path) {
		log.Debug("Skipping test")
		return u.skippedResult()
	}
	if ctx.Err() != nil {
		log.Debug("Run cancelled, skipping test")
		return u.skippedResult()
	}

	release, err := u.env.acquire(ctx)
	if err != nil {
		log.Debug("Could not acquire a slot, skipping test", "err", err)
		return u.skippedResult()
	}
	defer release()

	ctx, span := u.env.tracer.Start(ctx, fmt.Sprintf("test %s", u.name),
		trace.WithAttributes(attribute.String("id", u.id), attribute.String("path", u.FullPath())))
	defer span.End()

	res := u.newResult()
	tc := u.suite.ctx.derive(u.suite, u)
	timeout := u.Timeout()

	watch := u.env.stopwatch()
	watch.Start()

	var runErr error
	if beforeEach != nil {
		if err := u.env.call(ctx, "beforeEach", timeout, beforeEach, tc); err != nil {
			runErr = &HookError{Hook: HookBeforeEach, Suite: u.suite.name, Err: err}
		}
	}
	if runErr == nil {
		runErr = u.env.call(ctx, u.name, timeout, u.body, tc)
	}
	if afterEach != nil {
		if err := u.env.call(ctx, "afterEach", timeout, afterEach, tc); err != nil && runErr == nil {
			runErr = &HookError{Hook: HookAfterEach, Suite: u.suite.name, Err: err}
		}
	}

	watch.Stop()
	res.Start = watch.StartTime()
	res.End = watch.EndTime()
	res.Duration = watch.Elapsed()

	res.Outcome = outcomeFor(runErr)
	if runErr != nil {
		res.Failure = newFailure(runErr, tc)
		span.SetStatus(codes.Error, res.Failure.Message)
		log.Debug("Test failed", "outcome", res.Outcome, "err", runErr)
	} else {
		log.Debug("Test passed", "duration", res.Duration)
	}
	span.SetAttributes(attribute.String("outcome", string(res.Outcome)))
	return res
}

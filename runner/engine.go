package runner

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/ethereum-optimism/infra/op-runrun/chrono"
	"github.com/ethereum-optimism/infra/op-runrun/metrics"
)

// Body is a test body or a hook
type Body func(ctx context.Context, tc *Context) error

// engine is the state shared by every node declared on a Runner
type engine struct {
	log            log.Logger
	tracer         trace.Tracer
	clock          chrono.Clock
	chronometer    bool
	defaultTimeout time.Duration
	slots          *semaphore.Weighted
	filter         *filter
}

func (e *engine) stopwatch() *chrono.Chronometer {
	return chrono.NewWithClock(e.chronometer, e.clock)
}

// acquire takes a body slot when a concurrency cap is configured
func (e *engine) acquire(ctx context.Context) (func(), error) {
	if e.slots == nil {
		return func() {}, nil
	}
	if err := e.slots.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { e.slots.Release(1) }, nil
}

// call runs fn with tc and waits for it at most timeout. A body that outlives its
// timeout, or the parent context, is abandoned: its context is cancelled and its
// eventual result is only logged.
func (e *engine) call(ctx context.Context, name string, timeout time.Duration, fn Body, tc *Context) error {
	bodyCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		done <- invoke(bodyCtx, fn, tc)
	}()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case err := <-done:
		cancel()
		if err == nil {
			if recorded := tc.recordedFailure(); recorded != nil {
				return recorded
			}
		}
		return err
	case <-expired:
		cancel()
		e.abandon(name, done)
		metrics.RecordTimeout()
		return &TimeoutError{Name: name, Timeout: timeout}
	case <-ctx.Done():
		cancel()
		e.abandon(name, done)
		return fmt.Errorf("%s interrupted: %w", name, context.Cause(ctx))
	}
}

func (e *engine) abandon(name string, done <-chan error) {
	go func() {
		err := <-done
		e.log.Debug("Abandoned body completed", "name", name, "err", err)
	}()
}

func invoke(ctx context.Context, fn Body, tc *Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if assertErr, ok := r.(*AssertionError); ok {
				err = assertErr
				return
			}
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn(ctx, tc)
}

package runrun

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/log"
)

// RunScheduler decides when test runs happen.
type RunScheduler interface {
	Start(ctx context.Context) error
	Stop() error
	RegisterCallback(func(ctx context.Context) error)
	WaitForShutdown(ctx context.Context) error
	Stopped() bool
}

// IntervalScheduler runs the callback once, or once immediately and then every interval.
type IntervalScheduler struct {
	interval time.Duration
	runOnce  bool
	logger   log.Logger
	callback func(ctx context.Context) error

	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewIntervalScheduler(interval time.Duration, runOnce bool, logger log.Logger) *IntervalScheduler {
	return &IntervalScheduler{
		interval: interval,
		runOnce:  runOnce,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// RegisterCallback registers the callback to be called when tests should run.
func (s *IntervalScheduler) RegisterCallback(callback func(ctx context.Context) error) {
	s.callback = callback
}

// Start runs the callback once. In continuous mode it then keeps running it every
// interval until Stop is called or ctx is cancelled; errors of periodic runs are logged.
func (s *IntervalScheduler) Start(ctx context.Context) error {
	if s.callback == nil {
		return errors.New("callback must be registered before starting scheduler")
	}
	if !s.runOnce && s.interval <= 0 {
		return errors.New("interval must be positive in continuous mode")
	}

	s.done = make(chan struct{})
	s.running.Store(true)

	if s.runOnce {
		s.logger.Info("Starting scheduler in run-once mode")
		return s.callback(ctx)
	}

	s.logger.Info("Starting scheduler in continuous mode", "interval", s.interval)
	if err := s.callback(ctx); err != nil {
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if !s.running.Load() {
					return
				}
				s.logger.Info("Running periodic tests")
				if err := s.callback(ctx); err != nil {
					s.logger.Error("Error running periodic tests", "err", err)
				}
			case <-s.done:
				s.logger.Debug("Done signal received, stopping periodic runs")
				return
			case <-ctx.Done():
				s.logger.Debug("Context canceled, stopping periodic runs")
				s.running.Store(false)
				return
			}
		}
	}()
	return nil
}

// Stop prevents further runs. A run in progress is not interrupted.
func (s *IntervalScheduler) Stop() error {
	if !s.running.Swap(false) {
		return nil
	}
	close(s.done)
	return nil
}

// Stopped returns true if the scheduler is stopped.
func (s *IntervalScheduler) Stopped() bool {
	return !s.running.Load()
}

// WaitForShutdown blocks until the periodic goroutine has exited or ctx expires.
func (s *IntervalScheduler) WaitForShutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.logger.Warn("Timed out waiting for scheduler to terminate", "err", ctx.Err())
		return ctx.Err()
	}
}

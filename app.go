package runrun

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ethereum-optimism/optimism/op-service/cliapp"

	"github.com/ethereum-optimism/infra/op-runrun/registry"
	"github.com/ethereum-optimism/infra/op-runrun/runner"
	"github.com/ethereum-optimism/infra/op-runrun/service"
	"github.com/ethereum-optimism/infra/op-runrun/types"
	"github.com/ethereum-optimism/infra/op-runrun/ui"
)

var _ cliapp.Lifecycle = (*App)(nil)

// App runs the selected suites of a registry, once or on an interval.
// Every run declares a fresh tree on a fresh runner.
type App struct {
	config    *Config
	version   string
	registry  *registry.Registry
	scheduler RunScheduler
	formatter ResultFormatter
	service   *service.Service
	out       io.Writer

	mu   sync.RWMutex
	last *types.TestRunResult

	stopped atomic.Bool

	shutdownCallback func(error) // Callback to signal application shutdown
}

func New(config *Config, reg *registry.Registry, version string, shutdownCallback func(error)) (*App, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if reg == nil {
		return nil, errors.New("registry is required")
	}
	if shutdownCallback == nil {
		shutdownCallback = func(error) {}
	}

	config.Log.Debug("Creating app with config",
		"title", config.Title,
		"plan", config.PlanFile,
		"suites", len(config.Suites),
		"runInterval", config.RunInterval,
		"runOnce", config.RunOnce)

	a := &App{
		config:           config,
		version:          version,
		registry:         reg,
		scheduler:        NewIntervalScheduler(config.RunInterval, config.RunOnce, config.Log),
		formatter:        NewConsoleResultFormatter(config.Log, os.Stdout),
		out:              os.Stdout,
		shutdownCallback: shutdownCallback,
	}
	if config.ServiceEnabled {
		a.service = service.New(config.Log, config.ServiceAddr, a)
	}
	return a, nil
}

// Start implements the cliapp.Lifecycle interface.
func (a *App) Start(ctx context.Context) error {
	a.config.Log.Info("Starting op-runrun", "version", a.version, "runOnce", a.config.RunOnce)
	if a.config.ListOnly {
		if err := a.writeSuiteList(); err != nil {
			return NewRuntimeError("list", err)
		}
		go a.shutdownCallback(nil)
		return nil
	}

	if _, err := a.registry.Select(a.config.Suites); err != nil {
		return NewRuntimeError("config", err)
	}

	if a.service != nil {
		if err := a.service.Start(ctx); err != nil {
			return NewRuntimeError("service", err)
		}
	}

	a.scheduler.RegisterCallback(a.runTests)
	if err := a.scheduler.Start(ctx); err != nil {
		a.config.Log.Error("Runtime error running tests", "err", err)
		return err
	}

	if a.config.RunOnce {
		a.config.Log.Info("Tests completed, exiting (run-once mode)")
		if res := a.LastResult(); res != nil && res.HasFailure() {
			a.config.Log.Warn("Run-once test run completed with failures, returning exit code 1")
			return NewTestFailureError(res)
		}
		go a.shutdownCallback(nil)
	}
	return nil
}

const listWidth = 80

func (a *App) writeSuiteList() error {
	var b strings.Builder
	b.WriteString(ui.BuildBoxHeader("Registered suites", listWidth))
	for _, name := range a.registry.Names() {
		def, _ := a.registry.Get(name)
		line := def.Name
		if def.Description != "" {
			line += ": " + def.Description
		}
		b.WriteString(ui.BuildBoxLine(line, listWidth))
	}
	b.WriteString(ui.BuildBoxFooter(listWidth))
	_, err := io.WriteString(a.out, b.String())
	return err
}

// runTests declares and runs one tree, then publishes and prints its result
func (a *App) runTests(ctx context.Context) error {
	rn, err := runner.New(a.config.RunnerConfig())
	if err != nil {
		return NewRuntimeError("config", err)
	}
	if err := a.registry.Declare(rn, a.config.Suites, a.config.Log); err != nil {
		return NewRuntimeError("declare", err)
	}
	result, err := rn.Run(ctx)
	if err != nil {
		return NewRuntimeError("run", err)
	}

	a.mu.Lock()
	a.last = result
	a.mu.Unlock()

	if err := a.formatter.FormatResults(result); err != nil {
		a.config.Log.Error("Failed to format results", "err", err)
	}
	a.config.Log.Info("Test run completed", "runID", result.RunID, "verdict", result.Verdict())
	return nil
}

// LastResult returns the most recent completed run
func (a *App) LastResult() *types.TestRunResult {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

// Stop implements the cliapp.Lifecycle interface.
func (a *App) Stop(ctx context.Context) error {
	if a.stopped.Swap(true) {
		return nil
	}
	a.config.Log.Info("Stopping op-runrun")

	var result error
	if err := a.scheduler.Stop(); err != nil {
		result = errors.Join(result, err)
	}
	if err := a.scheduler.WaitForShutdown(ctx); err != nil {
		result = errors.Join(result, err)
	}
	if a.service != nil {
		if err := a.service.Shutdown(ctx); err != nil {
			result = errors.Join(result, fmt.Errorf("failed to stop service: %w", err))
		}
	}
	return result
}

// Stopped implements the cliapp.Lifecycle interface.
func (a *App) Stopped() bool {
	return a.stopped.Load()
}

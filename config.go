package runrun

import (
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/op-runrun/flags"
	"github.com/ethereum-optimism/infra/op-runrun/registry"
	"github.com/ethereum-optimism/infra/op-runrun/runner"
)

// Config holds the application configuration
type Config struct {
	Title          string
	PlanFile       string
	Suites         []registry.Selection // empty runs every registered suite
	Grep           string
	DefaultTimeout time.Duration
	MaxConcurrency int
	Chronometer    bool
	RunInterval    time.Duration // Interval between test runs
	RunOnce        bool          // Indicates if the service should exit after one test run
	ListOnly       bool
	ServiceEnabled bool
	ServiceAddr    string
	Log            log.Logger
}

// NewConfig creates a new Config from cli context. Values from a plan file fill in
// whatever the command line did not set explicitly.
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	runInterval := ctx.Duration(flags.RunInterval.Name)
	if runInterval < 0 {
		return nil, fmt.Errorf("run-interval must not be negative, got %v", runInterval)
	}

	cfg := &Config{
		Title:          ctx.String(flags.Title.Name),
		Grep:           ctx.String(flags.Grep.Name),
		DefaultTimeout: ctx.Duration(flags.DefaultTimeout.Name),
		MaxConcurrency: ctx.Int(flags.MaxConcurrency.Name),
		Chronometer:    ctx.Bool(flags.Chronometer.Name),
		RunInterval:    runInterval,
		RunOnce:        runInterval == 0,
		ListOnly:       ctx.Bool(flags.ListSuites.Name),
		ServiceEnabled: ctx.Bool(flags.ServiceEnabled.Name),
		ServiceAddr:    net.JoinHostPort(ctx.String(flags.ServiceAddr.Name), strconv.Itoa(ctx.Int(flags.ServicePort.Name))),
		Log:            log,
	}
	for _, name := range ctx.StringSlice(flags.Suites.Name) {
		cfg.Suites = append(cfg.Suites, registry.Selection{Name: name})
	}

	if planFile := ctx.String(flags.Plan.Name); planFile != "" {
		absPlan, err := filepath.Abs(planFile)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for plan '%s': %w", planFile, err)
		}
		plan, err := LoadPlan(absPlan)
		if err != nil {
			return nil, err
		}
		cfg.PlanFile = absPlan
		cfg.applyPlan(plan, ctx.IsSet)
	}
	return cfg, nil
}

func (c *Config) applyPlan(plan *Plan, isSet func(string) bool) {
	if plan.Title != "" && !isSet(flags.Title.Name) {
		c.Title = plan.Title
	}
	if plan.Grep != "" && !isSet(flags.Grep.Name) {
		c.Grep = plan.Grep
	}
	if plan.DefaultTimeout != 0 && !isSet(flags.DefaultTimeout.Name) {
		c.DefaultTimeout = plan.DefaultTimeout
	}
	if plan.MaxConcurrency != 0 && !isSet(flags.MaxConcurrency.Name) {
		c.MaxConcurrency = plan.MaxConcurrency
	}
	if len(plan.Suites) > 0 && !isSet(flags.Suites.Name) {
		c.Suites = plan.Selections()
	}
}

// RunnerConfig returns the engine configuration for one run
func (c *Config) RunnerConfig() runner.Config {
	return runner.Config{
		Log:            c.Log,
		Title:          c.Title,
		Chronometer:    c.Chronometer,
		DefaultTimeout: c.DefaultTimeout,
		MaxConcurrency: c.MaxConcurrency,
		Grep:           c.Grep,
	}
}

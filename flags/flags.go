package flags

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
)

const EnvVarPrefix = "OP_RUNRUN"

var (
	Plan = &cli.StringFlag{
		Name:    "plan",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "PLAN"),
		Usage:   "Path to a run plan (.yaml, .yml or .toml) selecting suites and their modifiers",
	}
	Suites = &cli.StringSliceFlag{
		Name:    "suite",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SUITE"),
		Usage:   "Registered suite to run, repeatable. Runs every registered suite when omitted",
	}
	Title = &cli.StringFlag{
		Name:    "title",
		Value:   "op-runrun",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "TITLE"),
		Usage:   "Title of the run, used in reports and metric labels",
	}
	Grep = &cli.StringFlag{
		Name:    "grep",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "GREP"),
		Usage:   "Only run tests whose path matches this glob (e.g. 'Math/**', '**/concat')",
	}
	DefaultTimeout = &cli.DurationFlag{
		Name:    "default-timeout",
		Value:   5 * time.Second,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "DEFAULT_TIMEOUT"),
		Usage:   "Timeout of tests and hooks that neither they nor their suites override. Negative disables timeouts",
	}
	MaxConcurrency = &cli.IntFlag{
		Name:    "max-concurrency",
		Value:   0,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "MAX_CONCURRENCY"),
		Usage:   "Maximum number of test bodies running at once (0 = unlimited)",
		Action: func(_ *cli.Context, v int) error {
			return validateMaxConcurrency(v)
		},
	}
	Chronometer = &cli.BoolFlag{
		Name:    "chronometer",
		Value:   true,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CHRONOMETER"),
		Usage:   "Record start, end and duration of tests and suites",
	}
	RunInterval = &cli.DurationFlag{
		Name:    "run-interval",
		Value:   0,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "RUN_INTERVAL"),
		Usage:   "Interval between test runs (e.g. '1h', '30m'). Set to 0 or omit for run-once mode.",
	}
	ListSuites = &cli.BoolFlag{
		Name:    "list",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "LIST"),
		Usage:   "List the registered suites and exit",
	}
	ServiceEnabled = &cli.BoolFlag{
		Name:    "service.enabled",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SERVICE_ENABLED"),
		Usage:   "Serve /healthz, /metrics and /results while running",
	}
	ServiceAddr = &cli.StringFlag{
		Name:    "service.addr",
		Value:   "0.0.0.0",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SERVICE_ADDR"),
		Usage:   "Service listening address",
	}
	ServicePort = &cli.IntFlag{
		Name:    "service.port",
		Value:   7300,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SERVICE_PORT"),
		Usage:   "Service listening port",
	}
)

var requiredFlags = []cli.Flag{}

var optionalFlags = []cli.Flag{
	Plan,
	Suites,
	Title,
	Grep,
	DefaultTimeout,
	MaxConcurrency,
	Chronometer,
	RunInterval,
	ListSuites,
	ServiceEnabled,
	ServiceAddr,
	ServicePort,
}

var Flags []cli.Flag

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)

	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}

func validateMaxConcurrency(v int) error {
	if v < 0 {
		return fmt.Errorf("max-concurrency must be zero or positive, got %d", v)
	}
	return nil
}

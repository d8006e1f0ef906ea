package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	runrun "github.com/ethereum-optimism/infra/op-runrun"
	"github.com/ethereum-optimism/infra/op-runrun/catalog"
	"github.com/ethereum-optimism/infra/op-runrun/exitcodes"
	"github.com/ethereum-optimism/infra/op-runrun/flags"
	"github.com/ethereum-optimism/infra/op-runrun/registry"
	"github.com/ethereum-optimism/optimism/devnet-sdk/telemetry"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	"github.com/ethereum-optimism/optimism/op-service/ctxinterrupt"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "op-runrun"
	app.Usage = "Hierarchical test runner"
	app.Description = "op-runrun declares suites of tests and runs them concurrently, once or periodically"
	app.Flags = cliapp.ProtectFlags(flags.Flags)
	app.Action = cliapp.LifecycleCmd(run)
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		switch {
		case err == nil:
		case errors.As(err, &exitErr):
			cli.HandleExitCoder(exitErr)
		case runrun.IsRuntimeError(err):
			cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.RuntimeErr))
		default:
			cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.TestFailure))
		}
	}

	ctx, shutdown, err := telemetry.SetupOpenTelemetry(
		context.Background(),
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		log.Crit("Failed to setup open telemetry", "message", err)
	}
	defer shutdown()

	ctx = ctxinterrupt.WithSignalWaiterMain(ctx)
	err = app.RunContext(ctx, os.Args)
	if err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func run(ctx *cli.Context, closeApp context.CancelCauseFunc) (cliapp.Lifecycle, error) {
	logCfg := oplog.ReadCLIConfig(ctx)
	log := oplog.NewLogger(oplog.AppOut(ctx), logCfg)
	oplog.SetGlobalLogHandler(log.Handler())
	oplog.SetupDefaults()

	cfg, err := runrun.NewConfig(ctx, log)
	if err != nil {
		return nil, runrun.NewRuntimeError("config", err)
	}

	reg := registry.New()
	if err := catalog.Register(reg); err != nil {
		return nil, runrun.NewRuntimeError("declare", err)
	}

	app, err := runrun.New(cfg, reg, Version, closeApp)
	if err != nil {
		return nil, runrun.NewRuntimeError("config", err)
	}
	return app, nil
}

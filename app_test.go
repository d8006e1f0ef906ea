package runrun

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-runrun/catalog"
	"github.com/ethereum-optimism/infra/op-runrun/registry"
	"github.com/ethereum-optimism/infra/op-runrun/runner"
	"github.com/ethereum-optimism/infra/op-runrun/types"
)

func testConfig() *Config {
	return &Config{
		Title:          "app",
		DefaultTimeout: time.Second,
		Chronometer:    true,
		RunOnce:        true,
		Log:            log.NewLogger(log.DiscardHandler()),
	}
}

func catalogRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	require.NoError(t, catalog.Register(reg))
	return reg
}

// newTestApp builds an App writing to buf and reporting shutdown on the returned channel
func newTestApp(t *testing.T, cfg *Config, reg *registry.Registry) (*App, *bytes.Buffer, chan error) {
	t.Helper()
	shutdown := make(chan error, 1)
	app, err := New(cfg, reg, "test", func(err error) { shutdown <- err })
	require.NoError(t, err)
	var buf bytes.Buffer
	app.out = &buf
	app.formatter = NewConsoleResultFormatter(cfg.Log, &buf)
	return app, &buf, shutdown
}

func waitShutdown(t *testing.T, shutdown chan error) {
	t.Helper()
	select {
	case err := <-shutdown:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown callback not called")
	}
}

// mockFormatter records the results handed to it
type mockFormatter struct {
	mock.Mock
}

func (m *mockFormatter) FormatResults(result *types.TestRunResult) error {
	args := m.Called(result)
	return args.Error(0)
}

func TestApp_FormatterErrorDoesNotFailRun(t *testing.T) {
	cfg := testConfig()
	cfg.Suites = []registry.Selection{{Name: catalog.SquareClass.Name}}
	app, _, shutdown := newTestApp(t, cfg, catalogRegistry(t))

	formatter := &mockFormatter{}
	formatter.On("FormatResults", mock.AnythingOfType("*types.TestRunResult")).Return(errors.New("closed pipe")).Once()
	app.formatter = formatter

	require.NoError(t, app.Start(context.Background()))
	waitShutdown(t, shutdown)
	formatter.AssertExpectations(t)

	res := formatter.Calls[0].Arguments.Get(0).(*types.TestRunResult)
	assert.Same(t, app.LastResult(), res)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, registry.New(), "v", nil)
	require.Error(t, err)
	_, err = New(testConfig(), nil, "v", nil)
	require.Error(t, err)
}

func TestApp_RunOnceWithFailures(t *testing.T) {
	app, buf, _ := newTestApp(t, testConfig(), catalogRegistry(t))

	err := app.Start(context.Background())
	require.Error(t, err)
	assert.True(t, IsTestFailureError(err))
	assert.False(t, IsRuntimeError(err))

	res := app.LastResult()
	require.NotNil(t, res)
	assert.Equal(t, types.Totals{Executed: 6, Succeeded: 5, Failed: 1}, res.Totals)
	assert.Contains(t, buf.String(), "2+2=5")

	var failErr *TestFailureError
	require.ErrorAs(t, err, &failErr)
	assert.Equal(t, res.Totals, failErr.Totals)
	assert.Equal(t, []string{"Math/2+2=5"}, failErr.Failed)

	require.NoError(t, app.Stop(context.Background()))
	assert.True(t, app.Stopped())
}

func TestApp_RunOncePassing(t *testing.T) {
	cfg := testConfig()
	cfg.Suites = []registry.Selection{{Name: catalog.SquareClass.Name}}
	app, _, shutdown := newTestApp(t, cfg, catalogRegistry(t))

	require.NoError(t, app.Start(context.Background()))
	waitShutdown(t, shutdown)

	res := app.LastResult()
	require.NotNil(t, res)
	assert.Equal(t, types.VerdictPass, res.Verdict())
	require.Len(t, res.Suites(), 1)
	assert.Equal(t, "Square Class", res.Suites()[0].Name)
}

func TestApp_SelectionOverridesModifiers(t *testing.T) {
	cfg := testConfig()
	cfg.Suites = []registry.Selection{{Name: catalog.Math.Name, Skip: true}}
	app, _, shutdown := newTestApp(t, cfg, catalogRegistry(t))

	require.NoError(t, app.Start(context.Background()))
	waitShutdown(t, shutdown)

	res := app.LastResult()
	require.NotNil(t, res)
	assert.Equal(t, types.VerdictSkip, res.Verdict())
	assert.Equal(t, types.SuiteStatusSkipped, res.Suites()[0].Status)
	assert.Equal(t, 3, res.Totals.Skipped)
}

func TestApp_GrepLimitsRun(t *testing.T) {
	cfg := testConfig()
	cfg.Grep = "Math/2+2=4"
	app, _, shutdown := newTestApp(t, cfg, catalogRegistry(t))

	require.NoError(t, app.Start(context.Background()))
	waitShutdown(t, shutdown)
	assert.Equal(t, types.Totals{Executed: 1, Succeeded: 1, Skipped: 5}, app.LastResult().Totals)
}

func TestApp_RuntimeErrors(t *testing.T) {
	t.Run("unknown suite", func(t *testing.T) {
		cfg := testConfig()
		cfg.Suites = []registry.Selection{{Name: "nope"}}
		app, _, _ := newTestApp(t, cfg, catalogRegistry(t))
		err := app.Start(context.Background())
		require.Error(t, err)
		assert.True(t, IsRuntimeError(err))
		assert.ErrorIs(t, err, registry.ErrUnknownSuite)
	})

	t.Run("invalid tree", func(t *testing.T) {
		reg := registry.New()
		require.NoError(t, reg.Register(registry.Definition{
			Name: "broken",
			Define: func(s *runner.Scope) {
				_ = s.Before(func(ctx context.Context, tc *runner.Context) error { return nil })
				_ = s.Before(func(ctx context.Context, tc *runner.Context) error { return nil })
			},
		}))
		app, _, _ := newTestApp(t, testConfig(), reg)
		err := app.Start(context.Background())
		require.Error(t, err)
		assert.True(t, IsRuntimeError(err))
		assert.ErrorIs(t, err, runner.ErrHookAlreadySet)
		assert.Nil(t, app.LastResult())
	})

	t.Run("invalid grep", func(t *testing.T) {
		cfg := testConfig()
		cfg.Grep = "[unclosed"
		app, _, _ := newTestApp(t, cfg, catalogRegistry(t))
		err := app.Start(context.Background())
		require.Error(t, err)
		assert.True(t, IsRuntimeError(err))
	})
}

func TestApp_ListOnly(t *testing.T) {
	cfg := testConfig()
	cfg.ListOnly = true
	app, buf, shutdown := newTestApp(t, cfg, catalogRegistry(t))

	require.NoError(t, app.Start(context.Background()))
	waitShutdown(t, shutdown)
	assert.Nil(t, app.LastResult())

	out := buf.String()
	assert.Contains(t, out, "Registered suites")
	assert.Contains(t, out, "│ Math: arithmetic checks")
	assert.Contains(t, out, "│ Square Class: geometry checks on Square")
}

func TestApp_PeriodicWithService(t *testing.T) {
	cfg := testConfig()
	cfg.RunOnce = false
	cfg.RunInterval = 20 * time.Millisecond
	cfg.Suites = []registry.Selection{{Name: catalog.SquareClass.Name}}
	cfg.ServiceEnabled = true
	cfg.ServiceAddr = "127.0.0.1:0"
	app, _, _ := newTestApp(t, cfg, catalogRegistry(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, app.Start(ctx))
	first := app.LastResult()
	require.NotNil(t, first)

	require.Eventually(t, func() bool {
		res := app.LastResult()
		return res != nil && res.RunID != first.RunID
	}, 2*time.Second, 10*time.Millisecond, "a later periodic run replaces the last result")

	resp, err := http.Get("http://" + app.service.Addr() + "/results")
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "app", body["title"])

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	require.NoError(t, app.Stop(stopCtx))
	assert.True(t, app.Stopped())
	require.NoError(t, app.Stop(stopCtx))
}

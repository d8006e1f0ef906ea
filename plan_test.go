package runrun

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-runrun/registry"
)

func writePlan(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPlan_YAML(t *testing.T) {
	path := writePlan(t, "plan.yaml", `
title: nightly
grep: "Math/**"
defaultTimeout: 2s
maxConcurrency: 4
suites:
  - name: Math
    sequence: true
  - name: Square Class
    timeout: 500ms
    skip: true
`)
	plan, err := LoadPlan(path)
	require.NoError(t, err)
	assert.Equal(t, "nightly", plan.Title)
	assert.Equal(t, "Math/**", plan.Grep)
	assert.Equal(t, 2*time.Second, plan.DefaultTimeout)
	assert.Equal(t, 4, plan.MaxConcurrency)
	assert.Equal(t, []registry.Selection{
		{Name: "Math", Sequence: true},
		{Name: "Square Class", Skip: true, Timeout: 500 * time.Millisecond},
	}, plan.Selections())
}

func TestLoadPlan_TOML(t *testing.T) {
	path := writePlan(t, "plan.toml", `
title = "nightly"
max_concurrency = 2

[[suites]]
name = "Math"
story = true
`)
	plan, err := LoadPlan(path)
	require.NoError(t, err)
	assert.Equal(t, "nightly", plan.Title)
	assert.Equal(t, 2, plan.MaxConcurrency)
	require.Len(t, plan.Suites, 1)
	assert.True(t, plan.Suites[0].Story)
}

func TestLoadPlan_EmptyYAML(t *testing.T) {
	plan, err := LoadPlan(writePlan(t, "empty.yml", ""))
	require.NoError(t, err)
	assert.Empty(t, plan.Suites)
}

func TestLoadPlan_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"unknown yaml key", "p.yaml", "titel: x\n", "failed to parse plan file"},
		{"unknown toml key", "p.toml", "titel = \"x\"\n", "unknown keys"},
		{"unsupported extension", "p.json", "{}", "unsupported plan format"},
		{"unnamed suite", "p.yaml", "suites:\n  - sequence: true\n", "has no name"},
		{"duplicate suite", "p.yaml", "suites:\n  - name: A\n  - name: A\n", "listed twice"},
		{"negative concurrency", "p.yaml", "maxConcurrency: -1\n", "maxConcurrency"},
		{"negative timeout", "p.yaml", "suites:\n  - name: A\n    timeout: -1s\n", "timeout must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadPlan(writePlan(t, tt.file, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := LoadPlan(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read plan file")
}

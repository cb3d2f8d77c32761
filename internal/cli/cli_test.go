package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Run(t *testing.T) {
	var out bytes.Buffer
	inv, exit, err := Parse([]string{
		"run", "-w", "wf.hcl", "-w", "more/",
		"--var", "file_name=acgt.txt", "--var", "expr=a=b",
		"--workers", "8", "--strict-outputs", "--log-level", "DEBUG",
		"merge",
	}, &out)
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, "run", inv.Command)
	cfg := inv.Config
	assert.Equal(t, []string{"wf.hcl", "more/"}, cfg.WorkflowPaths)
	assert.Equal(t, "merge", cfg.RootTask)
	assert.Equal(t, map[string]string{"file_name": "acgt.txt", "expr": "a=b"}, cfg.Vars)
	assert.Equal(t, 8, cfg.Workers)
	assert.True(t, cfg.StrictOutputs)
	assert.False(t, cfg.NoPrune)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestParse_TaskFlag(t *testing.T) {
	inv, _, err := Parse([]string{"run", "-w", "wf.hcl", "-t", "merge"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "merge", inv.Config.RootTask)

	_, _, err = Parse([]string{"run", "-w", "wf.hcl", "-t", "merge", "split"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "root task given twice")
}

func TestParse_Environment(t *testing.T) {
	t.Setenv("GRIDFLOW_WORKFLOW", "env.hcl")
	t.Setenv("GRIDFLOW_WORKERS", "3")
	t.Setenv("GRIDFLOW_LOG_FORMAT", "json")
	t.Setenv("GRIDFLOW_VAR_FILE_NAME", "env.txt")

	inv, _, err := Parse([]string{"run", "--workers", "5", "merge"}, &bytes.Buffer{})
	require.NoError(t, err)
	cfg := inv.Config
	assert.Equal(t, []string{"env.hcl"}, cfg.WorkflowPaths)
	assert.Equal(t, 5, cfg.Workers, "flag beats environment")
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "env.txt", cfg.Vars["file_name"])
}

func TestParse_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gridflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
workflow:
  - file.hcl
workers: 2
log-level: warn
vars:
  file_name: file.txt
  other: keep
`), 0o644))
	t.Setenv("GRIDFLOW_VAR_FILE_NAME", "env.txt")

	inv, _, err := Parse([]string{"run", "--config", path, "merge"}, &bytes.Buffer{})
	require.NoError(t, err)
	cfg := inv.Config
	assert.Equal(t, []string{"file.hcl"}, cfg.WorkflowPaths)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "env.txt", cfg.Vars["file_name"], "environment beats file")
	assert.Equal(t, "keep", cfg.Vars["other"])
}

func TestParse_List(t *testing.T) {
	inv, exit, err := Parse([]string{"list", "-w", "wf.hcl"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.False(t, exit)
	assert.Equal(t, "list", inv.Command)
	assert.Empty(t, inv.Config.RootTask)
}

func TestParse_ExitCleanly(t *testing.T) {
	for _, args := range [][]string{{}, {"--help"}, {"run", "--help"}, {"version"}} {
		var out bytes.Buffer
		inv, exit, err := Parse(args, &out)
		require.NoError(t, err, args)
		assert.True(t, exit, args)
		assert.Nil(t, inv)
		assert.NotEmpty(t, out.String())
	}

	var out bytes.Buffer
	_, _, err := Parse([]string{"version"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "gridflow dev\n", out.String())
}

func TestParse_UsageErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "no workflow", args: []string{"run", "merge"}, wantErr: "workflow path is required"},
		{name: "no root", args: []string{"run", "-w", "wf.hcl"}, wantErr: "a root task is required"},
		{name: "bad var", args: []string{"run", "-w", "wf.hcl", "--var", "novalue", "merge"}, wantErr: "want name=value"},
		{name: "bad format", args: []string{"run", "-w", "wf.hcl", "--log-format", "xml", "merge"}, wantErr: "unknown log format"},
		{name: "unknown flag", args: []string{"run", "--bogus"}, wantErr: "unknown flag"},
		{name: "unknown command", args: []string{"deploy"}, wantErr: "unknown command"},
		{name: "missing config file", args: []string{"run", "-w", "wf.hcl", "--config", "/nonexistent/x.yaml", "merge"}, wantErr: "reading config file"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Parse(tc.args, &bytes.Buffer{})
			var exitErr *ExitError
			require.True(t, errors.As(err, &exitErr))
			assert.Equal(t, ExitUsage, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.wantErr)
		})
	}
}

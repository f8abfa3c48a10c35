package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReplayCommand(t *testing.T) {
	dir := t.TempDir()
	scenario := filepath.Join(dir, "list.yaml")
	require.NoError(t, os.WriteFile(scenario, []byte(`
name: list
roots:
  list: array
steps:
  - op: push
    target: list
    values: [a, b]
  - op: delete
    target: list
    index: 0
    count: 1
`), 0o600))
	cfgPath := filepath.Join(dir, "replica.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("client_name: cli\nlog_level: silent\n"), 0o600))

	t.Run("prints results", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&stdout)
		cmd.SetErr(&stderr)
		cmd.SetArgs([]string{"--config", cfgPath, "--dump", scenario})
		require.NoError(t, cmd.Execute())

		var results []map[string]any
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &results))
		require.Len(t, results, 1)
		require.Equal(t, "list", results[0]["name"])
		require.Equal(t, map[string]any{"list": []any{"b"}}, results[0]["state"])
		require.Contains(t, stderr.String(), "# list / list")
	})

	t.Run("needs a scenario", func(t *testing.T) {
		cmd := newRootCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{})
		require.Error(t, cmd.Execute())
	})

	t.Run("rejects a bad log level", func(t *testing.T) {
		cmd := newRootCmd()
		cmd.SetArgs([]string{"--log-level", "loud", scenario})
		require.Error(t, cmd.Execute())
	})
}

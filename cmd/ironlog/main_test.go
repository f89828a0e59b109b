package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCLI_ImportAndQuery(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile("seed.yaml", []byte(`
exercises:
  - {id: squat, name: Squat, muscle_group: legs}
templates:
  - {id: legs, name: Legs, sequence_order: 1, slots: [squat]}
`), 0o600))

	out, err := runCLI(t, "catalog", "import", "seed.yaml", "--user", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 exercises and 1 templates for alice")
	assert.FileExists(t, filepath.Join(".ironlog", "ironlog.db"))

	out, err = runCLI(t, "next", "--user", "alice")
	require.NoError(t, err)
	assert.Equal(t, "Next: Legs (legs)\n", out)

	out, err = runCLI(t, "history", "--user", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "No workouts recorded yet.")

	out, err = runCLI(t, "session", "ls", "--user", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "No active sessions found.")

	out, err = runCLI(t, "report", "--json", "--user", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, `"total_executions": 0`)
}

func TestCLI_RequiresUser(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("IRONLOG_USER", "")
	_, err := runCLI(t, "next", "--user", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no user selected")
}

func TestCLI_Version(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "ironlog version "))
}

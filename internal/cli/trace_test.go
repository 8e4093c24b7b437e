package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lowerWithTrace runs a lowering that records into a fresh database
// and returns the database path.
func lowerWithTrace(t *testing.T) string {
	t.Helper()
	path := writeModule(t, doubleModule)
	dbPath := filepath.Join(t.TempDir(), "rewrites.db")
	_, _, err := execute(t, "lower", path, "--trace-db", dbPath)
	require.NoError(t, err)
	return dbPath
}

func TestTrace_ListsRuns(t *testing.T) {
	dbPath := lowerWithTrace(t)

	out, _, err := execute(t, "trace", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "rewrites=")
	assert.Contains(t, out, "mod.cue")
}

func TestTrace_RunKindSummary(t *testing.T) {
	dbPath := lowerWithTrace(t)

	// Fish the run token out of the JSON run listing.
	out, _, err := execute(t, "--format", "json", "trace", dbPath)
	require.NoError(t, err)
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	runs, ok := resp.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, runs, 1)
	token := runs[0].(map[string]interface{})["Token"].(string)

	out, _, err = execute(t, "trace", dbPath, "--run", token)
	require.NoError(t, err)
	assert.Contains(t, out, "vex.iadd")
	assert.Contains(t, out, "count=")
}

func TestTrace_RunWithRewrites(t *testing.T) {
	dbPath := lowerWithTrace(t)

	out, _, err := execute(t, "--format", "json", "trace", dbPath)
	require.NoError(t, err)
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	token := resp.Data.([]interface{})[0].(map[string]interface{})["Token"].(string)

	out, _, err = execute(t, "trace", dbPath, "--run", token, "--rewrites")
	require.NoError(t, err)
	assert.Contains(t, out, "vex.return_value")
	assert.Contains(t, out, "double", "rewrites carry the enclosing function symbol")
}

func TestTrace_UnknownRunIsEmpty(t *testing.T) {
	dbPath := lowerWithTrace(t)

	out, _, err := execute(t, "trace", dbPath, "--run", "no-such-token")
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "No rewrites recorded"), "got: %s", out)
}

func TestTrace_RewritesRequiresRun(t *testing.T) {
	dbPath := lowerWithTrace(t)

	_, _, err := execute(t, "trace", dbPath, "--rewrites")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTrace_MissingDatabaseIsCommandError(t *testing.T) {
	_, _, err := execute(t, "trace", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/descent-ir/descent/internal/trace"
)

func TestLower_PrintsLoweredModule(t *testing.T) {
	path := writeModule(t, doubleModule)

	out, _, err := execute(t, "lower", path)
	require.NoError(t, err)

	assert.Contains(t, out, "prim.module")
	assert.Contains(t, out, "prim.add")
	assert.NotContains(t, out, "vex.")
}

func TestLower_EmitVexSkipsLowering(t *testing.T) {
	path := writeModule(t, doubleModule)

	out, _, err := execute(t, "lower", path, "--emit", "vex")
	require.NoError(t, err)

	assert.Contains(t, out, "vex.iadd")
	assert.NotContains(t, out, "prim.")
}

func TestLower_InvalidEmit(t *testing.T) {
	path := writeModule(t, doubleModule)

	_, _, err := execute(t, "lower", path, "--emit", "llvm")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestLower_MissingModuleIsCommandError(t *testing.T) {
	_, _, err := execute(t, "lower", filepath.Join(t.TempDir(), "nope.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestLower_CompileErrorIsFailure(t *testing.T) {
	path := writeModule(t, `function: f: {body: [{op: "no_such_op"}]}`)

	_, _, err := execute(t, "lower", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestLower_UnconvertedOpsFailWithDiagnostics(t *testing.T) {
	path := writeModule(t, equalWidthModule)

	out, _, err := execute(t, "lower", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "vex.uconvert")
}

func TestLower_OutputFile(t *testing.T) {
	path := writeModule(t, doubleModule)
	outPath := filepath.Join(t.TempDir(), "lowered.txt")

	stdout, _, err := execute(t, "lower", path, "-o", outPath)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "prim.add")
}

func TestLower_JSONResponse(t *testing.T) {
	path := writeModule(t, doubleModule)

	out, _, err := execute(t, "--format", "json", "lower", path)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, data["module"], "prim.add")
}

func TestLower_TraceDBRecordsRun(t *testing.T) {
	path := writeModule(t, doubleModule)
	dbPath := filepath.Join(t.TempDir(), "rewrites.db")

	_, _, err := execute(t, "lower", path, "--trace-db", dbPath)
	require.NoError(t, err)

	st, err := trace.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ReadRunSummaries(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, path, runs[0].Module)
	// module, func, iadd, return_value, module_end all rewrite.
	assert.GreaterOrEqual(t, runs[0].Rewrites, int64(5))
}

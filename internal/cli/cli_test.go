package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and captures both streams.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

// doubleModule is a minimal vex module that lowers cleanly.
const doubleModule = `
module: "arith"

function: double: {
	params: [{name: "x", type: "si32"}]
	results: ["si32"]
	body: [
		{name: "y", op: "iadd", type: "si32", args: ["x", "x"]},
		{op: "return_value", args: ["y"]},
	]
}
`

// equalWidthModule contains a cast the catalog refuses, so lowering
// leaves it unconverted.
const equalWidthModule = `
module: "casts"

function: recast: {
	params: [{name: "x", type: "ui32"}]
	results: ["si32"]
	body: [
		{name: "y", op: "uconvert", type: "si32", args: ["x"]},
		{op: "return_value", args: ["y"]},
	]
}
`

// writeModule drops CUE source into a temp file and returns its path.
func writeModule(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mod.cue")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

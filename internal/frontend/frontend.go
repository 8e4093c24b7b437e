// Package frontend compiles CUE module descriptions into vex-dialect
// graphs.
//
// A description declares functions under the function field. Each
// function gives its parameters, result types, and a body of
// instructions in execution order:
//
//	module: "bitops"
//
//	function: clear_nibble: {
//		params: [{name: "x", type: "ui32"}]
//		results: ["ui32"]
//		body: [
//			{name: "four", op: "constant", type: "ui32", value: 4},
//			{name: "zero", op: "constant", type: "ui32", value: 0},
//			{name: "r", op: "bitfield_insert", type: "ui32", args: ["x", "zero", "four", "four"]},
//			{op: "return_value", args: ["r"]},
//		]
//	}
//
// Within an instruction, op names the vex operation, args lists operand
// references (parameter names or earlier instruction names), type gives
// the result type in source syntax, and name binds the result for later
// instructions. Constants carry value (one number, or a list with one
// number per vector lane); calls carry callee. Identifiers are
// NFC-normalized before symbol-table insertion, so both Unicode normal
// forms of a name refer to the same value.
//
// The front end checks names, references, and operand counts, and pins
// every op to its CUE source position. Structural and type rules are
// the validator's job: run vex.ValidateModule on the result before
// lowering.
package frontend

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/descent-ir/descent/internal/ir"
)

// Compile builds a vex module graph from a CUE module description.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the whole description, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`function: double: { ... }`)
//	g, err := frontend.Compile(v)
func Compile(v cue.Value) (*ir.Graph, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	b := newBuilder(v)
	if err := b.module(); err != nil {
		return nil, err
	}
	return b.g, nil
}

// CompileString compiles CUE source text. The filename only labels
// positions in error messages and op locations.
func CompileString(src, filename string) (*ir.Graph, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(filename))
	return Compile(v)
}

// LoadModule loads a module description from a .cue file or a directory
// of them. Multiple files unify into one description before compiling.
func LoadModule(path string) (*ir.Graph, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("loading module: %w", err)
	}

	ctx := cuecontext.New()
	var v cue.Value
	if info.IsDir() {
		instances := load.Instances([]string{"."}, &load.Config{Dir: path})
		if len(instances) == 0 {
			return nil, fmt.Errorf("no CUE instances in %s", path)
		}
		inst := instances[0]
		if inst.Err != nil {
			return nil, formatCUEError(inst.Err)
		}
		v = ctx.BuildInstance(inst)
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading module: %w", err)
		}
		v = ctx.CompileBytes(data, cue.Filename(filepath.ToSlash(path)))
	}
	return Compile(v)
}

// CompileError reports one defect in a module description, positioned
// at the CUE source when the position is known.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}

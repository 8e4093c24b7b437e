package rewrite

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/descent-ir/descent/internal/ir"
)

// lowerModulePattern moves the module body into a fresh dst.module.
func lowerModulePattern() Pattern {
	return stubPattern{kind: srcModule, fn: func(rw *Rewriter, op ir.OpID, operands []ir.Value) (Result, error) {
		g := rw.Graph()
		mod := rw.EmitOp(dstModule, nil, nil, nil)
		rw.MoveBlocks(g.Op(op).Regions[0], rw.NewRegion(mod))
		return ReplaceWith(), nil
	}}
}

// lowerFuncPattern builds a dst.func, converts the entry block args, and
// moves the body across.
func lowerFuncPattern() Pattern {
	return stubPattern{kind: srcFunc, fn: func(rw *Rewriter, op ir.OpID, operands []ir.Value) (Result, error) {
		g := rw.Graph()
		sym := g.Op(op).StringAttrValue("sym_name")
		fn := rw.EmitOp(dstFunc, nil, nil, ir.Attrs{"sym_name": ir.StringAttr{Value: sym}})

		body := g.Op(op).Regions[0]
		entry := g.RegionBlocks(body)[0]
		var argTypes []ir.Type
		for _, arg := range g.BlockArgs(entry) {
			nt, ok := rw.Convert(g.ValueType(arg))
			if !ok {
				return Skip(), nil
			}
			argTypes = append(argTypes, nt)
		}
		rw.ConvertBlockArgs(entry, SigConversion{Sig: ir.FuncType{Params: argTypes}})
		rw.MoveBlocks(body, rw.NewRegion(fn))
		return ReplaceWith(), nil
	}}
}

type srcFuncSpec struct {
	name string
	args []ir.Type
	body func(t *testing.T, g *ir.Graph, block ir.BlockID, args []ir.Value)
}

// buildSrcModule assembles src.module { src.func... } graphs for driver
// tests.
func buildSrcModule(t *testing.T, funcs ...srcFuncSpec) (*ir.Graph, ir.BlockID) {
	t.Helper()
	g := ir.NewGraph()
	mod := g.NewOp(srcModule, ir.Location{File: "m.x", Line: 1}, nil, nil, nil)
	mblock := g.NewBlock(g.NewRegion(mod))

	for i, fs := range funcs {
		fn := g.NewOp(srcFunc, ir.Location{File: "m.x", Line: i + 2}, nil, nil, ir.Attrs{
			"sym_name": ir.StringAttr{Value: fs.name},
		})
		fblock := g.NewBlock(g.NewRegion(fn))
		args := make([]ir.Value, len(fs.args))
		for j, at := range fs.args {
			args[j] = g.AddBlockArg(fblock, at)
		}
		require.NoError(t, g.Append(mblock, fn))
		if fs.body != nil {
			fs.body(t, g, fblock, args)
		}
	}
	require.NoError(t, g.SetRoot(mod))
	return g, mblock
}

func TestConvertFullModule(t *testing.T) {
	var fblock ir.BlockID
	g, _ := buildSrcModule(t, srcFuncSpec{
		name: "double",
		args: []ir.Type{ir.I32},
		body: func(t *testing.T, g *ir.Graph, block ir.BlockID, args []ir.Value) {
			fblock = block
			add := g.NewOp(srcAdd, ir.Location{File: "m.x", Line: 3}, []ir.Value{args[0], args[0]}, []ir.Type{ir.I32}, nil)
			require.NoError(t, g.Append(block, add))
			ret := g.NewOp(srcRet, ir.Location{File: "m.x", Line: 4}, []ir.Value{g.Op(add).Results[0]}, nil, nil)
			require.NoError(t, g.Append(block, ret))
		},
	})

	rec := &recordingListener{}
	reg := mustRegistry(t,
		lowerModulePattern(),
		lowerFuncPattern(),
		replaceWithDst(srcAdd, dstAdd),
		replaceWithDst(srcRet, dstRet),
	)
	require.NoError(t, Convert(g, wideningConverter{}, reg, "dst", WithListener(rec)))

	root := g.Root()
	assert.Equal(t, ir.OpKind(dstModule), g.Op(root).Kind)
	for _, op := range g.AliveOps() {
		assert.Equal(t, "dst", g.Op(op).Kind.Dialect(), "op %s survived", g.Op(op).Kind)
	}

	args := g.BlockArgs(fblock)
	require.Len(t, args, 1)
	assert.Equal(t, ir.Type(ir.I64), g.ValueType(args[0]))

	ops := g.BlockOps(fblock)
	require.Len(t, ops, 2)
	add, ret := g.Op(ops[0]), g.Op(ops[1])
	assert.Equal(t, ir.OpKind(dstAdd), add.Kind)
	assert.Equal(t, ir.OpKind(dstRet), ret.Kind)
	assert.Equal(t, []ir.Value{args[0], args[0]}, add.Operands)
	assert.Equal(t, []ir.Value{add.Results[0]}, ret.Operands)
	assert.Equal(t, ir.Type(ir.I64), g.ValueType(add.Results[0]))

	require.Len(t, rec.events, 4)
	assert.Equal(t, []int64{1, 2, 3, 4}, []int64{
		rec.events[0].Seq, rec.events[1].Seq, rec.events[2].Seq, rec.events[3].Seq,
	})
	assert.Equal(t, ir.OpKind(srcModule), rec.events[0].Src)
	assert.Equal(t, ir.OpKind(srcFunc), rec.events[1].Src)
	assert.Equal(t, ir.OpKind(srcAdd), rec.events[2].Src)
	assert.Equal(t, ir.OpKind(srcRet), rec.events[3].Src)
	assert.Equal(t, "", rec.events[0].Fn)
	assert.Equal(t, "double", rec.events[1].Fn)
	assert.Equal(t, "double", rec.events[2].Fn)
	assert.Equal(t, "double", rec.events[3].Fn)
}

func TestConvertScopesFollowFunctions(t *testing.T) {
	retBody := func(t *testing.T, g *ir.Graph, block ir.BlockID, args []ir.Value) {
		ret := g.NewOp(srcRet, ir.Location{}, nil, nil, nil)
		require.NoError(t, g.Append(block, ret))
	}
	g, _ := buildSrcModule(t,
		srcFuncSpec{name: "first", body: retBody},
		srcFuncSpec{name: "second", body: retBody},
	)

	rec := &recordingListener{}
	reg := mustRegistry(t,
		lowerModulePattern(),
		lowerFuncPattern(),
		replaceWithDst(srcRet, dstRet),
	)
	require.NoError(t, Convert(g, identityConverter{}, reg, "dst", WithListener(rec)))

	var scopes []string
	for _, ev := range rec.events {
		scopes = append(scopes, ev.Fn)
	}
	assert.Equal(t, []string{"", "first", "first", "second", "second"}, scopes)
}

func TestConvertCollectsUnconverted(t *testing.T) {
	g, _ := buildSrcModule(t, srcFuncSpec{
		name: "stuck",
		args: []ir.Type{ir.I32},
		body: func(t *testing.T, g *ir.Graph, block ir.BlockID, args []ir.Value) {
			first := g.NewOp(srcAdd, ir.Location{File: "m.x", Line: 3}, []ir.Value{args[0], args[0]}, []ir.Type{ir.I32}, nil)
			require.NoError(t, g.Append(block, first))
			second := g.NewOp(srcAdd, ir.Location{File: "m.x", Line: 4}, []ir.Value{g.Op(first).Results[0], args[0]}, []ir.Type{ir.I32}, nil)
			require.NoError(t, g.Append(block, second))
			ret := g.NewOp(srcRet, ir.Location{}, []ir.Value{g.Op(second).Results[0]}, nil, nil)
			require.NoError(t, g.Append(block, ret))
		},
	})

	reg := mustRegistry(t,
		lowerModulePattern(),
		lowerFuncPattern(),
		replaceWithDst(srcRet, dstRet),
	)
	err := Convert(g, identityConverter{}, reg, "dst")
	require.Error(t, err)
	assert.True(t, IsConversion(err))

	var ce *ConversionError
	require.ErrorAs(t, err, &ce)
	require.Len(t, ce.Unconverted, 2)
	assert.Equal(t, ir.OpKind(srcAdd), ce.Unconverted[0].Kind)
	assert.Equal(t, ir.OpKind(srcAdd), ce.Unconverted[1].Kind)
	assert.Equal(t, 3, ce.Unconverted[0].Loc.Line)
	assert.Equal(t, 4, ce.Unconverted[1].Loc.Line)
}

func TestConvertPatternErrorAborts(t *testing.T) {
	g, _ := buildSrcModule(t, srcFuncSpec{
		name: "bad",
		args: []ir.Type{ir.I32},
		body: func(t *testing.T, g *ir.Graph, block ir.BlockID, args []ir.Value) {
			add := g.NewOp(srcAdd, ir.Location{}, []ir.Value{args[0], args[0]}, []ir.Type{ir.I32}, nil)
			require.NoError(t, g.Append(block, add))
		},
	})

	boom := errors.New("boom")
	reg := mustRegistry(t,
		lowerModulePattern(),
		lowerFuncPattern(),
		stubPattern{kind: srcAdd, fn: func(rw *Rewriter, op ir.OpID, operands []ir.Value) (Result, error) {
			return Result{}, boom
		}},
	)
	err := Convert(g, identityConverter{}, reg, "dst")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsConversion(err))
}

func TestConvertLeavesTargetOpsAlone(t *testing.T) {
	var done ir.OpID
	g, _ := buildSrcModule(t, srcFuncSpec{
		name: "mixed",
		body: func(t *testing.T, g *ir.Graph, block ir.BlockID, args []ir.Value) {
			done = g.NewOp(dstRet, ir.Location{}, nil, nil, nil)
			require.NoError(t, g.Append(block, done))
		},
	})

	// The dst pattern must never fire: target ops are already legal.
	reg := mustRegistry(t,
		lowerModulePattern(),
		lowerFuncPattern(),
		stubPattern{kind: dstRet, fn: func(rw *Rewriter, op ir.OpID, operands []ir.Value) (Result, error) {
			return Result{}, errors.New("rewrote an op that was already converted")
		}},
	)
	require.NoError(t, Convert(g, identityConverter{}, reg, "dst"))
	assert.True(t, g.OpAlive(done))
}

func TestConvertSkipsPatternOutput(t *testing.T) {
	g, _ := buildSrcModule(t, srcFuncSpec{
		name: "once",
		args: []ir.Type{ir.I32},
		body: func(t *testing.T, g *ir.Graph, block ir.BlockID, args []ir.Value) {
			add := g.NewOp(srcAdd, ir.Location{}, []ir.Value{args[0], args[0]}, []ir.Type{ir.I32}, nil)
			require.NoError(t, g.Append(block, add))
			ret := g.NewOp(srcRet, ir.Location{}, []ir.Value{g.Op(add).Results[0]}, nil, nil)
			require.NoError(t, g.Append(block, ret))
		},
	})

	reg := mustRegistry(t,
		lowerModulePattern(),
		lowerFuncPattern(),
		replaceWithDst(srcAdd, dstAdd),
		replaceWithDst(srcRet, dstRet),
		stubPattern{kind: dstAdd, fn: func(rw *Rewriter, op ir.OpID, operands []ir.Value) (Result, error) {
			return Result{}, errors.New("revisited replacement op")
		}},
	)
	require.NoError(t, Convert(g, identityConverter{}, reg, "dst"))
}

func TestConvertNoRoot(t *testing.T) {
	g := ir.NewGraph()
	err := Convert(g, identityConverter{}, NewRegistry(), "dst")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no root")
}

func TestConvertEmptyModule(t *testing.T) {
	g, mblock := buildSrcModule(t)
	reg := mustRegistry(t, lowerModulePattern())
	require.NoError(t, Convert(g, identityConverter{}, reg, "dst"))
	assert.Empty(t, g.BlockOps(mblock))
	assert.Equal(t, ir.OpKind(dstModule), g.Op(g.Root()).Kind)
}

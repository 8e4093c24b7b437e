package rewrite

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/descent-ir/descent/internal/ir"
)

// testKind is a minimal OpKind for exercising the engine without pulling
// in a real dialect.
type testKind struct {
	dialect string
	name    string
}

func (k testKind) Dialect() string { return k.dialect }
func (k testKind) String() string  { return k.dialect + "." + k.name }

var (
	srcModule = testKind{"src", "module"}
	srcFunc   = testKind{"src", "func"}
	srcAdd    = testKind{"src", "add"}
	srcRet    = testKind{"src", "ret"}
	dstModule = testKind{"dst", "module"}
	dstFunc   = testKind{"dst", "func"}
	dstAdd    = testKind{"dst", "add"}
	dstRet    = testKind{"dst", "ret"}
)

// identityConverter maps every type to itself.
type identityConverter struct{}

func (identityConverter) Convert(t ir.Type) (ir.Type, bool) { return t, true }

func (identityConverter) ConvertSignature(sig ir.FuncType) (SigConversion, bool) {
	return SigConversion{Sig: sig}, true
}

// wideningConverter maps i32 to i64 and leaves everything else alone.
type wideningConverter struct{}

func (wideningConverter) Convert(t ir.Type) (ir.Type, bool) {
	if t == ir.Type(ir.I32) {
		return ir.I64, true
	}
	return t, true
}

var _ TypeConverter = wideningConverter{}

func (c wideningConverter) ConvertSignature(sig ir.FuncType) (SigConversion, bool) {
	out := ir.FuncType{}
	for _, p := range sig.Params {
		np, _ := c.Convert(p)
		out.Params = append(out.Params, np)
	}
	for _, r := range sig.Results {
		nr, _ := c.Convert(r)
		out.Results = append(out.Results, nr)
	}
	return SigConversion{Sig: out}, true
}

// stubPattern wraps a rewrite func so tests can register ad-hoc behavior.
type stubPattern struct {
	kind ir.OpKind
	fn   func(rw *Rewriter, op ir.OpID, operands []ir.Value) (Result, error)
}

func (p stubPattern) Kind() ir.OpKind { return p.kind }

func (p stubPattern) Rewrite(rw *Rewriter, op ir.OpID, operands []ir.Value) (Result, error) {
	return p.fn(rw, op, operands)
}

// recordingListener captures events in arrival order.
type recordingListener struct {
	events []Event
}

func (l *recordingListener) Rewrote(ev Event) { l.events = append(l.events, ev) }

// testGraph is a module op with one block, pre-rooted, plus block args
// for operand material.
type testGraph struct {
	g     *ir.Graph
	mod   ir.OpID
	block ir.BlockID
	args  []ir.Value
}

func newTestGraph(t *testing.T, argTypes ...ir.Type) *testGraph {
	t.Helper()
	g := ir.NewGraph()
	mod := g.NewOp(srcModule, ir.Location{}, nil, nil, nil)
	region := g.NewRegion(mod)
	block := g.NewBlock(region)
	args := make([]ir.Value, len(argTypes))
	for i, at := range argTypes {
		args[i] = g.AddBlockArg(block, at)
	}
	require.NoError(t, g.SetRoot(mod))
	return &testGraph{g: g, mod: mod, block: block, args: args}
}

func (tg *testGraph) append(t *testing.T, kind ir.OpKind, resultTypes []ir.Type, operands []ir.Value) ir.OpID {
	t.Helper()
	op := tg.g.NewOp(kind, ir.Location{}, operands, resultTypes, nil)
	require.NoError(t, tg.g.Append(tg.block, op))
	return op
}

func mustRegistry(t *testing.T, patterns ...Pattern) *Registry {
	t.Helper()
	reg := NewRegistry()
	for _, p := range patterns {
		require.NoError(t, reg.Register(p))
	}
	return reg
}

// replaceWithDst is the trivial one-for-one lowering pattern.
func replaceWithDst(src, dst ir.OpKind) Pattern {
	return stubPattern{kind: src, fn: func(rw *Rewriter, op ir.OpID, operands []ir.Value) (Result, error) {
		g := rw.Graph()
		results := g.Op(op).Results
		if len(results) == 0 {
			rw.EmitOp(dst, nil, operands, nil)
			return ReplaceWith(), nil
		}
		nt, _ := rw.Convert(g.ValueType(results[0]))
		return ReplaceWith(rw.Emit(dst, nt, operands...)), nil
	}}
}

func TestEngineApplyReplace(t *testing.T) {
	tg := newTestGraph(t, ir.I32, ir.I32)
	add := tg.append(t, srcAdd, []ir.Type{ir.I32}, []ir.Value{tg.args[0], tg.args[1]})
	oldResult := tg.g.Op(add).Results[0]
	tg.append(t, srcRet, nil, []ir.Value{oldResult})

	reg := mustRegistry(t, replaceWithDst(srcAdd, dstAdd))
	e := NewEngine(tg.g, identityConverter{}, reg, "dst")

	out, err := e.Apply(add)
	require.NoError(t, err)
	assert.Equal(t, Replaced, out.Disp)
	require.Len(t, out.NewOps, 1)
	require.Len(t, out.Values, 1)

	ops := tg.g.BlockOps(tg.block)
	require.Len(t, ops, 2)
	assert.Equal(t, dstAdd, tg.g.Op(ops[0]).Kind)
	assert.Equal(t, srcRet, tg.g.Op(ops[1]).Kind)
	assert.Equal(t, out.NewOps[0], ops[0])
	assert.False(t, tg.g.OpAlive(add))

	newResult := tg.g.Op(ops[0]).Results[0]
	assert.Equal(t, newResult, e.Resolve(oldResult))
}

func TestEngineApplyNoPattern(t *testing.T) {
	tg := newTestGraph(t, ir.I32)
	add := tg.append(t, srcAdd, []ir.Type{ir.I32}, []ir.Value{tg.args[0], tg.args[0]})

	e := NewEngine(tg.g, identityConverter{}, NewRegistry(), "dst")
	out, err := e.Apply(add)
	require.NoError(t, err)
	assert.Equal(t, NoMatch, out.Disp)
	assert.True(t, tg.g.OpAlive(add))
}

func TestEngineApplyResolvesOperands(t *testing.T) {
	tg := newTestGraph(t, ir.I32)
	a := tg.args[0]
	first := tg.append(t, srcAdd, []ir.Type{ir.I32}, []ir.Value{a, a})
	firstResult := tg.g.Op(first).Results[0]
	second := tg.append(t, srcAdd, []ir.Type{ir.I32}, []ir.Value{firstResult, a})

	reg := mustRegistry(t, replaceWithDst(srcAdd, dstAdd))
	e := NewEngine(tg.g, identityConverter{}, reg, "dst")

	out1, err := e.Apply(first)
	require.NoError(t, err)
	out2, err := e.Apply(second)
	require.NoError(t, err)

	ops := tg.g.BlockOps(tg.block)
	require.Len(t, ops, 2)
	got := tg.g.Op(ops[1]).Operands
	assert.Equal(t, []ir.Value{out1.Values[0], a}, got)
	assert.Equal(t, out2.NewOps[0], ops[1])
}

func TestEngineApplyRollsBackOnError(t *testing.T) {
	tg := newTestGraph(t, ir.I32)
	a := tg.args[0]
	add := tg.append(t, srcAdd, []ir.Type{ir.I32}, []ir.Value{a, a})

	aliveBefore := len(tg.g.AliveOps())
	usesBefore := tg.g.Uses(a)

	boom := errors.New("boom")
	reg := mustRegistry(t, stubPattern{kind: srcAdd, fn: func(rw *Rewriter, op ir.OpID, operands []ir.Value) (Result, error) {
		rw.Emit(dstAdd, ir.I32, operands...)
		rw.Emit(dstAdd, ir.I32, operands...)
		return Result{}, boom
	}})
	e := NewEngine(tg.g, identityConverter{}, reg, "dst")

	_, err := e.Apply(add)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	assert.True(t, tg.g.OpAlive(add))
	assert.Len(t, tg.g.AliveOps(), aliveBefore)
	assert.Equal(t, usesBefore, tg.g.Uses(a))
	assert.Equal(t, []ir.OpID{add}, tg.g.BlockOps(tg.block))
}

func TestEngineApplyPreconditionSurfaces(t *testing.T) {
	tg := newTestGraph(t, ir.I32)
	add := tg.append(t, srcAdd, []ir.Type{ir.I32}, []ir.Value{tg.args[0], tg.args[0]})

	reg := mustRegistry(t, stubPattern{kind: srcAdd, fn: func(rw *Rewriter, op ir.OpID, operands []ir.Value) (Result, error) {
		return Result{}, NewWideShiftError(srcAdd, rw.Loc(), 32, 64)
	}})
	e := NewEngine(tg.g, identityConverter{}, reg, "dst")

	_, err := e.Apply(add)
	require.Error(t, err)
	assert.True(t, IsPrecondition(err))
	var pe *PreconditionError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrCodeWideShift, pe.Code)
	assert.True(t, tg.g.OpAlive(add))
}

func TestEngineApplyUnchangedDiscardsStrays(t *testing.T) {
	tg := newTestGraph(t, ir.I32)
	add := tg.append(t, srcAdd, []ir.Type{ir.I32}, []ir.Value{tg.args[0], tg.args[0]})
	aliveBefore := len(tg.g.AliveOps())

	reg := mustRegistry(t, stubPattern{kind: srcAdd, fn: func(rw *Rewriter, op ir.OpID, operands []ir.Value) (Result, error) {
		rw.Emit(dstAdd, ir.I32, operands...)
		return KeepUnchanged(), nil
	}})
	e := NewEngine(tg.g, identityConverter{}, reg, "dst")

	out, err := e.Apply(add)
	require.NoError(t, err)
	assert.Equal(t, Unchanged, out.Disp)
	assert.Empty(t, out.NewOps)
	assert.True(t, tg.g.OpAlive(add))
	assert.Len(t, tg.g.AliveOps(), aliveBefore)
}

func TestEngineApplyArityMismatch(t *testing.T) {
	tg := newTestGraph(t, ir.I32)
	add := tg.append(t, srcAdd, []ir.Type{ir.I32}, []ir.Value{tg.args[0], tg.args[0]})
	aliveBefore := len(tg.g.AliveOps())

	reg := mustRegistry(t, stubPattern{kind: srcAdd, fn: func(rw *Rewriter, op ir.OpID, operands []ir.Value) (Result, error) {
		rw.Emit(dstAdd, ir.I32, operands...)
		return ReplaceWith(), nil
	}})
	e := NewEngine(tg.g, identityConverter{}, reg, "dst")

	_, err := e.Apply(add)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapped 0 values")
	assert.True(t, tg.g.OpAlive(add))
	assert.Len(t, tg.g.AliveOps(), aliveBefore)
}

func TestEngineApplyErasedWithResults(t *testing.T) {
	tg := newTestGraph(t, ir.I32)
	add := tg.append(t, srcAdd, []ir.Type{ir.I32}, []ir.Value{tg.args[0], tg.args[0]})

	reg := mustRegistry(t, stubPattern{kind: srcAdd, fn: func(rw *Rewriter, op ir.OpID, operands []ir.Value) (Result, error) {
		return EraseOnly(), nil
	}})
	e := NewEngine(tg.g, identityConverter{}, reg, "dst")

	_, err := e.Apply(add)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "erased an op with 1 result")
	assert.True(t, tg.g.OpAlive(add))
}

func TestEngineApplyErase(t *testing.T) {
	tg := newTestGraph(t, ir.I32)
	ret := tg.append(t, srcRet, nil, []ir.Value{tg.args[0]})

	reg := mustRegistry(t, stubPattern{kind: srcRet, fn: func(rw *Rewriter, op ir.OpID, operands []ir.Value) (Result, error) {
		return EraseOnly(), nil
	}})
	e := NewEngine(tg.g, identityConverter{}, reg, "dst")

	out, err := e.Apply(ret)
	require.NoError(t, err)
	assert.Equal(t, Erased, out.Disp)
	assert.Empty(t, out.NewOps)
	assert.False(t, tg.g.OpAlive(ret))
	assert.Empty(t, tg.g.BlockOps(tg.block))
	assert.Equal(t, 0, tg.g.Uses(tg.args[0]))
}

func TestEngineApplyInvalidDisposition(t *testing.T) {
	tg := newTestGraph(t, ir.I32)
	add := tg.append(t, srcAdd, []ir.Type{ir.I32}, []ir.Value{tg.args[0], tg.args[0]})

	reg := mustRegistry(t, stubPattern{kind: srcAdd, fn: func(rw *Rewriter, op ir.OpID, operands []ir.Value) (Result, error) {
		return Result{Disp: Disposition(42)}, nil
	}})
	e := NewEngine(tg.g, identityConverter{}, reg, "dst")

	_, err := e.Apply(add)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid disposition")
	assert.True(t, tg.g.OpAlive(add))
}

func TestEngineApplyRootReplacement(t *testing.T) {
	tg := newTestGraph(t, ir.I32)
	add := tg.append(t, srcAdd, []ir.Type{ir.I32}, []ir.Value{tg.args[0], tg.args[0]})

	reg := mustRegistry(t, stubPattern{kind: srcModule, fn: func(rw *Rewriter, op ir.OpID, operands []ir.Value) (Result, error) {
		g := rw.Graph()
		mod := rw.EmitOp(dstModule, nil, nil, nil)
		rw.MoveBlocks(g.Op(op).Regions[0], rw.NewRegion(mod))
		return ReplaceWith(), nil
	}})
	e := NewEngine(tg.g, identityConverter{}, reg, "dst")

	out, err := e.Apply(tg.mod)
	require.NoError(t, err)
	require.Len(t, out.NewOps, 1)

	root := tg.g.Root()
	assert.Equal(t, out.NewOps[0], root)
	assert.Equal(t, ir.OpKind(dstModule), tg.g.Op(root).Kind)
	assert.False(t, tg.g.OpAlive(tg.mod))

	require.Len(t, tg.g.Op(root).Regions, 1)
	blocks := tg.g.RegionBlocks(tg.g.Op(root).Regions[0])
	require.Len(t, blocks, 1)
	assert.Equal(t, tg.block, blocks[0])
	assert.Equal(t, []ir.OpID{add}, tg.g.BlockOps(tg.block))
	require.NoError(t, tg.g.Verify())
}

func TestEngineApplyRootNeedsOneStagedOp(t *testing.T) {
	tg := newTestGraph(t)

	reg := mustRegistry(t, stubPattern{kind: srcModule, fn: func(rw *Rewriter, op ir.OpID, operands []ir.Value) (Result, error) {
		rw.EmitOp(dstModule, nil, nil, nil)
		rw.EmitOp(dstModule, nil, nil, nil)
		return ReplaceWith(), nil
	}})
	e := NewEngine(tg.g, identityConverter{}, reg, "dst")

	_, err := e.Apply(tg.mod)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one op")
	assert.True(t, tg.g.OpAlive(tg.mod))
	assert.Equal(t, tg.mod, tg.g.Root())
}

func TestEngineResolveChain(t *testing.T) {
	tg := newTestGraph(t, ir.I32, ir.I32, ir.I32)
	a, b, c := tg.args[0], tg.args[1], tg.args[2]

	e := NewEngine(tg.g, identityConverter{}, NewRegistry(), "dst")
	e.state[a] = b
	e.state[b] = c

	assert.Equal(t, c, e.Resolve(a))
	assert.Equal(t, c, e.Resolve(b))
	assert.Equal(t, c, e.Resolve(c))
}

func TestEngineEvents(t *testing.T) {
	tg := newTestGraph(t, ir.I32)
	add := tg.append(t, srcAdd, []ir.Type{ir.I32}, []ir.Value{tg.args[0], tg.args[0]})
	ret := tg.append(t, srcRet, nil, []ir.Value{tg.g.Op(add).Results[0]})

	rec := &recordingListener{}
	reg := mustRegistry(t,
		replaceWithDst(srcAdd, dstAdd),
		replaceWithDst(srcRet, dstRet),
	)
	e := NewEngine(tg.g, identityConverter{}, reg, "dst", WithListener(rec))

	_, err := e.Apply(add)
	require.NoError(t, err)
	_, err = e.Apply(ret)
	require.NoError(t, err)

	require.Len(t, rec.events, 2)
	assert.Equal(t, int64(1), rec.events[0].Seq)
	assert.Equal(t, int64(2), rec.events[1].Seq)
	assert.Equal(t, ir.OpKind(srcAdd), rec.events[0].Src)
	assert.Equal(t, ir.OpKind(srcRet), rec.events[1].Src)
	assert.Equal(t, Replaced, rec.events[0].Disp)
	assert.Equal(t, []ir.OpKind{dstAdd}, rec.events[0].Repl)
	assert.Equal(t, []ir.OpKind{dstRet}, rec.events[1].Repl)
}

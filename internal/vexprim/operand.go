package vexprim

import (
	"github.com/descent-ir/descent/internal/ir"
	"github.com/descent-ir/descent/internal/prim"
	"github.com/descent-ir/descent/internal/rewrite"
)

// intConst stages an integer constant of type t, splat across lanes for
// vectors.
func intConst(rw *rewrite.Rewriter, t ir.Type, v int64) ir.Value {
	if lanes := ir.Lanes(t); lanes > 1 {
		return rw.EmitAttrs(prim.Constant, t, ir.Attrs{prim.AttrValue: ir.SplatInt(lanes, v)})
	}
	return rw.EmitAttrs(prim.Constant, t, ir.Attrs{prim.AttrValue: ir.IntAttr{Value: v}})
}

// allOnes stages a constant with every bit of t set.
func allOnes(rw *rewrite.Rewriter, t ir.Type) ir.Value {
	return intConst(rw, t, -1)
}

// broadcast splats a scalar into every lane of vt: an undef vector
// filled lane by lane with insertelement.
func broadcast(rw *rewrite.Rewriter, scalar ir.Value, vt ir.Type) ir.Value {
	vec := rw.Emit(prim.Undef, vt)
	for i := 0; i < ir.Lanes(vt); i++ {
		idx := rw.EmitAttrs(prim.Constant, ir.I32, ir.Attrs{prim.AttrValue: ir.IntAttr{Value: int64(i)}})
		vec = rw.Emit(prim.InsertElement, vt, vec, scalar, idx)
	}
	return vec
}

// extendOrTruncate reconciles v's element width with want's: zext when
// narrower, trunc when wider, unchanged when equal. The shapes must
// already agree.
func extendOrTruncate(rw *rewrite.Rewriter, v ir.Value, want ir.Type) ir.Value {
	have := ir.BitWidth(rw.Graph().ValueType(v))
	switch target := ir.BitWidth(want); {
	case have < target:
		return rw.Emit(prim.ZExt, want, v)
	case have > target:
		return rw.Emit(prim.Trunc, want, v)
	default:
		return v
	}
}

// prepareCountOrOffset brings a bitfield count or offset operand to the
// base's shape and element width: broadcast first if the base is a
// vector, then zero-extend or truncate. Counts and offsets are
// quantities, never signs, so the extension is always zext.
func prepareCountOrOffset(rw *rewrite.Rewriter, v ir.Value, baseType ir.Type) ir.Value {
	vt := rw.Graph().ValueType(v)
	if ir.IsVector(baseType) && !ir.IsVector(vt) {
		v = broadcast(rw, v, ir.VecOf(ir.Elem(vt), ir.Lanes(baseType)))
	}
	return extendOrTruncate(rw, v, baseType)
}

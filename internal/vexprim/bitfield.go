package vexprim

import (
	"github.com/descent-ir/descent/internal/ir"
	"github.com/descent-ir/descent/internal/prim"
	"github.com/descent-ir/descent/internal/rewrite"
	"github.com/descent-ir/descent/internal/vex"
)

// BitFieldInsertPattern expands vex.bitfield_insert over mask algebra:
//
//	mask    = (((-1 shl count) xor -1) shl offset) xor -1
//	result  = (base and mask) or (insert shl offset)
//
// mask has zeros exactly in [offset, offset+count), so the and clears
// the field and the or drops the shifted insert into it.
type BitFieldInsertPattern struct{}

// Kind implements rewrite.Pattern.
func (BitFieldInsertPattern) Kind() ir.OpKind { return vex.BitFieldInsert }

// Rewrite implements rewrite.Pattern.
func (BitFieldInsertPattern) Rewrite(rw *rewrite.Rewriter, op ir.OpID, operands []ir.Value) (rewrite.Result, error) {
	g := rw.Graph()
	t, ok := rw.Convert(g.ValueType(g.Op(op).Results[0]))
	if !ok {
		return rewrite.Skip(), nil
	}
	base, insert := operands[0], operands[1]
	offset := prepareCountOrOffset(rw, operands[2], t)
	count := prepareCountOrOffset(rw, operands[3], t)

	ones := allOnes(rw, t)
	raisedByCount := rw.Emit(prim.Shl, t, ones, count)
	lowField := rw.Emit(prim.Xor, t, raisedByCount, ones)
	placedField := rw.Emit(prim.Shl, t, lowField, offset)
	mask := rw.Emit(prim.Xor, t, placedField, ones)

	cleared := rw.Emit(prim.And, t, base, mask)
	shiftedInsert := rw.Emit(prim.Shl, t, insert, offset)
	return rewrite.ReplaceWith(rw.Emit(prim.Or, t, cleared, shiftedInsert)), nil
}

// BitFieldSExtractPattern expands vex.bitfield_sextract by pushing the
// field's top bit into the sign position and arithmetic-shifting back:
//
//	left   = width - (count + offset)
//	result = (base shl left) ashr (offset + left)
type BitFieldSExtractPattern struct{}

// Kind implements rewrite.Pattern.
func (BitFieldSExtractPattern) Kind() ir.OpKind { return vex.BitFieldSExtract }

// Rewrite implements rewrite.Pattern.
func (BitFieldSExtractPattern) Rewrite(rw *rewrite.Rewriter, op ir.OpID, operands []ir.Value) (rewrite.Result, error) {
	g := rw.Graph()
	t, ok := rw.Convert(g.ValueType(g.Op(op).Results[0]))
	if !ok {
		return rewrite.Skip(), nil
	}
	base := operands[0]
	offset := prepareCountOrOffset(rw, operands[1], t)
	count := prepareCountOrOffset(rw, operands[2], t)

	size := intConst(rw, t, int64(ir.BitWidth(t)))
	span := rw.Emit(prim.Add, t, count, offset)
	left := rw.Emit(prim.Sub, t, size, span)
	raised := rw.Emit(prim.Shl, t, base, left)
	right := rw.Emit(prim.Add, t, offset, left)
	return rewrite.ReplaceWith(rw.Emit(prim.AShr, t, raised, right)), nil
}

// BitFieldUExtractPattern expands vex.bitfield_uextract as a logical
// shift down followed by a low mask:
//
//	result = (base lshr offset) and ((-1 shl count) xor -1)
type BitFieldUExtractPattern struct{}

// Kind implements rewrite.Pattern.
func (BitFieldUExtractPattern) Kind() ir.OpKind { return vex.BitFieldUExtract }

// Rewrite implements rewrite.Pattern.
func (BitFieldUExtractPattern) Rewrite(rw *rewrite.Rewriter, op ir.OpID, operands []ir.Value) (rewrite.Result, error) {
	g := rw.Graph()
	t, ok := rw.Convert(g.ValueType(g.Op(op).Results[0]))
	if !ok {
		return rewrite.Skip(), nil
	}
	base := operands[0]
	offset := prepareCountOrOffset(rw, operands[1], t)
	count := prepareCountOrOffset(rw, operands[2], t)

	ones := allOnes(rw, t)
	raisedByCount := rw.Emit(prim.Shl, t, ones, count)
	lowField := rw.Emit(prim.Xor, t, raisedByCount, ones)
	lowered := rw.Emit(prim.LShr, t, base, offset)
	return rewrite.ReplaceWith(rw.Emit(prim.And, t, lowered, lowField)), nil
}

package vexprim

import (
	"github.com/descent-ir/descent/internal/ir"
	"github.com/descent-ir/descent/internal/prim"
	"github.com/descent-ir/descent/internal/rewrite"
	"github.com/descent-ir/descent/internal/vex"
)

// ShiftPattern lowers the shifts, reconciling vex's mixed-width shift
// amounts. A narrower amount is extended to the base's width, sign- or
// zero-extended by the amount's source signedness. An amount wider than
// the base has no faithful narrowing and is rejected as a precondition
// violation.
type ShiftPattern struct {
	src vex.Code
	dst prim.Code
}

// NewShiftPattern builds the lowering from one vex shift to its prim
// counterpart.
func NewShiftPattern(src vex.Code, dst prim.Code) ShiftPattern {
	return ShiftPattern{src: src, dst: dst}
}

// Kind implements rewrite.Pattern.
func (p ShiftPattern) Kind() ir.OpKind { return p.src }

// Rewrite implements rewrite.Pattern.
func (p ShiftPattern) Rewrite(rw *rewrite.Rewriter, op ir.OpID, operands []ir.Value) (rewrite.Result, error) {
	g := rw.Graph()
	node := g.Op(op)
	loc := node.Loc
	// The amount's signedness comes from the source operand type; the
	// resolved operand is already signless.
	amountWasUnsigned := ir.IsUnsignedInt(g.ValueType(node.Operands[1]))

	t, ok := rw.Convert(g.ValueType(node.Results[0]))
	if !ok {
		return rewrite.Skip(), nil
	}
	base, amount := operands[0], operands[1]
	baseWidth := ir.BitWidth(t)
	amountWidth := ir.BitWidth(g.ValueType(amount))

	switch {
	case amountWidth > baseWidth:
		return rewrite.Result{}, rewrite.NewWideShiftError(p.src, loc, baseWidth, amountWidth)
	case amountWidth < baseWidth:
		amountType := shapedAs(g.ValueType(amount), t)
		if amountWasUnsigned {
			amount = rw.Emit(prim.ZExt, amountType, amount)
		} else {
			amount = rw.Emit(prim.SExt, amountType, amount)
		}
	}
	return rewrite.ReplaceWith(rw.Emit(p.dst, t, base, amount)), nil
}

// shapedAs returns want's element type in have's shape, so a scalar
// amount extends to a scalar even when the base is a vector.
func shapedAs(have, want ir.Type) ir.Type {
	if ir.IsVector(have) {
		return ir.VecOf(ir.Elem(want), ir.Lanes(have))
	}
	return ir.Elem(want)
}

package vexprim

import (
	"github.com/descent-ir/descent/internal/ir"
	"github.com/descent-ir/descent/internal/prim"
	"github.com/descent-ir/descent/internal/rewrite"
	"github.com/descent-ir/descent/internal/vex"
)

// ComparePattern lowers a sign- or order-specific vex comparison to the
// generic predicated compare, with the predicate spelled as a string
// attribute.
type ComparePattern struct {
	src  vex.Code
	dst  prim.Code
	pred string
}

// NewIComparePattern builds an integer comparison lowering.
func NewIComparePattern(src vex.Code, pred prim.ICmpPred) ComparePattern {
	return ComparePattern{src: src, dst: prim.ICmp, pred: pred.String()}
}

// NewFComparePattern builds a float comparison lowering.
func NewFComparePattern(src vex.Code, pred prim.FCmpPred) ComparePattern {
	return ComparePattern{src: src, dst: prim.FCmp, pred: pred.String()}
}

// Kind implements rewrite.Pattern.
func (p ComparePattern) Kind() ir.OpKind { return p.src }

// Rewrite implements rewrite.Pattern.
func (p ComparePattern) Rewrite(rw *rewrite.Rewriter, op ir.OpID, operands []ir.Value) (rewrite.Result, error) {
	g := rw.Graph()
	t, ok := rw.Convert(g.ValueType(g.Op(op).Results[0]))
	if !ok {
		return rewrite.Skip(), nil
	}
	attrs := ir.Attrs{prim.AttrPredicate: ir.StringAttr{Value: p.pred}}
	return rewrite.ReplaceWith(rw.EmitAttrs(p.dst, t, attrs, operands...)), nil
}

// NotPattern lowers bitwise and logical negation to xor with all ones.
// For i1 the two coincide, which is why vex.logical_not shares the
// expansion.
type NotPattern struct {
	src vex.Code
}

// NewNotPattern builds the negation lowering for src.
func NewNotPattern(src vex.Code) NotPattern {
	return NotPattern{src: src}
}

// Kind implements rewrite.Pattern.
func (p NotPattern) Kind() ir.OpKind { return p.src }

// Rewrite implements rewrite.Pattern.
func (p NotPattern) Rewrite(rw *rewrite.Rewriter, op ir.OpID, operands []ir.Value) (rewrite.Result, error) {
	g := rw.Graph()
	t, ok := rw.Convert(g.ValueType(g.Op(op).Results[0]))
	if !ok {
		return rewrite.Skip(), nil
	}
	ones := allOnes(rw, t)
	return rewrite.ReplaceWith(rw.Emit(prim.Xor, t, operands[0], ones)), nil
}

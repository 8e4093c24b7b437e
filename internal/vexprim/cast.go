package vexprim

import (
	"github.com/descent-ir/descent/internal/ir"
	"github.com/descent-ir/descent/internal/prim"
	"github.com/descent-ir/descent/internal/rewrite"
	"github.com/descent-ir/descent/internal/vex"
)

// CastPattern lowers the width-changing casts (fconvert, sconvert,
// uconvert): extend when the result is wider, truncate when narrower.
// Equal widths have no primitive spelling and stay unmatched.
type CastPattern struct {
	src   vex.Code
	ext   prim.Code
	trunc prim.Code
}

// NewCastPattern builds the lowering for one cast family.
func NewCastPattern(src vex.Code, ext, trunc prim.Code) CastPattern {
	return CastPattern{src: src, ext: ext, trunc: trunc}
}

// Kind implements rewrite.Pattern.
func (p CastPattern) Kind() ir.OpKind { return p.src }

// Rewrite implements rewrite.Pattern.
func (p CastPattern) Rewrite(rw *rewrite.Rewriter, op ir.OpID, operands []ir.Value) (rewrite.Result, error) {
	g := rw.Graph()
	t, ok := rw.Convert(g.ValueType(g.Op(op).Results[0]))
	if !ok {
		return rewrite.Skip(), nil
	}
	have := ir.BitWidth(g.ValueType(operands[0]))
	switch want := ir.BitWidth(t); {
	case have < want:
		return rewrite.ReplaceWith(rw.Emit(p.ext, t, operands[0])), nil
	case have > want:
		return rewrite.ReplaceWith(rw.Emit(p.trunc, t, operands[0])), nil
	default:
		return rewrite.Skip(), nil
	}
}

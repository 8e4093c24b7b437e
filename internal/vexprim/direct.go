package vexprim

import (
	"github.com/descent-ir/descent/internal/ir"
	"github.com/descent-ir/descent/internal/prim"
	"github.com/descent-ir/descent/internal/rewrite"
	"github.com/descent-ir/descent/internal/vex"
)

// DirectPattern lowers one vex op to one prim op: the operands are
// forwarded, the attributes carried over, and the result type run
// through the converter. This covers everything whose semantics already
// line up, including constants (their payloads need no change, only the
// result type goes signless) and both return forms.
type DirectPattern struct {
	src vex.Code
	dst prim.Code
}

// NewDirectPattern builds the one-for-one lowering from src to dst.
func NewDirectPattern(src vex.Code, dst prim.Code) DirectPattern {
	return DirectPattern{src: src, dst: dst}
}

// Kind implements rewrite.Pattern.
func (p DirectPattern) Kind() ir.OpKind { return p.src }

// Rewrite implements rewrite.Pattern.
func (p DirectPattern) Rewrite(rw *rewrite.Rewriter, op ir.OpID, operands []ir.Value) (rewrite.Result, error) {
	g := rw.Graph()
	node := g.Op(op)
	attrs := node.Attrs.Clone()

	if len(node.Results) == 0 {
		rw.EmitOp(p.dst, nil, operands, attrs)
		return rewrite.ReplaceWith(), nil
	}
	if len(node.Results) != 1 {
		return rewrite.Skip(), nil
	}
	t, ok := rw.Convert(g.ValueType(node.Results[0]))
	if !ok {
		return rewrite.Skip(), nil
	}
	return rewrite.ReplaceWith(rw.EmitAttrs(p.dst, t, attrs, operands...)), nil
}

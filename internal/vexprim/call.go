package vexprim

import (
	"github.com/descent-ir/descent/internal/ir"
	"github.com/descent-ir/descent/internal/prim"
	"github.com/descent-ir/descent/internal/rewrite"
	"github.com/descent-ir/descent/internal/vex"
)

// FunctionCallPattern lowers vex.call to prim.call, carrying the callee
// symbol. Calls with more than one result have no lowering and are
// rejected as a precondition violation.
type FunctionCallPattern struct{}

// Kind implements rewrite.Pattern.
func (FunctionCallPattern) Kind() ir.OpKind { return vex.FunctionCall }

// Rewrite implements rewrite.Pattern.
func (FunctionCallPattern) Rewrite(rw *rewrite.Rewriter, op ir.OpID, operands []ir.Value) (rewrite.Result, error) {
	g := rw.Graph()
	node := g.Op(op)
	loc := node.Loc
	callee := node.StringAttrValue(vex.AttrCallee)
	results := append([]ir.Value(nil), node.Results...)

	if len(results) > 1 {
		return rewrite.Result{}, rewrite.NewMultiResultCallError(vex.FunctionCall, loc, len(results))
	}
	attrs := ir.Attrs{prim.AttrCallee: ir.StringAttr{Value: callee}}
	if len(results) == 0 {
		rw.EmitOp(prim.Call, nil, operands, attrs)
		return rewrite.ReplaceWith(), nil
	}
	t, ok := rw.Convert(g.ValueType(results[0]))
	if !ok {
		return rewrite.Skip(), nil
	}
	return rewrite.ReplaceWith(rw.EmitAttrs(prim.Call, t, attrs, operands...)), nil
}

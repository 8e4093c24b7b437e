package vexprim

import (
	"fmt"

	"github.com/descent-ir/descent/internal/ir"
	"github.com/descent-ir/descent/internal/prim"
	"github.com/descent-ir/descent/internal/rewrite"
	"github.com/descent-ir/descent/internal/vex"
)

// FuncPattern lowers vex.func: the signature converts, the entry block
// arguments are swapped for signless ones, the body moves into the new
// container, and the function control hint becomes a passthrough entry.
type FuncPattern struct{}

// Kind implements rewrite.Pattern.
func (FuncPattern) Kind() ir.OpKind { return vex.Func }

// Rewrite implements rewrite.Pattern.
func (FuncPattern) Rewrite(rw *rewrite.Rewriter, op ir.OpID, operands []ir.Value) (rewrite.Result, error) {
	g := rw.Graph()
	node := g.Op(op)
	sym := node.StringAttrValue(vex.AttrSymName)
	sigAttr, ok := node.Attrs[vex.AttrFuncType].(ir.FuncTypeAttr)
	if !ok {
		return rewrite.Skip(), nil
	}
	control, err := vex.ParseControl(node.StringAttrValue(vex.AttrControl))
	if err != nil {
		return rewrite.Result{}, fmt.Errorf("func %q: %w", sym, err)
	}
	body := node.Regions[0]

	sc, ok := rw.ConvertSignature(sigAttr.Sig)
	if !ok {
		return rewrite.Skip(), nil
	}
	attrs := ir.Attrs{
		prim.AttrSymName:  ir.StringAttr{Value: sym},
		prim.AttrFuncType: ir.FuncTypeAttr{Sig: sc.Sig},
	}
	if hint, ok := passthroughHint(control); ok {
		attrs[prim.AttrPassthrough] = ir.ArrayAttr{Elems: []ir.Attr{ir.StringAttr{Value: hint}}}
	}

	fn := rw.EmitOp(prim.Func, nil, nil, attrs)
	if blocks := g.RegionBlocks(body); len(blocks) > 0 {
		rw.ConvertBlockArgs(blocks[0], sc)
	}
	rw.MoveBlocks(body, rw.NewRegion(fn))
	return rewrite.ReplaceWith(), nil
}

// passthroughHint maps a function control to its passthrough spelling.
// ControlNone carries no hint at all.
func passthroughHint(c vex.Control) (string, bool) {
	switch c {
	case vex.ControlInline:
		return prim.HintAlwaysInline, true
	case vex.ControlDontInline:
		return prim.HintNoInline, true
	case vex.ControlPure:
		return prim.HintReadOnly, true
	case vex.ControlConst:
		return prim.HintReadNone, true
	default:
		return "", false
	}
}

// ModulePattern lowers vex.module by moving its body into a fresh
// prim.module. The driver re-roots the graph onto the replacement.
type ModulePattern struct{}

// Kind implements rewrite.Pattern.
func (ModulePattern) Kind() ir.OpKind { return vex.Module }

// Rewrite implements rewrite.Pattern.
func (ModulePattern) Rewrite(rw *rewrite.Rewriter, op ir.OpID, operands []ir.Value) (rewrite.Result, error) {
	body := rw.Graph().Op(op).Regions[0]
	mod := rw.EmitOp(prim.Module, nil, nil, nil)
	rw.MoveBlocks(body, rw.NewRegion(mod))
	return rewrite.ReplaceWith(), nil
}

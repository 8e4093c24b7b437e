package vex

import (
	"fmt"

	"github.com/descent-ir/descent/internal/ir"
)

// Issue is one well-formedness violation found in a module.
type Issue struct {
	Loc ir.Location
	Msg string
}

func (i Issue) String() string {
	if i.Loc.IsValid() {
		return fmt.Sprintf("%s: %s", i.Loc, i.Msg)
	}
	return i.Msg
}

// ValidateModule checks a built graph for structural well-formedness:
// the root is a module holding funcs, every op satisfies its Info shape,
// terminators sit last, and types pass ir.ValidateType. It returns every
// issue found rather than stopping at the first.
//
// ValidateModule is a pure function with no side effects.
func ValidateModule(g *ir.Graph) []Issue {
	v := &validator{g: g}
	v.module(g.Root())
	return v.issues
}

// validator accumulates issues during traversal.
type validator struct {
	g      *ir.Graph
	issues []Issue
}

func (v *validator) addIssue(loc ir.Location, format string, args ...any) {
	v.issues = append(v.issues, Issue{Loc: loc, Msg: fmt.Sprintf(format, args...)})
}

func (v *validator) module(root ir.OpID) {
	if !root.IsValid() {
		v.addIssue(ir.Location{}, "graph has no root op")
		return
	}
	op := v.g.Op(root)
	if op.Kind != Module {
		v.addIssue(op.Loc, "root op is %s, want %s", op.Kind, Module)
		return
	}
	v.shape(root)
	blocks := v.blocksOf(root)
	if len(blocks) != 1 {
		v.addIssue(op.Loc, "module region has %d blocks, want 1", len(blocks))
		return
	}
	ops := v.g.BlockOps(blocks[0])
	if len(ops) == 0 || v.g.Op(ops[len(ops)-1]).Kind != ModuleEnd {
		v.addIssue(op.Loc, "module block must end with %s", ModuleEnd)
	}
	for i, id := range ops {
		inner := v.g.Op(id)
		switch inner.Kind {
		case Func:
			v.fn(id)
		case ModuleEnd:
			if i != len(ops)-1 {
				v.addIssue(inner.Loc, "%s before end of module block", ModuleEnd)
			}
			v.shape(id)
		default:
			v.addIssue(inner.Loc, "op %s not allowed at module level", inner.Kind)
		}
	}
}

func (v *validator) fn(id ir.OpID) {
	op := v.g.Op(id)
	v.shape(id)

	name := op.StringAttrValue(AttrSymName)
	if name == "" {
		v.addIssue(op.Loc, "func missing %s attr", AttrSymName)
		name = "<anonymous>"
	}
	sigAttr, ok := op.Attrs[AttrFuncType].(ir.FuncTypeAttr)
	if !ok {
		v.addIssue(op.Loc, "func %s missing %s attr", name, AttrFuncType)
		return
	}
	sig := sigAttr.Sig
	if ctl := op.StringAttrValue(AttrControl); ctl != "" {
		if _, err := ParseControl(ctl); err != nil {
			v.addIssue(op.Loc, "func %s: %v", name, err)
		}
	}

	blocks := v.blocksOf(id)
	if len(blocks) != 1 {
		v.addIssue(op.Loc, "func %s has %d blocks, want 1", name, len(blocks))
		return
	}
	entry := blocks[0]
	args := v.g.BlockArgs(entry)
	if len(args) != len(sig.Params) {
		v.addIssue(op.Loc, "func %s: %d entry args, signature has %d params", name, len(args), len(sig.Params))
	} else {
		for i, a := range args {
			if v.g.ValueType(a) != sig.Params[i] {
				v.addIssue(op.Loc, "func %s: arg %d is %s, signature says %s",
					name, i, v.g.ValueType(a), sig.Params[i])
			}
		}
	}

	ops := v.g.BlockOps(entry)
	if len(ops) == 0 {
		v.addIssue(op.Loc, "func %s has an empty body", name)
		return
	}
	for i, bodyID := range ops {
		body := v.g.Op(bodyID)
		code, ok := body.Kind.(Code)
		if !ok {
			v.addIssue(body.Loc, "func %s: foreign dialect op %s", name, body.Kind)
			continue
		}
		v.shape(bodyID)
		last := i == len(ops)-1
		if IsTerminator(code) != last {
			if last {
				v.addIssue(body.Loc, "func %s must end with a terminator, got %s", name, body.Kind)
			} else {
				v.addIssue(body.Loc, "func %s: terminator %s before end of block", name, body.Kind)
			}
		}
		v.terminatorMatchesSignature(name, body, code, sig)
	}
}

func (v *validator) terminatorMatchesSignature(name string, op *ir.Op, code Code, sig ir.FuncType) {
	switch code {
	case Return:
		if len(sig.Results) != 0 {
			v.addIssue(op.Loc, "func %s returns no value but signature has %d results", name, len(sig.Results))
		}
	case ReturnValue:
		if len(sig.Results) != 1 {
			v.addIssue(op.Loc, "func %s returns a value but signature has %d results", name, len(sig.Results))
		} else if len(op.Operands) == 1 && v.g.ValueType(op.Operands[0]) != sig.Results[0] {
			v.addIssue(op.Loc, "func %s returns %s, signature says %s",
				name, v.g.ValueType(op.Operands[0]), sig.Results[0])
		}
	}
}

// shape checks one op against its Info row and its types against the
// structural type rules.
func (v *validator) shape(id ir.OpID) {
	op := v.g.Op(id)
	code, ok := op.Kind.(Code)
	if !ok {
		v.addIssue(op.Loc, "foreign dialect op %s", op.Kind)
		return
	}
	info := InfoFor(code)

	switch {
	case info.Variadic:
		if len(op.Operands) < info.Operands {
			v.addIssue(op.Loc, "%s has %d operands, want at least %d", code, len(op.Operands), info.Operands)
		}
	case len(op.Operands) != info.Operands:
		v.addIssue(op.Loc, "%s has %d operands, want %d", code, len(op.Operands), info.Operands)
	}

	switch {
	case len(op.Results) == info.Results:
	case info.ResultOptional && len(op.Results) == 0:
	default:
		v.addIssue(op.Loc, "%s has %d results, want %d", code, len(op.Results), info.Results)
	}

	if len(op.Regions) != info.Regions {
		v.addIssue(op.Loc, "%s has %d regions, want %d", code, len(op.Regions), info.Regions)
	}

	for _, r := range op.Results {
		if err := ir.ValidateType(v.g.ValueType(r)); err != nil {
			v.addIssue(op.Loc, "%s result: %v", code, err)
		}
	}

	switch code {
	case Constant:
		if _, ok := op.Attrs[AttrValue]; !ok {
			v.addIssue(op.Loc, "%s missing %s attr", code, AttrValue)
		}
	case FunctionCall:
		if op.StringAttrValue(AttrCallee) == "" {
			v.addIssue(op.Loc, "%s missing %s attr", code, AttrCallee)
		}
	case IEq, INe, SGt, SGe, SLt, SLe, UGt, UGe, ULt, ULe,
		FOEq, FOGt, FOGe, FOLt, FOLe, FONe,
		FUEq, FUGt, FUGe, FULt, FULe, FUNe:
		if len(op.Results) == 1 {
			rt := v.g.ValueType(op.Results[0])
			if ir.Elem(rt) != ir.Type(ir.I1) {
				v.addIssue(op.Loc, "%s result element must be i1, got %s", code, rt)
			}
		}
	}
}

func (v *validator) blocksOf(id ir.OpID) []ir.BlockID {
	op := v.g.Op(id)
	if len(op.Regions) == 0 {
		return nil
	}
	return v.g.RegionBlocks(op.Regions[0])
}

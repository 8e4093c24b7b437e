package frontend

import (
	"fmt"

	"cuelang.org/go/cue"
	"golang.org/x/text/unicode/norm"

	"github.com/descent-ir/descent/internal/ir"
	"github.com/descent-ir/descent/internal/vex"
)

// ident normalizes a name at the symbol-table boundary so both Unicode
// normal forms of the same spelling are one identifier.
func ident(s string) string { return norm.NFC.String(s) }

// loc converts a CUE position into an op location.
func loc(v cue.Value) ir.Location {
	p := v.Pos()
	if !p.IsValid() {
		return ir.Location{}
	}
	return ir.Location{File: p.Filename(), Line: p.Line(), Col: p.Column()}
}

// builder walks the description and assembles the graph. Functions
// compile in two passes: declarations first, so bodies can call
// functions declared later in the file.
type builder struct {
	root cue.Value
	g    *ir.Graph
	sigs map[string]ir.FuncType

	block ir.BlockID // the module block
}

func newBuilder(v cue.Value) *builder {
	return &builder{root: v, g: ir.NewGraph(), sigs: make(map[string]ir.FuncType)}
}

// fnDecl is one declared function: its normalized symbol, signature,
// parameter names, and the CUE value holding its body.
type fnDecl struct {
	name    string
	v       cue.Value
	sig     ir.FuncType
	params  []string
	control string
}

// fnState tracks one body during compilation. The scope maps normalized
// names to values; parameters seed it and named results extend it.
type fnState struct {
	decl  *fnDecl
	entry ir.BlockID
	scope map[string]ir.Value
}

func (b *builder) module() error {
	var attrs ir.Attrs
	nameVal := b.root.LookupPath(cue.ParsePath("module"))
	if nameVal.Exists() {
		name, err := nameVal.String()
		if err != nil {
			return &CompileError{Field: "module", Message: "module name must be a string", Pos: nameVal.Pos()}
		}
		attrs = ir.Attrs{vex.AttrSymName: ir.StringAttr{Value: ident(name)}}
	}
	mod := b.g.NewOp(vex.Module, loc(b.root), nil, nil, attrs)
	b.block = b.g.NewBlock(b.g.NewRegion(mod))
	if err := b.g.SetRoot(mod); err != nil {
		return err
	}

	var decls []*fnDecl
	funcs := b.root.LookupPath(cue.ParsePath("function"))
	if funcs.Exists() {
		iter, err := funcs.Fields()
		if err != nil {
			return formatCUEError(err)
		}
		for iter.Next() {
			decl, err := b.declare(iter.Label(), iter.Value())
			if err != nil {
				return err
			}
			decls = append(decls, decl)
		}
	}
	for _, d := range decls {
		if err := b.fn(d); err != nil {
			return err
		}
	}

	end := b.g.NewOp(vex.ModuleEnd, loc(b.root), nil, nil, nil)
	return b.g.Append(b.block, end)
}

// declare parses a function header and registers its signature.
func (b *builder) declare(label string, v cue.Value) (*fnDecl, error) {
	name := ident(label)
	if name == "" {
		return nil, &CompileError{Field: "function", Message: "function name must not be empty", Pos: v.Pos()}
	}
	if _, ok := b.sigs[name]; ok {
		return nil, &CompileError{
			Field:   "function." + label,
			Message: fmt.Sprintf("duplicate function %q", name),
			Pos:     v.Pos(),
		}
	}
	d := &fnDecl{name: name, v: v}

	paramsVal := v.LookupPath(cue.ParsePath("params"))
	if paramsVal.Exists() {
		iter, err := paramsVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		seen := make(map[string]bool)
		for i := 0; iter.Next(); i++ {
			field := fmt.Sprintf("function.%s.params[%d]", label, i)
			pv := iter.Value()

			nameVal := pv.LookupPath(cue.ParsePath("name"))
			if !nameVal.Exists() {
				return nil, &CompileError{Field: field, Message: "param name is required", Pos: pv.Pos()}
			}
			raw, err := nameVal.String()
			if err != nil {
				return nil, &CompileError{Field: field + ".name", Message: "param name must be a string", Pos: nameVal.Pos()}
			}
			pname := ident(raw)
			if pname == "" {
				return nil, &CompileError{Field: field + ".name", Message: "param name must not be empty", Pos: nameVal.Pos()}
			}
			if seen[pname] {
				return nil, &CompileError{
					Field:   field + ".name",
					Message: fmt.Sprintf("duplicate parameter %q", pname),
					Pos:     nameVal.Pos(),
				}
			}
			seen[pname] = true

			typeVal := pv.LookupPath(cue.ParsePath("type"))
			if !typeVal.Exists() {
				return nil, &CompileError{Field: field, Message: "param type is required", Pos: pv.Pos()}
			}
			t, err := b.parseTypeField(field+".type", typeVal)
			if err != nil {
				return nil, err
			}
			d.params = append(d.params, pname)
			d.sig.Params = append(d.sig.Params, t)
		}
	}

	resultsVal := v.LookupPath(cue.ParsePath("results"))
	if resultsVal.Exists() {
		iter, err := resultsVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for i := 0; iter.Next(); i++ {
			t, err := b.parseTypeField(fmt.Sprintf("function.%s.results[%d]", label, i), iter.Value())
			if err != nil {
				return nil, err
			}
			d.sig.Results = append(d.sig.Results, t)
		}
		if len(d.sig.Results) > 1 {
			return nil, &CompileError{
				Field:   "function." + label + ".results",
				Message: fmt.Sprintf("%d results, at most one is supported", len(d.sig.Results)),
				Pos:     resultsVal.Pos(),
			}
		}
	}

	controlVal := v.LookupPath(cue.ParsePath("control"))
	if controlVal.Exists() {
		s, err := controlVal.String()
		if err != nil {
			return nil, &CompileError{Field: "function." + label + ".control", Message: "control must be a string", Pos: controlVal.Pos()}
		}
		if _, err := vex.ParseControl(s); err != nil {
			return nil, &CompileError{Field: "function." + label + ".control", Message: err.Error(), Pos: controlVal.Pos()}
		}
		d.control = s
	}

	b.sigs[name] = d.sig
	return d, nil
}

// parseTypeField reads a type string out of a CUE value.
func (b *builder) parseTypeField(field string, v cue.Value) (ir.Type, error) {
	s, err := v.String()
	if err != nil {
		return nil, &CompileError{Field: field, Message: "type must be a string", Pos: v.Pos()}
	}
	t, err := ParseType(s)
	if err != nil {
		return nil, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
	}
	return t, nil
}

// fn builds the op, entry block, and body of one declared function.
func (b *builder) fn(d *fnDecl) error {
	attrs := ir.Attrs{
		vex.AttrSymName:  ir.StringAttr{Value: d.name},
		vex.AttrFuncType: ir.FuncTypeAttr{Sig: d.sig},
	}
	if d.control != "" {
		attrs[vex.AttrControl] = ir.StringAttr{Value: d.control}
	}
	op := b.g.NewOp(vex.Func, loc(d.v), nil, nil, attrs)
	if err := b.g.Append(b.block, op); err != nil {
		return err
	}
	entry := b.g.NewBlock(b.g.NewRegion(op))

	scope := make(map[string]ir.Value, len(d.params))
	for i, t := range d.sig.Params {
		scope[d.params[i]] = b.g.AddBlockArg(entry, t)
	}

	bodyVal := d.v.LookupPath(cue.ParsePath("body"))
	if !bodyVal.Exists() {
		return &CompileError{Field: "function." + d.name, Message: "body is required", Pos: d.v.Pos()}
	}
	iter, err := bodyVal.List()
	if err != nil {
		return formatCUEError(err)
	}
	var insts []cue.Value
	for iter.Next() {
		insts = append(insts, iter.Value())
	}
	if len(insts) == 0 {
		return &CompileError{Field: "function." + d.name + ".body", Message: "body is empty", Pos: bodyVal.Pos()}
	}

	st := &fnState{decl: d, entry: entry, scope: scope}
	for i, inst := range insts {
		if err := b.instruction(st, i, inst, i == len(insts)-1); err != nil {
			return err
		}
	}
	return nil
}

// instruction compiles one body entry into an op appended to the entry
// block.
func (b *builder) instruction(st *fnState, idx int, v cue.Value, last bool) error {
	field := fmt.Sprintf("function.%s.body[%d]", st.decl.name, idx)

	opVal := v.LookupPath(cue.ParsePath("op"))
	if !opVal.Exists() {
		return &CompileError{Field: field, Message: "op is required", Pos: v.Pos()}
	}
	opName, err := opVal.String()
	if err != nil {
		return &CompileError{Field: field + ".op", Message: "op must be a string", Pos: opVal.Pos()}
	}
	code, ok := vex.FromName(opName)
	if !ok {
		return &CompileError{Field: field + ".op", Message: fmt.Sprintf("unknown op %q", opName), Pos: opVal.Pos()}
	}
	info := vex.InfoFor(code)
	if info.Regions > 0 || code == vex.ModuleEnd {
		return &CompileError{Field: field + ".op", Message: fmt.Sprintf("op %s cannot appear in a body", opName), Pos: opVal.Pos()}
	}
	switch {
	case vex.IsTerminator(code) && !last:
		return &CompileError{Field: field, Message: fmt.Sprintf("terminator %s before end of body", opName), Pos: opVal.Pos()}
	case !vex.IsTerminator(code) && last:
		return &CompileError{
			Field:   field,
			Message: fmt.Sprintf("body ends with %s, want %s or %s", opName, vex.Return.Name(), vex.ReturnValue.Name()),
			Pos:     opVal.Pos(),
		}
	}

	operands, err := b.operands(st, field, v)
	if err != nil {
		return err
	}
	switch {
	case info.Variadic:
		if len(operands) < info.Operands {
			return &CompileError{
				Field:   field + ".args",
				Message: fmt.Sprintf("%s takes at least %d operands, got %d", opName, info.Operands, len(operands)),
				Pos:     v.Pos(),
			}
		}
	case len(operands) != info.Operands:
		return &CompileError{
			Field:   field + ".args",
			Message: fmt.Sprintf("%s takes %d operands, got %d", opName, info.Operands, len(operands)),
			Pos:     v.Pos(),
		}
	}

	var resultTypes []ir.Type
	typeVal := v.LookupPath(cue.ParsePath("type"))
	switch {
	case typeVal.Exists() && info.Results == 0:
		return &CompileError{Field: field + ".type", Message: fmt.Sprintf("%s produces no result", opName), Pos: typeVal.Pos()}
	case typeVal.Exists():
		t, err := b.parseTypeField(field+".type", typeVal)
		if err != nil {
			return err
		}
		resultTypes = []ir.Type{t}
	case info.Results == 1 && !info.ResultOptional:
		return &CompileError{Field: field, Message: fmt.Sprintf("%s needs a result type", opName), Pos: v.Pos()}
	}

	attrs, err := b.opAttrs(field, code, v, resultTypes, operands)
	if err != nil {
		return err
	}

	var bindName string
	bindVal := v.LookupPath(cue.ParsePath("name"))
	if bindVal.Exists() {
		raw, err := bindVal.String()
		if err != nil {
			return &CompileError{Field: field + ".name", Message: "name must be a string", Pos: bindVal.Pos()}
		}
		bindName = ident(raw)
		if bindName == "" {
			return &CompileError{Field: field + ".name", Message: "name must not be empty", Pos: bindVal.Pos()}
		}
		if len(resultTypes) == 0 {
			return &CompileError{
				Field:   field + ".name",
				Message: fmt.Sprintf("%s produces no result to bind", opName),
				Pos:     bindVal.Pos(),
			}
		}
		if _, ok := st.scope[bindName]; ok {
			return &CompileError{
				Field:   field + ".name",
				Message: fmt.Sprintf("redefinition of %q", bindName),
				Pos:     bindVal.Pos(),
			}
		}
	}

	id := b.g.NewOp(code, loc(v), operands, resultTypes, attrs)
	if err := b.g.Append(st.entry, id); err != nil {
		return err
	}
	if bindName != "" {
		st.scope[bindName] = b.g.Op(id).Results[0]
	}
	return nil
}

// operands resolves the args list against the function scope.
func (b *builder) operands(st *fnState, field string, v cue.Value) ([]ir.Value, error) {
	argsVal := v.LookupPath(cue.ParsePath("args"))
	if !argsVal.Exists() {
		return nil, nil
	}
	iter, err := argsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []ir.Value
	for i := 0; iter.Next(); i++ {
		av := iter.Value()
		raw, err := av.String()
		if err != nil {
			return nil, &CompileError{
				Field:   fmt.Sprintf("%s.args[%d]", field, i),
				Message: "operand reference must be a string",
				Pos:     av.Pos(),
			}
		}
		val, ok := st.scope[ident(raw)]
		if !ok {
			return nil, &CompileError{
				Field:   fmt.Sprintf("%s.args[%d]", field, i),
				Message: fmt.Sprintf("undefined value %q", raw),
				Pos:     av.Pos(),
			}
		}
		out = append(out, val)
	}
	return out, nil
}

// opAttrs builds the attribute payloads specific to an op kind:
// constant values and call callees.
func (b *builder) opAttrs(field string, code vex.Code, v cue.Value, resultTypes []ir.Type, operands []ir.Value) (ir.Attrs, error) {
	switch code {
	case vex.Constant:
		valueVal := v.LookupPath(cue.ParsePath("value"))
		if !valueVal.Exists() {
			return nil, &CompileError{Field: field, Message: "constant needs a value", Pos: v.Pos()}
		}
		attr, err := constantAttr(field, resultTypes[0], valueVal)
		if err != nil {
			return nil, err
		}
		return ir.Attrs{vex.AttrValue: attr}, nil

	case vex.FunctionCall:
		calleeVal := v.LookupPath(cue.ParsePath("callee"))
		if !calleeVal.Exists() {
			return nil, &CompileError{Field: field, Message: "call needs a callee", Pos: v.Pos()}
		}
		raw, err := calleeVal.String()
		if err != nil {
			return nil, &CompileError{Field: field + ".callee", Message: "callee must be a string", Pos: calleeVal.Pos()}
		}
		callee := ident(raw)
		sig, ok := b.sigs[callee]
		if !ok {
			return nil, &CompileError{
				Field:   field + ".callee",
				Message: fmt.Sprintf("unknown function %q", raw),
				Pos:     calleeVal.Pos(),
			}
		}
		if len(operands) != len(sig.Params) {
			return nil, &CompileError{
				Field:   field + ".args",
				Message: fmt.Sprintf("call to %q takes %d operands, got %d", callee, len(sig.Params), len(operands)),
				Pos:     v.Pos(),
			}
		}
		for i, o := range operands {
			if b.g.ValueType(o) != sig.Params[i] {
				return nil, &CompileError{
					Field:   fmt.Sprintf("%s.args[%d]", field, i),
					Message: fmt.Sprintf("operand is %s, %q expects %s", b.g.ValueType(o), callee, sig.Params[i]),
					Pos:     v.Pos(),
				}
			}
		}
		if len(resultTypes) == 1 {
			if len(sig.Results) != 1 {
				return nil, &CompileError{
					Field:   field + ".type",
					Message: fmt.Sprintf("%q returns no value", callee),
					Pos:     v.Pos(),
				}
			}
			if resultTypes[0] != sig.Results[0] {
				return nil, &CompileError{
					Field:   field + ".type",
					Message: fmt.Sprintf("call result is %s, %q returns %s", resultTypes[0], callee, sig.Results[0]),
					Pos:     v.Pos(),
				}
			}
		}
		return ir.Attrs{vex.AttrCallee: ir.StringAttr{Value: callee}}, nil

	default:
		return nil, nil
	}
}

// constantAttr converts a CUE payload into the attribute flavor the
// result type calls for. Scalar payloads on vector types splat; list
// payloads give one lane each.
func constantAttr(field string, t ir.Type, v cue.Value) (ir.Attr, error) {
	lanes := ir.Lanes(t)
	if v.IncompleteKind() == cue.ListKind {
		if !ir.IsVector(t) {
			return nil, &CompileError{Field: field + ".value", Message: "list payload on a scalar constant", Pos: v.Pos()}
		}
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		var ints []int64
		var floats []float64
		n := 0
		for iter.Next() {
			ev := iter.Value()
			if ir.IsFloat(t) {
				f, err := ev.Float64()
				if err != nil {
					return nil, &CompileError{Field: field + ".value", Message: "lane values must be numbers", Pos: ev.Pos()}
				}
				floats = append(floats, f)
			} else {
				i, err := ev.Int64()
				if err != nil {
					return nil, &CompileError{Field: field + ".value", Message: "lane values must be integers", Pos: ev.Pos()}
				}
				ints = append(ints, i)
			}
			n++
		}
		if n != lanes {
			return nil, &CompileError{
				Field:   field + ".value",
				Message: fmt.Sprintf("constant has %d lanes, type %s has %d", n, t, lanes),
				Pos:     v.Pos(),
			}
		}
		if ir.IsFloat(t) {
			return ir.DenseFloatAttr{Values: floats}, nil
		}
		return ir.DenseIntAttr{Values: ints}, nil
	}

	if ir.IsFloat(t) {
		f, err := v.Float64()
		if err != nil {
			return nil, &CompileError{Field: field + ".value", Message: "value must be a number", Pos: v.Pos()}
		}
		if lanes > 1 {
			return ir.SplatFloat(lanes, f), nil
		}
		return ir.FloatAttr{Value: f}, nil
	}
	i, err := v.Int64()
	if err != nil {
		return nil, &CompileError{Field: field + ".value", Message: "value must be an integer", Pos: v.Pos()}
	}
	if lanes > 1 {
		return ir.SplatInt(lanes, i), nil
	}
	return ir.IntAttr{Value: i}, nil
}

package prim

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/descent-ir/descent/internal/ir"
)

// Datum is one runtime value: a type plus per-lane payloads. Integer
// lanes hold the value zero-extended into a uint64. Float lanes hold
// the raw IEEE bit pattern at the type's width. Scalars have one lane.
type Datum struct {
	T     ir.Type
	Lanes []uint64
}

// DatumOf builds a Datum, masking each lane to the element width.
func DatumOf(t ir.Type, lanes ...uint64) Datum {
	w := ir.BitWidth(t)
	out := make([]uint64, len(lanes))
	for i, v := range lanes {
		out[i] = maskTo(v, w)
	}
	return Datum{T: t, Lanes: out}
}

// Splat builds a Datum with the value repeated across the type's lanes.
func Splat(t ir.Type, v uint64) Datum {
	lanes := make([]uint64, ir.Lanes(t))
	for i := range lanes {
		lanes[i] = maskTo(v, ir.BitWidth(t))
	}
	return Datum{T: t, Lanes: lanes}
}

// Scalar returns the single lane of a scalar Datum.
func (d Datum) Scalar() uint64 {
	if len(d.Lanes) != 1 {
		panic(fmt.Sprintf("prim: Scalar on %d-lane datum", len(d.Lanes)))
	}
	return d.Lanes[0]
}

// maxCallDepth bounds call recursion during evaluation.
const maxCallDepth = 64

// EvalFunc interprets the named function of a lowered module over the
// given arguments and returns its results. Only single-block function
// bodies are supported. Any op outside the prim dialect is an error, so
// evaluating an incompletely lowered module fails loudly.
func EvalFunc(g *ir.Graph, name string, args []Datum) ([]Datum, error) {
	ev := &evaluator{g: g}
	return ev.call(name, args, 0)
}

// ModuleFuncs returns the func ops of a lowered module in program order.
func ModuleFuncs(g *ir.Graph) ([]ir.OpID, error) {
	root := g.Root()
	if !root.IsValid() {
		return nil, fmt.Errorf("graph has no root op")
	}
	op := g.Op(root)
	if op.Kind != Module {
		return nil, fmt.Errorf("root op is %s, want %s", op.Kind, Module)
	}
	if len(op.Regions) != 1 {
		return nil, fmt.Errorf("module has %d regions, want 1", len(op.Regions))
	}
	blocks := g.RegionBlocks(op.Regions[0])
	if len(blocks) != 1 {
		return nil, fmt.Errorf("module region has %d blocks, want 1", len(blocks))
	}
	var funcs []ir.OpID
	for _, id := range g.BlockOps(blocks[0]) {
		if g.Op(id).Kind == Func {
			funcs = append(funcs, id)
		}
	}
	return funcs, nil
}

// FuncSignature returns the declared signature of a func op.
func FuncSignature(g *ir.Graph, fn ir.OpID) (ir.FuncType, error) {
	op := g.Op(fn)
	sig, ok := op.Attrs[AttrFuncType].(ir.FuncTypeAttr)
	if !ok {
		return ir.FuncType{}, fmt.Errorf("func %q has no %s attr", op.StringAttrValue(AttrSymName), AttrFuncType)
	}
	return sig.Sig, nil
}

type evaluator struct {
	g *ir.Graph
}

func (ev *evaluator) call(name string, args []Datum, depth int) ([]Datum, error) {
	if depth > maxCallDepth {
		return nil, fmt.Errorf("call depth exceeds %d at %q", maxCallDepth, name)
	}
	fn, err := ev.findFunc(name)
	if err != nil {
		return nil, err
	}
	sig, err := FuncSignature(ev.g, fn)
	if err != nil {
		return nil, err
	}
	if len(args) != len(sig.Params) {
		return nil, fmt.Errorf("func %q wants %d args, got %d", name, len(sig.Params), len(args))
	}
	for i, a := range args {
		if a.T != sig.Params[i] {
			return nil, fmt.Errorf("func %q arg %d is %s, want %s", name, i, a.T, sig.Params[i])
		}
	}

	op := ev.g.Op(fn)
	blocks := ev.g.RegionBlocks(op.Regions[0])
	if len(blocks) != 1 {
		return nil, fmt.Errorf("func %q has %d blocks, want 1", name, len(blocks))
	}
	entry := blocks[0]
	env := map[ir.Value]Datum{}
	for i, v := range ev.g.BlockArgs(entry) {
		env[v] = args[i]
	}

	for _, id := range ev.g.BlockOps(entry) {
		node := ev.g.Op(id)
		code, ok := node.Kind.(Code)
		if !ok {
			return nil, fmt.Errorf("%s: foreign op %s in lowered module", node.Loc, node.Kind)
		}
		if code == Return {
			out := make([]Datum, len(node.Operands))
			for i, v := range node.Operands {
				d, ok := env[v]
				if !ok {
					return nil, fmt.Errorf("%s: return of undefined value", node.Loc)
				}
				out[i] = d
			}
			return out, nil
		}
		if err := ev.step(node, code, env, depth); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("func %q fell off the end of its body", name)
}

func (ev *evaluator) findFunc(name string) (ir.OpID, error) {
	funcs, err := ModuleFuncs(ev.g)
	if err != nil {
		return 0, err
	}
	for _, fn := range funcs {
		if ev.g.Op(fn).StringAttrValue(AttrSymName) == name {
			return fn, nil
		}
	}
	return 0, fmt.Errorf("no func %q in module", name)
}

// step evaluates one non-terminator op into env.
func (ev *evaluator) step(node *ir.Op, code Code, env map[ir.Value]Datum, depth int) error {
	in := make([]Datum, len(node.Operands))
	for i, v := range node.Operands {
		d, ok := env[v]
		if !ok {
			return fmt.Errorf("%s: %s uses undefined value", node.Loc, code)
		}
		in[i] = d
	}
	if len(node.Results) != 1 && code != Call {
		return fmt.Errorf("%s: %s has %d results", node.Loc, code, len(node.Results))
	}

	switch code {
	case Call:
		callee := node.StringAttrValue(AttrCallee)
		out, err := ev.call(callee, in, depth+1)
		if err != nil {
			return err
		}
		if len(out) != len(node.Results) {
			return fmt.Errorf("%s: call %q produced %d results, op has %d", node.Loc, callee, len(out), len(node.Results))
		}
		for i, r := range node.Results {
			env[r] = out[i]
		}
		return nil

	case Constant:
		d, err := constantDatum(ev.g.ValueType(node.Results[0]), node.Attrs[AttrValue])
		if err != nil {
			return fmt.Errorf("%s: %w", node.Loc, err)
		}
		env[node.Results[0]] = d
		return nil

	case Undef:
		// Deterministic choice: undef evaluates to zero bits.
		env[node.Results[0]] = Splat(ev.g.ValueType(node.Results[0]), 0)
		return nil

	case InsertElement:
		vec, elem, idx := in[0], in[1], in[2]
		i := int(idx.Scalar())
		if i < 0 || i >= len(vec.Lanes) {
			return fmt.Errorf("%s: insertelement index %d out of range", node.Loc, i)
		}
		lanes := append([]uint64(nil), vec.Lanes...)
		lanes[i] = elem.Scalar()
		env[node.Results[0]] = Datum{T: vec.T, Lanes: lanes}
		return nil

	case Select:
		cond, a, b := in[0], in[1], in[2]
		lanes := make([]uint64, len(a.Lanes))
		for i := range lanes {
			c := cond.Lanes[0]
			if len(cond.Lanes) > 1 {
				c = cond.Lanes[i]
			}
			if c != 0 {
				lanes[i] = a.Lanes[i]
			} else {
				lanes[i] = b.Lanes[i]
			}
		}
		env[node.Results[0]] = Datum{T: a.T, Lanes: lanes}
		return nil
	}

	rt := ev.g.ValueType(node.Results[0])
	d, err := evalLanes(code, node, rt, in)
	if err != nil {
		return fmt.Errorf("%s: %w", node.Loc, err)
	}
	env[node.Results[0]] = d
	return nil
}

// evalLanes handles the per-lane ops: arithmetic, bitwise, shifts,
// casts, and comparisons.
func evalLanes(code Code, node *ir.Op, resultType ir.Type, in []Datum) (Datum, error) {
	n := 1
	for _, d := range in {
		if len(d.Lanes) > n {
			n = len(d.Lanes)
		}
	}
	out := make([]uint64, n)
	for lane := 0; lane < n; lane++ {
		v, err := evalLane(code, node, resultType, in, lane)
		if err != nil {
			return Datum{}, err
		}
		out[lane] = v
	}
	return Datum{T: resultType, Lanes: out}, nil
}

func evalLane(code Code, node *ir.Op, resultType ir.Type, in []Datum, lane int) (uint64, error) {
	get := func(i int) uint64 {
		if len(in[i].Lanes) == 1 {
			return in[i].Lanes[0]
		}
		return in[i].Lanes[lane]
	}
	srcW := uint32(0)
	if len(in) > 0 {
		srcW = ir.BitWidth(in[0].T)
	}
	dstW := ir.BitWidth(resultType)

	switch code {
	case Add:
		return maskTo(get(0)+get(1), dstW), nil
	case Sub:
		return maskTo(get(0)-get(1), dstW), nil
	case Mul:
		return maskTo(get(0)*get(1), dstW), nil
	case UDiv:
		if get(1) == 0 {
			return 0, fmt.Errorf("udiv by zero")
		}
		return maskTo(get(0)/get(1), dstW), nil
	case URem:
		if get(1) == 0 {
			return 0, fmt.Errorf("urem by zero")
		}
		return maskTo(get(0)%get(1), dstW), nil
	case SDiv:
		b := signExt(get(1), srcW)
		if b == 0 {
			return 0, fmt.Errorf("sdiv by zero")
		}
		return maskTo(uint64(signExt(get(0), srcW)/b), dstW), nil
	case SRem:
		b := signExt(get(1), srcW)
		if b == 0 {
			return 0, fmt.Errorf("srem by zero")
		}
		return maskTo(uint64(signExt(get(0), srcW)%b), dstW), nil

	case And:
		return get(0) & get(1), nil
	case Or:
		return get(0) | get(1), nil
	case Xor:
		return get(0) ^ get(1), nil
	case CtPop:
		return uint64(bits.OnesCount64(get(0))), nil
	case BitReverse:
		return bits.Reverse64(get(0)) >> (64 - srcW), nil

	case Shl:
		if amt := get(1); amt < uint64(dstW) {
			return maskTo(get(0)<<amt, dstW), nil
		}
		return 0, nil
	case LShr:
		if amt := get(1); amt < uint64(dstW) {
			return get(0) >> amt, nil
		}
		return 0, nil
	case AShr:
		s := signExt(get(0), srcW)
		amt := get(1)
		if amt >= uint64(srcW) {
			amt = uint64(srcW) - 1
		}
		return maskTo(uint64(s>>amt), dstW), nil

	case ZExt:
		return get(0), nil
	case SExt:
		return maskTo(uint64(signExt(get(0), srcW)), dstW), nil
	case Trunc:
		return maskTo(get(0), dstW), nil

	case FPExt, FPTrunc:
		f, err := decodeFloat(get(0), srcW)
		if err != nil {
			return 0, err
		}
		return encodeFloat(f, dstW)
	case FPToSI:
		f, err := decodeFloat(get(0), srcW)
		if err != nil {
			return 0, err
		}
		if math.IsNaN(f) || f < -math.Ldexp(1, int(dstW)-1) || f >= math.Ldexp(1, int(dstW)-1) {
			return 0, fmt.Errorf("fptosi of %g does not fit i%d", f, dstW)
		}
		return maskTo(uint64(int64(f)), dstW), nil
	case FPToUI:
		f, err := decodeFloat(get(0), srcW)
		if err != nil {
			return 0, err
		}
		if math.IsNaN(f) || f < 0 || f >= math.Ldexp(1, int(dstW)) {
			return 0, fmt.Errorf("fptoui of %g does not fit i%d", f, dstW)
		}
		return maskTo(uint64(f), dstW), nil
	case SIToFP:
		return encodeFloat(float64(signExt(get(0), srcW)), dstW)
	case UIToFP:
		return encodeFloat(float64(get(0)), dstW)
	case Bitcast:
		if srcW != dstW || ir.Lanes(in[0].T) != ir.Lanes(resultType) {
			return 0, fmt.Errorf("bitcast between %s and %s changes layout", in[0].T, resultType)
		}
		return get(0), nil

	case FNeg:
		return get(0) ^ (uint64(1) << (srcW - 1)), nil
	case FAdd, FSub, FMul, FDiv, FRem:
		return evalFloatBin(code, get(0), get(1), srcW)

	case ICmp:
		return evalICmp(node.StringAttrValue(AttrPredicate), get(0), get(1), srcW)
	case FCmp:
		return evalFCmp(node.StringAttrValue(AttrPredicate), get(0), get(1), srcW)
	}
	return 0, fmt.Errorf("op %s is not evaluable", code)
}

func evalFloatBin(code Code, a, b uint64, w uint32) (uint64, error) {
	x, err := decodeFloat(a, w)
	if err != nil {
		return 0, err
	}
	y, err := decodeFloat(b, w)
	if err != nil {
		return 0, err
	}
	// Compute at the operand width so rounding matches.
	if w == 32 {
		xf, yf := float32(x), float32(y)
		var r float32
		switch code {
		case FAdd:
			r = xf + yf
		case FSub:
			r = xf - yf
		case FMul:
			r = xf * yf
		case FDiv:
			r = xf / yf
		case FRem:
			r = float32(math.Mod(float64(xf), float64(yf)))
		}
		return uint64(math.Float32bits(r)), nil
	}
	var r float64
	switch code {
	case FAdd:
		r = x + y
	case FSub:
		r = x - y
	case FMul:
		r = x * y
	case FDiv:
		r = x / y
	case FRem:
		r = math.Mod(x, y)
	}
	return math.Float64bits(r), nil
}

func evalICmp(pred string, a, b uint64, w uint32) (uint64, error) {
	p, err := ParseICmpPred(pred)
	if err != nil {
		return 0, err
	}
	sa, sb := signExt(a, w), signExt(b, w)
	var r bool
	switch p {
	case IPredEq:
		r = a == b
	case IPredNe:
		r = a != b
	case IPredSlt:
		r = sa < sb
	case IPredSle:
		r = sa <= sb
	case IPredSgt:
		r = sa > sb
	case IPredSge:
		r = sa >= sb
	case IPredUlt:
		r = a < b
	case IPredUle:
		r = a <= b
	case IPredUgt:
		r = a > b
	case IPredUge:
		r = a >= b
	}
	return boolLane(r), nil
}

func evalFCmp(pred string, a, b uint64, w uint32) (uint64, error) {
	p, err := ParseFCmpPred(pred)
	if err != nil {
		return 0, err
	}
	x, err := decodeFloat(a, w)
	if err != nil {
		return 0, err
	}
	y, err := decodeFloat(b, w)
	if err != nil {
		return 0, err
	}
	unordered := math.IsNaN(x) || math.IsNaN(y)
	var r bool
	switch p {
	case FPredOeq:
		r = !unordered && x == y
	case FPredOgt:
		r = !unordered && x > y
	case FPredOge:
		r = !unordered && x >= y
	case FPredOlt:
		r = !unordered && x < y
	case FPredOle:
		r = !unordered && x <= y
	case FPredOne:
		r = !unordered && x != y
	case FPredUeq:
		r = unordered || x == y
	case FPredUgt:
		r = unordered || x > y
	case FPredUge:
		r = unordered || x >= y
	case FPredUlt:
		r = unordered || x < y
	case FPredUle:
		r = unordered || x <= y
	case FPredUne:
		r = unordered || x != y
	}
	return boolLane(r), nil
}

func boolLane(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func constantDatum(t ir.Type, attr ir.Attr) (Datum, error) {
	w := ir.BitWidth(t)
	lanes := ir.Lanes(t)
	switch a := attr.(type) {
	case ir.IntAttr:
		if lanes != 1 {
			return Datum{}, fmt.Errorf("scalar payload on vector constant %s", t)
		}
		return Splat(t, uint64(a.Value)), nil
	case ir.DenseIntAttr:
		if len(a.Values) != lanes {
			return Datum{}, fmt.Errorf("constant has %d lanes, type %s has %d", len(a.Values), t, lanes)
		}
		out := make([]uint64, lanes)
		for i, v := range a.Values {
			out[i] = maskTo(uint64(v), w)
		}
		return Datum{T: t, Lanes: out}, nil
	case ir.FloatAttr:
		if lanes != 1 {
			return Datum{}, fmt.Errorf("scalar payload on vector constant %s", t)
		}
		bits, err := encodeFloat(a.Value, w)
		if err != nil {
			return Datum{}, err
		}
		return Datum{T: t, Lanes: []uint64{bits}}, nil
	case ir.DenseFloatAttr:
		if len(a.Values) != lanes {
			return Datum{}, fmt.Errorf("constant has %d lanes, type %s has %d", len(a.Values), t, lanes)
		}
		out := make([]uint64, lanes)
		for i, v := range a.Values {
			bits, err := encodeFloat(v, w)
			if err != nil {
				return Datum{}, err
			}
			out[i] = bits
		}
		return Datum{T: t, Lanes: out}, nil
	default:
		return Datum{}, fmt.Errorf("constant payload %T not supported", attr)
	}
}

// maskTo truncates v to the low w bits.
func maskTo(v uint64, w uint32) uint64 {
	if w >= 64 {
		return v
	}
	return v & ((uint64(1) << w) - 1)
}

// signExt interprets the low w bits of v as two's complement.
func signExt(v uint64, w uint32) int64 {
	if w == 0 || w >= 64 {
		return int64(v)
	}
	shift := 64 - w
	return int64(v<<shift) >> shift
}

func decodeFloat(bits64 uint64, w uint32) (float64, error) {
	switch w {
	case 32:
		return float64(math.Float32frombits(uint32(bits64))), nil
	case 64:
		return math.Float64frombits(bits64), nil
	default:
		return 0, fmt.Errorf("f%d arithmetic is not evaluable", w)
	}
}

func encodeFloat(f float64, w uint32) (uint64, error) {
	switch w {
	case 32:
		return uint64(math.Float32bits(float32(f))), nil
	case 64:
		return math.Float64bits(f), nil
	default:
		return 0, fmt.Errorf("f%d arithmetic is not evaluable", w)
	}
}

// Package prim defines the target dialect: a signless primitive
// vocabulary with explicit extension, truncation, and shift ops, plus
// generic predicate-carrying comparisons.
//
// The vocabulary is a closed enum, mirroring how vex defines its side.
package prim

import "sort"

// Code identifies one prim operation kind. It implements ir.OpKind.
type Code uint8

const (
	Invalid Code = iota

	// Integer arithmetic. Signedness lives in the op, not the type.
	Add
	Sub
	Mul
	SDiv
	UDiv
	SRem
	URem

	// Float arithmetic.
	FAdd
	FSub
	FMul
	FDiv
	FRem
	FNeg

	// Bitwise.
	And
	Or
	Xor
	CtPop
	BitReverse

	// Shifts. Operand widths must match; vex's mixed-width shifts are
	// reconciled before these are emitted.
	Shl
	LShr
	AShr

	// Casts.
	ZExt
	SExt
	Trunc
	FPExt
	FPTrunc
	FPToSI
	FPToUI
	SIToFP
	UIToFP
	Bitcast

	// Comparisons carry their predicate as an attribute.
	ICmp
	FCmp

	Select
	Undef
	Constant
	InsertElement
	Call

	// Terminators.
	Return
	ModuleEnd

	// Containers.
	Func
	Module

	numCodes
)

// DialectName is the short dialect prefix used in printed form.
const DialectName = "prim"

// Dialect implements ir.OpKind.
func (c Code) Dialect() string { return DialectName }

// String returns the fully qualified op name, e.g. "prim.add".
func (c Code) String() string {
	if c == 0 || c >= numCodes {
		return DialectName + ".invalid"
	}
	return DialectName + "." + names[c]
}

// Name returns the bare op name without the dialect prefix.
func (c Code) Name() string {
	if c == 0 || c >= numCodes {
		return "invalid"
	}
	return names[c]
}

var names = [numCodes]string{
	Add:           "add",
	Sub:           "sub",
	Mul:           "mul",
	SDiv:          "sdiv",
	UDiv:          "udiv",
	SRem:          "srem",
	URem:          "urem",
	FAdd:          "fadd",
	FSub:          "fsub",
	FMul:          "fmul",
	FDiv:          "fdiv",
	FRem:          "frem",
	FNeg:          "fneg",
	And:           "and",
	Or:            "or",
	Xor:           "xor",
	CtPop:         "ctpop",
	BitReverse:    "bitreverse",
	Shl:           "shl",
	LShr:          "lshr",
	AShr:          "ashr",
	ZExt:          "zext",
	SExt:          "sext",
	Trunc:         "trunc",
	FPExt:         "fpext",
	FPTrunc:       "fptrunc",
	FPToSI:        "fptosi",
	FPToUI:        "fptoui",
	SIToFP:        "sitofp",
	UIToFP:        "uitofp",
	Bitcast:       "bitcast",
	ICmp:          "icmp",
	FCmp:          "fcmp",
	Select:        "select",
	Undef:         "undef",
	Constant:      "constant",
	InsertElement: "insertelement",
	Call:          "call",
	Return:        "return",
	ModuleEnd:     "module_end",
	Func:          "func",
	Module:        "module",
}

// Attribute names used by prim ops.
const (
	AttrValue       = "value"     // Constant payload
	AttrPredicate   = "predicate" // ICmp/FCmp predicate spelling
	AttrSymName     = "sym_name"  // Func symbol
	AttrFuncType    = "function_type"
	AttrPassthrough = "passthrough" // Func hint list carried over from source
	AttrCallee      = "callee"      // Call target symbol
)

// Info describes the structural shape of an op kind.
type Info struct {
	Operands int
	Variadic bool
	// Results is the maximum result count; ResultOptional allows zero.
	Results        int
	ResultOptional bool
	Regions        int
	Terminator     bool
}

var infos = [numCodes]Info{
	Add:           {Operands: 2, Results: 1},
	Sub:           {Operands: 2, Results: 1},
	Mul:           {Operands: 2, Results: 1},
	SDiv:          {Operands: 2, Results: 1},
	UDiv:          {Operands: 2, Results: 1},
	SRem:          {Operands: 2, Results: 1},
	URem:          {Operands: 2, Results: 1},
	FAdd:          {Operands: 2, Results: 1},
	FSub:          {Operands: 2, Results: 1},
	FMul:          {Operands: 2, Results: 1},
	FDiv:          {Operands: 2, Results: 1},
	FRem:          {Operands: 2, Results: 1},
	FNeg:          {Operands: 1, Results: 1},
	And:           {Operands: 2, Results: 1},
	Or:            {Operands: 2, Results: 1},
	Xor:           {Operands: 2, Results: 1},
	CtPop:         {Operands: 1, Results: 1},
	BitReverse:    {Operands: 1, Results: 1},
	Shl:           {Operands: 2, Results: 1},
	LShr:          {Operands: 2, Results: 1},
	AShr:          {Operands: 2, Results: 1},
	ZExt:          {Operands: 1, Results: 1},
	SExt:          {Operands: 1, Results: 1},
	Trunc:         {Operands: 1, Results: 1},
	FPExt:         {Operands: 1, Results: 1},
	FPTrunc:       {Operands: 1, Results: 1},
	FPToSI:        {Operands: 1, Results: 1},
	FPToUI:        {Operands: 1, Results: 1},
	SIToFP:        {Operands: 1, Results: 1},
	UIToFP:        {Operands: 1, Results: 1},
	Bitcast:       {Operands: 1, Results: 1},
	ICmp:          {Operands: 2, Results: 1},
	FCmp:          {Operands: 2, Results: 1},
	Select:        {Operands: 3, Results: 1},
	Undef:         {Results: 1},
	Constant:      {Results: 1},
	InsertElement: {Operands: 3, Results: 1},
	Call:          {Variadic: true, Results: 1, ResultOptional: true},
	Return:        {Variadic: true, Terminator: true}, // zero or one operand
	ModuleEnd:     {Terminator: true},
	Func:          {Regions: 1},
	Module:        {Regions: 1},
}

// InfoFor returns the structural shape of the op kind.
func InfoFor(c Code) Info {
	if c == 0 || c >= numCodes {
		return Info{}
	}
	return infos[c]
}

// IsTerminator reports whether the op kind ends a block.
func IsTerminator(c Code) bool { return InfoFor(c).Terminator }

// Codes returns every valid op code in declaration order.
func Codes() []Code {
	out := make([]Code, 0, numCodes-1)
	for c := Code(1); c < numCodes; c++ {
		out = append(out, c)
	}
	return out
}

var byName = func() map[string]Code {
	m := make(map[string]Code, numCodes)
	for c := Code(1); c < numCodes; c++ {
		m[names[c]] = c
	}
	return m
}()

// FromName resolves a bare op name ("lshr") to its Code.
func FromName(name string) (Code, bool) {
	c, ok := byName[name]
	return c, ok
}

// Names returns every bare op name in lexicographic order.
func Names() []string {
	out := make([]string, 0, len(byName))
	for n := range byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Passthrough hints carried on lowered funcs, one per source control
// value. "none" maps to no hint at all.
const (
	HintAlwaysInline = "alwaysinline"
	HintNoInline     = "noinline"
	HintReadOnly     = "readonly"
	HintReadNone     = "readnone"
)

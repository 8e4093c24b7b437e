// Package vex defines the source dialect: a sign-aware, vector-capable
// instruction vocabulary with composite bitfield operations.
//
// The vocabulary is a closed enum. Adding an op means adding a Code, its
// name, and its Info row; everything downstream dispatches on Code and
// fails loudly on names it does not know.
package vex

import (
	"fmt"
	"sort"
)

// Code identifies one vex operation kind. It implements ir.OpKind.
type Code uint8

const (
	Invalid Code = iota

	// Arithmetic.
	IAdd
	ISub
	IMul
	SDiv
	SRem
	UDiv
	UMod
	FAdd
	FSub
	FMul
	FDiv
	FRem
	FNeg

	// Bit manipulation.
	BitwiseAnd
	BitwiseOr
	BitwiseXor
	Not
	BitCount
	BitReverse
	BitFieldInsert
	BitFieldSExtract
	BitFieldUExtract

	// Shifts. The shift amount may have a different integer width than
	// the base operand.
	ShiftLeft
	ShiftRightArithmetic
	ShiftRightLogical

	// Casts.
	Bitcast
	ConvertFToS
	ConvertFToU
	ConvertSToF
	ConvertUToF
	FConvert
	SConvert
	UConvert

	// Integer comparisons.
	IEq
	INe
	SGt
	SGe
	SLt
	SLe
	UGt
	UGe
	ULt
	ULe

	// Ordered float comparisons.
	FOEq
	FOGt
	FOGe
	FOLt
	FOLe
	FONe

	// Unordered float comparisons.
	FUEq
	FUGt
	FUGe
	FULt
	FULe
	FUNe

	// Boolean logic over i1.
	LogicalAnd
	LogicalOr
	LogicalEq
	LogicalNe
	LogicalNot

	Select
	Undef
	Constant
	FunctionCall

	// Terminators.
	Return
	ReturnValue
	ModuleEnd

	// Containers.
	Func
	Module

	numCodes
)

// DialectName is the short dialect prefix used in printed form.
const DialectName = "vex"

// Dialect implements ir.OpKind.
func (c Code) Dialect() string { return DialectName }

// String returns the fully qualified op name, e.g. "vex.iadd".
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
	IAdd:                 "iadd",
	ISub:                 "isub",
	IMul:                 "imul",
	SDiv:                 "sdiv",
	SRem:                 "srem",
	UDiv:                 "udiv",
	UMod:                 "umod",
	FAdd:                 "fadd",
	FSub:                 "fsub",
	FMul:                 "fmul",
	FDiv:                 "fdiv",
	FRem:                 "frem",
	FNeg:                 "fneg",
	BitwiseAnd:           "bitwise_and",
	BitwiseOr:            "bitwise_or",
	BitwiseXor:           "bitwise_xor",
	Not:                  "not",
	BitCount:             "bitcount",
	BitReverse:           "bitreverse",
	BitFieldInsert:       "bitfield_insert",
	BitFieldSExtract:     "bitfield_sextract",
	BitFieldUExtract:     "bitfield_uextract",
	ShiftLeft:            "shift_left",
	ShiftRightArithmetic: "shift_right_arithmetic",
	ShiftRightLogical:    "shift_right_logical",
	Bitcast:              "bitcast",
	ConvertFToS:          "convert_ftos",
	ConvertFToU:          "convert_ftou",
	ConvertSToF:          "convert_stof",
	ConvertUToF:          "convert_utof",
	FConvert:             "fconvert",
	SConvert:             "sconvert",
	UConvert:             "uconvert",
	IEq:                  "ieq",
	INe:                  "ine",
	SGt:                  "sgt",
	SGe:                  "sge",
	SLt:                  "slt",
	SLe:                  "sle",
	UGt:                  "ugt",
	UGe:                  "uge",
	ULt:                  "ult",
	ULe:                  "ule",
	FOEq:                 "foeq",
	FOGt:                 "fogt",
	FOGe:                 "foge",
	FOLt:                 "folt",
	FOLe:                 "fole",
	FONe:                 "fone",
	FUEq:                 "fueq",
	FUGt:                 "fugt",
	FUGe:                 "fuge",
	FULt:                 "fult",
	FULe:                 "fule",
	FUNe:                 "fune",
	LogicalAnd:           "logical_and",
	LogicalOr:            "logical_or",
	LogicalEq:            "logical_eq",
	LogicalNe:            "logical_ne",
	LogicalNot:           "logical_not",
	Select:               "select",
	Undef:                "undef",
	Constant:             "constant",
	FunctionCall:         "call",
	Return:               "return",
	ReturnValue:          "return_value",
	ModuleEnd:            "module_end",
	Func:                 "func",
	Module:               "module",
}

// Attribute names used by vex ops.
const (
	AttrValue    = "value"         // Constant payload
	AttrSymName  = "sym_name"      // Func symbol
	AttrFuncType = "function_type" // Func signature
	AttrControl  = "function_control"
	AttrCallee   = "callee" // FunctionCall target symbol
)

// Info describes the structural shape of an op kind.
type Info struct {
	// Operands is the exact operand count, or the minimum when Variadic.
	Operands int
	Variadic bool
	// Results is the maximum result count; ResultOptional allows zero.
	Results        int
	ResultOptional bool
	Regions        int
	Terminator     bool
}

var infos = [numCodes]Info{
	IAdd:                 {Operands: 2, Results: 1},
	ISub:                 {Operands: 2, Results: 1},
	IMul:                 {Operands: 2, Results: 1},
	SDiv:                 {Operands: 2, Results: 1},
	SRem:                 {Operands: 2, Results: 1},
	UDiv:                 {Operands: 2, Results: 1},
	UMod:                 {Operands: 2, Results: 1},
	FAdd:                 {Operands: 2, Results: 1},
	FSub:                 {Operands: 2, Results: 1},
	FMul:                 {Operands: 2, Results: 1},
	FDiv:                 {Operands: 2, Results: 1},
	FRem:                 {Operands: 2, Results: 1},
	FNeg:                 {Operands: 1, Results: 1},
	BitwiseAnd:           {Operands: 2, Results: 1},
	BitwiseOr:            {Operands: 2, Results: 1},
	BitwiseXor:           {Operands: 2, Results: 1},
	Not:                  {Operands: 1, Results: 1},
	BitCount:             {Operands: 1, Results: 1},
	BitReverse:           {Operands: 1, Results: 1},
	BitFieldInsert:       {Operands: 4, Results: 1},
	BitFieldSExtract:     {Operands: 3, Results: 1},
	BitFieldUExtract:     {Operands: 3, Results: 1},
	ShiftLeft:            {Operands: 2, Results: 1},
	ShiftRightArithmetic: {Operands: 2, Results: 1},
	ShiftRightLogical:    {Operands: 2, Results: 1},
	Bitcast:              {Operands: 1, Results: 1},
	ConvertFToS:          {Operands: 1, Results: 1},
	ConvertFToU:          {Operands: 1, Results: 1},
	ConvertSToF:          {Operands: 1, Results: 1},
	ConvertUToF:          {Operands: 1, Results: 1},
	FConvert:             {Operands: 1, Results: 1},
	SConvert:             {Operands: 1, Results: 1},
	UConvert:             {Operands: 1, Results: 1},
	IEq:                  {Operands: 2, Results: 1},
	INe:                  {Operands: 2, Results: 1},
	SGt:                  {Operands: 2, Results: 1},
	SGe:                  {Operands: 2, Results: 1},
	SLt:                  {Operands: 2, Results: 1},
	SLe:                  {Operands: 2, Results: 1},
	UGt:                  {Operands: 2, Results: 1},
	UGe:                  {Operands: 2, Results: 1},
	ULt:                  {Operands: 2, Results: 1},
	ULe:                  {Operands: 2, Results: 1},
	FOEq:                 {Operands: 2, Results: 1},
	FOGt:                 {Operands: 2, Results: 1},
	FOGe:                 {Operands: 2, Results: 1},
	FOLt:                 {Operands: 2, Results: 1},
	FOLe:                 {Operands: 2, Results: 1},
	FONe:                 {Operands: 2, Results: 1},
	FUEq:                 {Operands: 2, Results: 1},
	FUGt:                 {Operands: 2, Results: 1},
	FUGe:                 {Operands: 2, Results: 1},
	FULt:                 {Operands: 2, Results: 1},
	FULe:                 {Operands: 2, Results: 1},
	FUNe:                 {Operands: 2, Results: 1},
	LogicalAnd:           {Operands: 2, Results: 1},
	LogicalOr:            {Operands: 2, Results: 1},
	LogicalEq:            {Operands: 2, Results: 1},
	LogicalNe:            {Operands: 2, Results: 1},
	LogicalNot:           {Operands: 1, Results: 1},
	Select:               {Operands: 3, Results: 1},
	Undef:                {Results: 1},
	Constant:             {Results: 1},
	FunctionCall:         {Variadic: true, Results: 1, ResultOptional: true},
	Return:               {Terminator: true},
	ReturnValue:          {Operands: 1, Terminator: true},
	ModuleEnd:            {Terminator: true},
	Func:                 {Regions: 1},
	Module:               {Regions: 1},
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

// FromName resolves a bare op name ("iadd") to its Code.
func FromName(name string) (Code, bool) {
	c, ok := byName[name]
	return c, ok
}

// Names returns every bare op name in lexicographic order. Used for
// error messages listing the vocabulary.
func Names() []string {
	out := make([]string, 0, len(byName))
	for n := range byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Control is a function inlining hint. It passes through lowering
// untouched.
type Control string

const (
	ControlNone       Control = "none"
	ControlInline     Control = "inline"
	ControlDontInline Control = "dont_inline"
	ControlPure       Control = "pure"
	ControlConst      Control = "const"
)

// ParseControl validates a control spelling. The empty string means
// ControlNone.
func ParseControl(s string) (Control, error) {
	switch Control(s) {
	case "":
		return ControlNone, nil
	case ControlNone, ControlInline, ControlDontInline, ControlPure, ControlConst:
		return Control(s), nil
	default:
		return "", fmt.Errorf("unknown function control %q", s)
	}
}

package ir

import (
	"fmt"
	"strings"
)

// Signedness records how an integer type interprets its bits. Signless
// integers carry no interpretation of their own; the consuming operation
// decides. Signed integers are two's complement, unsigned plain binary.
type Signedness uint8

const (
	Signless Signedness = iota
	Signed
	Unsigned
)

// String returns the source-syntax prefix: "" for signless, "s", or "u".
func (s Signedness) String() string {
	switch s {
	case Signed:
		return "s"
	case Unsigned:
		return "u"
	default:
		return ""
	}
}

// Type is a sealed interface representing value types.
// Only Int, Float, and Vec implement it. All three are comparable value
// types, so types can be map keys and compared with ==.
type Type interface {
	irType() // Sealed - only these types implement it
	String() string
}

// Int is an integer type with a fixed bit width and a signedness.
type Int struct {
	Width uint32
	Sign  Signedness
}

func (Int) irType() {}

// String renders the type in source syntax: i32, si8, ui64.
func (t Int) String() string {
	return fmt.Sprintf("%si%d", t.Sign, t.Width)
}

// Float is a floating-point type of width 16, 32, or 64.
type Float struct {
	Width uint32
}

func (Float) irType() {}

// String renders the type in source syntax: f32.
func (t Float) String() string {
	return fmt.Sprintf("f%d", t.Width)
}

// Vec is a fixed-length vector of a scalar element type.
// Vectors never nest.
type Vec struct {
	Elem  Type
	Lanes int
}

func (Vec) irType() {}

// String renders the type in source syntax: 4xi32.
func (t Vec) String() string {
	elem := "?"
	if t.Elem != nil {
		elem = t.Elem.String()
	}
	return fmt.Sprintf("%dx%s", t.Lanes, elem)
}

// I returns the signless integer type of the given width.
func I(width uint32) Int { return Int{Width: width} }

// SI returns the signed integer type of the given width.
func SI(width uint32) Int { return Int{Width: width, Sign: Signed} }

// UI returns the unsigned integer type of the given width.
func UI(width uint32) Int { return Int{Width: width, Sign: Unsigned} }

// F returns the float type of the given width.
func F(width uint32) Float { return Float{Width: width} }

// VecOf returns the vector type with the given element and lane count.
func VecOf(elem Type, lanes int) Vec { return Vec{Elem: elem, Lanes: lanes} }

// Common scalar types.
var (
	I1  = I(1)
	I8  = I(8)
	I16 = I(16)
	I32 = I(32)
	I64 = I(64)
	F16 = F(16)
	F32 = F(32)
	F64 = F(64)
)

// IsVector reports whether t is a vector type.
func IsVector(t Type) bool {
	_, ok := t.(Vec)
	return ok
}

// Elem returns the scalar element type: the element of a vector, or t
// itself for scalars.
func Elem(t Type) Type {
	if v, ok := t.(Vec); ok {
		return v.Elem
	}
	return t
}

// Lanes returns the lane count of a vector, or 1 for scalars.
func Lanes(t Type) int {
	if v, ok := t.(Vec); ok {
		return v.Lanes
	}
	return 1
}

// BitWidth returns the bit width of the scalar element type. For a
// vector this is the element width, not the total. Returns 0 for nil.
func BitWidth(t Type) uint32 {
	switch e := Elem(t).(type) {
	case Int:
		return e.Width
	case Float:
		return e.Width
	default:
		return 0
	}
}

// IsInt reports whether t is an integer or a vector of integers.
func IsInt(t Type) bool {
	_, ok := Elem(t).(Int)
	return ok
}

// IsFloat reports whether t is a float or a vector of floats.
func IsFloat(t Type) bool {
	_, ok := Elem(t).(Float)
	return ok
}

// IsSignedInt reports whether t is a signed integer or a vector of
// signed integers. Signless does not count.
func IsSignedInt(t Type) bool {
	e, ok := Elem(t).(Int)
	return ok && e.Sign == Signed
}

// IsUnsignedInt reports whether t is an unsigned integer or a vector of
// unsigned integers.
func IsUnsignedInt(t Type) bool {
	e, ok := Elem(t).(Int)
	return ok && e.Sign == Unsigned
}

// IsSignlessInt reports whether t is a signless integer or a vector of
// signless integers.
func IsSignlessInt(t Type) bool {
	e, ok := Elem(t).(Int)
	return ok && e.Sign == Signless
}

// SameShape reports whether a and b have the same lane structure:
// both scalars, or both vectors with equal lane counts.
func SameShape(a, b Type) bool {
	return Lanes(a) == Lanes(b)
}

// ValidateType checks structural rules: integer widths in 1..64, float
// widths 16/32/64, vector lanes >= 2, no nested vectors.
func ValidateType(t Type) error {
	switch v := t.(type) {
	case nil:
		return fmt.Errorf("nil type")
	case Int:
		if v.Width < 1 || v.Width > 64 {
			return fmt.Errorf("integer width %d out of range 1..64", v.Width)
		}
	case Float:
		if v.Width != 16 && v.Width != 32 && v.Width != 64 {
			return fmt.Errorf("float width %d not one of 16, 32, 64", v.Width)
		}
	case Vec:
		if v.Lanes < 2 {
			return fmt.Errorf("vector lane count %d < 2", v.Lanes)
		}
		if IsVector(v.Elem) {
			return fmt.Errorf("nested vector type %s", v)
		}
		if err := ValidateType(v.Elem); err != nil {
			return fmt.Errorf("vector element: %w", err)
		}
	}
	return nil
}

// FuncType describes a function signature. It is not a Type: functions
// are not first-class values, so signatures only appear in attributes.
type FuncType struct {
	Params  []Type
	Results []Type
}

// Equal reports structural equality of two signatures.
func (ft FuncType) Equal(other FuncType) bool {
	if len(ft.Params) != len(other.Params) || len(ft.Results) != len(other.Results) {
		return false
	}
	for i, p := range ft.Params {
		if p != other.Params[i] {
			return false
		}
	}
	for i, r := range ft.Results {
		if r != other.Results[i] {
			return false
		}
	}
	return true
}

// String renders the signature: (i32, f32) -> i32. A no-result
// signature renders as (i32) -> ().
func (ft FuncType) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range ft.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteString(") -> ")
	switch len(ft.Results) {
	case 0:
		b.WriteString("()")
	case 1:
		b.WriteString(ft.Results[0].String())
	default:
		b.WriteByte('(')
		for i, r := range ft.Results {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(r.String())
		}
		b.WriteByte(')')
	}
	return b.String()
}

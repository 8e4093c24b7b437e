package ir

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Attr is a sealed interface representing attribute values: the
// compile-time constants attached to ops (payloads, predicates, symbol
// names, signatures). Only the types in this file implement it.
type Attr interface {
	irAttr() // Sealed - only these types implement it
	String() string
}

// IntAttr holds a single integer payload.
type IntAttr struct {
	Value int64
}

func (IntAttr) irAttr() {}

func (a IntAttr) String() string { return strconv.FormatInt(a.Value, 10) }

// FloatAttr holds a single floating-point payload.
type FloatAttr struct {
	Value float64
}

func (FloatAttr) irAttr() {}

func (a FloatAttr) String() string {
	s := strconv.FormatFloat(a.Value, 'g', -1, 64)
	// Keep float payloads visibly float in printed form.
	if !strings.ContainsAny(s, ".eE") && !strings.Contains(s, "Inf") && !strings.Contains(s, "NaN") {
		s += ".0"
	}
	return s
}

// StringAttr holds a string payload: symbol names, predicate spellings,
// control hints.
type StringAttr struct {
	Value string
}

func (StringAttr) irAttr() {}

func (a StringAttr) String() string { return strconv.Quote(a.Value) }

// TypeAttr holds a type as an attribute payload.
type TypeAttr struct {
	T Type
}

func (TypeAttr) irAttr() {}

func (a TypeAttr) String() string {
	if a.T == nil {
		return "?"
	}
	return a.T.String()
}

// FuncTypeAttr holds a function signature.
type FuncTypeAttr struct {
	Sig FuncType
}

func (FuncTypeAttr) irAttr() {}

func (a FuncTypeAttr) String() string { return a.Sig.String() }

// ArrayAttr holds an ordered list of attributes.
type ArrayAttr struct {
	Elems []Attr
}

func (ArrayAttr) irAttr() {}

func (a ArrayAttr) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, e := range a.Elems {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.String())
	}
	b.WriteByte(']')
	return b.String()
}

// DenseIntAttr holds one integer per vector lane. A splat (all lanes
// equal) prints in collapsed form.
type DenseIntAttr struct {
	Values []int64
}

func (DenseIntAttr) irAttr() {}

// IsSplat reports whether every lane holds the same value.
func (a DenseIntAttr) IsSplat() bool {
	if len(a.Values) == 0 {
		return false
	}
	for _, v := range a.Values[1:] {
		if v != a.Values[0] {
			return false
		}
	}
	return true
}

func (a DenseIntAttr) String() string {
	if a.IsSplat() {
		return fmt.Sprintf("dense<%d>", a.Values[0])
	}
	parts := make([]string, len(a.Values))
	for i, v := range a.Values {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return "dense<[" + strings.Join(parts, ", ") + "]>"
}

// DenseFloatAttr holds one float per vector lane.
type DenseFloatAttr struct {
	Values []float64
}

func (DenseFloatAttr) irAttr() {}

// IsSplat reports whether every lane holds the same value.
func (a DenseFloatAttr) IsSplat() bool {
	if len(a.Values) == 0 {
		return false
	}
	for _, v := range a.Values[1:] {
		if v != a.Values[0] {
			return false
		}
	}
	return true
}

func (a DenseFloatAttr) String() string {
	if a.IsSplat() {
		return fmt.Sprintf("dense<%s>", FloatAttr{Value: a.Values[0]}.String())
	}
	parts := make([]string, len(a.Values))
	for i, v := range a.Values {
		parts[i] = FloatAttr{Value: v}.String()
	}
	return "dense<[" + strings.Join(parts, ", ") + "]>"
}

// SplatInt returns a DenseIntAttr with the value repeated across lanes.
func SplatInt(lanes int, value int64) DenseIntAttr {
	values := make([]int64, lanes)
	for i := range values {
		values[i] = value
	}
	return DenseIntAttr{Values: values}
}

// SplatFloat returns a DenseFloatAttr with the value repeated across lanes.
func SplatFloat(lanes int, value float64) DenseFloatAttr {
	values := make([]float64, lanes)
	for i := range values {
		values[i] = value
	}
	return DenseFloatAttr{Values: values}
}

// Attrs maps attribute names to values.
// Use SortedKeys() for deterministic iteration.
type Attrs map[string]Attr

// SortedKeys returns the attribute names in lexicographic order.
func (a Attrs) SortedKeys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy. Attribute values are immutable by
// convention, so sharing them is safe.
func (a Attrs) Clone() Attrs {
	if a == nil {
		return nil
	}
	out := make(Attrs, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

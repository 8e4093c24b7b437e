package ir

import "fmt"

// Value identifies an SSA value in a Graph: an op result or a block
// argument. The zero Value is the null handle and never valid.
type Value uint32

// IsValid reports whether v is a non-null handle.
func (v Value) IsValid() bool { return v != 0 }

// OpID identifies an operation node in a Graph. Zero is null.
type OpID uint32

// IsValid reports whether id is a non-null handle.
func (id OpID) IsValid() bool { return id != 0 }

// BlockID identifies a block in a Graph. Zero is null.
type BlockID uint32

// IsValid reports whether id is a non-null handle.
func (id BlockID) IsValid() bool { return id != 0 }

// RegionID identifies a region in a Graph. Zero is null.
type RegionID uint32

// IsValid reports whether id is a non-null handle.
func (id RegionID) IsValid() bool { return id != 0 }

// OpKind names an operation within a dialect. Dialect vocabularies are
// closed enums implementing this interface; dispatch is on the concrete
// value, which must be comparable so kinds can key maps.
type OpKind interface {
	// Dialect returns the short dialect name, e.g. "vex".
	Dialect() string
	// String returns the fully qualified op name, e.g. "vex.iadd".
	String() string
}

// Location pins an op to a position in the source description it was
// built from. Replacement ops inherit the location of the op they
// replaced, so locations survive lowering.
type Location struct {
	File string
	Line int
	Col  int
}

// IsValid reports whether the location carries any position at all.
func (l Location) IsValid() bool { return l.File != "" || l.Line > 0 }

// String renders file:line:col, or "<unknown>" for the zero Location.
func (l Location) String() string {
	if !l.IsValid() {
		return "<unknown>"
	}
	file := l.File
	if file == "" {
		file = "<input>"
	}
	if l.Col > 0 {
		return fmt.Sprintf("%s:%d:%d", file, l.Line, l.Col)
	}
	return fmt.Sprintf("%s:%d", file, l.Line)
}

// Op is one operation node: a kind, SSA operands and results, named
// attributes, and zero or more regions for container ops.
//
// Ops live in a Graph arena. Pointers returned by Graph.Op stay valid
// only until the next Graph mutation.
type Op struct {
	Kind     OpKind
	Operands []Value
	Results  []Value
	Attrs    Attrs
	Regions  []RegionID
	Loc      Location
}

// StringAttrValue returns the string payload of the named attribute, or
// "" if absent or not a StringAttr.
func (o *Op) StringAttrValue(name string) string {
	if a, ok := o.Attrs[name].(StringAttr); ok {
		return a.Value
	}
	return ""
}

// IntAttrValue returns the integer payload of the named attribute and
// whether it was present as an IntAttr.
func (o *Op) IntAttrValue(name string) (int64, bool) {
	if a, ok := o.Attrs[name].(IntAttr); ok {
		return a.Value, true
	}
	return 0, false
}

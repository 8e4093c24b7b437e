package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttrSealed(t *testing.T) {
	var _ Attr = IntAttr{Value: 1}
	var _ Attr = FloatAttr{Value: 1.5}
	var _ Attr = StringAttr{Value: "slt"}
	var _ Attr = TypeAttr{T: I32}
	var _ Attr = FuncTypeAttr{Sig: FuncType{}}
	var _ Attr = ArrayAttr{Elems: []Attr{IntAttr{Value: 1}}}
	var _ Attr = DenseIntAttr{Values: []int64{1, 2}}
	var _ Attr = DenseFloatAttr{Values: []float64{1, 2}}
}

func TestAttrString(t *testing.T) {
	tests := []struct {
		name string
		attr Attr
		want string
	}{
		{"int", IntAttr{Value: 42}, "42"},
		{"negative int", IntAttr{Value: -7}, "-7"},
		{"float", FloatAttr{Value: 2.5}, "2.5"},
		{"whole float keeps point", FloatAttr{Value: 3}, "3.0"},
		{"string", StringAttr{Value: "main"}, `"main"`},
		{"string escapes", StringAttr{Value: `a"b`}, `"a\"b"`},
		{"type", TypeAttr{T: VecOf(I32, 4)}, "4xi32"},
		{"functype", FuncTypeAttr{Sig: FuncType{Params: []Type{I32}, Results: []Type{I32}}}, "(i32) -> i32"},
		{"array", ArrayAttr{Elems: []Attr{IntAttr{Value: 1}, StringAttr{Value: "x"}}}, `[1, "x"]`},
		{"dense splat", DenseIntAttr{Values: []int64{5, 5, 5, 5}}, "dense<5>"},
		{"dense mixed", DenseIntAttr{Values: []int64{1, 2, 3}}, "dense<[1, 2, 3]>"},
		{"dense float splat", DenseFloatAttr{Values: []float64{1.5, 1.5}}, "dense<1.5>"},
		{"dense float mixed", DenseFloatAttr{Values: []float64{1, 2.5}}, "dense<[1.0, 2.5]>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.attr.String())
		})
	}
}

func TestSplat(t *testing.T) {
	si := SplatInt(4, 255)
	assert.Equal(t, []int64{255, 255, 255, 255}, si.Values)
	assert.True(t, si.IsSplat())

	sf := SplatFloat(2, 1.5)
	assert.Equal(t, []float64{1.5, 1.5}, sf.Values)
	assert.True(t, sf.IsSplat())

	assert.False(t, DenseIntAttr{Values: []int64{1, 2}}.IsSplat())
	assert.False(t, DenseIntAttr{}.IsSplat())
}

func TestAttrsSortedKeys(t *testing.T) {
	attrs := Attrs{
		"value":     IntAttr{Value: 1},
		"predicate": StringAttr{Value: "slt"},
		"callee":    StringAttr{Value: "f"},
	}

	assert.Equal(t, []string{"callee", "predicate", "value"}, attrs.SortedKeys())
	assert.Empty(t, Attrs{}.SortedKeys())
}

func TestAttrsClone(t *testing.T) {
	attrs := Attrs{"value": IntAttr{Value: 1}}
	clone := attrs.Clone()
	clone["value"] = IntAttr{Value: 2}

	assert.Equal(t, IntAttr{Value: 1}, attrs["value"])
	assert.Nil(t, Attrs(nil).Clone())
}

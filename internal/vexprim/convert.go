package vexprim

import (
	"github.com/descent-ir/descent/internal/ir"
	"github.com/descent-ir/descent/internal/rewrite"
)

// Converter maps vex types onto prim types. Integers drop their
// signedness, floats pass through, vectors convert elementwise. The
// conversion is total over valid vex types; anything else reports
// failure rather than guessing.
type Converter struct {
	cache map[ir.Type]ir.Type
}

// NewConverter returns a Converter with an empty cache.
func NewConverter() *Converter {
	return &Converter{cache: make(map[ir.Type]ir.Type)}
}

// Convert implements rewrite.TypeConverter.
func (c *Converter) Convert(t ir.Type) (ir.Type, bool) {
	if t == nil {
		return nil, false
	}
	if out, ok := c.cache[t]; ok {
		return out, true
	}
	out, ok := convertType(t)
	if !ok {
		return nil, false
	}
	c.cache[t] = out
	return out, true
}

// ConvertSignature implements rewrite.TypeConverter. Parameters and
// results convert one to one, so the remap is the identity.
func (c *Converter) ConvertSignature(sig ir.FuncType) (rewrite.SigConversion, bool) {
	out := ir.FuncType{
		Params:  make([]ir.Type, len(sig.Params)),
		Results: make([]ir.Type, len(sig.Results)),
	}
	remap := make([]int, len(sig.Params))
	for i, p := range sig.Params {
		np, ok := c.Convert(p)
		if !ok {
			return rewrite.SigConversion{}, false
		}
		out.Params[i] = np
		remap[i] = i
	}
	for i, r := range sig.Results {
		nr, ok := c.Convert(r)
		if !ok {
			return rewrite.SigConversion{}, false
		}
		out.Results[i] = nr
	}
	return rewrite.SigConversion{Sig: out, Remap: remap}, true
}

func convertType(t ir.Type) (ir.Type, bool) {
	switch v := t.(type) {
	case ir.Int:
		return ir.I(v.Width), true
	case ir.Float:
		return v, true
	case ir.Vec:
		elem, ok := convertType(v.Elem)
		if !ok {
			return nil, false
		}
		return ir.VecOf(elem, v.Lanes), true
	default:
		return nil, false
	}
}

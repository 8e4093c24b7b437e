package frontend

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/descent-ir/descent/internal/ir"
)

// ParseType parses source type syntax into an ir.Type: "i32" is a
// signless integer, "si8"/"ui64" are signed and unsigned, "f16"/"f32"/
// "f64" are floats, and "4xi32" is a four-lane vector. The parsed type
// must satisfy ir.ValidateType.
func ParseType(s string) (ir.Type, error) {
	if s == "" {
		return nil, fmt.Errorf("empty type")
	}
	var t ir.Type
	if i := strings.IndexByte(s, 'x'); i > 0 {
		lanes, err := strconv.Atoi(s[:i])
		if err != nil {
			return nil, fmt.Errorf("bad lane count in type %q", s)
		}
		elem, err := parseScalar(s[i+1:])
		if err != nil {
			return nil, fmt.Errorf("bad vector element in type %q", s)
		}
		t = ir.VecOf(elem, lanes)
	} else {
		var err error
		t, err = parseScalar(s)
		if err != nil {
			return nil, err
		}
	}
	if err := ir.ValidateType(t); err != nil {
		return nil, fmt.Errorf("type %q: %w", s, err)
	}
	return t, nil
}

func parseScalar(s string) (ir.Type, error) {
	rest := s
	sign := ir.Signless
	switch {
	case strings.HasPrefix(s, "si"):
		sign, rest = ir.Signed, s[1:]
	case strings.HasPrefix(s, "ui"):
		sign, rest = ir.Unsigned, s[1:]
	}
	switch {
	case strings.HasPrefix(rest, "i"):
		width, err := strconv.ParseUint(rest[1:], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("bad integer width in type %q", s)
		}
		return ir.Int{Width: uint32(width), Sign: sign}, nil
	case strings.HasPrefix(rest, "f"):
		width, err := strconv.ParseUint(rest[1:], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("bad float width in type %q", s)
		}
		return ir.Float{Width: uint32(width)}, nil
	default:
		return nil, fmt.Errorf("unknown type %q", s)
	}
}

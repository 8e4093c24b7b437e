package vexprim

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/descent-ir/descent/internal/ir"
)

func TestConverter_PreservesWidthAndShape(t *testing.T) {
	conv := NewConverter()
	widths := []uint32{1, 8, 16, 32, 64}

	rapid.Check(t, func(t *rapid.T) {
		width := rapid.SampledFrom(widths).Draw(t, "width")
		var elem ir.Type
		switch rapid.IntRange(0, 2).Draw(t, "sign") {
		case 0:
			elem = ir.SI(width)
		case 1:
			elem = ir.UI(width)
		default:
			elem = ir.I(width)
		}

		src := elem
		lanes := rapid.IntRange(1, 8).Draw(t, "lanes")
		if vec := rapid.Bool().Draw(t, "vec"); vec {
			src = ir.VecOf(elem, lanes)
		}

		out, ok := conv.Convert(src)
		require.True(t, ok)
		require.Equal(t, ir.BitWidth(src), ir.BitWidth(out))
		require.Equal(t, ir.Lanes(src), ir.Lanes(out))
		require.Equal(t, ir.I(width), ir.Elem(out), "elements convert to signless")
	})
}

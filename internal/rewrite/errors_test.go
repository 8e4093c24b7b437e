package rewrite

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/descent-ir/descent/internal/ir"
)

func TestPreconditionErrorMessage(t *testing.T) {
	loc := ir.Location{File: "kernel.cue", Line: 12, Col: 3}
	err := NewWideShiftError(testKind{"src", "shl"}, loc, 32, 64)
	assert.Equal(t, ErrCodeWideShift, err.Code)
	assert.Equal(t,
		"WIDE_SHIFT_AMOUNT: src.shl at kernel.cue:12:3: shift amount is 64 bits, base is 32",
		err.Error(),
	)

	noLoc := NewMultiResultCallError(testKind{"src", "call"}, ir.Location{}, 2)
	assert.Equal(t,
		"MULTI_RESULT_CALL: src.call: call has 2 results, at most 1 is supported",
		noLoc.Error(),
	)
}

func TestIsPrecondition(t *testing.T) {
	err := NewWideShiftError(testKind{"src", "shl"}, ir.Location{}, 16, 32)
	assert.True(t, IsPrecondition(err))
	assert.True(t, IsPrecondition(fmt.Errorf("apply: %w", err)))
	assert.False(t, IsPrecondition(errors.New("apply: boom")))
	assert.False(t, IsPrecondition(nil))
}

func TestConversionErrorMessage(t *testing.T) {
	one := &ConversionError{Unconverted: []UnconvertedOp{
		{Kind: testKind{"src", "add"}, Loc: ir.Location{File: "m.cue", Line: 4, Col: 9}},
	}}
	assert.Equal(t, "1 op not converted: src.add at m.cue:4:9", one.Error())

	two := &ConversionError{Unconverted: []UnconvertedOp{
		{Kind: testKind{"src", "add"}},
		{Kind: testKind{"src", "ret"}},
	}}
	assert.Equal(t, "2 ops not converted: src.add; src.ret", two.Error())
}

func TestIsConversion(t *testing.T) {
	err := &ConversionError{Unconverted: []UnconvertedOp{{Kind: testKind{"src", "add"}}}}
	assert.True(t, IsConversion(err))
	assert.True(t, IsConversion(fmt.Errorf("convert: %w", err)))
	assert.False(t, IsConversion(errors.New("convert failed")))
	assert.False(t, IsPrecondition(err))
	assert.False(t, IsConversion(NewWideShiftError(testKind{"src", "shl"}, ir.Location{}, 8, 16)))
}

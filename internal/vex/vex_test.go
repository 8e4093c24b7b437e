package vex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/descent-ir/descent/internal/ir"
)

func TestCodeImplementsOpKind(t *testing.T) {
	var _ ir.OpKind = IAdd
}

func TestNamesCompleteAndUnique(t *testing.T) {
	seen := map[string]Code{}
	for _, c := range Codes() {
		name := c.Name()
		require.NotEmpty(t, name, "code %d has no name", c)
		prev, dup := seen[name]
		require.False(t, dup, "name %q used by both %d and %d", name, prev, c)
		seen[name] = c
	}
	assert.Len(t, seen, len(Codes()))
}

func TestFromName(t *testing.T) {
	for _, c := range Codes() {
		got, ok := FromName(c.Name())
		require.True(t, ok, "name %q did not resolve", c.Name())
		assert.Equal(t, c, got)
	}

	_, ok := FromName("no_such_op")
	assert.False(t, ok)
	_, ok = FromName("vex.iadd")
	assert.False(t, ok, "FromName takes bare names")
}

func TestString(t *testing.T) {
	assert.Equal(t, "vex.iadd", IAdd.String())
	assert.Equal(t, "vex.bitfield_sextract", BitFieldSExtract.String())
	assert.Equal(t, "vex.invalid", Invalid.String())
	assert.Equal(t, "vex", IAdd.Dialect())
}

func TestInfoShapes(t *testing.T) {
	tests := []struct {
		code Code
		info Info
	}{
		{IAdd, Info{Operands: 2, Results: 1}},
		{FNeg, Info{Operands: 1, Results: 1}},
		{BitFieldInsert, Info{Operands: 4, Results: 1}},
		{BitFieldUExtract, Info{Operands: 3, Results: 1}},
		{Select, Info{Operands: 3, Results: 1}},
		{Constant, Info{Results: 1}},
		{FunctionCall, Info{Variadic: true, Results: 1, ResultOptional: true}},
		{Return, Info{Terminator: true}},
		{ReturnValue, Info{Operands: 1, Terminator: true}},
		{Func, Info{Regions: 1}},
		{Module, Info{Regions: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.code.Name(), func(t *testing.T) {
			assert.Equal(t, tt.info, InfoFor(tt.code))
		})
	}
}

func TestEveryCodeHasInfo(t *testing.T) {
	// Every non-container, non-terminator op must produce a result;
	// anything with the zero Info would be an unfinished table row.
	for _, c := range Codes() {
		info := InfoFor(c)
		if info.Terminator || info.Regions > 0 {
			continue
		}
		assert.Equal(t, 1, info.Results, "%s: table row looks unfinished", c)
	}
}

func TestIsTerminator(t *testing.T) {
	assert.True(t, IsTerminator(Return))
	assert.True(t, IsTerminator(ReturnValue))
	assert.True(t, IsTerminator(ModuleEnd))
	assert.False(t, IsTerminator(IAdd))
	assert.False(t, IsTerminator(Func))
}

func TestParseControl(t *testing.T) {
	tests := []struct {
		in      string
		want    Control
		wantErr bool
	}{
		{"", ControlNone, false},
		{"none", ControlNone, false},
		{"inline", ControlInline, false},
		{"dont_inline", ControlDontInline, false},
		{"pure", ControlPure, false},
		{"const", ControlConst, false},
		{"Inline", "", true},
		{"fast", "", true},
	}

	for _, tt := range tests {
		t.Run("control_"+tt.in, func(t *testing.T) {
			got, err := ParseControl(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

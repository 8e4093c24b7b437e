// Package vexprim lowers vex modules to prim modules.
//
// Each op kind has exactly one pattern, registered in catalog.go. The
// patterns stage replacement ops through a rewrite.Rewriter, so a
// failed application leaves the graph untouched. Types lose their
// signedness on the way down: vex's si32/ui32 both become i32, and the
// sign-specific behavior moves into the choice of prim op (sdiv vs
// udiv, sext vs zext, slt vs ult).
//
// Composite ops expand into primitive sequences. The bitfield ops
// become mask algebra over shl/lshr/ashr/and/or/xor, with count and
// offset operands broadcast to the base's shape and brought to the
// base's width first. Width-changing casts pick the extend or truncate
// direction from the operand and result widths.
package vexprim

package rewrite

import (
	"errors"
	"fmt"
	"strings"

	"github.com/descent-ir/descent/internal/ir"
)

// PreconditionCode categorizes source-IR assumptions that patterns
// check instead of miscompiling.
type PreconditionCode string

const (
	// ErrCodeWideShift indicates a shift amount wider than its base.
	ErrCodeWideShift PreconditionCode = "WIDE_SHIFT_AMOUNT"

	// ErrCodeMultiResultCall indicates a call with more than one result.
	ErrCodeMultiResultCall PreconditionCode = "MULTI_RESULT_CALL"
)

// PreconditionError reports a source op that violates an assumption the
// lowering depends on. It is a soft failure: the graph is untouched, the
// offending op identified, and nothing was silently "fixed".
type PreconditionError struct {
	// Code identifies the violated assumption.
	Code PreconditionCode

	// Kind is the op that carried the violation.
	Kind ir.OpKind

	// Loc is the op's source position.
	Loc ir.Location

	// Detail is a human-readable description.
	Detail string
}

// Error implements the error interface.
func (e *PreconditionError) Error() string {
	if e.Loc.IsValid() {
		return fmt.Sprintf("%s: %s at %s: %s", e.Code, e.Kind, e.Loc, e.Detail)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Kind, e.Detail)
}

// IsPrecondition returns true if the error is a precondition violation.
// Uses errors.As to handle wrapped errors.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

// NewWideShiftError creates a PreconditionError for a shift amount wider
// than the shifted value.
func NewWideShiftError(kind ir.OpKind, loc ir.Location, baseWidth, amountWidth uint32) *PreconditionError {
	return &PreconditionError{
		Code:   ErrCodeWideShift,
		Kind:   kind,
		Loc:    loc,
		Detail: fmt.Sprintf("shift amount is %d bits, base is %d", amountWidth, baseWidth),
	}
}

// NewMultiResultCallError creates a PreconditionError for a call with
// more than one result.
func NewMultiResultCallError(kind ir.OpKind, loc ir.Location, results int) *PreconditionError {
	return &PreconditionError{
		Code:   ErrCodeMultiResultCall,
		Kind:   kind,
		Loc:    loc,
		Detail: fmt.Sprintf("call has %d results, at most 1 is supported", results),
	}
}

// UnconvertedOp is one source op the driver could not lower.
type UnconvertedOp struct {
	Kind ir.OpKind
	Loc  ir.Location
}

func (u UnconvertedOp) String() string {
	if u.Loc.IsValid() {
		return fmt.Sprintf("%s at %s", u.Kind, u.Loc)
	}
	return u.Kind.String()
}

// ConversionError reports every source op still standing after a full
// conversion walk. The driver collects them all rather than stopping at
// the first, so one run shows the complete gap.
type ConversionError struct {
	Unconverted []UnconvertedOp
}

// Error implements the error interface.
func (e *ConversionError) Error() string {
	if len(e.Unconverted) == 1 {
		return fmt.Sprintf("1 op not converted: %s", e.Unconverted[0])
	}
	parts := make([]string, len(e.Unconverted))
	for i, u := range e.Unconverted {
		parts[i] = u.String()
	}
	return fmt.Sprintf("%d ops not converted: %s", len(e.Unconverted), strings.Join(parts, "; "))
}

// IsConversion returns true if the error reports unconverted ops.
// Uses errors.As to handle wrapped errors.
func IsConversion(err error) bool {
	var ce *ConversionError
	return errors.As(err, &ce)
}

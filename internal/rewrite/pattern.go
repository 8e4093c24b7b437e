package rewrite

import "github.com/descent-ir/descent/internal/ir"

// TypeConverter maps source dialect types to target dialect types.
// Convert must be deterministic: equal inputs give equal outputs, so
// implementations are free to cache.
type TypeConverter interface {
	// Convert returns the target type for t, or false when t has no
	// target representation.
	Convert(t ir.Type) (ir.Type, bool)

	// ConvertSignature converts every param and result of a signature,
	// or returns false when any of them fails.
	ConvertSignature(sig ir.FuncType) (SigConversion, bool)
}

// SigConversion is a converted signature plus the remapping from old
// parameter index to new. A nil Remap means identity. The engine uses
// the remap when it rewires block arguments, so converters that
// reorder parameters stay honest.
type SigConversion struct {
	Sig   ir.FuncType
	Remap []int
}

// ParamFor returns the new index of old parameter i.
func (sc SigConversion) ParamFor(i int) int {
	if sc.Remap == nil {
		return i
	}
	return sc.Remap[i]
}

// Disposition says what a pattern did with an op.
type Disposition uint8

const (
	// NoMatch means the pattern declined and the op was left untouched.
	NoMatch Disposition = iota

	// Unchanged means the pattern accepted the op as already legal.
	Unchanged

	// Replaced means the op was swapped for the staged ops, with its
	// results mapped to the Result values.
	Replaced

	// Erased means the op was removed with no replacement. Only valid
	// for ops with zero results.
	Erased
)

// String renders the disposition for logs and traces.
func (d Disposition) String() string {
	switch d {
	case NoMatch:
		return "no_match"
	case Unchanged:
		return "unchanged"
	case Replaced:
		return "replaced"
	case Erased:
		return "erased"
	default:
		return "invalid"
	}
}

// Result is a pattern's verdict plus the replacement values for the
// matched op's results.
type Result struct {
	Disp   Disposition
	Values []ir.Value
}

// ReplaceWith reports success: the matched op's i-th result is replaced
// by values[i]. The count must equal the op's result count, which for
// zero-result container ops means calling ReplaceWith with no values.
func ReplaceWith(values ...ir.Value) Result {
	return Result{Disp: Replaced, Values: values}
}

// EraseOnly reports that a zero-result op was removed outright.
func EraseOnly() Result {
	return Result{Disp: Erased}
}

// KeepUnchanged reports that the op is already legal as-is.
func KeepUnchanged() Result {
	return Result{Disp: Unchanged}
}

// Skip reports that the pattern declined the op.
func Skip() Result {
	return Result{Disp: NoMatch}
}

// Pattern lowers one op kind. All graph work must go through the
// Rewriter so the application stays atomic.
//
// operands holds the matched op's operands after conversion-state
// resolution: element i is the replacement for operand i, or the
// original value when it was never replaced.
type Pattern interface {
	// Kind returns the single op kind this pattern fires on.
	Kind() ir.OpKind

	// Rewrite either stages replacement ops and returns ReplaceWith or
	// EraseOnly, or returns Skip/KeepUnchanged without touching the
	// graph. A returned error aborts the conversion; staged work is
	// discarded either way on anything but success.
	Rewrite(rw *Rewriter, op ir.OpID, operands []ir.Value) (Result, error)
}

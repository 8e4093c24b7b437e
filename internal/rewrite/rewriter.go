package rewrite

import (
	"fmt"

	"github.com/descent-ir/descent/internal/ir"
)

// Rewriter stages the graph work of one pattern application. Ops
// created through it exist in the arena but belong to no block, and
// structural changes (block moves, argument conversion) are recorded as
// intents. Everything lands only when the engine commits; a failed
// application discards the lot, leaving the graph as it was.
type Rewriter struct {
	g      *ir.Graph
	conv   TypeConverter
	loc    ir.Location
	anchor ir.OpID
	staged []ir.OpID
	moves  []blockMove
	sigs   []argSwap
}

type blockMove struct {
	src, dst ir.RegionID
}

type argSwap struct {
	block ir.BlockID
	sc    SigConversion
}

type remapPair struct {
	old, new ir.Value
}

// Graph returns the arena being rewritten. Use it for reads; mutations
// must go through the Rewriter.
func (rw *Rewriter) Graph() *ir.Graph { return rw.g }

// Loc returns the matched op's location. Staged ops inherit it.
func (rw *Rewriter) Loc() ir.Location { return rw.loc }

// Convert maps a source type to its target type.
func (rw *Rewriter) Convert(t ir.Type) (ir.Type, bool) {
	return rw.conv.Convert(t)
}

// ConvertSignature maps a source signature to its target signature and
// argument remapping.
func (rw *Rewriter) ConvertSignature(sig ir.FuncType) (SigConversion, bool) {
	return rw.conv.ConvertSignature(sig)
}

// Emit stages a single-result op and returns its result value.
func (rw *Rewriter) Emit(kind ir.OpKind, resultType ir.Type, operands ...ir.Value) ir.Value {
	id := rw.EmitOp(kind, []ir.Type{resultType}, operands, nil)
	return rw.g.Op(id).Results[0]
}

// EmitAttrs stages a single-result op carrying attributes.
func (rw *Rewriter) EmitAttrs(kind ir.OpKind, resultType ir.Type, attrs ir.Attrs, operands ...ir.Value) ir.Value {
	id := rw.EmitOp(kind, []ir.Type{resultType}, operands, attrs)
	return rw.g.Op(id).Results[0]
}

// EmitOp stages an op of arbitrary shape and returns its id.
func (rw *Rewriter) EmitOp(kind ir.OpKind, resultTypes []ir.Type, operands []ir.Value, attrs ir.Attrs) ir.OpID {
	id := rw.g.NewOp(kind, rw.loc, operands, resultTypes, attrs)
	rw.staged = append(rw.staged, id)
	return id
}

// Results returns the result values of an op.
func (rw *Rewriter) Results(op ir.OpID) []ir.Value {
	return append([]ir.Value(nil), rw.g.Op(op).Results...)
}

// NewRegion adds a region to a staged container op.
func (rw *Rewriter) NewRegion(op ir.OpID) ir.RegionID {
	return rw.g.NewRegion(op)
}

// MoveBlocks schedules every block of src to move into dst at commit,
// preserving order.
func (rw *Rewriter) MoveBlocks(src, dst ir.RegionID) {
	rw.moves = append(rw.moves, blockMove{src: src, dst: dst})
}

// ConvertBlockArgs schedules the block's arguments to be replaced with
// fresh values of the converted parameter types at commit. Old argument
// i maps onto the fresh argument the conversion's remap names, and the
// mappings enter the conversion state together with the rest of the
// application.
func (rw *Rewriter) ConvertBlockArgs(block ir.BlockID, sc SigConversion) {
	rw.sigs = append(rw.sigs, argSwap{block: block, sc: sc})
}

// dirty reports whether the application staged any work.
func (rw *Rewriter) dirty() bool {
	return len(rw.staged) > 0 || len(rw.moves) > 0 || len(rw.sigs) > 0
}

// discard erases staged ops, newest first, and drops pending intents.
func (rw *Rewriter) discard() error {
	var firstErr error
	for i := len(rw.staged) - 1; i >= 0; i-- {
		if err := rw.g.EraseOp(rw.staged[i]); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("discard staged op: %w", err)
		}
	}
	rw.staged = nil
	rw.moves = nil
	rw.sigs = nil
	return firstErr
}

// commit lands the application: block moves, argument swaps, then
// insertion of staged ops ahead of the matched op. When the matched op
// is detached (the module root) the staged ops stay detached; the
// engine re-roots the graph afterwards. Returns the argument remappings
// for the engine to fold into the conversion state.
func (rw *Rewriter) commit() ([]remapPair, error) {
	for _, mv := range rw.moves {
		if err := rw.g.MoveBlocks(mv.src, mv.dst); err != nil {
			return nil, fmt.Errorf("commit block move: %w", err)
		}
	}
	var remaps []remapPair
	for _, s := range rw.sigs {
		old, fresh, err := rw.g.ReplaceBlockArgs(s.block, s.sc.Sig.Params)
		if err != nil {
			return nil, fmt.Errorf("commit arg conversion: %w", err)
		}
		if s.sc.Remap != nil && len(s.sc.Remap) != len(old) {
			return nil, fmt.Errorf("commit arg conversion: remap covers %d args, block has %d", len(s.sc.Remap), len(old))
		}
		for i := range old {
			j := s.sc.ParamFor(i)
			if j < 0 || j >= len(fresh) {
				return nil, fmt.Errorf("commit arg conversion: arg %d remaps to %d of %d", i, j, len(fresh))
			}
			remaps = append(remaps, remapPair{old: old[i], new: fresh[j]})
		}
	}
	if rw.g.OpBlock(rw.anchor) != 0 {
		for _, op := range rw.staged {
			if err := rw.g.InsertBefore(rw.anchor, op); err != nil {
				return nil, fmt.Errorf("commit insert: %w", err)
			}
		}
	}
	return remaps, nil
}

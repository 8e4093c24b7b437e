package rewrite

import (
	"fmt"
	"log/slog"

	"github.com/descent-ir/descent/internal/ir"
)

// symNameAttr is the conventional symbol attribute shared by dialects.
// The driver reads it to tag events with the enclosing function.
const symNameAttr = "sym_name"

// Convert lowers the module rooted in g using reg's patterns, walking
// ops in pre-order so containers convert before their bodies. Ops
// already in the target dialect are legal and never rewritten. A
// pattern error aborts the walk immediately. After a clean walk every
// remaining op must belong to the target dialect; leftovers come back
// collected in a *ConversionError.
func Convert(g *ir.Graph, conv TypeConverter, reg *Registry, target string, opts ...Option) error {
	return NewEngine(g, conv, reg, target, opts...).Run()
}

// Run drives a full conversion walk from the root op.
func (e *Engine) Run() error {
	root := e.g.Root()
	if !root.IsValid() {
		return fmt.Errorf("convert: graph has no root op")
	}
	slog.Debug("conversion started",
		"target", e.target,
		"patterns", e.reg.Len(),
	)
	if err := e.walk(root); err != nil {
		return err
	}
	if err := e.g.Verify(); err != nil {
		return fmt.Errorf("convert: %w", err)
	}
	var leftovers []UnconvertedOp
	e.collectForeign(e.g.Root(), &leftovers)
	if len(leftovers) > 0 {
		slog.Debug("conversion incomplete", "unconverted", len(leftovers))
		return &ConversionError{Unconverted: leftovers}
	}
	slog.Debug("conversion finished", "rewrites", e.clock.Current())
	return nil
}

// walk applies the pattern for op, then recurses into whichever op now
// holds the regions: the replacement ops when the pattern produced new
// containers, the original op otherwise. Block op lists are snapshotted
// before recursion, so ops a nested rewrite inserts are not revisited.
func (e *Engine) walk(op ir.OpID) error {
	if sym := e.g.Op(op).StringAttrValue(symNameAttr); sym != "" {
		prev := e.scope
		e.scope = sym
		defer func() { e.scope = prev }()
	}
	if e.g.Op(op).Kind.Dialect() == e.target {
		return e.walkInto(op)
	}

	out, err := e.Apply(op)
	if err != nil {
		return err
	}
	holders := out.NewOps
	if out.Disp == NoMatch || out.Disp == Unchanged {
		holders = []ir.OpID{op}
	}
	for _, holder := range holders {
		if err := e.walkInto(holder); err != nil {
			return err
		}
	}
	return nil
}

// walkInto recurses through op's regions.
func (e *Engine) walkInto(op ir.OpID) error {
	regions := append([]ir.RegionID(nil), e.g.Op(op).Regions...)
	for _, region := range regions {
		for _, block := range e.g.RegionBlocks(region) {
			for _, inner := range e.g.BlockOps(block) {
				if !e.g.OpAlive(inner) {
					continue
				}
				if err := e.walk(inner); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// collectForeign gathers every op under root that is not in the target
// dialect, in walk order.
func (e *Engine) collectForeign(op ir.OpID, acc *[]UnconvertedOp) {
	node := e.g.Op(op)
	if node.Kind.Dialect() != e.target {
		*acc = append(*acc, UnconvertedOp{Kind: node.Kind, Loc: node.Loc})
	}
	regions := append([]ir.RegionID(nil), node.Regions...)
	for _, region := range regions {
		for _, block := range e.g.RegionBlocks(region) {
			for _, inner := range e.g.BlockOps(block) {
				e.collectForeign(inner, acc)
			}
		}
	}
}

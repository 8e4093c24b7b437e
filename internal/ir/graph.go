package ir

import (
	"fmt"
	"slices"
)

// Graph owns every op, value, block, and region of one module, arena
// style. Handles are indices into internal slices. Slot zero of each
// arena is reserved as the null handle. Erased slots are tombstoned and
// never reused, so a handle observed once stays meaningful forever.
//
// A Graph is single-writer. Creation methods panic on invalid handles
// (programmer error, like indexing out of range); structural mutators
// return errors for violations a caller may plausibly want to surface.
type Graph struct {
	values  []valueSlot
	ops     []opSlot
	blocks  []blockSlot
	regions []regionSlot
	root    OpID
}

type valueSlot struct {
	typ   Type
	def   OpID    // defining op, 0 for block arguments
	block BlockID // declaring block for arguments, 0 for op results
	uses  int
	dead  bool
}

type opSlot struct {
	op    Op
	block BlockID // containing block, 0 while detached
	dead  bool
}

type blockSlot struct {
	args   []Value
	ops    []OpID
	region RegionID
	dead   bool
}

type regionSlot struct {
	blocks []BlockID
	owner  OpID
	dead   bool
}

// NewGraph returns an empty graph with null slots reserved.
func NewGraph() *Graph {
	return &Graph{
		values:  make([]valueSlot, 1),
		ops:     make([]opSlot, 1),
		blocks:  make([]blockSlot, 1),
		regions: make([]regionSlot, 1),
	}
}

// NewOp allocates an op node and its result values. The op is detached:
// it belongs to no block until Append or InsertBefore places it.
// Operand use counts are incremented here and decremented by EraseOp.
func (g *Graph) NewOp(kind OpKind, loc Location, operands []Value, resultTypes []Type, attrs Attrs) OpID {
	if kind == nil {
		panic("ir: NewOp with nil kind")
	}
	for _, v := range operands {
		g.valueSlot(v).uses++
	}
	id := OpID(len(g.ops))
	results := make([]Value, len(resultTypes))
	for i, t := range resultTypes {
		results[i] = g.newValue(t, id, 0)
	}
	g.ops = append(g.ops, opSlot{op: Op{
		Kind:     kind,
		Operands: slices.Clone(operands),
		Results:  results,
		Attrs:    attrs.Clone(),
		Loc:      loc,
	}})
	return id
}

// NewRegion allocates a region and appends it to the owner op.
func (g *Graph) NewRegion(owner OpID) RegionID {
	os := g.opSlot(owner)
	id := RegionID(len(g.regions))
	g.regions = append(g.regions, regionSlot{owner: owner})
	os.op.Regions = append(os.op.Regions, id)
	return id
}

// NewBlock allocates a block and appends it to the region.
func (g *Graph) NewBlock(region RegionID) BlockID {
	rs := g.regionSlot(region)
	id := BlockID(len(g.blocks))
	g.blocks = append(g.blocks, blockSlot{region: region})
	rs.blocks = append(rs.blocks, id)
	return id
}

// AddBlockArg allocates a new argument value on the block.
func (g *Graph) AddBlockArg(b BlockID, t Type) Value {
	bs := g.blockSlot(b)
	v := g.newValue(t, 0, b)
	bs.args = append(bs.args, v)
	return v
}

// Append attaches a detached op at the end of the block.
func (g *Graph) Append(b BlockID, op OpID) error {
	bs := g.blockSlot(b)
	os := g.opSlot(op)
	if os.dead {
		return fmt.Errorf("append erased op %s", os.op.Kind)
	}
	if os.block != 0 {
		return fmt.Errorf("append op %s already in a block", os.op.Kind)
	}
	os.block = b
	bs.ops = append(bs.ops, op)
	return nil
}

// InsertBefore attaches a detached op immediately before anchor, inside
// anchor's block.
func (g *Graph) InsertBefore(anchor, op OpID) error {
	as := g.opSlot(anchor)
	if as.dead || as.block == 0 {
		return fmt.Errorf("insert anchor %s is not in a block", as.op.Kind)
	}
	os := g.opSlot(op)
	if os.dead {
		return fmt.Errorf("insert erased op %s", os.op.Kind)
	}
	if os.block != 0 {
		return fmt.Errorf("insert op %s already in a block", os.op.Kind)
	}
	bs := g.blockSlot(as.block)
	i := slices.Index(bs.ops, anchor)
	if i < 0 {
		return fmt.Errorf("anchor %s missing from its block", as.op.Kind)
	}
	bs.ops = slices.Insert(bs.ops, i, op)
	os.block = as.block
	return nil
}

// EraseOp tombstones an op: detaches it from its block, decrements its
// operands' use counts, and marks its results dead. Results may still be
// referenced by live ops; callers are responsible for having recorded a
// replacement for them first. All of the op's regions must be empty.
func (g *Graph) EraseOp(id OpID) error {
	os := g.opSlot(id)
	if os.dead {
		return fmt.Errorf("erase already-erased op %s", os.op.Kind)
	}
	for _, r := range os.op.Regions {
		if len(g.regionSlot(r).blocks) != 0 {
			return fmt.Errorf("erase op %s with non-empty region", os.op.Kind)
		}
	}
	for _, v := range os.op.Operands {
		g.valueSlot(v).uses--
	}
	for _, v := range os.op.Results {
		g.valueSlot(v).dead = true
	}
	for _, r := range os.op.Regions {
		g.regionSlot(r).dead = true
	}
	if os.block != 0 {
		bs := g.blockSlot(os.block)
		if i := slices.Index(bs.ops, id); i >= 0 {
			bs.ops = slices.Delete(bs.ops, i, i+1)
		}
		os.block = 0
	}
	os.dead = true
	return nil
}

// MoveBlocks transfers every block of src to the end of dst, preserving
// order. src is left empty.
func (g *Graph) MoveBlocks(src, dst RegionID) error {
	if src == dst {
		return fmt.Errorf("move blocks within one region")
	}
	ss := g.regionSlot(src)
	ds := g.regionSlot(dst)
	if ss.dead || ds.dead {
		return fmt.Errorf("move blocks through erased region")
	}
	for _, b := range ss.blocks {
		g.blockSlot(b).region = dst
	}
	ds.blocks = append(ds.blocks, ss.blocks...)
	ss.blocks = nil
	return nil
}

// ReplaceBlockArgs swaps the block's argument list for fresh values of
// the given types. It returns the old and new argument values so the
// caller can record old-to-new mappings. Old arguments are marked dead
// but may still be referenced until their users are rewritten.
func (g *Graph) ReplaceBlockArgs(b BlockID, types []Type) (old, fresh []Value, err error) {
	bs := g.blockSlot(b)
	if bs.dead {
		return nil, nil, fmt.Errorf("replace args of erased block")
	}
	old = bs.args
	fresh = make([]Value, len(types))
	for i, t := range types {
		fresh[i] = g.newValue(t, 0, b)
	}
	for _, v := range old {
		g.valueSlot(v).dead = true
	}
	bs.args = fresh
	return old, fresh, nil
}

// SetRoot marks the graph's top-level op. The root must be alive and
// detached from any block.
func (g *Graph) SetRoot(op OpID) error {
	os := g.opSlot(op)
	if os.dead {
		return fmt.Errorf("set erased op %s as root", os.op.Kind)
	}
	if os.block != 0 {
		return fmt.Errorf("root op %s must be detached", os.op.Kind)
	}
	g.root = op
	return nil
}

// Root returns the top-level op, or the null handle if unset.
func (g *Graph) Root() OpID { return g.root }

// Op returns the node for id. The pointer stays valid only until the
// next Graph mutation.
func (g *Graph) Op(id OpID) *Op { return &g.opSlot(id).op }

// OpAlive reports whether the op has not been erased.
func (g *Graph) OpAlive(id OpID) bool { return !g.opSlot(id).dead }

// OpBlock returns the block containing the op, or null if detached.
func (g *Graph) OpBlock(id OpID) BlockID { return g.opSlot(id).block }

// ValueType returns the declared type of v.
func (g *Graph) ValueType(v Value) Type { return g.valueSlot(v).typ }

// ValueDef returns the op defining v, or null for block arguments.
func (g *Graph) ValueDef(v Value) OpID { return g.valueSlot(v).def }

// ValueAlive reports whether v's definition still stands.
func (g *Graph) ValueAlive(v Value) bool { return !g.valueSlot(v).dead }

// Uses returns the number of operand slots currently referencing v.
func (g *Graph) Uses(v Value) int { return g.valueSlot(v).uses }

// BlockArgs returns a copy of the block's argument values.
func (g *Graph) BlockArgs(b BlockID) []Value {
	return slices.Clone(g.blockSlot(b).args)
}

// BlockOps returns a copy of the block's op list in program order.
func (g *Graph) BlockOps(b BlockID) []OpID {
	return slices.Clone(g.blockSlot(b).ops)
}

// BlockRegion returns the region containing the block.
func (g *Graph) BlockRegion(b BlockID) RegionID { return g.blockSlot(b).region }

// RegionBlocks returns a copy of the region's block list in order.
func (g *Graph) RegionBlocks(r RegionID) []BlockID {
	return slices.Clone(g.regionSlot(r).blocks)
}

// RegionOwner returns the op holding the region.
func (g *Graph) RegionOwner(r RegionID) OpID { return g.regionSlot(r).owner }

// AliveOps returns every non-erased op in allocation order.
func (g *Graph) AliveOps() []OpID {
	var out []OpID
	for i := 1; i < len(g.ops); i++ {
		if !g.ops[i].dead {
			out = append(out, OpID(i))
		}
	}
	return out
}

// Verify checks containment consistency: block lists hold alive attached
// ops, region lists hold alive blocks, and parent links agree.
func (g *Graph) Verify() error {
	for i := 1; i < len(g.blocks); i++ {
		bs := &g.blocks[i]
		if bs.dead {
			continue
		}
		for _, op := range bs.ops {
			os := g.opSlot(op)
			if os.dead {
				return fmt.Errorf("block %d lists erased op %s", i, os.op.Kind)
			}
			if os.block != BlockID(i) {
				return fmt.Errorf("op %s parent link disagrees with block %d", os.op.Kind, i)
			}
		}
	}
	for i := 1; i < len(g.regions); i++ {
		rs := &g.regions[i]
		if rs.dead {
			continue
		}
		for _, b := range rs.blocks {
			bs := g.blockSlot(b)
			if bs.dead {
				return fmt.Errorf("region %d lists erased block %d", i, b)
			}
			if bs.region != RegionID(i) {
				return fmt.Errorf("block %d parent link disagrees with region %d", b, i)
			}
		}
	}
	if g.root != 0 {
		rs := g.opSlot(g.root)
		if rs.dead {
			return fmt.Errorf("root op is erased")
		}
	}
	return nil
}

func (g *Graph) newValue(t Type, def OpID, block BlockID) Value {
	v := Value(len(g.values))
	g.values = append(g.values, valueSlot{typ: t, def: def, block: block})
	return v
}

func (g *Graph) valueSlot(v Value) *valueSlot {
	if v == 0 || int(v) >= len(g.values) {
		panic(fmt.Sprintf("ir: invalid value handle %d", v))
	}
	return &g.values[v]
}

func (g *Graph) opSlot(id OpID) *opSlot {
	if id == 0 || int(id) >= len(g.ops) {
		panic(fmt.Sprintf("ir: invalid op handle %d", id))
	}
	return &g.ops[id]
}

func (g *Graph) blockSlot(id BlockID) *blockSlot {
	if id == 0 || int(id) >= len(g.blocks) {
		panic(fmt.Sprintf("ir: invalid block handle %d", id))
	}
	return &g.blocks[id]
}

func (g *Graph) regionSlot(id RegionID) *regionSlot {
	if id == 0 || int(id) >= len(g.regions) {
		panic(fmt.Sprintf("ir: invalid region handle %d", id))
	}
	return &g.regions[id]
}

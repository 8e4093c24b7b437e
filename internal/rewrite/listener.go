package rewrite

import "github.com/descent-ir/descent/internal/ir"

// Event records one committed rewrite. Seq is a strictly increasing
// logical timestamp; replay of the same module produces the same
// sequence.
type Event struct {
	Seq  int64
	Fn   string // enclosing function symbol, "" at module level
	Src  ir.OpKind
	Disp Disposition
	Repl []ir.OpKind // kinds of the committed replacement ops
	Loc  ir.Location
}

// Listener observes committed rewrites. Implementations must not mutate
// the graph. A listener that fails should log and carry on; it cannot
// veto a rewrite.
type Listener interface {
	Rewrote(ev Event)
}

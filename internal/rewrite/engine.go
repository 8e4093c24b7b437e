package rewrite

import (
	"fmt"
	"log/slog"

	"github.com/descent-ir/descent/internal/ir"
)

// Engine applies patterns to one graph, threading the conversion state
// that maps replaced source values to their replacements. Later
// patterns see already-converted operands through Resolve; erasing a
// source op never dangles because every prior reference resolves
// through the state.
//
// The engine is single-writer: one goroutine drives one conversion.
type Engine struct {
	g        *ir.Graph
	conv     TypeConverter
	reg      *Registry
	target   string
	state    map[ir.Value]ir.Value
	clock    *Clock
	listener Listener
	scope    string
}

// Option configures an Engine.
type Option func(*Engine)

// WithListener attaches a rewrite listener.
func WithListener(l Listener) Option {
	return func(e *Engine) { e.listener = l }
}

// WithClock supplies the event clock, letting callers share one trace
// sequence across conversions.
func WithClock(c *Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// NewEngine creates an engine converting g toward the target dialect.
func NewEngine(g *ir.Graph, conv TypeConverter, reg *Registry, target string, opts ...Option) *Engine {
	e := &Engine{
		g:      g,
		conv:   conv,
		reg:    reg,
		target: target,
		state:  map[ir.Value]ir.Value{},
		clock:  NewClock(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resolve chases a value through the conversion state. Unmapped values
// come back as themselves, so callers can resolve unconditionally.
func (e *Engine) Resolve(v ir.Value) ir.Value {
	for {
		nv, ok := e.state[v]
		if !ok {
			return v
		}
		v = nv
	}
}

// Outcome is the engine-level result of one application: the pattern's
// disposition plus what was actually committed.
type Outcome struct {
	Disp   Disposition
	Values []ir.Value
	NewOps []ir.OpID
}

// Apply runs the registered pattern for op's kind. A missing pattern is
// a NoMatch, not an error; the driver's final scan decides whether that
// matters. On success the staged ops are committed, the source op
// erased, and its results mapped. On any failure the graph is left as
// it was.
func (e *Engine) Apply(op ir.OpID) (Outcome, error) {
	node := e.g.Op(op)
	kind := node.Kind
	loc := node.Loc
	pat, ok := e.reg.Lookup(kind)
	if !ok {
		return Outcome{Disp: NoMatch}, nil
	}
	resolved := make([]ir.Value, len(node.Operands))
	for i, v := range node.Operands {
		resolved[i] = e.Resolve(v)
	}
	// node is not used past this point: the pattern may grow the arena
	// and invalidate the pointer.
	rw := &Rewriter{g: e.g, conv: e.conv, loc: loc, anchor: op}

	res, err := pat.Rewrite(rw, op, resolved)
	if err != nil {
		if derr := rw.discard(); derr != nil {
			return Outcome{}, fmt.Errorf("%s: %w (discard also failed: %v)", kind, err, derr)
		}
		return Outcome{}, fmt.Errorf("%s: %w", kind, err)
	}

	switch res.Disp {
	case NoMatch, Unchanged:
		if rw.dirty() {
			if derr := rw.discard(); derr != nil {
				return Outcome{}, fmt.Errorf("%s: %w", kind, derr)
			}
		}
		return Outcome{Disp: res.Disp}, nil
	case Replaced, Erased:
		return e.commitApplication(op, rw, res)
	default:
		derr := rw.discard()
		if derr != nil {
			return Outcome{}, fmt.Errorf("%s: invalid disposition %d (discard also failed: %v)", kind, res.Disp, derr)
		}
		return Outcome{}, fmt.Errorf("%s: pattern returned invalid disposition %d", kind, res.Disp)
	}
}

func (e *Engine) commitApplication(op ir.OpID, rw *Rewriter, res Result) (Outcome, error) {
	results := append([]ir.Value(nil), e.g.Op(op).Results...)
	kind := e.g.Op(op).Kind
	loc := e.g.Op(op).Loc
	wasRoot := e.g.Root() == op

	var bad error
	switch {
	case res.Disp == Erased && len(results) != 0:
		bad = fmt.Errorf("%s: erased an op with %d results", kind, len(results))
	case res.Disp == Replaced && len(res.Values) != len(results):
		bad = fmt.Errorf("%s: pattern mapped %d values onto %d results", kind, len(res.Values), len(results))
	case wasRoot && len(rw.staged) != 1:
		bad = fmt.Errorf("%s: root replacement must stage exactly one op, staged %d", kind, len(rw.staged))
	}
	if bad != nil {
		if derr := rw.discard(); derr != nil {
			return Outcome{}, fmt.Errorf("%w (discard also failed: %v)", bad, derr)
		}
		return Outcome{}, bad
	}

	remaps, err := rw.commit()
	if err != nil {
		return Outcome{}, fmt.Errorf("%s: %w", kind, err)
	}
	if res.Disp == Replaced {
		for i, r := range results {
			e.state[r] = res.Values[i]
		}
	}
	for _, m := range remaps {
		e.state[m.old] = m.new
	}
	if err := e.g.EraseOp(op); err != nil {
		return Outcome{}, fmt.Errorf("%s: erase source op: %w", kind, err)
	}
	if wasRoot {
		if err := e.g.SetRoot(rw.staged[0]); err != nil {
			return Outcome{}, fmt.Errorf("%s: re-root: %w", kind, err)
		}
	}

	newOps := append([]ir.OpID(nil), rw.staged...)
	ev := Event{
		Seq:  e.clock.Next(),
		Fn:   e.scope,
		Src:  kind,
		Disp: res.Disp,
		Repl: opKinds(e.g, newOps),
		Loc:  loc,
	}
	if e.listener != nil {
		e.listener.Rewrote(ev)
	}
	slog.Debug("rewrote op",
		"seq", ev.Seq,
		"op", kind.String(),
		"disposition", res.Disp.String(),
		"new_ops", len(newOps),
		"fn", e.scope,
	)
	return Outcome{Disp: res.Disp, Values: res.Values, NewOps: newOps}, nil
}

func opKinds(g *ir.Graph, ops []ir.OpID) []ir.OpKind {
	if len(ops) == 0 {
		return nil
	}
	out := make([]ir.OpKind, len(ops))
	for i, op := range ops {
		out[i] = g.Op(op).Kind
	}
	return out
}

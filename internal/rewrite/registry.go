package rewrite

import (
	"fmt"
	"sort"

	"github.com/descent-ir/descent/internal/ir"
)

// Registry holds at most one pattern per op kind. One kind, one
// pattern, no priorities: lookup is a map hit, application order is
// decided entirely by the driver's walk.
type Registry struct {
	patterns map[ir.OpKind]Pattern
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{patterns: map[ir.OpKind]Pattern{}}
}

// Register adds a pattern. Registering a second pattern for the same
// kind is an error: dispatch must stay unambiguous.
func (r *Registry) Register(p Pattern) error {
	if p == nil {
		return fmt.Errorf("register nil pattern")
	}
	kind := p.Kind()
	if kind == nil {
		return fmt.Errorf("register pattern with nil kind")
	}
	if _, dup := r.patterns[kind]; dup {
		return fmt.Errorf("pattern for %s already registered", kind)
	}
	r.patterns[kind] = p
	return nil
}

// Lookup returns the pattern for a kind.
func (r *Registry) Lookup(kind ir.OpKind) (Pattern, bool) {
	p, ok := r.patterns[kind]
	return p, ok
}

// Len returns the number of registered patterns.
func (r *Registry) Len() int { return len(r.patterns) }

// Kinds returns every registered kind sorted by qualified name.
func (r *Registry) Kinds() []ir.OpKind {
	out := make([]ir.OpKind, 0, len(r.patterns))
	for k := range r.patterns {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Merge combines registries into a new one. Kind collisions across
// inputs are errors.
func Merge(regs ...*Registry) (*Registry, error) {
	merged := NewRegistry()
	for _, r := range regs {
		if r == nil {
			continue
		}
		for _, k := range r.Kinds() {
			p, _ := r.Lookup(k)
			if err := merged.Register(p); err != nil {
				return nil, err
			}
		}
	}
	return merged, nil
}

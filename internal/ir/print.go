package ir

import (
	"fmt"
	"strings"
)

// Print renders the graph from its root in deterministic text form:
// attribute keys sorted, values numbered in walk order. Stable across
// runs, suitable for golden comparisons.
func Print(g *Graph) string {
	if g.Root() == 0 {
		return ""
	}
	p := &printer{g: g, names: map[Value]string{}}
	p.op(g.Root(), 0)
	return p.b.String()
}

type printer struct {
	g     *Graph
	b     strings.Builder
	names map[Value]string
	vals  int
	args  int
}

func (p *printer) name(v Value) string {
	if n, ok := p.names[v]; ok {
		return n
	}
	// Dangling reference: keep it visible rather than hiding it.
	return fmt.Sprintf("%%?%d", v)
}

func (p *printer) defineResult(v Value) string {
	n := fmt.Sprintf("%%%d", p.vals)
	p.vals++
	p.names[v] = n
	return n
}

func (p *printer) defineArg(v Value) string {
	n := fmt.Sprintf("%%arg%d", p.args)
	p.args++
	p.names[v] = n
	return n
}

func (p *printer) op(id OpID, depth int) {
	g := p.g
	op := g.Op(id)
	ind := strings.Repeat("  ", depth)
	p.b.WriteString(ind)
	if len(op.Results) > 0 {
		parts := make([]string, len(op.Results))
		for i, r := range op.Results {
			parts[i] = p.defineResult(r)
		}
		p.b.WriteString(strings.Join(parts, ", "))
		p.b.WriteString(" = ")
	}
	p.b.WriteString(op.Kind.String())
	if len(op.Operands) > 0 {
		parts := make([]string, len(op.Operands))
		for i, v := range op.Operands {
			parts[i] = p.name(v)
		}
		p.b.WriteByte(' ')
		p.b.WriteString(strings.Join(parts, ", "))
	}
	if len(op.Attrs) > 0 {
		parts := make([]string, 0, len(op.Attrs))
		for _, k := range op.Attrs.SortedKeys() {
			parts = append(parts, fmt.Sprintf("%s = %s", k, op.Attrs[k]))
		}
		p.b.WriteString(" {")
		p.b.WriteString(strings.Join(parts, ", "))
		p.b.WriteByte('}')
	}
	if len(op.Results) > 0 {
		parts := make([]string, len(op.Results))
		for i, r := range op.Results {
			parts[i] = g.ValueType(r).String()
		}
		p.b.WriteString(" : ")
		p.b.WriteString(strings.Join(parts, ", "))
	}
	if len(op.Regions) == 0 {
		p.b.WriteByte('\n')
		return
	}
	for _, r := range op.Regions {
		p.b.WriteString(" {\n")
		p.region(r, depth+1)
		p.b.WriteString(ind)
		p.b.WriteByte('}')
	}
	p.b.WriteByte('\n')
}

func (p *printer) region(r RegionID, depth int) {
	g := p.g
	blocks := g.RegionBlocks(r)
	for i, b := range blocks {
		args := g.BlockArgs(b)
		// A lone argument-free block needs no header.
		if len(blocks) == 1 && len(args) == 0 {
			for _, opID := range g.BlockOps(b) {
				p.op(opID, depth)
			}
			continue
		}
		ind := strings.Repeat("  ", depth)
		parts := make([]string, len(args))
		for j, a := range args {
			parts[j] = fmt.Sprintf("%s: %s", p.defineArg(a), g.ValueType(a))
		}
		fmt.Fprintf(&p.b, "%s^bb%d(%s):\n", ind, i, strings.Join(parts, ", "))
		for _, opID := range g.BlockOps(b) {
			p.op(opID, depth+1)
		}
	}
}

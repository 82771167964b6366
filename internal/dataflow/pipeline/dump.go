package pipeline

import (
	"fmt"
	"sort"
	"strings"
)

// Dump produces a graphviz "dot" description of the pipeline's current
// topology: one node per module, one edge per connection, used by tests to
// assert graph shape without parsing internal state directly.
func (p *Pipeline) Dump() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	names := make([]string, 0, len(p.nodes))
	for name := range p.nodes {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("digraph pipeline {\n")
	for _, name := range names {
		n := p.nodes[name]
		shape := "box"
		if n.active {
			shape = "doublecircle"
		}
		fmt.Fprintf(&b, "  %q [shape=%s];\n", name, shape)
	}
	for _, e := range p.edges {
		fmt.Fprintf(&b, "  %q -> %q [label=\"%d->%d\"];\n", e.src, e.dst, e.srcOut, e.dstIn)
	}
	b.WriteString("}\n")
	return b.String()
}

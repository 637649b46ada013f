package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dgallion1/stepdoc/internal/steptree"
)

// Mermaid returns a top-down flowchart of t. Every step links to its
// sub-steps, and consecutive top-level steps link to each other.
func Mermaid(t *steptree.Tree) string {
	var b strings.Builder
	b.WriteString("flowchart TD\n")

	ids := make([]string, t.Len())
	seen := make(map[string]bool, t.Len())
	t.Walk(func(idx int, n *steptree.Node) bool {
		id := mermaidID(n.Record.Number)
		if seen[id] {
			id += "_n" + strconv.Itoa(idx)
		}
		seen[id] = true
		ids[idx] = id
		fmt.Fprintf(&b, "    %s[\"%s: %s\"]\n", id, mermaidLabel(n.Record.Number), mermaidLabel(n.Record.Name))
		return true
	})

	for i, root := range t.Roots {
		if i > 0 {
			fmt.Fprintf(&b, "    %s --> %s\n", ids[t.Roots[i-1]], ids[root])
		}
	}
	t.Walk(func(idx int, n *steptree.Node) bool {
		for _, c := range n.Children {
			fmt.Fprintf(&b, "    %s --> %s\n", ids[idx], ids[c])
		}
		return true
	})
	return b.String()
}

// mermaidID turns a step number into a node id: "2.1" -> "S2_1".
func mermaidID(number string) string {
	var b strings.Builder
	b.WriteByte('S')
	for _, r := range number {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

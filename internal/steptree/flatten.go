package steptree

// Entry is a node in depth-first order with its structural context.
type Entry struct {
	Index      int      `json:"index"` // Sequence number within the flattened tree
	Node       int      `json:"node"`  // Index into Tree.Nodes
	Number     string   `json:"number"`
	Name       string   `json:"name"`
	Breadcrumb []string `json:"breadcrumb"` // Ancestor names, e.g. ["Load", "Read"]
}

// Flatten walks the tree depth-first and returns one Entry per node.
func Flatten(t *Tree) []Entry {
	var entries []Entry
	for _, root := range t.Roots {
		walkNode(t, root, nil, &entries)
	}
	return entries
}

// walkNode visits idx and its children, extending the breadcrumb as it descends.
func walkNode(t *Tree, idx int, breadcrumb []string, entries *[]Entry) {
	n := &t.Nodes[idx]
	*entries = append(*entries, Entry{
		Index:      len(*entries),
		Node:       idx,
		Number:     n.Record.Number,
		Name:       n.Record.Name,
		Breadcrumb: copyBreadcrumb(breadcrumb),
	})

	var bc []string
	bc = append(bc, breadcrumb...)
	if n.Record.Name != "" {
		bc = append(bc, n.Record.Name)
	}
	for _, child := range n.Children {
		walkNode(t, child, bc, entries)
	}
}

func copyBreadcrumb(bc []string) []string {
	if len(bc) == 0 {
		return nil
	}
	out := make([]string, len(bc))
	copy(out, bc)
	return out
}

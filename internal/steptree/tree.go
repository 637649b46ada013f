// Package steptree turns flat step records into an ordered hierarchy.
//
// Nodes live in an arena (Tree.Nodes) and refer to each other by index, so a
// tree has no pointer cycles and serializes as-is.
package steptree

import (
	"cmp"
	"slices"

	"github.com/dgallion1/stepdoc/internal/stepkey"
)

// Node is one step in a Tree.
type Node struct {
	ID       string     `json:"id"` // Anchor, e.g. "step-2-1"
	Record   StepRecord `json:"record"`
	Depth    int        `json:"depth"`  // Count of '.' in the number
	Parent   int        `json:"parent"` // Index into Tree.Nodes, -1 for top-level nodes
	Children []int      `json:"children,omitempty"`
}

// Tree is the result of Build. It is not mutated after construction.
type Tree struct {
	Nodes []Node `json:"nodes"`
	Roots []int  `json:"roots"`
}

// Node returns the node at index i.
func (t *Tree) Node(i int) *Node {
	return &t.Nodes[i]
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.Nodes)
}

// Walk visits every node depth-first in child order. Returning false from fn
// skips the node's children.
func (t *Tree) Walk(fn func(idx int, n *Node) bool) {
	var walk func(ids []int)
	walk = func(ids []int) {
		for _, id := range ids {
			if fn(id, &t.Nodes[id]) {
				walk(t.Nodes[id].Children)
			}
		}
	}
	walk(t.Roots)
}

// Subtree returns the indices of idx and all of its descendants, depth-first.
func (t *Tree) Subtree(idx int) []int {
	out := []int{idx}
	for _, c := range t.Nodes[idx].Children {
		out = append(out, t.Subtree(c)...)
	}
	return out
}

const virtualRoot = -1

// Build sorts records by step key and attaches each one under its nearest
// existing ancestor. Missing intermediate steps promote descendants upward,
// to the virtual root if no prefix exists. Duplicate numbers are kept as
// siblings; later descendants attach to the last duplicate seen.
//
// The result depends only on the set of records, not on their order.
func Build(records []StepRecord) *Tree {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, compareRecords)

	tree := &Tree{Nodes: make([]Node, 0, len(sorted))}
	byNumber := map[string]int{"": virtualRoot}

	for _, rec := range sorted {
		parent := nearestAncestor(byNumber, rec.Number)
		idx := len(tree.Nodes)
		tree.Nodes = append(tree.Nodes, Node{
			ID:     stepkey.AnchorID(rec.Number),
			Record: rec,
			Depth:  stepkey.Depth(rec.Number),
			Parent: parent,
		})
		if parent == virtualRoot {
			tree.Roots = append(tree.Roots, idx)
		} else {
			tree.Nodes[parent].Children = append(tree.Nodes[parent].Children, idx)
		}
		byNumber[rec.Number] = idx
	}
	return tree
}

// nearestAncestor walks successively shorter prefixes of number until one is
// registered.
func nearestAncestor(byNumber map[string]int, number string) int {
	for p := stepkey.ParentNumber(number); ; p = stepkey.ParentNumber(p) {
		if idx, ok := byNumber[p]; ok {
			return idx
		}
		if p == "" {
			return virtualRoot
		}
	}
}

// compareRecords is the canonical record order: step key first, then enough
// fields to make the order total for distinguishable records.
func compareRecords(a, b StepRecord) int {
	if c := stepkey.Compare(a.Number, b.Number); c != 0 {
		return c
	}
	return cmp.Or(
		cmp.Compare(a.Number, b.Number),
		cmp.Compare(a.SourceModule, b.SourceModule),
		cmp.Compare(a.SourceFile, b.SourceFile),
		cmp.Compare(a.Line, b.Line),
		cmp.Compare(a.Name, b.Name),
		cmp.Compare(a.Function, b.Function),
		cmp.Compare(a.Purpose, b.Purpose),
		cmp.Compare(a.Inputs, b.Inputs),
		cmp.Compare(a.Outputs, b.Outputs),
		cmp.Compare(a.Critical, b.Critical),
	)
}

package extract

import (
	"fmt"

	"github.com/dgallion1/stepdoc/internal/stepkey"
	"github.com/dgallion1/stepdoc/internal/steptree"
)

// Warning kinds.
const (
	KindDuplicateAnchor = "duplicate_anchor"
	KindInvalidNumber   = "invalid_number"
	KindMissingParent   = "missing_parent"
	KindEmptyName       = "empty_name"
)

// Warning describes a problem found in a module's steps. Only duplicate
// anchors are fatal, and only in strict mode.
type Warning struct {
	Kind    string `json:"kind"`
	Module  string `json:"module"`
	Number  string `json:"number"`
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// Fatal reports whether the warning fails a strict build.
func (w Warning) Fatal() bool {
	return w.Kind == KindDuplicateAnchor
}

func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", w.Module, w.Line, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Module, w.Message)
}

// ValidateAnchors reports anchors that occur more than once on the page that
// tree renders to.
func ValidateAnchors(module string, tree *steptree.Tree) []Warning {
	var out []Warning
	seen := make(map[string]int, tree.Len())
	tree.Walk(func(_ int, n *steptree.Node) bool {
		seen[n.ID]++
		if seen[n.ID] == 2 {
			out = append(out, Warning{
				Kind:    KindDuplicateAnchor,
				Module:  module,
				Number:  n.Record.Number,
				Line:    n.Record.Line,
				Message: fmt.Sprintf("step %s is declared more than once (anchor %s)", n.Record.Number, n.ID),
			})
		}
		return true
	})
	return out
}

// ValidateRecords checks individual records: malformed numbers, empty names,
// and numbers whose direct parent is absent.
func ValidateRecords(module string, records []steptree.StepRecord) []Warning {
	var out []Warning
	numbers := make(map[string]bool, len(records))
	for _, r := range records {
		numbers[r.Number] = true
	}
	for _, r := range records {
		owner := r.Module(module)
		if !stepkey.Valid(r.Number) {
			out = append(out, Warning{
				Kind: KindInvalidNumber, Module: owner, Number: r.Number, Line: r.Line,
				Message: fmt.Sprintf("step number %q is not a dotted list of integers", r.Number),
			})
			continue
		}
		if r.Name == "" {
			out = append(out, Warning{
				Kind: KindEmptyName, Module: owner, Number: r.Number, Line: r.Line,
				Message: fmt.Sprintf("step %s has no name", r.Number),
			})
		}
		if p := stepkey.ParentNumber(r.Number); p != "" && !numbers[p] {
			out = append(out, Warning{
				Kind: KindMissingParent, Module: owner, Number: r.Number, Line: r.Line,
				Message: fmt.Sprintf("step %s has no step %s; attached to nearest ancestor", r.Number, p),
			})
		}
	}
	return out
}

// HasFatal reports whether any warning is fatal.
func HasFatal(warnings []Warning) bool {
	for _, w := range warnings {
		if w.Fatal() {
			return true
		}
	}
	return false
}

// Package registry maps step anchors to their originating file and line,
// across every module that contributes steps to one documentation build.
package registry

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/dgallion1/stepdoc/internal/stepkey"
	"github.com/dgallion1/stepdoc/internal/steptree"
)

// ErrNotFound is returned for unknown modules or steps.
var ErrNotFound = errors.New("not found")

// Entry is the source location of one step.
type Entry struct {
	StepID string `json:"step_id"`
	Line   int    `json:"line"`
	Name   string `json:"name"`
	Number string `json:"number"`
	Module string `json:"module"`
	File   string `json:"file,omitempty"`
}

// Registry holds entries keyed by (module, step id). Anchors are derived from
// step numbers alone and collide across modules, so the module is always part
// of the key. All methods are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]map[string]Entry
	files   map[string]string
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		modules: make(map[string]map[string]Entry),
		files:   make(map[string]string),
	}
}

// Record adds an entry for every node in tree. The owner of each entry is the
// record's SourceModule, falling back to module; likewise for file.
func (r *Registry) Record(module, file string, tree *steptree.Tree) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, root := range tree.Roots {
		r.recordLocked(module, file, tree, root)
	}
}

// RecordNode adds entries for the node at idx and all its descendants.
func (r *Registry) RecordNode(module, file string, tree *steptree.Tree, idx int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recordLocked(module, file, tree, idx)
}

func (r *Registry) recordLocked(module, file string, tree *steptree.Tree, idx int) {
	for _, i := range tree.Subtree(idx) {
		n := tree.Node(i)
		owner := n.Record.Module(module)
		src := n.Record.File(file)
		r.putLocked(Entry{
			StepID: n.ID,
			Line:   n.Record.Line,
			Name:   n.Record.Name,
			Number: n.Record.Number,
			Module: owner,
			File:   src,
		})
	}
}

func (r *Registry) putLocked(e Entry) {
	m, ok := r.modules[e.Module]
	if !ok {
		m = make(map[string]Entry)
		r.modules[e.Module] = m
	}
	m[e.StepID] = e
	if e.File != "" {
		r.files[e.Module] = e.File
	}
}

// Merge copies every entry of other into r. On collision the entry from other
// wins, per (module, step id).
func (r *Registry) Merge(other *Registry) {
	if other == nil || other == r {
		return
	}
	entries := other.Entries()

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entries {
		r.putLocked(e)
	}
}

// EntriesForModule returns a copy of the module's entries keyed by step id.
func (r *Registry) EntriesForModule(module string) (map[string]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[module]
	if !ok {
		return nil, fmt.Errorf("module %q: %w", module, ErrNotFound)
	}
	out := make(map[string]Entry, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out, nil
}

// Lookup returns a single entry.
func (r *Registry) Lookup(module, stepID string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[module]
	if !ok {
		return Entry{}, fmt.Errorf("module %q: %w", module, ErrNotFound)
	}
	e, ok := m[stepID]
	if !ok {
		return Entry{}, fmt.Errorf("step %q in module %q: %w", stepID, module, ErrNotFound)
	}
	return e, nil
}

// HasModule reports whether any entry is owned by module.
func (r *Registry) HasModule(module string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.modules[module]
	return ok
}

// SourceFile returns the last file recorded for module.
func (r *Registry) SourceFile(module string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.files[module]
	return f, ok
}

// Modules returns the owning modules, sorted.
func (r *Registry) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.modules))
	for m := range r.modules {
		out = append(out, m)
	}
	slices.Sort(out)
	return out
}

// Entries returns every entry ordered by step key, then module.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	out := make([]Entry, 0, r.lenLocked())
	for _, m := range r.modules {
		for _, e := range m {
			out = append(out, e)
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b Entry) int {
		if c := stepkey.Compare(a.Number, b.Number); c != 0 {
			return c
		}
		return cmp.Or(
			cmp.Compare(a.Number, b.Number),
			cmp.Compare(a.Module, b.Module),
			cmp.Compare(a.StepID, b.StepID),
		)
	})
	return out
}

// Len returns the total number of entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lenLocked()
}

func (r *Registry) lenLocked() int {
	n := 0
	for _, m := range r.modules {
		n += len(m)
	}
	return n
}

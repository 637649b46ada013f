package pipeline

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dgallion1/stepdoc/internal/discovery"
	"github.com/dgallion1/stepdoc/internal/extract"
	"github.com/dgallion1/stepdoc/internal/registry"
)

// Site is the model produced by one successful build. It is never modified
// after the build publishes it.
type Site struct {
	BuildID     string
	OutputDir   string
	Fingerprint string

	Discovery *discovery.Result
	Workflows map[string]*extract.Workflow // keyed by module identifier
	Registry  *registry.Registry
	Warnings  []extract.Warning
}

// Workflow returns the workflow of module, or registry.ErrNotFound.
func (s *Site) Workflow(module string) (*extract.Workflow, error) {
	w, ok := s.Workflows[module]
	if !ok {
		return nil, fmt.Errorf("workflow %q: %w", module, registry.ErrNotFound)
	}
	return w, nil
}

// Modules returns the discovered workflow modules, sorted.
func (s *Site) Modules() []*discovery.Module {
	out := make([]*discovery.Module, 0, len(s.Workflows))
	for _, w := range s.Workflows {
		out = append(out, w.Module)
	}
	slices.SortFunc(out, func(a, b *discovery.Module) int { return strings.Compare(a.Module, b.Module) })
	return out
}

// WorkflowsUsing returns the workflow modules whose pages include steps of
// module, sorted.
func (s *Site) WorkflowsUsing(module string) []string {
	var out []string
	for id, w := range s.Workflows {
		if slices.Contains(w.Modules(), module) {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// RelatedModules returns every module contributing to a workflow that uses
// module, sorted.
func (s *Site) RelatedModules(module string) []string {
	seen := map[string]bool{module: true}
	for _, id := range s.WorkflowsUsing(module) {
		for _, m := range s.Workflows[id].Modules() {
			seen[m] = true
		}
	}
	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	slices.Sort(out)
	return out
}

// SourceFiles maps every extracted file to the module it was read as. When
// a file was read under several modules the smallest identifier wins.
func (s *Site) SourceFiles() map[string]string {
	out := make(map[string]string)
	for _, wf := range s.Workflows {
		for _, ex := range append([]*extract.Extraction{wf.Own}, wf.Included...) {
			if prev, ok := out[ex.File]; !ok || ex.Module < prev {
				out[ex.File] = ex.Module
			}
		}
	}
	return out
}

package extract

import (
	"github.com/dgallion1/stepdoc/internal/discovery"
	"github.com/dgallion1/stepdoc/internal/steptree"
)

// Workflow is a discovered module together with its own extraction and the
// extractions of modules it pulls in with WORKFLOW_INCLUDE.
type Workflow struct {
	Module   *discovery.Module
	Own      *Extraction
	Included []*Extraction
}

// Records returns the records that make up tier. An empty tier selects every
// record. For a named tier:
//   - if the tier has an entry point, only that function's records are used;
//   - otherwise every record whose function is not excluded from the tier.
//
// Records of included modules are always appended, owned by their module.
func (w *Workflow) Records(tier string) []steptree.StepRecord {
	var out []steptree.StepRecord
	entry := ""
	if tier != "" {
		entry = w.Module.EntryPoints[tier]
	}
	for _, r := range w.Own.Records {
		switch {
		case tier == "":
		case entry != "":
			if r.Function != entry {
				continue
			}
		case w.Module.Excluded(r.Function, tier):
			continue
		}
		out = append(out, r)
	}
	for _, inc := range w.Included {
		for _, r := range inc.Records {
			if r.SourceModule == "" {
				r.SourceModule = inc.Module
			}
			if r.SourceFile == "" {
				r.SourceFile = inc.File
			}
			out = append(out, r)
		}
	}
	return out
}

// Store collects the records of tier into a fresh Store.
func (w *Workflow) Store(tier string) *steptree.Store {
	s := &steptree.Store{}
	s.Add(w.Records(tier)...)
	return s
}

// Tree builds the step hierarchy of tier.
func (w *Workflow) Tree(tier string) *steptree.Tree {
	return steptree.Build(w.Store(tier).Records())
}

// Modules returns the module identifiers contributing to the workflow, the
// workflow's own module first.
func (w *Workflow) Modules() []string {
	out := []string{w.Module.Module}
	for _, inc := range w.Included {
		out = append(out, inc.Module)
	}
	return out
}

// ModuleOf returns the module whose extraction read file, or "" when no
// contributing extraction did. Steps attributed elsewhere with a Module line
// still live in the file of the module that contains them.
func (w *Workflow) ModuleOf(file string) string {
	if file == "" {
		return ""
	}
	if w.Own != nil && w.Own.File == file {
		return w.Own.Module
	}
	for _, inc := range w.Included {
		if inc.File == file {
			return inc.Module
		}
	}
	return ""
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/stepdoc/internal/linkpath"
	"github.com/dgallion1/stepdoc/internal/pipeline"
	"github.com/dgallion1/stepdoc/internal/registry"
	"github.com/dgallion1/stepdoc/internal/steptree"
)

// currentSite returns the published site or writes 503.
func (s *Server) currentSite(w http.ResponseWriter) *pipeline.Site {
	site := s.orchestrator.Site()
	if site == nil {
		jsonError(w, "no build has been published yet", http.StatusServiceUnavailable)
	}
	return site
}

type moduleSummary struct {
	Module   string   `json:"module"`
	Package  string   `json:"package"`
	Name     string   `json:"name"`
	Tiers    []string `json:"tiers"`
	Includes []string `json:"includes,omitempty"`
	Summary  string   `json:"summary,omitempty"`
	Steps    int      `json:"steps"`
	Page     string   `json:"page"`
	Source   string   `json:"source"`
}

func (s *Server) handleListModules(w http.ResponseWriter, r *http.Request) {
	site := s.currentSite(w)
	if site == nil {
		return
	}

	modules := []moduleSummary{}
	for _, m := range site.Modules() {
		modules = append(modules, moduleSummary{
			Module:   m.Module,
			Package:  m.Package,
			Name:     m.Name,
			Tiers:    m.Tiers,
			Includes: m.Includes,
			Summary:  m.Summary,
			Steps:    site.Workflows[m.Module].Tree("").Len(),
			Page:     linkpath.OutputPath(m.Module),
			Source:   linkpath.SourcePath(m.Module),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"build_id": site.BuildID,
		"modules":  modules,
	})
}

func (s *Server) handleModuleSteps(w http.ResponseWriter, r *http.Request) {
	site := s.currentSite(w)
	if site == nil {
		return
	}
	module := chi.URLParam(r, "module")
	wf, err := site.Workflow(module)
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}

	tier := r.URL.Query().Get("tier")
	if tier != "" && !slices.Contains(wf.Module.Tiers, tier) {
		jsonError(w, "unknown tier: "+tier, http.StatusBadRequest)
		return
	}

	tree := wf.Tree(tier)
	page := module
	if tier != "" {
		page = linkpath.TierModule(module, tier)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"module": module,
		"tier":   tier,
		"page":   linkpath.OutputPath(page),
		"tree":   tree,
		"flat":   steptree.Flatten(tree),
	})
}

func (s *Server) handleSourceMap(w http.ResponseWriter, r *http.Request) {
	site := s.currentSite(w)
	if site == nil {
		return
	}
	module := chi.URLParam(r, "module")
	entries, err := site.Registry.EntriesForModule(module)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			jsonError(w, err.Error(), http.StatusNotFound)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	file, _ := site.Registry.SourceFile(module)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"module":  module,
		"file":    file,
		"entries": entries,
	})
}

// handleLinks exposes the link algebra so external pages can point into the
// generated tree.
func (s *Server) handleLinks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, anchor := q.Get("from"), q.Get("to"), q.Get("anchor")
	if len(linkpath.Segments(from)) == 0 || len(linkpath.Segments(to)) == 0 {
		jsonError(w, "from and to are required module identifiers", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"from":          from,
		"to":            to,
		"output_path":   linkpath.OutputPath(to),
		"relative_path": linkpath.RelativePath(from, to),
		"href":          linkpath.Href(from, to, anchor),
		"source_href":   linkpath.SourceHref(from, to, anchor),
	})
}

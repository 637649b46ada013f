package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dgallion1/stepdoc/internal/config"
	"github.com/dgallion1/stepdoc/internal/discovery"
	"github.com/dgallion1/stepdoc/internal/extract"
	"github.com/dgallion1/stepdoc/internal/registry"
	"github.com/dgallion1/stepdoc/internal/render"
)

// Worker runs documentation builds for one project.
type Worker struct {
	project config.Project
	stats   *extract.Stats
	log     *slog.Logger

	maxConcurrentExtract int
}

func NewWorker(project config.Project, stats *extract.Stats, log *slog.Logger, maxExtract int) *Worker {
	if maxExtract <= 0 {
		maxExtract = 1
	}
	return &Worker{
		project:              project,
		stats:                stats,
		log:                  log,
		maxConcurrentExtract: maxExtract,
	}
}

// extraction is the outcome of extracting one workflow module.
type extraction struct {
	workflow *extract.Workflow
	registry *registry.Registry
	warnings []extract.Warning
	errs     []string
	steps    int
}

// Process runs the full build for b and returns the resulting site. prev is
// the fingerprint of the last published site; when the inputs are unchanged
// and the output still exists, rendering is skipped and site is nil.
func (w *Worker) Process(ctx context.Context, b *Build, prev string) *Site {
	log := w.log.With("build_id", b.ID, "trigger", b.Trigger)

	// Phase 1: Discover
	b.SetStatus(StatusDiscovering, "discovering")
	d := discovery.New(w.project.BaseDir, log)
	if len(w.project.Include) > 0 {
		d.Include = w.project.Include
	}
	if len(w.project.Exclude) > 0 {
		d.Exclude = w.project.Exclude
	}
	d.Recursive = w.project.Recursive

	res := d.Discover(w.project.SearchPaths)
	for _, e := range res.Errors {
		b.AddError(e)
	}
	modules := res.Sorted()
	b.SetModulesFound(len(modules))
	if len(modules) == 0 {
		log.Warn("no workflow modules found")
		if len(res.Errors) > 0 {
			b.SetStatus(StatusFailed, "discovering")
			return nil
		}
	}

	// Phase 2: Extract with bounded concurrency. Each module gets its own
	// registry; this goroutine is the only one that merges them.
	b.SetStatus(StatusExtracting, "extracting")
	cache := extract.NewCache(w.stats)
	results := make(chan extraction, len(modules))
	sem := make(chan struct{}, w.maxConcurrentExtract)

	for _, m := range modules {
		sem <- struct{}{}
		go func(m *discovery.Module) {
			defer func() { <-sem }()
			if err := ctx.Err(); err != nil {
				results <- extraction{errs: []string{fmt.Sprintf("%s: %s", m.Module, err)}}
				return
			}
			results <- w.extractModule(cache, res, m)
		}(m)
	}

	site := &Site{
		BuildID:   b.ID,
		OutputDir: w.project.OutputDir,
		Discovery: res,
		Workflows: make(map[string]*extract.Workflow, len(modules)),
		Registry:  registry.New(),
	}
	for range modules {
		r := <-results
		for _, e := range r.errs {
			log.Error("extraction failed", "error", e)
			b.AddError(e)
		}
		if r.workflow == nil {
			continue
		}
		b.IncrModulesExtracted(r.steps)
		site.Workflows[r.workflow.Module.Module] = r.workflow
		site.Registry.Merge(r.registry)
		site.Warnings = append(site.Warnings, r.warnings...)
	}
	if err := ctx.Err(); err != nil {
		b.AddError(err.Error())
		b.SetStatus(StatusFailed, "extracting")
		return nil
	}
	log.Info("extraction complete", "workflows", len(site.Workflows), "entries", site.Registry.Len())

	// Phase 3: Validate
	b.SetStatus(StatusValidating, "validating")
	slices.SortStableFunc(site.Warnings, func(x, y extract.Warning) int {
		return strings.Compare(x.Module, y.Module)
	})
	b.AddWarnings(site.Warnings...)
	for _, warn := range site.Warnings {
		log.Warn("step warning", "kind", warn.Kind, "module", warn.Module, "number", warn.Number, "line", warn.Line)
	}
	if w.project.Strict && extract.HasFatal(site.Warnings) {
		b.AddError("strict mode: duplicate step anchors")
		b.SetStatus(StatusFailed, "validating")
		return nil
	}

	site.Fingerprint = w.fingerprint(site)
	b.SetFingerprint(site.Fingerprint)
	if site.Fingerprint == prev && w.outputExists() && !b.HasErrors() {
		log.Info("inputs unchanged, skipping render", "fingerprint", site.Fingerprint)
		b.SetStatus(StatusUnchanged, "done")
		return nil
	}

	// Phase 4: Render
	b.SetStatus(StatusRendering, "rendering")
	pages := w.renderSite(site, cache, b, log)
	b.AddPages(pages)
	log.Info("render complete", "pages", pages, "output", w.project.OutputDir)

	hadErrors := b.HasErrors()
	switch {
	case hadErrors && pages > 0:
		b.SetStatus(StatusPartial, "done")
	case hadErrors:
		b.SetStatus(StatusFailed, "rendering")
		return nil
	default:
		b.SetStatus(StatusCompleted, "done")
	}
	return site
}

// extractModule extracts m and the modules it includes, then records the
// full step tree in a registry of its own.
func (w *Worker) extractModule(cache *extract.Cache, res *discovery.Result, m *discovery.Module) extraction {
	own, err := cache.Get(m.Path, m.Module)
	if err != nil {
		return extraction{errs: []string{fmt.Sprintf("%s: %s", m.Module, err)}}
	}
	out := extraction{}
	wf := &extract.Workflow{Module: m, Own: own}
	for _, inc := range m.Includes {
		path, ok := res.Files[inc]
		if !ok {
			out.errs = append(out.errs, fmt.Sprintf("%s: included module %s not found", m.Module, inc))
			continue
		}
		ex, err := cache.Get(path, inc)
		if err != nil {
			out.errs = append(out.errs, fmt.Sprintf("%s: include %s: %s", m.Module, inc, err))
			continue
		}
		wf.Included = append(wf.Included, ex)
	}

	tree := wf.Tree("")
	reg := registry.New()
	reg.Record(m.Module, m.Path, tree)

	out.workflow = wf
	out.registry = reg
	out.steps = tree.Len()
	out.warnings = append(extract.ValidateRecords(m.Module, wf.Records("")), extract.ValidateAnchors(m.Module, tree)...)
	return out
}

// fingerprint hashes everything a render depends on: the project settings
// and every extracted line.
func (w *Worker) fingerprint(site *Site) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%+v\n", w.project)
	for _, m := range site.Modules() {
		wf := site.Workflows[m.Module]
		fmt.Fprintf(&sb, "%+v\n", *m)
		for _, ex := range append([]*extract.Extraction{wf.Own}, wf.Included...) {
			sb.WriteString(ex.Module + "\x00" + ex.File + "\n")
			for _, l := range ex.Lines {
				sb.WriteString(l.Text)
				sb.WriteByte('\n')
			}
		}
	}
	return ContentHashHex([]byte(sb.String()))
}

func (w *Worker) outputExists() bool {
	_, err := os.Stat(filepath.Join(w.project.OutputDir, "index.html"))
	return err == nil
}

// renderSite writes every page of site and returns the number written.
// Failures are recorded on b and do not stop the remaining pages.
func (w *Worker) renderSite(site *Site, cache *extract.Cache, b *Build, log *slog.Logger) int {
	r := render.New(w.project.OutputDir, render.Options{
		Title:            w.project.Title,
		ShowDiagram:      w.project.Render.ShowDiagram,
		CollapseSubsteps: w.project.Render.CollapseSubsteps,
		ShowSourceLinks:  w.project.Render.ShowSourceLinks,
	}, log)

	pages := 0
	fail := func(what string, err error) {
		log.Error("render failed", "page", what, "error", err)
		b.AddError(fmt.Sprintf("render %s: %s", what, err))
	}

	warningsByModule := make(map[string][]extract.Warning)
	for _, warn := range site.Warnings {
		warningsByModule[warn.Module] = append(warningsByModule[warn.Module], warn)
	}

	var index []render.IndexEntry
	for _, m := range site.Modules() {
		wf := site.Workflows[m.Module]
		full := wf.Tree("")
		index = append(index, render.IndexEntry{Module: m, Steps: full.Len()})

		pagesFor := []*render.WorkflowPage{{Workflow: wf, Tree: full, Warnings: warningsByModule[m.Module]}}
		if len(m.Tiers) > 1 {
			for _, tier := range m.Tiers {
				pagesFor = append(pagesFor, &render.WorkflowPage{Workflow: wf, Tier: tier, Tree: wf.Tree(tier)})
			}
		}
		for _, p := range pagesFor {
			if _, err := r.RenderWorkflow(p); err != nil {
				fail(p.PageModule(), err)
				continue
			}
			pages++
		}
	}

	files := site.SourceFiles()
	for _, module := range w.sourceModules(site) {
		file, ok := site.Discovery.Files[module]
		if !ok {
			file, ok = site.Registry.SourceFile(module)
		}
		if !ok {
			continue
		}
		ex, err := cache.Get(file, module)
		if err != nil {
			fail("source of "+module, err)
			continue
		}
		_, err = r.RenderSource(&render.SourcePage{
			Module:    module,
			File:      file,
			Lines:     ex.Lines,
			Workflows: site.WorkflowsUsing(module),
			Related:   site.RelatedModules(module),
			Registry:  site.Registry,
			Files:     files,
		})
		if err != nil {
			fail("source of "+module, err)
			continue
		}
		pages++
	}

	if _, err := r.RenderIndex(index); err != nil {
		fail("index", err)
	} else {
		pages++
	}
	return pages
}

// sourceModules lists every module that needs a source page: each workflow
// and each module that owns a recorded step.
func (w *Worker) sourceModules(site *Site) []string {
	seen := make(map[string]bool)
	for id, wf := range site.Workflows {
		seen[id] = true
		for _, m := range wf.Modules() {
			seen[m] = true
		}
	}
	for _, m := range site.Registry.Modules() {
		seen[m] = true
	}
	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	slices.Sort(out)
	return out
}

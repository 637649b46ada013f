package render

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"golang.org/x/net/html"

	"github.com/dgallion1/stepdoc/internal/linkpath"
	"github.com/dgallion1/stepdoc/internal/parser"
	"github.com/dgallion1/stepdoc/internal/registry"
	"github.com/dgallion1/stepdoc/internal/steptree"
)

// SourcePage describes the source listing of one module.
type SourcePage struct {
	Module string
	File   string
	Lines  []parser.Line

	// Workflows lists the workflow pages that use this module.
	Workflows []string
	// Related lists the modules whose steps appear in the navigation column.
	// The page's own module is always included.
	Related  []string
	Registry *registry.Registry
	// Files maps a source file to the module whose page lists it. Steps are
	// anchored on the page of their file, whoever owns them.
	Files map[string]string
}

// RenderSource writes the source page of p.Module under linkpath.SourceDir
// and returns its path relative to OutputDir.
func (r *Renderer) RenderSource(p *SourcePage) (string, error) {
	nav, err := r.stepNav(p)
	if err != nil {
		return "", err
	}

	header := el("div", []html.Attribute{attr("class", "source-header")},
		el("p", nil, link(linkpath.RootPrefix(p.Module)+"../index.html", "← "+r.Options.Title, "")),
		el("h1", nil, text("Source: "), el("code", nil, text(p.Module))),
		el("p", []html.Attribute{attr("class", "path")}, text(p.File)),
	)
	if len(p.Workflows) > 0 {
		used := el("p", []html.Attribute{attr("class", "workflows")}, text("Workflow: "))
		for i, w := range p.Workflows {
			if i > 0 {
				used.AppendChild(text(", "))
			}
			used.AppendChild(link(linkpath.PageHref(p.Module, w, ""), w, ""))
		}
		header.AppendChild(used)
	}

	layout := el("div", []html.Attribute{attr("class", "source-layout")},
		nav,
		el("div", []html.Attribute{attr("class", "source")}, r.lineTable(p)),
	)

	rel := linkpath.SourcePath(p.Module)
	if err := writePage(r.OutputDir, rel, document(p.Module+" source", nil, header, layout)); err != nil {
		return "", err
	}
	r.log.Debug("wrote source page", "module", p.Module, "path", rel, "lines", len(p.Lines))
	return rel, nil
}

// stepNav builds one tree from the steps of every related module, so the
// navigation shows the whole workflow no matter which file defines a step.
func (r *Renderer) stepNav(p *SourcePage) (*html.Node, error) {
	var records []steptree.StepRecord
	for _, m := range p.relatedModules() {
		entries, err := p.Registry.EntriesForModule(m)
		if errors.Is(err, registry.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("step navigation for %s: %w", p.Module, err)
		}
		for _, e := range entries {
			records = append(records, steptree.StepRecord{
				Number:       e.Number,
				Name:         e.Name,
				Line:         e.Line,
				SourceFile:   e.File,
				SourceModule: e.Module,
			})
		}
	}

	nav := el("nav", []html.Attribute{attr("class", "step-nav")}, el("h2", nil, text("Steps")))
	tree := steptree.Build(records)
	if tree.Len() == 0 {
		nav.AppendChild(el("p", nil, text("No steps.")))
		return nav, nil
	}
	nav.AppendChild(r.navList(p, tree, tree.Roots))
	return nav, nil
}

func (r *Renderer) navList(p *SourcePage, tree *steptree.Tree, ids []int) *html.Node {
	ul := el("ul", nil)
	for _, idx := range ids {
		n := tree.Node(idx)
		label := n.Record.Number + " " + n.Record.Name
		target := p.pageOf(n.Record.SourceModule, n.Record.SourceFile)

		var a *html.Node
		if target == p.Module {
			a = link("#"+n.ID, label, "current")
		} else {
			a = link(linkpath.Href(p.Module, target, n.ID), label+" ↗", "external")
			a.Attr = append(a.Attr, attr("title", n.Record.SourceModule))
		}
		li := el("li", nil, a)
		if len(n.Children) > 0 {
			li.AppendChild(r.navList(p, tree, n.Children))
		}
		ul.AppendChild(li)
	}
	return ul
}

func (p *SourcePage) relatedModules() []string {
	out := []string{p.Module}
	for _, m := range p.Related {
		if m != p.Module {
			out = append(out, m)
		}
	}
	return out
}

// pageOf returns the module whose source page anchors a step owned by owner
// and marked in file.
func (p *SourcePage) pageOf(owner, file string) string {
	if file == "" {
		return owner
	}
	if file == p.File {
		return p.Module
	}
	if m, ok := p.Files[file]; ok {
		return m
	}
	return owner
}

// stepAnchors maps line numbers to the anchors of the steps marked there.
// Every anchor appears once per page.
func (p *SourcePage) stepAnchors() map[int][]string {
	out := make(map[int][]string)
	seen := make(map[string]bool)
	for _, e := range p.Registry.Entries() {
		if e.Line <= 0 || p.pageOf(e.Module, e.File) != p.Module || seen[e.StepID] {
			continue
		}
		seen[e.StepID] = true
		out[e.Line] = append(out[e.Line], e.StepID)
	}
	for _, ids := range out {
		slices.Sort(ids)
	}
	return out
}

func (r *Renderer) lineTable(p *SourcePage) *html.Node {
	anchors := p.stepAnchors()
	tbody := el("tbody", nil)
	for _, line := range p.Lines {
		id := linkpath.LineAnchor(line.Number)
		code := el("pre", nil)
		for _, a := range anchors[line.Number] {
			code.AppendChild(el("span", []html.Attribute{attr("id", a), attr("class", "step-anchor")}))
		}
		code.AppendChild(text(line.Text))

		class := ""
		if len(anchors[line.Number]) > 0 {
			class = "step-line"
		}
		tbody.AppendChild(el("tr", []html.Attribute{attr("id", id), attr("class", class)},
			el("td", []html.Attribute{attr("class", "lineno")}, link("#"+id, strconv.Itoa(line.Number), "")),
			el("td", nil, code),
		))
	}
	return el("table", nil, tbody)
}

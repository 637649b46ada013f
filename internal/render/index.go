package render

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"

	"golang.org/x/net/html"

	"github.com/dgallion1/stepdoc/internal/discovery"
	"github.com/dgallion1/stepdoc/internal/linkpath"
)

// IndexEntry is one row of the index page.
type IndexEntry struct {
	Module *discovery.Module
	Steps  int
}

// RenderIndex writes index.html listing every workflow grouped by package.
func (r *Renderer) RenderIndex(entries []IndexEntry) (string, error) {
	groups := make(map[string][]IndexEntry)
	for _, e := range entries {
		groups[e.Module.Package] = append(groups[e.Module.Package], e)
	}
	packages := make([]string, 0, len(groups))
	for p := range groups {
		packages = append(packages, p)
	}
	slices.Sort(packages)

	body := []*html.Node{
		el("h1", nil, text(r.Options.Title)),
		el("p", nil, text(fmt.Sprintf("%d workflows in %d packages.", len(entries), len(packages)))),
	}
	for _, pkg := range packages {
		name := pkg
		if name == "" {
			name = "(top level)"
		}
		rows := groups[pkg]
		slices.SortFunc(rows, func(a, b IndexEntry) int {
			return cmp.Compare(a.Module.Module, b.Module.Module)
		})
		body = append(body, el("h2", nil, text(name)), indexTable(rows))
	}

	const rel = "index.html"
	if err := writePage(r.OutputDir, rel, document(r.Options.Title, nil, body...)); err != nil {
		return "", err
	}
	r.log.Debug("wrote index", "workflows", len(entries), "packages", len(packages))
	return rel, nil
}

func indexTable(rows []IndexEntry) *html.Node {
	tbody := el("tbody", nil)
	for _, e := range rows {
		m := e.Module
		tiers := el("td", nil)
		if len(m.Tiers) > 1 {
			for i, t := range m.Tiers {
				if i > 0 {
					tiers.AppendChild(text(", "))
				}
				tiers.AppendChild(link(linkpath.OutputPath(linkpath.TierModule(m.Module, t)), t, ""))
			}
		} else {
			tiers.AppendChild(text(strconv.Itoa(len(m.Tiers))))
		}
		tbody.AppendChild(el("tr", nil,
			el("td", nil, link(linkpath.OutputPath(m.Module), m.Name, "")),
			tiers,
			el("td", nil, text(strconv.Itoa(e.Steps))),
			el("td", nil, text(strconv.Itoa(m.LineCount))),
			el("td", nil, text(m.Summary)),
		))
	}
	head := el("tr", nil,
		el("th", nil, text("Workflow")),
		el("th", nil, text("Tiers")),
		el("th", nil, text("Steps")),
		el("th", nil, text("Lines")),
		el("th", nil, text("Summary")),
	)
	return el("table", []html.Attribute{attr("class", "index")}, el("thead", nil, head), tbody)
}

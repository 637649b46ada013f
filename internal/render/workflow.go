package render

import (
	"fmt"
	"strconv"

	"golang.org/x/net/html"

	"github.com/dgallion1/stepdoc/internal/extract"
	"github.com/dgallion1/stepdoc/internal/linkpath"
	"github.com/dgallion1/stepdoc/internal/steptree"
)

// WorkflowPage describes one workflow page: the full page of a module when
// Tier is empty, or one of its tier pages.
type WorkflowPage struct {
	Workflow *extract.Workflow
	Tier     string
	Tree     *steptree.Tree
	Warnings []extract.Warning
}

// PageModule is the identifier the page is written under.
func (p *WorkflowPage) PageModule() string {
	if p.Tier == "" {
		return p.Workflow.Module.Module
	}
	return linkpath.TierModule(p.Workflow.Module.Module, p.Tier)
}

// RenderWorkflow writes the page and returns its path relative to OutputDir.
func (r *Renderer) RenderWorkflow(p *WorkflowPage) (string, error) {
	mod := p.Workflow.Module
	page := p.PageModule()

	title := mod.Module
	if p.Tier != "" {
		title += " (" + p.Tier + ")"
	}

	body := []*html.Node{
		el("p", nil, link(linkpath.RootPrefix(page)+"index.html", "← "+r.Options.Title, "")),
		el("h1", nil, text(title)),
		r.metadata(p),
		r.tierNav(p),
		warnings(p.Warnings),
	}

	if p.Tree.Len() == 0 {
		body = append(body, el("p", []html.Attribute{attr("class", "empty")}, text("No workflow steps found.")))
	} else {
		body = append(body,
			el("h2", nil, text("Quick Reference")),
			quickReference(p.Tree),
		)
		if r.Options.ShowDiagram {
			body = append(body,
				el("h2", nil, text("Flow")),
				el("pre", []html.Attribute{attr("class", "mermaid")}, text(Mermaid(p.Tree))),
			)
		}
		body = append(body, el("h2", nil, text("Detailed Workflow")))
		for _, root := range p.Tree.Roots {
			n, err := r.stepSection(p, page, root)
			if err != nil {
				return "", err
			}
			body = append(body, n)
		}
	}

	var head []*html.Node
	if r.Options.ShowDiagram && p.Tree.Len() > 0 {
		head = append(head,
			el("script", []html.Attribute{attr("src", mermaidScript)}),
			el("script", nil, text("mermaid.initialize({startOnLoad: true});")),
		)
	}

	rel := linkpath.OutputPath(page)
	if err := writePage(r.OutputDir, rel, document(title, head, body...)); err != nil {
		return "", err
	}
	r.log.Debug("wrote workflow page", "module", mod.Module, "tier", p.Tier, "path", rel, "steps", p.Tree.Len())
	return rel, nil
}

func (r *Renderer) metadata(p *WorkflowPage) *html.Node {
	mod := p.Workflow.Module
	dl := el("dl", []html.Attribute{attr("class", "metadata")})
	add := func(term string, def *html.Node) {
		dl.AppendChild(el("dt", nil, text(term)))
		dl.AppendChild(el("dd", nil, def))
	}
	add("Module", el("code", nil, text(mod.Module)))
	if r.Options.ShowSourceLinks {
		add("Source", link(linkpath.SourceHref(p.PageModule(), mod.Module, ""), mod.Path, ""))
	}
	if mod.Summary != "" {
		add("Summary", text(mod.Summary))
	}
	if entry := mod.EntryPoints[p.Tier]; p.Tier != "" && entry != "" {
		add("Entry point", el("code", nil, text(entry+"()")))
	}
	if len(p.Workflow.Included) > 0 {
		dd := el("span", nil)
		for i, inc := range p.Workflow.Included {
			if i > 0 {
				dd.AppendChild(text(", "))
			}
			dd.AppendChild(el("code", nil, text(inc.Module)))
		}
		add("Includes", dd)
	}
	add("Steps", text(strconv.Itoa(p.Tree.Len())))
	return dl
}

func (r *Renderer) tierNav(p *WorkflowPage) *html.Node {
	mod := p.Workflow.Module
	if len(mod.Tiers) < 2 {
		return nil
	}
	page := p.PageModule()
	nav := el("nav", []html.Attribute{attr("class", "tiers")}, text("Tiers: "))

	all := link(linkpath.Href(page, mod.Module, ""), "all steps", "")
	if p.Tier == "" {
		all = el("strong", nil, text("all steps"))
	}
	nav.AppendChild(all)
	for _, t := range mod.Tiers {
		nav.AppendChild(text(" | "))
		if t == p.Tier {
			nav.AppendChild(el("strong", nil, text(t)))
			continue
		}
		nav.AppendChild(link(linkpath.Href(page, linkpath.TierModule(mod.Module, t), ""), t, ""))
	}
	return nav
}

func warnings(ws []extract.Warning) *html.Node {
	if len(ws) == 0 {
		return nil
	}
	ul := el("ul", nil)
	for _, w := range ws {
		ul.AppendChild(el("li", nil, text(w.String())))
	}
	return el("div", []html.Attribute{attr("class", "warnings")},
		el("strong", nil, text("Warnings")), ul)
}

func quickReference(t *steptree.Tree) *html.Node {
	head := el("tr", nil,
		el("th", nil, text("Step")),
		el("th", nil, text("Description")),
		el("th", nil, text("Functions")),
		el("th", nil, text("Notes")),
	)
	tbody := el("tbody", nil)
	for _, e := range steptree.Flatten(t) {
		n := t.Node(e.Node)
		desc := el("td", []html.Attribute{attr("style", depthIndent(n.Depth))}, text(n.Record.Name))
		fn := el("td", nil)
		if n.Record.Function != "" {
			fn.AppendChild(el("code", nil, text(n.Record.Function+"()")))
		}
		notes := el("td", nil)
		if n.Record.Critical != "" {
			notes.AppendChild(el("span", []html.Attribute{attr("class", "critical")}, text("⚠ "+n.Record.Critical)))
		}
		tbody.AppendChild(el("tr", nil,
			el("td", nil, link("#"+n.ID, n.Record.Number, "")),
			desc, fn, notes,
		))
	}
	return el("table", []html.Attribute{attr("class", "quick-reference")}, el("thead", nil, head), tbody)
}

func depthIndent(depth int) string {
	if depth == 0 {
		return ""
	}
	return fmt.Sprintf("padding-left: %.1fem", float64(depth)*1.5)
}

func (r *Renderer) stepSection(p *WorkflowPage, page string, idx int) (*html.Node, error) {
	n := p.Tree.Node(idx)
	rec := n.Record

	label := "Step"
	if n.Depth > 0 {
		label = "Sub-step"
	}
	heading := el(headingTag(n.Depth), nil, text(fmt.Sprintf("%s %s: %s", label, rec.Number, rec.Name)))
	if r.Options.ShowSourceLinks && rec.Line > 0 {
		heading.AppendChild(link(linkpath.SourceHref(page, p.sourceModule(rec), n.ID), "[source]", "source-link"))
	}

	section := el("section", []html.Attribute{
		attr("id", n.ID),
		attr("class", fmt.Sprintf("workflow-step depth-%d", min(n.Depth, 3))),
	}, heading)

	if rec.Purpose != "" {
		div, err := markdown(r.md, "step-field purpose", "**Purpose:** "+rec.Purpose)
		if err != nil {
			return nil, fmt.Errorf("step %s: %w", rec.Number, err)
		}
		section.AppendChild(div)
	}
	for _, f := range []struct{ label, value, class string }{
		{"Inputs", rec.Inputs, "step-field inputs"},
		{"Outputs", rec.Outputs, "step-field outputs"},
		{"Critical", rec.Critical, "step-field critical"},
	} {
		if f.value == "" {
			continue
		}
		section.AppendChild(el("p", []html.Attribute{attr("class", f.class)},
			el("strong", nil, text(f.label+": ")), text(f.value)))
	}
	if rec.Function != "" {
		section.AppendChild(el("p", []html.Attribute{attr("class", "step-field function")},
			el("strong", nil, text("Function: ")), el("code", nil, text(rec.Function+"()"))))
	}
	if owner := rec.Module(p.Workflow.Module.Module); owner != p.Workflow.Module.Module {
		section.AppendChild(el("p", []html.Attribute{attr("class", "step-field module")},
			el("strong", nil, text("Module: ")), el("code", nil, text(owner))))
	}

	if len(n.Children) == 0 {
		return section, nil
	}
	container := section
	if r.Options.CollapseSubsteps {
		container = el("details", nil,
			el("summary", nil, text(fmt.Sprintf("Sub-steps (%d)", len(n.Children)))))
		section.AppendChild(container)
	}
	for _, c := range n.Children {
		child, err := r.stepSection(p, page, c)
		if err != nil {
			return nil, err
		}
		container.AppendChild(child)
	}
	return section, nil
}

// sourceModule is the module whose source page lists the line of rec. A
// Module attribute changes who owns a step, not which file it sits in.
func (p *WorkflowPage) sourceModule(rec steptree.StepRecord) string {
	if m := p.Workflow.ModuleOf(rec.SourceFile); m != "" {
		return m
	}
	return rec.Module(p.Workflow.Module.Module)
}

func headingTag(depth int) string {
	return "h" + strconv.Itoa(min(depth+3, 6))
}

// Package render writes the generated documentation tree: one page per
// workflow and tier, one source page per contributing module, and an index.
//
// Pages are assembled as golang.org/x/net/html node trees and serialized with
// html.Render, so text is always escaped. Every path and link comes from the
// linkpath package.
package render

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const mermaidScript = "https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js"

const stylesheet = `
body { font-family: sans-serif; margin: 0 auto; max-width: 72rem; padding: 1rem; color: #222; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ddd; padding: .25rem .5rem; text-align: left; vertical-align: top; }
.workflow-step { margin-left: 1rem; border-left: 3px solid #9ab; padding-left: .75rem; }
.workflow-step.depth-0 { margin-left: 0; }
.step-field { margin: .25rem 0; }
.critical { color: #a40; }
.source-link { font-size: .8em; margin-left: .5em; }
.warnings { background: #fff4e0; padding: .5rem 1rem; }
.source-layout { display: flex; gap: 1rem; }
.step-nav { flex: 0 0 18rem; font-size: .9em; }
.step-nav .current { font-weight: bold; }
.source { flex: 1; overflow-x: auto; }
.source td { border: none; padding: 0 .5rem; }
.source pre { margin: 0; }
.source tr.step-line { background: #eef6ff; }
.lineno a { color: #999; text-decoration: none; }
`

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

// el builds an element. Attributes with empty values are dropped.
func el(tag string, attrs []html.Attribute, children ...*html.Node) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	for _, a := range attrs {
		if a.Val != "" {
			n.Attr = append(n.Attr, a)
		}
	}
	for _, c := range children {
		if c != nil {
			n.AppendChild(c)
		}
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func link(href, label string, class string) *html.Node {
	return el("a", []html.Attribute{attr("href", href), attr("class", class)}, text(label))
}

// document wraps body content in a complete page.
func document(title string, extraHead []*html.Node, body ...*html.Node) *html.Node {
	head := el("head", nil,
		el("meta", []html.Attribute{attr("charset", "utf-8")}),
		el("title", nil, text(title)),
		el("style", nil, text(stylesheet)),
	)
	for _, n := range extraHead {
		head.AppendChild(n)
	}
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(el("html", []html.Attribute{attr("lang", "en")}, head, el("body", nil, body...)))
	return doc
}

// markdown renders s as a fragment inside a div of the given class.
func markdown(md goldmark.Markdown, class, s string) (*html.Node, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(s), &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	div := el("div", []html.Attribute{attr("class", class)})
	nodes, err := html.ParseFragment(&buf, &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div})
	if err != nil {
		return nil, fmt.Errorf("parse markdown output: %w", err)
	}
	for _, n := range nodes {
		div.AppendChild(n)
	}
	return div, nil
}

// writePage renders doc to rel under outputDir, creating directories.
func writePage(outputDir, rel string, doc *html.Node) error {
	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return fmt.Errorf("render %s: %w", rel, err)
	}
	path := filepath.Join(outputDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", rel, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}

// mermaidLabel makes s safe inside a quoted Mermaid label.
func mermaidLabel(s string) string {
	return strings.NewReplacer(`"`, "'", "\n", " ").Replace(s)
}

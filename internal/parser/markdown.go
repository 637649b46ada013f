package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. Only code block
// lines are kept, numbered by their position in the Markdown source.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	reader := text.NewReader(src)
	root := md.Parser().Parse(reader)

	doc := &Document{
		Title: strings.TrimSuffix(strings.TrimSuffix(filename, ".md"), ".markdown"),
	}

	titled := false
	err = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			if !titled && node.Level == 1 {
				doc.Title = strings.TrimSpace(string(node.Text(src)))
				titled = true
			}
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			doc.Lines = append(doc.Lines, codeLines(node, src)...)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// codeLines returns the lines of a code block with their line numbers in src.
func codeLines(n ast.Node, src []byte) []Line {
	lines := n.Lines()
	out := make([]Line, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		out = append(out, Line{
			Number: bytes.Count(src[:seg.Start], []byte{'\n'}) + 1,
			Text:   strings.TrimRight(string(seg.Value(src)), "\r\n"),
		})
	}
	return out
}

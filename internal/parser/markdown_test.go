package parser

import (
	"strings"
	"testing"
)

func TestMarkdownParser_CodeBlockLines(t *testing.T) {
	input := "# Loader Guide\n" +
		"\n" +
		"Some intro.\n" +
		"\n" +
		"```python\n" +
		"# WORKFLOWS: overview\n" +
		"def load():\n" +
		"    # Step 1: Read\n" +
		"```\n"

	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "guide.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title != "Loader Guide" {
		t.Errorf("expected title %q, got %q", "Loader Guide", doc.Title)
	}
	if len(doc.Lines) != 3 {
		t.Fatalf("expected 3 code lines, got %d", len(doc.Lines))
	}

	want := []Line{
		{Number: 6, Text: "# WORKFLOWS: overview"},
		{Number: 7, Text: "def load():"},
		{Number: 8, Text: "    # Step 1: Read"},
	}
	for i, w := range want {
		if doc.Lines[i] != w {
			t.Errorf("line[%d]: expected %+v, got %+v", i, w, doc.Lines[i])
		}
	}
}

func TestMarkdownParser_IgnoresProse(t *testing.T) {
	input := "Step 1: this is prose, not code.\n\nAnother paragraph.\n"

	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "plain.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Lines) != 0 {
		t.Errorf("expected no lines from prose, got %d", len(doc.Lines))
	}
}

func TestMarkdownParser_IndentedAndMultipleBlocks(t *testing.T) {
	input := "Intro.\n\n    # Step 1: A\n\ntext\n\n```\n# Step 2: B\n```\n"

	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "multi.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %+v", len(doc.Lines), doc.Lines)
	}
	if doc.Lines[0].Number != 3 || doc.Lines[0].Text != "# Step 1: A" {
		t.Errorf("unexpected first line: %+v", doc.Lines[0])
	}
	if doc.Lines[1].Number != 8 || doc.Lines[1].Text != "# Step 2: B" {
		t.Errorf("unexpected second line: %+v", doc.Lines[1])
	}
}

func TestMarkdownParser_TitleStripping(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"readme.md", "readme"},
		{"notes.markdown", "notes"},
		{"plain.md", "plain"},
	}
	p := &MarkdownParser{}
	for _, tt := range tests {
		doc, err := p.Parse(strings.NewReader("text"), tt.filename)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tt.filename, err)
		}
		if doc.Title != tt.want {
			t.Errorf("filename=%q: expected title %q, got %q", tt.filename, tt.want, doc.Title)
		}
	}
}

package parser

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Line is one line of annotation-bearing text.
type Line struct {
	Number int    `json:"number"` // 1-based position in the source
	Text   string `json:"text"`
	Page   int    `json:"page,omitempty"` // PDF only
}

// Document is the line view of a source file. Only lines that can carry
// comment markers are included; for plain source files that is every line.
type Document struct {
	Title string `json:"title"`
	Lines []Line `json:"lines"`
}

// Source joins the lines back into text, one per line.
func (d *Document) Source() string {
	var b strings.Builder
	for i, l := range d.Lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l.Text)
	}
	return b.String()
}

// Parser converts raw file bytes into a Document.
type Parser interface {
	Parse(r io.Reader, filename string) (*Document, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".py":       true,
	".go":       true,
	".txt":      true,
	".sh":       true,
	".rb":       true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
	".ipynb":    true,
}

// PDFFallback enables the pdftotext fallback for PDFs opened through ForFile.
// It is set once at startup.
var PDFFallback = true

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".py", ".go", ".txt", ".sh", ".rb":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: PDFFallback}, nil
	case ".docx":
		return &DOCXParser{}, nil
	case ".ipynb":
		return &NotebookParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// ReadFile opens path and parses it with the parser for its extension.
func ReadFile(path string) (*Document, error) {
	p, err := ForFile(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := p.Parse(f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

// splitLines numbers every line of s starting at first.
func splitLines(s string, first int) []Line {
	s = strings.TrimSuffix(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "\n")
	out := make([]Line, len(parts))
	for i, p := range parts {
		out[i] = Line{Number: first + i, Text: p}
	}
	return out
}

package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// NotebookParser handles Jupyter notebooks. Code cells are concatenated in
// order and numbered as if they were one file.
type NotebookParser struct{}

type notebook struct {
	Cells []struct {
		CellType string          `json:"cell_type"`
		Source   json.RawMessage `json:"source"`
	} `json:"cells"`
}

func (p *NotebookParser) Parse(r io.Reader, filename string) (*Document, error) {
	var nb notebook
	if err := json.NewDecoder(r).Decode(&nb); err != nil {
		return nil, fmt.Errorf("decode notebook: %w", err)
	}

	doc := &Document{
		Title: strings.TrimSuffix(filename, ".ipynb"),
	}
	for i, cell := range nb.Cells {
		if cell.CellType != "code" {
			continue
		}
		src, err := cellSource(cell.Source)
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		doc.Lines = append(doc.Lines, splitLines(src, len(doc.Lines)+1)...)
	}

	return doc, nil
}

// cellSource accepts both the list-of-lines and the single-string encodings.
func cellSource(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var parts []string
	if err := json.Unmarshal(raw, &parts); err == nil {
		return strings.Join(parts, ""), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("decode source: %w", err)
	}
	return s, nil
}

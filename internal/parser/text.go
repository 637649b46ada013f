package parser

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// TextParser handles plain source files. Input that is not valid UTF-8 is
// decoded as Latin-1.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(raw) {
		raw, err = charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, fmt.Errorf("decode latin-1: %w", err)
		}
	}

	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	doc := &Document{
		Title: strings.TrimSuffix(filename, filepath.Ext(filename)),
	}
	n := 0
	for scanner.Scan() {
		n++
		doc.Lines = append(doc.Lines, Line{
			Number: n,
			Text:   strings.TrimSuffix(scanner.Text(), "\r"),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return doc, nil
}

package parser

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

// buildPDF writes an uncompressed PDF with one Helvetica text object per
// line, one page per element of pages.
func buildPDF(pages ...[]string) []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"", // page tree, filled in below
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	var kids []string
	for _, lines := range pages {
		var content strings.Builder
		y := 720
		for _, l := range lines {
			fmt.Fprintf(&content, "BT /F1 12 Tf 72 %d Td (%s) Tj ET\n", y, l)
			y -= 20
		}
		pageNum := len(objects) + 1
		kids = append(kids, fmt.Sprintf("%d 0 R", pageNum))
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", pageNum+1),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", content.Len(), content.String()),
		)
	}
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestPDFParser_NumbersLinesAcrossPages(t *testing.T) {
	data := buildPDF(
		[]string{"# Step 1: Load", "# Purpose: read inputs"},
		[]string{"# Step 2: Process"},
	)

	doc, err := (&PDFParser{}).Parse(bytes.NewReader(data), "manual.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "manual" {
		t.Errorf("expected title %q, got %q", "manual", doc.Title)
	}

	var got []Line
	last := 0
	for _, l := range doc.Lines {
		if l.Number <= last {
			t.Errorf("expected increasing line numbers, got %d after %d", l.Number, last)
		}
		last = l.Number
		if strings.TrimSpace(l.Text) != "" {
			got = append(got, Line{Text: strings.TrimSpace(l.Text), Page: l.Page})
		}
	}
	want := []Line{
		{Text: "# Step 1: Load", Page: 1},
		{Text: "# Purpose: read inputs", Page: 1},
		{Text: "# Step 2: Process", Page: 2},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d text lines, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestPDFParser_InvalidWithoutFallback(t *testing.T) {
	_, err := (&PDFParser{FallbackPdftotext: false}).Parse(strings.NewReader("not a pdf"), "bad.pdf")
	if err == nil {
		t.Fatal("expected error for invalid pdf")
	}
	if !strings.Contains(err.Error(), "extract pdf text") {
		t.Errorf("expected wrapped extraction error, got %v", err)
	}
}

// Package extract turns the lines of a source file into step records.
//
// A step starts at a comment such as
//
//	# Step 2: Transform
//	# Sub-step 2.1: Validate rows
//
// and may be followed directly by attribute comments (Purpose, Inputs,
// Outputs, Critical, Module). Each step is attributed to the innermost
// function whose definition encloses it by indentation.
package extract

import (
	"regexp"
	"strings"

	"github.com/dgallion1/stepdoc/internal/discovery"
	"github.com/dgallion1/stepdoc/internal/parser"
	"github.com/dgallion1/stepdoc/internal/steptree"
)

var (
	stepPattern      = regexp.MustCompile(`(?i)^[ \t]*(?:#|//)[ \t]*(?:sub-?step|step)[ \t]+([^\s:]+)[ \t]*:[ \t]*(.*)$`)
	attributePattern = regexp.MustCompile(`(?i)^[ \t]*(?:#|//)[ \t]*(purpose|inputs|outputs|critical|module)[ \t]*:[ \t]*(.*)$`)
)

// Function is a function definition seen during extraction.
type Function struct {
	Name string `json:"name"`
	Line int    `json:"line"`
}

// Extraction is the result of scanning one file.
type Extraction struct {
	Module    string                `json:"module"`
	File      string                `json:"file"`
	Records   []steptree.StepRecord `json:"records"`
	Functions []Function            `json:"functions,omitempty"`
	Lines     []parser.Line         `json:"-"` // kept for source pages
}

type scope struct {
	name   string
	indent int
}

// Extract scans doc for step markers. Every record carries file as its
// SourceFile; SourceModule is left empty unless a Module attribute sets it.
func Extract(doc *parser.Document, module, file string) *Extraction {
	ex := &Extraction{Module: module, File: file, Lines: doc.Lines}

	var (
		stack   []scope
		current = -1 // index into ex.Records accepting attributes
	)

	for _, line := range doc.Lines {
		text := line.Text
		trimmed := strings.TrimSpace(text)
		indent := indentWidth(text)

		if m := stepPattern.FindStringSubmatch(text); m != nil {
			ex.Records = append(ex.Records, steptree.StepRecord{
				Number:     strings.TrimRight(m[1], "."),
				Name:       strings.TrimSpace(m[2]),
				Line:       line.Number,
				SourceFile: file,
				Function:   enclosing(stack, indent),
			})
			current = len(ex.Records) - 1
			continue
		}

		if current >= 0 {
			if m := attributePattern.FindStringSubmatch(text); m != nil {
				setAttribute(&ex.Records[current], m[1], strings.TrimSpace(m[2]))
				continue
			}
		}
		current = -1

		if trimmed == "" || isComment(trimmed) {
			continue
		}

		// Any code line closes scopes indented at or beyond it.
		for len(stack) > 0 && stack[len(stack)-1].indent >= indent {
			stack = stack[:len(stack)-1]
		}
		if name := discovery.FunctionName(text); name != "" {
			stack = append(stack, scope{name: name, indent: indent})
			ex.Functions = append(ex.Functions, Function{Name: name, Line: line.Number})
		}
	}
	return ex
}

// RecordsFor returns the records of function, or those at module scope when
// function is "".
func (ex *Extraction) RecordsFor(function string) []steptree.StepRecord {
	var out []steptree.StepRecord
	for _, r := range ex.Records {
		if r.Function == function {
			out = append(out, r)
		}
	}
	return out
}

func setAttribute(r *steptree.StepRecord, key, value string) {
	switch strings.ToLower(key) {
	case "purpose":
		r.Purpose = appendText(r.Purpose, value)
	case "inputs":
		r.Inputs = appendText(r.Inputs, value)
	case "outputs":
		r.Outputs = appendText(r.Outputs, value)
	case "critical":
		r.Critical = appendText(r.Critical, value)
	case "module":
		r.SourceModule = value
	}
}

func appendText(existing, value string) string {
	if existing == "" {
		return value
	}
	return existing + " " + value
}

// enclosing returns the innermost open function indented less than indent.
func enclosing(stack []scope, indent int) string {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].indent < indent {
			return stack[i].name
		}
	}
	return ""
}

func isComment(trimmed string) bool {
	return strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "//")
}

func indentWidth(s string) int {
	n := 0
	for _, c := range s {
		switch c {
		case ' ':
			n++
		case '\t':
			n += 4
		default:
			return n
		}
	}
	return n
}

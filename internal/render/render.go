package render

import (
	"log/slog"

	"github.com/yuin/goldmark"
)

// Options control optional page sections.
type Options struct {
	Title            string
	ShowDiagram      bool
	CollapseSubsteps bool
	ShowSourceLinks  bool
}

// DefaultOptions enables every section.
func DefaultOptions() Options {
	return Options{
		Title:            "Workflow Documentation",
		ShowDiagram:      true,
		CollapseSubsteps: true,
		ShowSourceLinks:  true,
	}
}

// Renderer writes pages below OutputDir.
type Renderer struct {
	OutputDir string
	Options   Options
	md        goldmark.Markdown
	log       *slog.Logger
}

func New(outputDir string, opts Options, log *slog.Logger) *Renderer {
	if log == nil {
		log = slog.Default()
	}
	return &Renderer{
		OutputDir: outputDir,
		Options:   opts,
		md:        goldmark.New(),
		log:       log,
	}
}

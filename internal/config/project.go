package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultProjectFile is read when PROJECT_FILE is unset. It may be absent.
const DefaultProjectFile = "stepdoc.yaml"

// Project describes what to document and how. Relative paths in a project
// file are resolved against the file's directory.
type Project struct {
	Title       string        `yaml:"title"`
	BaseDir     string        `yaml:"base_dir"`
	OutputDir   string        `yaml:"output_dir"`
	SearchPaths []string      `yaml:"search_paths"`
	Include     []string      `yaml:"include"`
	Exclude     []string      `yaml:"exclude"`
	Recursive   bool          `yaml:"recursive"`
	Strict      bool          `yaml:"strict"`
	Render      RenderOptions `yaml:"render"`
}

type RenderOptions struct {
	ShowDiagram      bool `yaml:"show_diagram"`
	CollapseSubsteps bool `yaml:"collapse_substeps"`
	ShowSourceLinks  bool `yaml:"show_source_links"`
}

func DefaultProject() Project {
	return Project{
		Title:       "Workflow Documentation",
		BaseDir:     ".",
		OutputDir:   "site",
		SearchPaths: []string{"."},
		Recursive:   true,
		Render: RenderOptions{
			ShowDiagram:      true,
			CollapseSubsteps: true,
			ShowSourceLinks:  true,
		},
	}
}

// ParseProject decodes a project file on top of DefaultProject, so omitted
// keys keep their defaults.
func ParseProject(data []byte) (Project, error) {
	p := DefaultProject()
	if len(bytes.TrimSpace(data)) == 0 {
		return p, nil
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Project{}, fmt.Errorf("project: decode: %w", err)
	}
	return p, nil
}

// LoadProjectFile reads and decodes path, resolving relative directories
// against the directory containing it.
func LoadProjectFile(path string) (Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Project{}, fmt.Errorf("project: read %s: %w", path, err)
	}
	p, err := ParseProject(data)
	if err != nil {
		return Project{}, fmt.Errorf("project: %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	p.BaseDir = within(dir, p.BaseDir)
	p.OutputDir = within(dir, p.OutputDir)
	return p, nil
}

func within(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// Project loads the configured project file and applies the environment
// overrides. A missing default project file is not an error.
func (c Config) Project() (Project, error) {
	p, err := LoadProjectFile(c.ProjectFile)
	if err != nil {
		if c.ProjectFile != DefaultProjectFile || !errors.Is(err, fs.ErrNotExist) {
			return Project{}, err
		}
		p = DefaultProject()
	}

	if c.BaseDir != "" {
		p.BaseDir = c.BaseDir
	}
	if c.OutputDir != "" {
		p.OutputDir = c.OutputDir
	}
	if len(c.SearchPaths) > 0 {
		p.SearchPaths = c.SearchPaths
	}
	if c.Strict {
		p.Strict = true
	}
	return p, p.Validate()
}

func (p Project) Validate() error {
	if p.OutputDir == "" {
		return fmt.Errorf("project: output_dir is required")
	}
	if len(p.SearchPaths) == 0 {
		return fmt.Errorf("project: at least one search path is required")
	}
	for _, pattern := range append(append([]string{}, p.Include...), p.Exclude...) {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("project: bad pattern %q: %w", pattern, err)
		}
	}
	return nil
}

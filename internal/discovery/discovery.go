// Package discovery scans source trees for modules that declare workflow
// markers and reports their tiers, entry points and exclusions.
package discovery

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dgallion1/stepdoc/internal/parser"
)

// Default glob patterns, matched against base names.
var (
	DefaultInclude = []string{"*.py", "*.go", "*.md", "*.ipynb"}
	DefaultExclude = []string{"test_*", "_*", ".*", "*_test.py", "*_test.go", "conftest.py"}
)

// Module is one discovered workflow module.
type Module struct {
	Module      string              `json:"module"`  // Dotted identifier, e.g. "pkg.loading"
	Package     string              `json:"package"` // All segments but the last; "" at the top level
	Name        string              `json:"name"`    // Last segment
	Path        string              `json:"path"`
	Tiers       []string            `json:"tiers"`
	EntryPoints map[string]string   `json:"entry_points,omitempty"` // tier -> function
	Exclusions  map[string][]string `json:"exclusions,omitempty"`   // function -> tiers
	Includes    []string            `json:"includes,omitempty"`     // modules pulled in by WORKFLOW_INCLUDE
	Summary     string              `json:"summary,omitempty"`
	LineCount   int                 `json:"line_count"`
}

// Excluded reports whether function is excluded from tier.
func (m *Module) Excluded(function, tier string) bool {
	return slices.Contains(m.Exclusions[function], tier)
}

// Skip records a file or directory that was not scanned.
type Skip struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Result is the outcome of a scan. Errors are non-fatal.
type Result struct {
	Modules map[string]*Module `json:"modules"` // keyed by file path
	Sources map[string]string  `json:"sources"` // module identifier -> file path
	Files   map[string]string  `json:"files"`   // every readable candidate, including files without markers
	Errors  []string           `json:"errors,omitempty"`
	Skipped []Skip             `json:"skipped,omitempty"`
}

func newResult() *Result {
	return &Result{
		Modules: make(map[string]*Module),
		Sources: make(map[string]string),
		Files:   make(map[string]string),
	}
}

// Sorted returns the modules ordered by identifier.
func (r *Result) Sorted() []*Module {
	out := make([]*Module, 0, len(r.Modules))
	for _, m := range r.Modules {
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b *Module) int { return strings.Compare(a.Module, b.Module) })
	return out
}

// ByPackage groups modules by package, each group sorted by name. Top-level
// modules are grouped under "".
func (r *Result) ByPackage() map[string][]*Module {
	out := make(map[string][]*Module)
	for _, m := range r.Sorted() {
		out[m.Package] = append(out[m.Package], m)
	}
	return out
}

// AllTiers returns every declared tier name, sorted.
func (r *Result) AllTiers() []string {
	seen := map[string]bool{}
	for _, m := range r.Modules {
		for _, t := range m.Tiers {
			seen[t] = true
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// Discoverer scans search paths. The zero value uses the default patterns
// relative to the working directory but does not descend into subdirectories.
type Discoverer struct {
	BaseDir   string
	Include   []string
	Exclude   []string
	Recursive bool
	Log       *slog.Logger
}

// New creates a recursive Discoverer rooted at baseDir.
func New(baseDir string, log *slog.Logger) *Discoverer {
	return &Discoverer{
		BaseDir:   baseDir,
		Include:   DefaultInclude,
		Exclude:   DefaultExclude,
		Recursive: true,
		Log:       log,
	}
}

// Discover scans every search path. A directory is walked; a file is
// processed directly and named by its stem.
func (d *Discoverer) Discover(paths []string) *Result {
	res := newResult()
	for _, p := range paths {
		abs := d.resolve(p)
		info, err := os.Stat(abs)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("search path not found: %s", p))
			continue
		}
		if !info.IsDir() {
			d.processFile(abs, filepath.Dir(abs), res)
			continue
		}
		d.scanDir(abs, res)
	}
	d.logger().Info("discovery complete",
		"modules", len(res.Modules),
		"errors", len(res.Errors),
		"skipped", len(res.Skipped),
	)
	return res
}

func (d *Discoverer) resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	base := d.BaseDir
	if base == "" {
		base = "."
	}
	return filepath.Join(base, p)
}

func (d *Discoverer) scanDir(root string, res *Result) {
	err := filepath.WalkDir(root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("could not read %s: %v", p, err))
			if entry != nil && entry.IsDir() && p != root {
				return fs.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			if p == root {
				return nil
			}
			if d.excluded(entry.Name()) {
				res.Skipped = append(res.Skipped, Skip{Path: p, Reason: "excluded by pattern"})
				return fs.SkipDir
			}
			if !d.Recursive {
				return fs.SkipDir
			}
			return nil
		}
		if !d.included(entry.Name()) {
			return nil
		}
		if d.excluded(entry.Name()) {
			res.Skipped = append(res.Skipped, Skip{Path: p, Reason: "excluded by pattern"})
			return nil
		}
		d.processFile(p, root, res)
		return nil
	})
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("walk %s: %v", root, err))
	}
}

func (d *Discoverer) processFile(p, root string, res *Result) {
	doc, err := parser.ReadFile(p)
	if err != nil {
		d.logger().Warn("could not read file", "path", p, "error", err)
		res.Errors = append(res.Errors, fmt.Sprintf("could not read %s: %v", p, err))
		return
	}
	src := doc.Source()
	id := ModuleID(root, p)
	if _, seen := res.Files[id]; !seen {
		res.Files[id] = p
	}

	tiers, ok := declaredTiers(src)
	if !ok {
		if !documentWorkflowPattern.MatchString(src) {
			res.Skipped = append(res.Skipped, Skip{Path: p, Reason: "no workflow markers"})
			return
		}
		tiers = singleTierNames(src)
	}
	if len(tiers) == 0 {
		res.Skipped = append(res.Skipped, Skip{Path: p, Reason: "no valid tier names"})
		return
	}

	if prev, dup := res.Sources[id]; dup && prev != p {
		res.Errors = append(res.Errors, fmt.Sprintf("module %s declared by both %s and %s", id, prev, p))
		return
	}

	segs := strings.Split(id, ".")
	m := &Module{
		Module:      id,
		Package:     strings.Join(segs[:len(segs)-1], "."),
		Name:        segs[len(segs)-1],
		Path:        p,
		Tiers:       tiers,
		EntryPoints: entryPoints(src),
		Exclusions:  exclusions(src),
		Includes:    includes(src),
		Summary:     summary(src),
		LineCount:   len(doc.Lines),
	}
	res.Modules[p] = m
	res.Sources[id] = p
	d.logger().Debug("discovered module", "module", id, "tiers", tiers)
}

// ModuleID derives the dotted identifier of file relative to root: the
// extension is dropped and path separators become dots.
func ModuleID(root, file string) string {
	rel, err := filepath.Rel(root, file)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(file)
	}
	rel = filepath.ToSlash(rel)
	rel = strings.TrimSuffix(rel, path.Ext(rel))
	return strings.ReplaceAll(rel, "/", ".")
}

func (d *Discoverer) included(name string) bool {
	patterns := d.Include
	if len(patterns) == 0 {
		patterns = DefaultInclude
	}
	return matchAny(patterns, name)
}

func (d *Discoverer) excluded(name string) bool {
	patterns := d.Exclude
	if patterns == nil {
		patterns = DefaultExclude
	}
	return matchAny(patterns, name)
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := path.Match(p, name); ok {
			return true
		}
	}
	return false
}

func (d *Discoverer) logger() *slog.Logger {
	if d.Log == nil {
		return slog.Default()
	}
	return d.Log
}

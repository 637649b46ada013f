package extract

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgallion1/stepdoc/internal/parser"
)

// Cache memoizes extractions for the lifetime of one build. Entries are keyed
// by the file's resolved absolute path and never invalidated.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*Extraction
	stats   *Stats
	hits    int
	misses  int
}

// NewCache creates an empty cache. stats may be nil.
func NewCache(stats *Stats) *Cache {
	return &Cache{entries: make(map[string]*Extraction), stats: stats}
}

// Get returns the extraction of path as module, reading the file on first use.
// A file reached under another module identifier shares the parsed records
// but is reported as module.
func (c *Cache) Get(path, module string) (*Extraction, error) {
	key, err := resolve(path)
	if err != nil {
		return nil, err
	}
	kind := FileKind(path)

	c.mu.Lock()
	if ex, ok := c.entries[key]; ok {
		c.hits++
		c.mu.Unlock()
		if c.stats != nil {
			c.stats.RecordHit(kind)
		}
		return as(ex, module), nil
	}
	c.misses++
	c.mu.Unlock()

	start := time.Now()
	doc, err := parser.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ex := Extract(doc, module, path)
	if c.stats != nil {
		c.stats.Record(kind, time.Since(start), len(ex.Records))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Another goroutine may have raced us; keep the first result.
	if prev, ok := c.entries[key]; ok {
		return as(prev, module), nil
	}
	c.entries[key] = ex
	return ex, nil
}

// as returns ex labelled with module. Records and lines are shared and must
// not be modified.
func as(ex *Extraction, module string) *Extraction {
	if ex.Module == module {
		return ex
	}
	cp := *ex
	cp.Module = module
	return &cp
}

// Counts returns cache hits and misses.
func (c *Cache) Counts() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}

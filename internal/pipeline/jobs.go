package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/stepdoc/internal/extract"
)

// BuildStatus represents the state of a documentation build.
type BuildStatus string

const (
	StatusQueued      BuildStatus = "queued"
	StatusDiscovering BuildStatus = "discovering"
	StatusExtracting  BuildStatus = "extracting"
	StatusValidating  BuildStatus = "validating"
	StatusRendering   BuildStatus = "rendering"
	StatusCompleted   BuildStatus = "completed"
	StatusFailed      BuildStatus = "failed"
	StatusPartial     BuildStatus = "partial"
	StatusUnchanged   BuildStatus = "unchanged"
)

// Terminal reports whether no further transitions follow s.
func (s BuildStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusPartial, StatusUnchanged:
		return true
	}
	return false
}

// Build tracks the state of a single documentation build.
type Build struct {
	mu sync.Mutex

	ID      string `json:"build_id"`
	Trigger string `json:"trigger"`

	Status BuildStatus `json:"status"`
	Phase  string      `json:"phase"`

	Progress Progress `json:"progress"`

	Fingerprint string    `json:"fingerprint,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	errors   []string
	warnings []extract.Warning
	done     chan struct{}
}

// Progress tracks build progress.
type Progress struct {
	ModulesFound     int               `json:"modules_found"`
	ModulesExtracted int               `json:"modules_extracted"`
	Steps            int               `json:"steps"`
	PagesWritten     int               `json:"pages_written"`
	Warnings         []extract.Warning `json:"warnings"`
	Errors           []string          `json:"errors"`
}

// NewBuild creates a queued build.
func NewBuild(id, trigger string) *Build {
	now := time.Now()
	return &Build{
		ID:        id,
		Trigger:   trigger,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
		done:      make(chan struct{}),
	}
}

// BuildStore is a thread-safe in-memory build registry with TTL eviction.
type BuildStore struct {
	mu     sync.Mutex
	builds map[string]*Build
	ttl    time.Duration
}

func NewBuildStore(ttl time.Duration) *BuildStore {
	return &BuildStore{
		builds: make(map[string]*Build),
		ttl:    ttl,
	}
}

func (s *BuildStore) Put(b *Build) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.builds[b.ID] = b
}

func (s *BuildStore) Get(id string) *Build {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.builds[id]
}

// Cleanup removes expired builds that have finished.
func (s *BuildStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, b := range s.builds {
		b.mu.Lock()
		expired := b.Status.Terminal() && now.Sub(b.UpdatedAt) > s.ttl
		b.mu.Unlock()
		if expired {
			delete(s.builds, id)
		}
	}
}

// SetStatus updates build status atomically. Entering a terminal status
// releases everyone blocked in Done.
func (b *Build) SetStatus(status BuildStatus, phase string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	wasTerminal := b.Status.Terminal()
	b.Status = status
	b.Phase = phase
	b.UpdatedAt = time.Now()
	if status.Terminal() && !wasTerminal && b.done != nil {
		close(b.done)
	}
}

// Done is closed once the build reaches a terminal status.
func (b *Build) Done() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done == nil {
		b.done = make(chan struct{})
		if b.Status.Terminal() {
			close(b.done)
		}
	}
	return b.done
}

// AddError records an error.
func (b *Build) AddError(err string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errors = append(b.errors, err)
	b.Progress.Errors = b.errors
	b.UpdatedAt = time.Now()
}

// AddWarnings records validation warnings.
func (b *Build) AddWarnings(ws ...extract.Warning) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.warnings = append(b.warnings, ws...)
	b.Progress.Warnings = b.warnings
	b.UpdatedAt = time.Now()
}

// HasErrors reports whether any error was recorded.
func (b *Build) HasErrors() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.errors) > 0
}

// SetModulesFound records the number of discovered modules.
func (b *Build) SetModulesFound(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Progress.ModulesFound = n
	b.UpdatedAt = time.Now()
}

// IncrModulesExtracted counts one extracted module and its steps.
func (b *Build) IncrModulesExtracted(steps int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Progress.ModulesExtracted++
	b.Progress.Steps += steps
	b.UpdatedAt = time.Now()
}

// AddPages records written pages.
func (b *Build) AddPages(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Progress.PagesWritten += n
	b.UpdatedAt = time.Now()
}

// SetFingerprint records the content fingerprint of the build's inputs.
func (b *Build) SetFingerprint(fp string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Fingerprint = fp
}

// BuildSnapshot is a read-only, JSON-safe copy of build state.
type BuildSnapshot struct {
	ID          string      `json:"build_id"`
	Trigger     string      `json:"trigger"`
	Status      BuildStatus `json:"status"`
	Phase       string      `json:"phase"`
	Fingerprint string      `json:"fingerprint,omitempty"`
	Progress    Progress    `json:"progress"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the build state.
func (b *Build) Snapshot() BuildSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	errs := append([]string{}, b.Progress.Errors...)
	warns := append([]extract.Warning{}, b.Progress.Warnings...)
	return BuildSnapshot{
		ID:          b.ID,
		Trigger:     b.Trigger,
		Status:      b.Status,
		Phase:       b.Phase,
		Fingerprint: b.Fingerprint,
		Progress: Progress{
			ModulesFound:     b.Progress.ModulesFound,
			ModulesExtracted: b.Progress.ModulesExtracted,
			Steps:            b.Progress.Steps,
			PagesWritten:     b.Progress.PagesWritten,
			Warnings:         warns,
			Errors:           errs,
		},
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

package extract

import (
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

// Latency summarizes the extractions of one file kind. Durations are in
// microseconds; a file is parsed and scanned in far less than a millisecond.
type Latency struct {
	Count  int     `json:"count"` // files read and scanned
	Steps  int     `json:"steps"`
	Hits   int     `json:"cache_hits"`
	MeanUs float64 `json:"mean_us"`
	P50Us  int64   `json:"p50_us"`
	P90Us  int64   `json:"p90_us"`
	MaxUs  int64   `json:"max_us"`
}

// StatsSnapshot aggregates the current window, overall and per file kind.
type StatsSnapshot struct {
	Latency
	ByKind map[string]Latency `json:"by_kind,omitempty"`
}

type sample struct {
	at    time.Time
	kind  string
	took  time.Duration
	steps int
	hit   bool
}

// Stats keeps a rolling window of file extractions, so the API can show which
// source formats dominate build time.
type Stats struct {
	mu      sync.Mutex
	window  time.Duration
	samples []sample
}

func NewStats(window time.Duration) *Stats {
	if window <= 0 {
		window = time.Hour
	}
	return &Stats{window: window}
}

// FileKind is the lowercased extension of path without its dot.
func FileKind(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// Record adds one file that was read and scanned.
func (s *Stats) Record(kind string, took time.Duration, steps int) {
	s.add(sample{kind: kind, took: max(took, 0), steps: steps})
}

// RecordHit counts an extraction served from the build cache.
func (s *Stats) RecordHit(kind string) {
	s.add(sample{kind: kind, hit: true})
}

func (s *Stats) add(sm sample) {
	sm.at = time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked(sm.at)
	s.samples = append(s.samples, sm)
}

func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked(time.Now())
	if len(s.samples) == 0 {
		return StatsSnapshot{}
	}

	byKind := make(map[string][]sample)
	for _, sm := range s.samples {
		byKind[sm.kind] = append(byKind[sm.kind], sm)
	}
	snap := StatsSnapshot{
		Latency: summarize(s.samples),
		ByKind:  make(map[string]Latency, len(byKind)),
	}
	for kind, samples := range byKind {
		snap.ByKind[kind] = summarize(samples)
	}
	return snap
}

func (s *Stats) expireLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	s.samples = slices.DeleteFunc(s.samples, func(sm sample) bool {
		return sm.at.Before(cutoff)
	})
}

func summarize(samples []sample) Latency {
	var l Latency
	var took []int64
	for _, sm := range samples {
		if sm.hit {
			l.Hits++
			continue
		}
		took = append(took, sm.took.Microseconds())
		l.Steps += sm.steps
	}
	l.Count = len(took)
	if l.Count == 0 {
		return l
	}

	slices.Sort(took)
	var sum int64
	for _, us := range took {
		sum += us
	}
	l.MeanUs = float64(sum) / float64(l.Count)
	l.P50Us = nearestRank(took, 50)
	l.P90Us = nearestRank(took, 90)
	l.MaxUs = took[len(took)-1]
	return l
}

// nearestRank returns the smallest value with at least pct percent of the
// sorted values at or below it.
func nearestRank(sorted []int64, pct int) int64 {
	rank := (pct*len(sorted) + 99) / 100
	return sorted[max(rank, 1)-1]
}

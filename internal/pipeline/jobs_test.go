package pipeline

import (
	"testing"
	"time"

	"github.com/dgallion1/stepdoc/internal/extract"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestContentHashHex_DifferentInputs(t *testing.T) {
	h1 := ContentHashHex([]byte("aaa"))
	h2 := ContentHashHex([]byte("bbb"))
	if h1 == h2 {
		t.Error("expected different hashes for different inputs")
	}
}

func TestBuild_StateTransitions(t *testing.T) {
	b := NewBuild("test-1", "api")

	transitions := []struct {
		status BuildStatus
		phase  string
	}{
		{StatusDiscovering, "discovering"},
		{StatusExtracting, "extracting"},
		{StatusValidating, "validating"},
		{StatusRendering, "rendering"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := b.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		b.SetStatus(tr.status, tr.phase)

		if b.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, b.Status)
		}
		if b.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, b.Phase)
		}
		if !b.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestBuild_DoneClosesOnTerminalStatus(t *testing.T) {
	b := NewBuild("done-test", "api")
	b.SetStatus(StatusExtracting, "extracting")
	select {
	case <-b.Done():
		t.Fatal("expected Done to stay open while running")
	default:
	}

	b.SetStatus(StatusPartial, "done")
	select {
	case <-b.Done():
	case <-time.After(time.Second):
		t.Fatal("expected Done to close on terminal status")
	}

	// A second terminal transition must not close twice.
	b.SetStatus(StatusFailed, "rendering")
}

func TestBuild_DoneOnZeroValue(t *testing.T) {
	b := &Build{ID: "zero", Status: StatusCompleted}
	select {
	case <-b.Done():
	default:
		t.Error("expected Done of a finished build to be closed")
	}
}

func TestBuild_AddErrorAndWarnings(t *testing.T) {
	b := NewBuild("err-test", "api")
	b.AddError("pkg.a: read failed")
	b.AddError("pkg.b: read failed")
	b.AddWarnings(extract.Warning{Kind: extract.KindDuplicateAnchor, Module: "pkg.a", Number: "1"})

	snap := b.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "pkg.a: read failed" {
		t.Errorf("expected first error %q, got %q", "pkg.a: read failed", snap.Progress.Errors[0])
	}
	if len(snap.Progress.Warnings) != 1 {
		t.Errorf("expected 1 warning, got %d", len(snap.Progress.Warnings))
	}
	if !b.HasErrors() {
		t.Error("expected HasErrors to report recorded errors")
	}

	// The snapshot must not alias the build's slices.
	snap.Progress.Errors[0] = "changed"
	if b.Snapshot().Progress.Errors[0] != "pkg.a: read failed" {
		t.Error("expected snapshot to be a copy")
	}
}

func TestBuild_ProgressCounters(t *testing.T) {
	b := NewBuild("progress-test", "api")
	b.SetModulesFound(3)
	b.IncrModulesExtracted(4)
	b.IncrModulesExtracted(2)
	b.AddPages(5)
	b.AddPages(1)

	snap := b.Snapshot()
	if snap.Progress.ModulesFound != 3 {
		t.Errorf("expected 3 modules found, got %d", snap.Progress.ModulesFound)
	}
	if snap.Progress.ModulesExtracted != 2 {
		t.Errorf("expected 2 modules extracted, got %d", snap.Progress.ModulesExtracted)
	}
	if snap.Progress.Steps != 6 {
		t.Errorf("expected 6 steps, got %d", snap.Progress.Steps)
	}
	if snap.Progress.PagesWritten != 6 {
		t.Errorf("expected 6 pages, got %d", snap.Progress.PagesWritten)
	}
}

func TestBuild_SnapshotSlicesNotNil(t *testing.T) {
	// Snapshot should always return non-nil slices.
	b := NewBuild("snap-test", "api")
	snap := b.Snapshot()
	if snap.Progress.Errors == nil || snap.Progress.Warnings == nil {
		t.Error("expected non-nil slices in snapshot")
	}
}

func TestBuildStore_PutGet(t *testing.T) {
	store := NewBuildStore(time.Hour)
	store.Put(NewBuild("store-1", "api"))

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get build back")
	}
	if got.ID != "store-1" {
		t.Errorf("expected ID %q, got %q", "store-1", got.ID)
	}
}

func TestBuildStore_GetMissing(t *testing.T) {
	store := NewBuildStore(time.Hour)
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing build")
	}
}

func TestBuildStore_TTLCleanup(t *testing.T) {
	store := NewBuildStore(50 * time.Millisecond)

	expired := NewBuild("old", "api")
	expired.SetStatus(StatusCompleted, "done")
	store.Put(expired)

	running := NewBuild("running", "api")
	running.SetStatus(StatusRendering, "rendering")
	store.Put(running)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	store.Put(NewBuild("new", "api"))
	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired build to be cleaned up")
	}
	if store.Get("running") == nil {
		t.Error("expected unfinished build to survive cleanup")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh build to survive cleanup")
	}
}

func TestBuildStore_CleanupEmpty(t *testing.T) {
	store := NewBuildStore(time.Hour)
	// Should not panic on empty store.
	store.Cleanup()
}

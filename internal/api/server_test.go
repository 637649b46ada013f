package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/stepdoc/internal/config"
	"github.com/dgallion1/stepdoc/internal/pipeline"
	"github.com/dgallion1/stepdoc/internal/registry"
)

const testKey = "secret"

const workflowPy = `# WORKFLOWS: overview, detail

# DOCUMENT_WORKFLOW: overview
def load():
    # Step 1: Load
    # Sub-step 1.1: Read
    pass

def process():
    # Step 2: Process
    pass
`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServer builds a small project and returns a server over it. When
// publish is false no build has run yet.
func newTestServer(t *testing.T, publish bool) (*Server, *pipeline.Orchestrator) {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "src", "pkg")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "flow.py"), []byte(workflowPy), 0o644); err != nil {
		t.Fatal(err)
	}

	project := config.DefaultProject()
	project.BaseDir = dir
	project.OutputDir = filepath.Join(dir, "site")
	project.SearchPaths = []string{"src"}

	cfg := config.Config{APIKey: testKey, MaxQueueSize: 4, MaxConcurrentExtract: 2, JobTTL: time.Hour}
	orch := pipeline.NewOrchestrator(cfg, project, quietLogger())
	if publish {
		if b := orch.BuildNow(context.Background(), "test"); b.Snapshot().Status != pipeline.StatusCompleted {
			t.Fatalf("build failed: %+v", b.Snapshot())
		}
	}
	return NewServer(orch, quietLogger(), cfg, project.OutputDir), orch
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, false)
	rec := get(t, s, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestModules_BeforeFirstBuild(t *testing.T) {
	s, _ := newTestServer(t, false)
	if rec := get(t, s, "/api/modules"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestListModules(t *testing.T) {
	s, _ := newTestServer(t, true)
	rec := get(t, s, "/api/modules")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decode(t, rec)
	modules := body["modules"].([]any)
	if len(modules) != 1 {
		t.Fatalf("expected 1 module, got %d", len(modules))
	}
	m := modules[0].(map[string]any)
	if m["module"] != "pkg.flow" {
		t.Errorf("expected module pkg.flow, got %v", m["module"])
	}
	if m["page"] != "pkg/flow.html" {
		t.Errorf("expected page pkg/flow.html, got %v", m["page"])
	}
	if m["steps"].(float64) != 3 {
		t.Errorf("expected 3 steps, got %v", m["steps"])
	}
}

func TestModuleSteps(t *testing.T) {
	s, _ := newTestServer(t, true)

	rec := get(t, s, "/api/modules/pkg.flow/steps")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	flat := decode(t, rec)["flat"].([]any)
	if len(flat) != 3 {
		t.Errorf("expected 3 flattened steps, got %d", len(flat))
	}

	rec = get(t, s, "/api/modules/pkg.flow/steps?tier=overview")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body["page"] != "pkg/flow/overview.html" {
		t.Errorf("expected tier page path, got %v", body["page"])
	}
	if n := len(body["flat"].([]any)); n != 2 {
		t.Errorf("expected 2 steps on the overview tier, got %d", n)
	}

	if rec := get(t, s, "/api/modules/pkg.flow/steps?tier=nope"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown tier, got %d", rec.Code)
	}
	if rec := get(t, s, "/api/modules/pkg.none/steps"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown module, got %d", rec.Code)
	}
}

func TestSourceMap(t *testing.T) {
	s, _ := newTestServer(t, true)

	rec := get(t, s, "/api/modules/pkg.flow/sourcemap")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Module  string                    `json:"module"`
		Entries map[string]registry.Entry `json:"entries"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	e, ok := body.Entries["step-1-1"]
	if !ok {
		t.Fatalf("expected step-1-1 in %v", body.Entries)
	}
	if e.Line != 6 || e.Name != "Read" {
		t.Errorf("unexpected entry %+v", e)
	}

	if rec := get(t, s, "/api/modules/pkg.none/sourcemap"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestLinks(t *testing.T) {
	s, _ := newTestServer(t, false)

	rec := get(t, s, "/api/links?from=pkg.a&to=pkg.b.c&anchor=step-2")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body["relative_path"] != "../pkg/b/c.html" {
		t.Errorf("unexpected relative path %v", body["relative_path"])
	}
	if body["href"] != "../pkg/b/c.html#step-2" {
		t.Errorf("unexpected href %v", body["href"])
	}

	if rec := get(t, s, "/api/links?from=pkg.a"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without to, got %d", rec.Code)
	}
}

func TestTriggerBuild_RequiresAuth(t *testing.T) {
	s, _ := newTestServer(t, false)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/builds", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/builds", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with wrong token, got %d", rec.Code)
	}
}

func TestTriggerBuild_AndPoll(t *testing.T) {
	s, orch := newTestServer(t, false)
	orch.Start(context.Background())
	defer orch.Stop()

	req := httptest.NewRequest(http.MethodPost, "/api/builds", nil)
	req.Header.Set("Authorization", "Bearer "+testKey)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	id := decode(t, rec)["build_id"].(string)

	b := orch.GetBuild(id)
	if b == nil {
		t.Fatal("expected build to be tracked")
	}
	select {
	case <-b.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("build did not finish")
	}

	rec = get(t, s, "/api/builds/"+id)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if status := decode(t, rec)["status"]; status != string(pipeline.StatusCompleted) {
		t.Errorf("expected completed, got %v", status)
	}

	if rec := get(t, s, "/api/builds/unknown"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestTriggerBuild_DisabledWithoutKey(t *testing.T) {
	_, orch := newTestServer(t, false)
	s := NewServer(orch, quietLogger(), config.Config{}, t.TempDir())

	req := httptest.NewRequest(http.MethodPost, "/api/builds", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestExtractStats(t *testing.T) {
	s, _ := newTestServer(t, true)
	rec := get(t, s, "/api/stats/extract")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decode(t, rec)
	stats := body["stats"].(map[string]any)
	if stats["count"].(float64) < 1 {
		t.Errorf("expected at least one extraction sample, got %v", stats["count"])
	}
	if body["registry_entries"].(float64) != 3 {
		t.Errorf("expected 3 registry entries, got %v", body["registry_entries"])
	}
}

func TestDocsServesGeneratedPages(t *testing.T) {
	s, _ := newTestServer(t, true)

	rec := get(t, s, "/docs/pkg/flow.html")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `id="step-1-1"`) {
		t.Error("expected step anchor in served page")
	}

	if rec := get(t, s, "/docs/_modules/pkg/flow.html"); rec.Code != http.StatusOK {
		t.Errorf("expected source page, got %d", rec.Code)
	}
	if rec := get(t, s, "/docs/missing.html"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

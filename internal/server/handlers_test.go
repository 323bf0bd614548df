package server

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/knn/internal/config"
	"github.com/hyperjump/knn/internal/index"
	"github.com/hyperjump/knn/internal/models"
	"github.com/hyperjump/knn/internal/service"
	"github.com/hyperjump/knn/internal/storage"
)

type mockIngestService struct {
	dirs []string
}

func (m *mockIngestService) Directories() []string {
	return append([]string(nil), m.dirs...)
}

func (m *mockIngestService) AddDirectory(path string, _ bool) error {
	for _, d := range m.dirs {
		if d == path {
			return nil
		}
	}
	m.dirs = append(m.dirs, path)
	return nil
}

func (m *mockIngestService) RemoveDirectory(path string) error {
	for i, d := range m.dirs {
		if d == path {
			m.dirs = append(m.dirs[:i], m.dirs[i+1:]...)
			return nil
		}
	}
	return nil
}

func newTestServer(t *testing.T, ingest IngestService, configPath string) (*Server, http.Handler) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Storage.DatabasePath = filepath.Join(dir, "vectors.db")
	cfg.Index.Dimensions = 2
	cfg.Index.Seed = 5

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	searcher, err := index.New(index.Options{
		Type:        cfg.Index.Type,
		Dimensions:  cfg.Index.Dimensions,
		Distance:    cfg.Index.Distance,
		Projections: cfg.Index.Projections,
		SearchSize:  cfg.Index.SearchSize,
		Seed:        cfg.Index.Seed,
	})
	if err != nil {
		t.Fatal(err)
	}
	engine := service.NewEngine(store, searcher, &cfg.Search, zap.NewNop())
	srv := NewServer(engine, cfg, zap.NewNop(), ingest, configPath)
	return srv, srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestHandleAddAndGetVector(t *testing.T) {
	_, h := newTestServer(t, nil, "")

	w := do(t, h, http.MethodPost, "/api/v1/vectors", `{"id":"p1","label":"first","vector":[1,2]}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("add: status %d body %s", w.Code, w.Body.String())
	}
	var added struct {
		ID      string `json:"id"`
		Ordinal int    `json:"ordinal"`
	}
	if err := json.NewDecoder(w.Body).Decode(&added); err != nil {
		t.Fatal(err)
	}
	if added.ID != "p1" || added.Ordinal != 0 {
		t.Errorf("add response: %+v", added)
	}

	w = do(t, h, http.MethodGet, "/api/v1/vectors/p1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get: status %d", w.Code)
	}
	var item models.Item
	if err := json.NewDecoder(w.Body).Decode(&item); err != nil {
		t.Fatal(err)
	}
	if item.Label != "first" || len(item.Vector) != 2 {
		t.Errorf("get item: %+v", item)
	}

	if w := do(t, h, http.MethodGet, "/api/v1/vectors/missing", ""); w.Code != http.StatusNotFound {
		t.Errorf("missing item: status %d", w.Code)
	}
	if w := do(t, h, http.MethodPost, "/api/v1/vectors", `{"id":"p1","vector":[3,4]}`); w.Code != http.StatusConflict {
		t.Errorf("duplicate id: status %d", w.Code)
	}
	if w := do(t, h, http.MethodPost, "/api/v1/vectors", `{"vector":[1,2,3]}`); w.Code != http.StatusBadRequest {
		t.Errorf("dimension mismatch: status %d", w.Code)
	}
	if w := do(t, h, http.MethodPost, "/api/v1/vectors", `{not json`); w.Code != http.StatusBadRequest {
		t.Errorf("bad body: status %d", w.Code)
	}
}

func TestHandleSearch(t *testing.T) {
	_, h := newTestServer(t, nil, "")
	for _, body := range []string{
		`{"id":"o","vector":[0,0]}`,
		`{"id":"e","vector":[1,0]}`,
		`{"id":"n","vector":[0,1]}`,
	} {
		if w := do(t, h, http.MethodPost, "/api/v1/vectors", body); w.Code != http.StatusCreated {
			t.Fatalf("add %s: status %d", body, w.Code)
		}
	}

	w := do(t, h, http.MethodPost, "/api/v1/search", `{"vector":[0.1,0.1],"limit":3}`)
	if w.Code != http.StatusOK {
		t.Fatalf("search: status %d body %s", w.Code, w.Body.String())
	}
	var resp models.SearchResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 3 || resp.Results[0].Item.ID != "o" || resp.Results[0].Rank != 1 {
		t.Errorf("search response: %+v", resp)
	}

	if w := do(t, h, http.MethodPost, "/api/v1/search", `{"vector":[1]}`); w.Code != http.StatusBadRequest {
		t.Errorf("dimension mismatch: status %d", w.Code)
	}
	if w := do(t, h, http.MethodPost, "/api/v1/search", `{"vector":[]}`); w.Code != http.StatusBadRequest {
		t.Errorf("empty vector: status %d", w.Code)
	}
}

func TestHandleSetSearchSize(t *testing.T) {
	_, h := newTestServer(t, nil, "")
	if w := do(t, h, http.MethodPut, "/api/v1/search-size", `{"search_size":4}`); w.Code != http.StatusOK {
		t.Fatalf("set: status %d", w.Code)
	}
	if w := do(t, h, http.MethodPut, "/api/v1/search-size", `{"search_size":-1}`); w.Code != http.StatusBadRequest {
		t.Errorf("negative: status %d", w.Code)
	}
	if w := do(t, h, http.MethodPut, "/api/v1/search-size", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing: status %d", w.Code)
	}

	w := do(t, h, http.MethodGet, "/api/v1/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	var status struct {
		Index service.Stats `json:"index"`
	}
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status.Index.SearchSize != 4 || status.Index.Type != "projection" || status.Index.Dimension != 2 {
		t.Errorf("status index: %+v", status.Index)
	}
}

func TestHandleHealth(t *testing.T) {
	_, h := newTestServer(t, nil, "")
	w := do(t, h, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("health: %d %s", w.Code, w.Body.String())
	}
}

func TestHandleIngestDirectories(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	mock := &mockIngestService{dirs: []string{"/tmp/datasets"}}
	_, h := newTestServer(t, mock, configPath)

	w := do(t, h, http.MethodGet, "/api/v1/ingest/directories", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list: status %d", w.Code)
	}
	var out struct {
		Directories []string `json:"directories"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Directories) != 1 || out.Directories[0] != "/tmp/datasets" {
		t.Errorf("directories: %v", out.Directories)
	}

	dir := t.TempDir()
	body, _ := json.Marshal(map[string]interface{}{"path": dir, "sync": false})
	if w := do(t, h, http.MethodPost, "/api/v1/ingest/directories", string(body)); w.Code != http.StatusCreated {
		t.Fatalf("add: status %d body %s", w.Code, w.Body.String())
	}
	if len(mock.dirs) != 2 {
		t.Errorf("mock dirs after add: %v", mock.dirs)
	}
	saved, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("config should be persisted: %v", err)
	}
	if len(saved.Ingest.Directories) != 2 {
		t.Errorf("persisted directories: %v", saved.Ingest.Directories)
	}

	file := filepath.Join(dir, "f.jsonl")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	fileBody, _ := json.Marshal(map[string]string{"path": file})
	if w := do(t, h, http.MethodPost, "/api/v1/ingest/directories", string(fileBody)); w.Code != http.StatusBadRequest {
		t.Errorf("file path: status %d", w.Code)
	}
	missing, _ := json.Marshal(map[string]string{"path": filepath.Join(dir, "nope")})
	if w := do(t, h, http.MethodPost, "/api/v1/ingest/directories", string(missing)); w.Code != http.StatusNotFound {
		t.Errorf("missing dir: status %d", w.Code)
	}

	if w := do(t, h, http.MethodDelete, "/api/v1/ingest/directories?path="+dir, ""); w.Code != http.StatusOK {
		t.Errorf("remove: status %d", w.Code)
	}
	if len(mock.dirs) != 1 {
		t.Errorf("mock dirs after remove: %v", mock.dirs)
	}
	if w := do(t, h, http.MethodDelete, "/api/v1/ingest/directories", ""); w.Code != http.StatusBadRequest {
		t.Errorf("remove without path: status %d", w.Code)
	}
}

func TestHandleIngestDirectories_Disabled(t *testing.T) {
	_, h := newTestServer(t, nil, "")
	if w := do(t, h, http.MethodGet, "/api/v1/ingest/directories", ""); w.Code != http.StatusNotImplemented {
		t.Errorf("status %d, want 501", w.Code)
	}
}

func TestRespondJSON_EncodeFailure(t *testing.T) {
	srv, _ := newTestServer(t, nil, "")
	w := httptest.NewRecorder()
	srv.respondJSON(w, http.StatusOK, map[string]float64{"distance": math.NaN()})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("error body is not JSON: %v", err)
	}
	if body["error"] == "" {
		t.Errorf("missing error message: %v", body)
	}
}

func TestHandleAddVector_NonFiniteRejected(t *testing.T) {
	_, h := newTestServer(t, nil, "")
	// JSON has no NaN literal; out-of-range numbers are rejected while decoding
	w := do(t, h, http.MethodPost, "/api/v1/vectors", `{"id":"x","vector":[1e999,0]}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status %d, want 400", w.Code)
	}
	w = do(t, h, http.MethodPost, "/api/v1/search", `{"vector":[0,0],"limit":1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("search: status %d body %s", w.Code, w.Body.String())
	}
}

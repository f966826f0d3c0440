package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/suisen/internal/config"
	"github.com/hyperjump/suisen/internal/models"
	"github.com/hyperjump/suisen/internal/recommend"
	"github.com/hyperjump/suisen/internal/search"
	"github.com/hyperjump/suisen/internal/storage"
)

func catalogDocs() []models.AssessmentDocument {
	return []models.AssessmentDocument{
		{ID: "a", Name: "Java Programming Test", Description: "java programming test", URL: "https://x/view/a/", TestType: []string{"K"}},
		{ID: "b", Name: "Selenium Automation Test", Description: "selenium automation test", URL: "https://x/view/b/", TestType: []string{"A"}},
		{ID: "c", Name: "Leadership Personality Assessment", Description: "leadership personality assessment", URL: "https://x/view/c/", TestType: []string{"P"}},
	}
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Storage.DatabasePath = ""
	cfg.Storage.CatalogPath = ""
	return cfg
}

// newTestServer returns a server backed by a sqlite store seeded with catalogDocs.
func newTestServer(t *testing.T, load bool) *Server {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()
	if err := store.ReplaceAssessments(ctx, catalogDocs()); err != nil {
		t.Fatal(err)
	}
	if err := store.ReplaceTraining(ctx, []models.TrainingAssociation{{Query: "team leader", Assessment: "c"}}); err != nil {
		t.Fatal(err)
	}
	engine := search.NewEngine(store, search.WithTopKLimits(10, 10))
	if load {
		if err := engine.Reload(ctx); err != nil {
			t.Fatalf("Reload: %v", err)
		}
	}
	return NewServer(engine, store, testConfig(), nil)
}

func do(t *testing.T, h http.Handler, method, target string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestHandleRecommend(t *testing.T) {
	h := newTestServer(t, true).Handler()
	tests := []struct {
		name      string
		path      string
		body      string
		wantCode  int
		wantCount int
	}{
		{"default top_k", "/recommend", `{"query":"Java developer"}`, http.StatusOK, 3},
		{"top_k 2", "/recommend", `{"query":"Java developer","top_k":2}`, http.StatusOK, 2},
		{"versioned route", "/api/v1/recommend", `{"query":"Java developer","top_k":1}`, http.StatusOK, 1},
		{"missing query", "/recommend", `{"top_k":2}`, http.StatusBadRequest, 0},
		{"whitespace query", "/recommend", `{"query":"   "}`, http.StatusBadRequest, 0},
		{"punctuation only", "/recommend", `{"query":"!!! ???"}`, http.StatusBadRequest, 0},
		{"top_k zero", "/recommend", `{"query":"java","top_k":0}`, http.StatusBadRequest, 0},
		{"top_k above max", "/recommend", `{"query":"java","top_k":11}`, http.StatusBadRequest, 0},
		{"top_k not integer", "/recommend", `{"query":"java","top_k":"5"}`, http.StatusBadRequest, 0},
		{"bad json", "/recommend", `{`, http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, tt.path, []byte(tt.body), "application/json")
			if w.Code != tt.wantCode {
				t.Fatalf("status: got %d, want %d (%s)", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				var out map[string]string
				decode(t, w, &out)
				if out["error"] == "" {
					t.Error("expected error message")
				}
				return
			}
			var resp models.RecommendResponse
			decode(t, w, &resp)
			if resp.Count != tt.wantCount || len(resp.Recommendations) != tt.wantCount {
				t.Errorf("count: got %d/%d, want %d", resp.Count, len(resp.Recommendations), tt.wantCount)
			}
			if resp.Recommendations[0].ID != "a" || resp.Recommendations[0].Rank != 1 {
				t.Errorf("first: got %+v", resp.Recommendations[0])
			}
			if resp.RequestID == "" {
				t.Error("missing request id")
			}
		})
	}
}

func TestHandleRecommend_NotReady(t *testing.T) {
	h := newTestServer(t, false).Handler()
	w := do(t, h, http.MethodPost, "/recommend", []byte(`{"query":"java"}`), "application/json")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("recommend: got %d, want 503", w.Code)
	}
	w = do(t, h, http.MethodGet, "/health", nil, "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("health: got %d, want 503", w.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	w := do(t, newTestServer(t, true).Handler(), http.MethodGet, "/health", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Status           string `json:"status"`
		TotalAssessments int    `json:"total_assessments"`
	}
	decode(t, w, &out)
	if out.Status != "healthy" || out.TotalAssessments != 3 {
		t.Errorf("got %+v", out)
	}
}

func TestHandleInfoAndSample(t *testing.T) {
	h := newTestServer(t, true).Handler()
	w := do(t, h, http.MethodGet, "/", nil, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "operational") {
		t.Errorf("info: %d %s", w.Code, w.Body.String())
	}
	w = do(t, h, http.MethodGet, "/test", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("sample: got %d", w.Code)
	}
	var out struct {
		Count int `json:"count"`
	}
	decode(t, w, &out)
	if out.Count != 3 {
		t.Errorf("sample count: got %d, want 3", out.Count)
	}
}

func multipartBody(t *testing.T, filename, content, topK string) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = fw.Write([]byte(content))
	}
	if topK != "" {
		_ = mw.WriteField("top_k", topK)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes(), mw.FormDataContentType()
}

func TestHandleRecommendFile(t *testing.T) {
	h := newTestServer(t, true).Handler()
	tests := []struct {
		name      string
		filename  string
		content   string
		topK      string
		wantCode  int
		wantCount int
	}{
		{"text upload", "jd.txt", "We need a Java developer.\n\nStrong programming skills.", "2", http.StatusOK, 2},
		{"default top_k", "jd.md", "selenium automation", "", http.StatusOK, 3},
		{"missing file", "", "", "2", http.StatusBadRequest, 0},
		{"bad top_k", "jd.txt", "java", "zero", http.StatusBadRequest, 0},
		{"empty document", "jd.txt", "  \n ", "", http.StatusBadRequest, 0},
		{"corrupt docx", "jd.docx", "not a zip", "", http.StatusUnprocessableEntity, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, tt.filename, tt.content, tt.topK)
			w := do(t, h, http.MethodPost, "/api/v1/recommend/file", body, ct)
			if w.Code != tt.wantCode {
				t.Fatalf("status: got %d, want %d (%s)", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantCode == http.StatusOK {
				var resp models.RecommendResponse
				decode(t, w, &resp)
				if resp.Count != tt.wantCount {
					t.Errorf("count: got %d, want %d", resp.Count, tt.wantCount)
				}
			}
		})
	}
}

func TestHandleListAssessments(t *testing.T) {
	h := newTestServer(t, true).Handler()
	tests := []struct {
		name     string
		target   string
		wantCode int
		wantIDs  []string
	}{
		{"keyword", "/api/v1/assessments?q=java", http.StatusOK, []string{"a"}},
		{"type filter", "/api/v1/assessments?type=p", http.StatusOK, []string{"c"}},
		{"list all with limit", "/api/v1/assessments?limit=2", http.StatusOK, []string{"a", "b"}},
		{"fuzzy", "/api/v1/assessments?q=selenum&fuzzy=true", http.StatusOK, []string{"b"}},
		{"bad limit", "/api/v1/assessments?limit=abc", http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodGet, tt.target, nil, "")
			if w.Code != tt.wantCode {
				t.Fatalf("status: got %d, want %d", w.Code, tt.wantCode)
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var out struct {
				Assessments []models.AssessmentDocument `json:"assessments"`
				Count       int                         `json:"count"`
			}
			decode(t, w, &out)
			var ids []string
			for _, d := range out.Assessments {
				ids = append(ids, d.ID)
			}
			if fmt.Sprint(ids) != fmt.Sprint(tt.wantIDs) || out.Count != len(tt.wantIDs) {
				t.Errorf("ids: got %v, want %v", ids, tt.wantIDs)
			}
		})
	}
}

func TestHandleGetAssessment(t *testing.T) {
	h := newTestServer(t, true).Handler()
	w := do(t, h, http.MethodGet, "/api/v1/assessments/b", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var doc models.AssessmentDocument
	decode(t, w, &doc)
	if doc.Name != "Selenium Automation Test" {
		t.Errorf("name: got %q", doc.Name)
	}
	w = do(t, h, http.MethodGet, "/api/v1/assessments/missing", nil, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing: got %d, want 404", w.Code)
	}
}

func TestHandleStatusAndReindex(t *testing.T) {
	h := newTestServer(t, true).Handler()
	w := do(t, h, http.MethodGet, "/api/v1/status", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var status struct {
		Ready             bool   `json:"ready"`
		Version           uint64 `json:"version"`
		StoredAssessments int64  `json:"stored_assessments"`
		StoredTraining    int64  `json:"stored_training_rows"`
		Stats             struct {
			Documents       int `json:"documents"`
			MatchedTraining int `json:"matched_training"`
		} `json:"stats"`
	}
	decode(t, w, &status)
	if !status.Ready || status.Version != 1 || status.StoredAssessments != 3 || status.StoredTraining != 1 {
		t.Errorf("status: got %+v", status)
	}
	if status.Stats.Documents != 3 || status.Stats.MatchedTraining != 1 {
		t.Errorf("stats: got %+v", status.Stats)
	}

	w = do(t, h, http.MethodPost, "/api/v1/reindex", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("reindex: got %d (%s)", w.Code, w.Body.String())
	}
	var out struct {
		Version   uint64 `json:"version"`
		Documents int    `json:"documents"`
	}
	decode(t, w, &out)
	if out.Version != 2 || out.Documents != 3 {
		t.Errorf("reindex: got %+v", out)
	}
}

func TestHandleMetrics(t *testing.T) {
	w := do(t, newTestServer(t, true).Handler(), http.MethodGet, "/metrics", nil, "")
	if w.Code != http.StatusOK {
		t.Errorf("metrics: got %d", w.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: query cannot be empty", search.ErrInvalidRequest), http.StatusBadRequest},
		{recommend.ErrEmptyQuery, http.StatusBadRequest},
		{recommend.ErrInvalidTopK, http.StatusBadRequest},
		{fmt.Errorf("assessment %q: %w", "x", search.ErrNotFound), http.StatusNotFound},
		{recommend.ErrNotFitted, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

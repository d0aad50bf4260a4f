package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/pagekit/internal/config"
	"github.com/dgallion1/pagekit/internal/enhance"
	"github.com/dgallion1/pagekit/internal/outline"
	"github.com/dgallion1/pagekit/internal/page"
	"github.com/dgallion1/pagekit/internal/parser"
	"github.com/dgallion1/pagekit/internal/pipeline"
	"github.com/google/go-cmp/cmp"
)

const testKey = "secret"

const article = `<html><body><div class="article-content">
<p><a href="https://example.org/x">elsewhere</a></p>
<h2>Intro</h2><h3>Background</h3><h2>Method</h2><h3>Results</h3>
</div></body></html>`

func newTestServer(t *testing.T, mods ...func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Config{
		PagekitAPIKey:   testKey,
		SiteHost:        "aitoolshub.github.io",
		ContentSelector: ".article-content",
		WorkerCount:     1,
		MaxQueueSize:    4,
		MaxUploadBytes:  1 << 20,
		JobTTL:          time.Hour,
	}
	for _, mod := range mods {
		mod(&cfg)
	}
	log := slog.New(slog.DiscardHandler)
	opts := enhance.DefaultOptions()
	opts.SiteHost = cfg.SiteHost
	enh := enhance.New(opts, log)

	conv := pipeline.NewConverter(enh, parser.Options{ContentSelector: cfg.ContentSelector},
		page.SiteInfo{Title: "AI Tools Hub", Host: cfg.SiteHost})
	orch := pipeline.NewOrchestrator(conv, cfg.WorkerCount, cfg.MaxQueueSize, cfg.JobTTL, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)

	return NewServer(orch, enh, log, cfg)
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+testKey)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func multipartBody(t *testing.T, field string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := mw.CreateFormFile(field, name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write([]byte(content))
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestHealth_NoAuth(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("unexpected health response %d %s", rec.Code, rec.Body)
	}
}

func TestAuth(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"wrong key", "Bearer nope", http.StatusUnauthorized},
		{"ok", "Bearer " + testKey, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestEnhance(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/enhance", strings.NewReader(article)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get("X-Pagekit-Outline-Entries"); got != "4" {
		t.Errorf("outline entries header = %q", got)
	}
	if got := rec.Header().Get("X-Pagekit-External-Links"); got != "1" {
		t.Errorf("external links header = %q", got)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `class="toc-container"`) || !strings.Contains(body, `id="heading-3"`) {
		t.Errorf("expected outline in body:\n%s", body)
	}
}

func TestEnhance_Cache(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.EnhanceCacheSize = 8 })

	var bodies []string
	for _, want := range []string{"miss", "hit"} {
		rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/enhance", strings.NewReader(article)))
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d: %s", rec.Code, rec.Body)
		}
		if got := rec.Header().Get("X-Pagekit-Cache"); got != want {
			t.Errorf("cache header = %q, want %q", got, want)
		}
		bodies = append(bodies, rec.Body.String())
	}
	if bodies[0] != bodies[1] {
		t.Error("cached page differs from the first response")
	}

	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/enhance", strings.NewReader(article+" ")))
	if got := rec.Header().Get("X-Pagekit-Cache"); got != "miss" {
		t.Errorf("changed body should miss, got %q", got)
	}
}

func TestEnhance_NoCacheHeaderWhenDisabled(t *testing.T) {
	rec := do(t, newTestServer(t), httptest.NewRequest(http.MethodPost, "/api/enhance", strings.NewReader(article)))
	if got := rec.Header().Get("X-Pagekit-Cache"); got != "" {
		t.Errorf("unexpected cache header %q", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.CORSOrigins = []string{"https://aitoolshub.github.io"} })

	req := httptest.NewRequest(http.MethodOptions, "/api/enhance", nil)
	req.Header.Set("Origin", "https://aitoolshub.github.io")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("preflight status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://aitoolshub.github.io" {
		t.Errorf("allow origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/enhance", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unlisted origin allowed: %q", got)
	}
}

func TestEnhance_EmptyBody(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/enhance", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestOutline(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/outline", strings.NewReader(article)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	var resp struct {
		Entries []outline.Entry `json:"entries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []outline.Entry{
		{ID: "heading-0", Label: "Intro", Level: outline.Section},
		{ID: "heading-1", Label: "Background", Level: outline.Subsection},
		{ID: "heading-2", Label: "Method", Level: outline.Section},
		{ID: "heading-3", Label: "Results", Level: outline.Subsection},
	}
	if diff := cmp.Diff(want, resp.Entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestOutline_ShortArticleIsEmptyList(t *testing.T) {
	s := newTestServer(t)
	src := `<div class="article-content"><h2>Intro</h2><h2>Conclusion</h2></div>`
	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/outline", strings.NewReader(src)))
	if strings.TrimSpace(rec.Body.String()) != `{"entries":[]}` {
		t.Errorf("unexpected body %s", rec.Body)
	}
}

func TestConvert(t *testing.T) {
	s := newTestServer(t)
	body, ct := multipartBody(t, "file", map[string]string{
		"guide.md": "# Guide\n\n## One\n\n## Two\n\n### Three\n",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/convert", body)
	req.Header.Set("Content-Type", ct)
	rec := do(t, s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "guide.html") {
		t.Errorf("unexpected disposition %q", rec.Header().Get("Content-Disposition"))
	}
	if !strings.Contains(rec.Body.String(), `<h3 id="heading-2">Three</h3>`) {
		t.Errorf("expected enhanced page:\n%s", rec.Body)
	}
}

func TestConvert_UnsupportedType(t *testing.T) {
	s := newTestServer(t)
	body, ct := multipartBody(t, "file", map[string]string{"sheet.xlsx": "x"})
	req := httptest.NewRequest(http.MethodPost, "/api/convert", body)
	req.Header.Set("Content-Type", ct)
	if rec := do(t, s, req); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestJobs_Lifecycle(t *testing.T) {
	s := newTestServer(t)
	body, ct := multipartBody(t, "files", map[string]string{
		"notes.txt":  "first\n\nsecond",
		"sheet.xlsx": "x",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/jobs", body)
	req.Header.Set("Content-Type", ct)
	rec := do(t, s, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	var submitted struct {
		JobID    string              `json:"job_id"`
		Files    int                 `json:"files"`
		Rejected []map[string]string `json:"rejected"`
		PollURL  string              `json:"poll_url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &submitted); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if submitted.Files != 1 || len(submitted.Rejected) != 1 {
		t.Errorf("unexpected submit response %+v", submitted)
	}

	var snap pipeline.JobSnapshot
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec = do(t, s, httptest.NewRequest(http.MethodGet, submitted.PollURL, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d: %s", rec.Code, rec.Body)
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if snap.Status == pipeline.StatusCompleted || snap.Status == pipeline.StatusFailed {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if snap.Status != pipeline.StatusCompleted {
		t.Fatalf("expected completed, got %+v", snap)
	}

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/jobs/"+submitted.JobID+"/files/notes.html", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "<p>second</p>") {
		t.Errorf("unexpected file response %d:\n%s", rec.Code, rec.Body)
	}
	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/jobs/"+submitted.JobID+"/files/missing.html", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}

	rec = do(t, s, httptest.NewRequest(http.MethodDelete, "/api/jobs/"+submitted.JobID, nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	rec = do(t, s, httptest.NewRequest(http.MethodGet, submitted.PollURL, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status after delete = %d, want 404", rec.Code)
	}
}

func TestJobs_NoFiles(t *testing.T) {
	s := newTestServer(t)
	body, ct := multipartBody(t, "files", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/jobs", body)
	req.Header.Set("Content-Type", ct)
	if rec := do(t, s, req); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestStats(t *testing.T) {
	s := newTestServer(t)
	body, ct := multipartBody(t, "file", map[string]string{"notes.txt": "hello"})
	req := httptest.NewRequest(http.MethodPost, "/api/convert", body)
	req.Header.Set("Content-Type", ct)
	do(t, s, req)

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	var resp struct {
		QueueDepth  int                    `json:"queue_depth"`
		Conversions pipeline.StatsSnapshot `json:"conversions"`
		Page        struct {
			Selector    string `json:"selector"`
			MinHeadings int    `json:"min_headings"`
		} `json:"page"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Page.Selector != ".article-content" || resp.Page.MinHeadings != 3 {
		t.Errorf("unexpected stats %+v", resp)
	}
	if resp.Conversions.Count != 1 || resp.Conversions.ByFormat["txt"] != 1 {
		t.Errorf("unexpected conversions %+v", resp.Conversions)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"guide.md":            "guide.md",
		"../../etc/passwd.md": "passwd.md",
		`C:\docs\post.html`:   "post.html",
		"a..b.txt":            "a_b.txt",
		"":                    "unnamed",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

package endpoints

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/jackzampolin/layerscope/internal/config"
	"github.com/jackzampolin/layerscope/internal/docapi"
	"github.com/jackzampolin/layerscope/internal/home"
	"github.com/jackzampolin/layerscope/internal/sessions"
	"github.com/jackzampolin/layerscope/internal/svcctx"
	"github.com/jackzampolin/layerscope/internal/testutil"
	"github.com/jackzampolin/layerscope/internal/viewer"
	"github.com/jackzampolin/layerscope/version"
)

type testEnv struct {
	backend  *testutil.FakeBackend
	services *svcctx.Services
	handler  http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	fb := testutil.NewFakeBackend(t)
	fb.AddDocument(docapi.Document{ID: "d1", Name: "Annual Report.pdf", Status: docapi.StatusComplete, SizeInBytes: 2048, PageCount: 3})
	fb.AddDocument(docapi.Document{ID: "d2", Name: "notes.pdf", Status: docapi.StatusFailed, Error: "bad xref"})

	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := h.EnsureExists(); err != nil {
		t.Fatal(err)
	}

	logger := testutil.DiscardLogger()
	svcs := &svcctx.Services{
		Backend:  docapi.NewHolder(fb.Client()),
		Sessions: sessions.NewManager(sessions.Config{Logger: logger}),
		Logger:   logger,
		Home:     h,
	}

	mux := http.NewServeMux()
	reg := Registry(Config{SwaggerSpecPath: filepath.Join(t.TempDir(), "missing.json")})
	reg.RegisterRoutes(mux, func(next http.HandlerFunc) http.HandlerFunc { return next })

	return &testEnv{
		backend:  fb,
		services: svcs,
		handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mux.ServeHTTP(w, r.WithContext(svcctx.WithServices(r.Context(), svcs)))
		}),
	}
}

// do sends a request with an optional JSON body.
func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decodeBody[HealthResponse](t, rec); got.Status != "ok" {
		t.Errorf("Status = %q", got.Status)
	}
}

func TestReady(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/ready", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if got := decodeBody[HealthResponse](t, rec); got.Backend != "ok" {
		t.Errorf("Backend = %q", got.Backend)
	}

	env.services.Backend.Store(nil)
	rec = env.do(t, "GET", "/ready", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if got := decodeBody[HealthResponse](t, rec); got.Backend != "not_configured" {
		t.Errorf("Backend = %q", got.Backend)
	}
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/api/version", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decodeBody[VersionResponse](t, rec)
	if got.Backend != "1.2.0" {
		t.Errorf("Backend = %q", got.Backend)
	}
	if got.BaseURL != env.backend.BaseURL() {
		t.Errorf("BaseURL = %q", got.BaseURL)
	}

	env.backend.SetVersion("")
	got = decodeBody[VersionResponse](t, env.do(t, "GET", "/api/version", nil))
	if got.Backend != "Beta" {
		t.Errorf("Backend = %q, want Beta", got.Backend)
	}
}

func TestListDocuments(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		path    string
		wantIDs []string
	}{
		{"all", "/api/documents", []string{"d1", "d2"}},
		{"search is case-insensitive", "/api/documents?search=ANNUAL", []string{"d1"}},
		{"status", "/api/documents?status=failed", []string{"d2"}},
		{"status all", "/api/documents?status=all", []string{"d1", "d2"}},
		{"limit", "/api/documents?limit=1", []string{"d1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, "GET", tt.path, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
			}
			resp := decodeBody[ListDocumentsResponse](t, rec)
			var ids []string
			for _, d := range resp.Documents {
				ids = append(ids, d.ID)
			}
			if strings.Join(ids, ",") != strings.Join(tt.wantIDs, ",") {
				t.Errorf("ids = %v, want %v", ids, tt.wantIDs)
			}
			if resp.Total != len(tt.wantIDs) {
				t.Errorf("Total = %d", resp.Total)
			}
		})
	}

	t.Run("size is formatted", func(t *testing.T) {
		resp := decodeBody[ListDocumentsResponse](t, env.do(t, "GET", "/api/documents?search=annual", nil))
		if resp.Documents[0].Size != "2.0 KB" {
			t.Errorf("Size = %q", resp.Documents[0].Size)
		}
	})

	t.Run("status all is not forwarded", func(t *testing.T) {
		env.do(t, "GET", "/api/documents?status=all", nil)
		if q := env.backend.LastListQuery(); q.Has("status") || q.Get("limit") != "20" {
			t.Errorf("backend query = %v", q)
		}
	})

	t.Run("bad limit", func(t *testing.T) {
		if rec := env.do(t, "GET", "/api/documents?limit=abc", nil); rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestGetDocument(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/api/documents/d1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if doc := decodeBody[docapi.Document](t, rec); doc.Name != "Annual Report.pdf" {
		t.Errorf("Name = %q", doc.Name)
	}

	rec = env.do(t, "GET", "/api/documents/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data)
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func (e *testEnv) upload(t *testing.T, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, "file", filename, data)
	req := httptest.NewRequest("POST", "/api/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func stagedFiles(t *testing.T, h *home.Dir) int {
	t.Helper()
	entries, err := os.ReadDir(h.UploadsPath())
	if err != nil {
		t.Fatal(err)
	}
	return len(entries)
}

func TestUploadDocument(t *testing.T) {
	env := newTestEnv(t)

	rec := env.upload(t, "scan.pdf", testutil.BuildPDF([2]int{612, 792}, [2]int{612, 792}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	resp := decodeBody[UploadResponse](t, rec)
	if resp.Document.DocumentID != "up1" || resp.Document.Status != docapi.StatusProcessing {
		t.Errorf("Document = %+v", resp.Document)
	}
	if resp.Preflight == nil || resp.Preflight.PageCount != 2 {
		t.Errorf("Preflight = %+v", resp.Preflight)
	}
	if got := env.backend.Uploads(); len(got) != 1 || got[0] != "scan.pdf" {
		t.Errorf("backend uploads = %v", got)
	}
	if n := stagedFiles(t, env.services.Home); n != 0 {
		t.Errorf("%d staged files left behind", n)
	}
}

func TestUploadDocument_Rejects(t *testing.T) {
	env := newTestEnv(t)

	t.Run("not a pdf", func(t *testing.T) {
		rec := env.upload(t, "notes.txt", []byte("just text"))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "not a PDF") {
			t.Errorf("body = %s", rec.Body)
		}
	})

	t.Run("missing file field", func(t *testing.T) {
		body, contentType := multipartBody(t, "other", "a.pdf", testutil.BuildPDF([2]int{612, 792}))
		req := httptest.NewRequest("POST", "/api/documents", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("not multipart", func(t *testing.T) {
		if rec := env.do(t, "POST", "/api/documents", map[string]string{"a": "b"}); rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("too large", func(t *testing.T) {
		cfgPath := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(cfgPath, []byte("upload:\n  max_bytes: 64\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		cm, err := config.NewManager(cfgPath)
		if err != nil {
			t.Fatal(err)
		}
		env.services.Config = cm
		defer func() { env.services.Config = nil }()

		rec := env.upload(t, "big.pdf", testutil.BuildPDF([2]int{612, 792}))
		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("status = %d, want 413, body %s", rec.Code, rec.Body)
		}
	})

	if got := env.backend.Uploads(); len(got) != 0 {
		t.Errorf("rejected uploads reached the backend: %v", got)
	}
	if n := stagedFiles(t, env.services.Home); n != 0 {
		t.Errorf("%d staged files left behind", n)
	}
}

func TestSettings(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/api/settings", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeBody[SettingsResponse](t, rec)
	if len(resp.Settings) != len(config.DefaultEntries()) {
		t.Errorf("got %d settings, want %d", len(resp.Settings), len(config.DefaultEntries()))
	}

	tests := []struct {
		name      string
		path      string
		wantCode  int
		wantValue any
	}{
		{"known key", "/api/settings/viewer.marker_size", http.StatusOK, float64(20)},
		{"env reference is shown", "/api/settings/backend.token", http.StatusOK, "${LAYERSCOPE_TOKEN}"},
		{"unknown key", "/api/settings/viewer.nope", http.StatusNotFound, nil},
		{"invalid key", "/api/settings/bad%20key", http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, "GET", tt.path, nil)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantCode, rec.Body)
			}
			if tt.wantValue == nil {
				return
			}
			if entry := decodeBody[config.Entry](t, rec); entry.Value != tt.wantValue {
				t.Errorf("Value = %v, want %v", entry.Value, tt.wantValue)
			}
		})
	}
}

func TestRedacted(t *testing.T) {
	tests := []struct {
		entry config.Entry
		want  any
	}{
		{config.Entry{Key: "backend.token", Value: "s3cret"}, "********"},
		{config.Entry{Key: "backend.token", Value: "${LAYERSCOPE_TOKEN}"}, "${LAYERSCOPE_TOKEN}"},
		{config.Entry{Key: "backend.token", Value: ""}, ""},
		{config.Entry{Key: "backend.base_url", Value: "http://x"}, "http://x"},
	}
	for _, tt := range tests {
		if got := redacted(tt.entry).Value; got != tt.want {
			t.Errorf("redacted(%v) = %v, want %v", tt.entry, got, tt.want)
		}
	}
}

func TestSwagger_MissingSpec(t *testing.T) {
	env := newTestEnv(t)
	if rec := env.do(t, "GET", "/swagger.json", nil); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	rec := env.do(t, "GET", "/swagger", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "swagger-ui") {
		t.Errorf("swagger UI: %d %s", rec.Code, rec.Body)
	}
}

func TestSwagger_RewritesHost(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swagger.json")
	doc := `{"swagger":"2.0","host":"localhost:8080","info":{"title":"layerscope API","version":"1.0"}}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	mux := http.NewServeMux()
	_, pattern, h := (&SwaggerEndpoint{SpecPath: path}).Route()
	mux.HandleFunc("GET "+pattern, h)

	req := httptest.NewRequest("GET", "/swagger.json", nil)
	req.Host = "127.0.0.1:9999"
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	got := decodeBody[map[string]any](t, rec)
	if got["host"] != "127.0.0.1:9999" {
		t.Errorf("host = %v", got["host"])
	}
	info, _ := got["info"].(map[string]any)
	if info["version"] != version.GitRelease || info["title"] != "layerscope API" {
		t.Errorf("info = %v", info)
	}
}

func TestStatic(t *testing.T) {
	ep := &StaticEndpoint{FS: fstest.MapFS{
		"index.html": {Data: []byte("<html>viewer</html>")},
		"app.js":     {Data: []byte("console.log(1)")},
	}}
	_, _, handler := ep.Route()

	tests := []struct {
		path     string
		wantCode int
		wantBody string
	}{
		{"/", http.StatusOK, "viewer"},
		{"/app.js", http.StatusOK, "console.log"},
		{"/documents/d1", http.StatusOK, "viewer"},
		{"/api/unknown", http.StatusNotFound, "no such endpoint"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler(rec, httptest.NewRequest("GET", tt.path, nil))
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %q", rec.Body)
			}
		})
	}
}

func TestBackendStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{viewer.ErrStaleResponse, http.StatusConflict},
		{fmt.Errorf("load: %w", docapi.ErrNotFound), http.StatusNotFound},
		{sessions.ErrNotFound, http.StatusNotFound},
		{docapi.ErrAuthRequired, http.StatusUnauthorized},
		{&docapi.APIError{StatusCode: 422, Message: "bad"}, 422},
		{&docapi.APIError{StatusCode: 500}, http.StatusBadGateway},
		{errors.New("connection refused"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		if got := backendStatus(tt.err); got != tt.want {
			t.Errorf("backendStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestRegistry_BuildCommands(t *testing.T) {
	root := Registry(Config{}).BuildCommands(func() string { return "http://localhost:8080" })

	find := func(path ...string) bool {
		cmd, rest, err := root.Find(path)
		return err == nil && len(rest) == 0 && cmd.Name() == path[len(path)-1]
	}

	for _, path := range [][]string{
		{"health"},
		{"ready"},
		{"version"},
		{"swagger"},
		{"documents", "list"},
		{"documents", "upload"},
		{"sessions", "create"},
		{"sessions", "page"},
		{"sessions", "toggle-layer"},
		{"sessions", "overlay"},
		{"settings", "get"},
	} {
		if !find(path...) {
			t.Errorf("command %v not found", path)
		}
	}
	if n := len(root.Commands()); n != 8 {
		// 3 groups + health, ready, version, swagger, swagger-ui
		t.Errorf("api has %d top-level commands, want 8", n)
	}
}

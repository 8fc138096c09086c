package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jackzampolin/layerscope/internal/docapi"
)

// SampleBundle is a page bundle with two rastered layers, a full-page raster
// and one horizontal zero-area text object (id "h") on layer 1.
const SampleBundle = `{
  "size": {"width": 600, "height": 800},
  "full_raster_url": "http://img.test/full.png",
  "layers": [
    {"z_index": 1, "type": "text", "object_count": 2, "url": "http://img.test/l1.png",
     "objects": [
       {"id": 1, "type": "text", "bbox": [10, 10, 50, 30]},
       {"id": "h", "bbox": [0, 100, 40, 100]}
     ]},
    {"z_index": 2, "type": "image", "object_count": 1, "url": "http://img.test/l2.png",
     "objects": [{"id": 5, "bbox": [100, 100, 200, 200]}]}
  ]
}`

type pageKey struct {
	doc  string
	page int
}

// FakeBackend is an in-process document API. Every page of a known document
// answers SampleBundle unless SetPage overrides it.
type FakeBackend struct {
	srv *httptest.Server

	mu        sync.Mutex
	version   string
	documents []docapi.Document
	pages     map[pageKey]string
	gates     map[pageKey]chan struct{}
	uploads   []string
	lastQuery url.Values
	pageHits  int
}

// NewFakeBackend starts a fake document API, closed when the test ends.
func NewFakeBackend(t testing.TB) *FakeBackend {
	t.Helper()
	f := &FakeBackend{
		version: "1.2.0",
		pages:   make(map[pageKey]string),
		gates:   make(map[pageKey]chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/version", f.handleVersion)
	mux.HandleFunc("GET /api/documents", f.handleList)
	mux.HandleFunc("GET /api/documents/{id}", f.handleGet)
	mux.HandleFunc("GET /api/documents/{id}/pages/{n}", f.handlePage)
	mux.HandleFunc("POST /api/documents", f.handleUpload)

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

// BaseURL is the API root to configure clients with.
func (f *FakeBackend) BaseURL() string { return f.srv.URL + "/api" }

// Client returns a docapi client for the fake with fast retries.
func (f *FakeBackend) Client() *docapi.Client {
	return docapi.NewClient(docapi.Config{
		BaseURL:         f.BaseURL(),
		Token:           "test-token",
		MaxRetries:      1,
		RetryDelay:      time.Millisecond,
		ValidateBundles: true,
	})
}

// AddDocument registers a document.
func (f *FakeBackend) AddDocument(d docapi.Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.documents = append(f.documents, d)
}

// SetPage overrides the bundle served for one page.
func (f *FakeBackend) SetPage(documentID string, page int, bundleJSON string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[pageKey{documentID, page}] = bundleJSON
}

// Gate makes requests for the page block until the returned channel is
// closed.
func (f *FakeBackend) Gate(documentID string, page int) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[pageKey{documentID, page}] = ch
	return ch
}

// SetVersion changes the /version answer; "" omits the field.
func (f *FakeBackend) SetVersion(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.version = v
}

// Uploads returns the file names received so far.
func (f *FakeBackend) Uploads() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.uploads...)
}

// LastListQuery returns the query of the most recent document list request.
func (f *FakeBackend) LastListQuery() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastQuery
}

// PageHits counts page bundle requests.
func (f *FakeBackend) PageHits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pageHits
}

func (f *FakeBackend) handleVersion(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	v := f.version
	f.mu.Unlock()
	if v == "" {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"version": v})
}

func (f *FakeBackend) handleList(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.lastQuery = r.URL.Query()
	docs := append([]docapi.Document{}, f.documents...)
	f.mu.Unlock()

	if status := r.URL.Query().Get("status"); status != "" {
		filtered := docs[:0]
		for _, d := range docs {
			if d.Status == status {
				filtered = append(filtered, d)
			}
		}
		docs = filtered
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit < len(docs) {
		docs = docs[:limit]
	}
	writeJSON(w, http.StatusOK, docs)
}

func (f *FakeBackend) document(id string) (docapi.Document, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.documents {
		if d.ID == id {
			return d, true
		}
	}
	return docapi.Document{}, false
}

func (f *FakeBackend) handleGet(w http.ResponseWriter, r *http.Request) {
	d, ok := f.document(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "document not found"})
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (f *FakeBackend) handlePage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad page"})
		return
	}
	if _, ok := f.document(id); !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "document not found"})
		return
	}

	key := pageKey{id, n}
	f.mu.Lock()
	f.pageHits++
	gate := f.gates[key]
	body, ok := f.pages[key]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}
	if !ok {
		body = SampleBundle
	}
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, body)
}

func (f *FakeBackend) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	defer file.Close()
	io.Copy(io.Discard, file)

	f.mu.Lock()
	f.uploads = append(f.uploads, header.Filename)
	id := fmt.Sprintf("up%d", len(f.uploads))
	f.mu.Unlock()

	writeJSON(w, http.StatusCreated, docapi.UploadResult{DocumentID: id, Name: header.Filename, Status: docapi.StatusProcessing})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

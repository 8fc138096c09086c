package docapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:         srv.URL + "/api",
		Token:           "secret",
		MaxRetries:      2,
		RetryDelay:      time.Millisecond,
		ValidateBundles: true,
	})
}

func TestListDocuments(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/documents" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		if r.URL.Query().Get("status") != "failed" {
			t.Errorf("status query = %q", r.URL.Query().Get("status"))
		}
		if r.URL.Query().Get("limit") != "20" {
			t.Errorf("limit query = %q", r.URL.Query().Get("limit"))
		}
		w.Write([]byte(`[{"document_id":"d1","name":"Report.pdf","status":"failed"}]`))
	})

	docs, err := client.ListDocuments(context.Background(), ListOptions{Status: "failed"})
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "d1" {
		t.Errorf("docs = %+v", docs)
	}
}

func TestListDocuments_AllOmitsStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("status") {
			t.Error("status=all should not be sent")
		}
		w.Write([]byte(`[]`))
	})
	if _, err := client.ListDocuments(context.Background(), ListOptions{Status: "all", Limit: 5}); err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrAuthRequired) {
					t.Errorf("want ErrAuthRequired, got %v", err)
				}
			},
		},
		{
			name:   "not found",
			status: http.StatusNotFound,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrNotFound) {
					t.Errorf("want ErrNotFound, got %v", err)
				}
			},
		},
		{
			name:   "message body",
			status: http.StatusBadRequest,
			body:   `{"message":"bad page"}`,
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				if !errors.As(err, &apiErr) || apiErr.Message != "bad page" {
					t.Errorf("want APIError with message, got %v", err)
				}
			},
		},
		{
			name:   "plain body",
			status: http.StatusTeapot,
			body:   `nope`,
			check: func(t *testing.T, err error) {
				if !strings.Contains(err.Error(), "API error: 418") {
					t.Errorf("unexpected error text: %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := client.GetDocument(context.Background(), "d1")
			if err == nil {
				t.Fatal("expected error")
			}
			tt.check(t, err)
			if calls.Load() != 1 {
				t.Errorf("4xx answers should not be retried, got %d calls", calls.Load())
			}
		})
	}
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"version":"1.4.0"}`))
	})

	v, err := client.Version(context.Background())
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if v.Version != "1.4.0" {
		t.Errorf("version = %q", v.Version)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestVersion_DefaultsToBeta(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	v, err := client.Version(context.Background())
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if v.Version != "Beta" {
		t.Errorf("version = %q, want Beta", v.Version)
	}
}

func TestGetPageBundle(t *testing.T) {
	t.Run("valid bundle", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/documents/d1/pages/2" {
				t.Errorf("path = %s", r.URL.Path)
			}
			w.Write([]byte(`{
				"size": {"width": 612, "height": 792},
				"full_raster_url": "/raster/2.png",
				"layers": [
					{"z_index": 1, "type": "path", "object_count": 1, "url": "/l/1.png",
					 "objects": [{"id": 7, "bbox": [10, 20, 110, 70]}]},
					{"z_index": 2, "type": "text", "object_count": 0, "url": null}
				],
				"zero_area_objects": [{"id": "z1", "bbox": [50, 600, 150, 600]}]
			}`))
		})

		b, err := client.GetPageBundle(context.Background(), "d1", 2)
		if err != nil {
			t.Fatalf("GetPageBundle() error = %v", err)
		}
		if len(b.Layers) != 2 || b.Layers[0].Objects[0].ID != "7" {
			t.Errorf("layers = %+v", b.Layers)
		}
		if b.FullRasterURL != "/raster/2.png" || len(b.ZeroAreaObjects) != 1 {
			t.Errorf("bundle = %+v", b)
		}
		w, h := b.Dimensions(1, 1)
		if w != 612 || h != 792 {
			t.Errorf("dimensions = %vx%v", w, h)
		}
	})

	t.Run("schema violation", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"layers": [{"type": "text"}]}`))
		})
		if _, err := client.GetPageBundle(context.Background(), "d1", 1); err == nil {
			t.Fatal("expected schema error for layer without z_index")
		}
	})

	t.Run("wrong bbox arity passes validation", func(t *testing.T) {
		raw := []byte(`{"layers": [{"z_index": 1, "type": "path", "objects": [{"id": 1, "bbox": [1, 2]}]}]}`)
		if err := ValidatePageBundle(raw); err != nil {
			t.Errorf("ValidatePageBundle() error = %v", err)
		}
	})
}

func TestDecodePageBundle_MalformedBBox(t *testing.T) {
	tests := []struct {
		name     string
		bad      string
		validate bool
	}{
		{"string element validated", `[10, "x", 110, 70]`, true},
		{"string element unvalidated", `[10, "x", 110, 70]`, false},
		{"null element validated", `[10, null, 110, 70]`, true},
		{"null element unvalidated", `[10, null, 110, 70]`, false},
		{"not an array", `"box"`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := []byte(`{"layers": [{"z_index": 1, "type": "path", "objects": [
				{"id": 1, "bbox": [10, 20, 110, 70]},
				{"id": 2, "bbox": ` + tt.bad + `}
			]}]}`)
			b, err := DecodePageBundle(raw, tt.validate)
			if err != nil {
				t.Fatalf("DecodePageBundle() error = %v", err)
			}
			objs := b.Layers[0].Objects
			if len(objs) != 2 {
				t.Fatalf("objects = %+v", objs)
			}
			if box, ok := objs[0].Box(); !ok || box[1] != 20 {
				t.Errorf("sibling box = %v, %v", box, ok)
			}
			if box, ok := objs[1].Box(); ok {
				t.Errorf("malformed bbox parsed as %v", box)
			}
		})
	}
}

func TestDimensionsDefaults(t *testing.T) {
	var nilBundle *PageBundle
	if w, h := nilBundle.Dimensions(612, 792); w != 612 || h != 792 {
		t.Errorf("nil bundle = %vx%v", w, h)
	}
	b := &PageBundle{Size: &PageSize{Width: 300}}
	if w, h := b.Dimensions(612, 792); w != 300 || h != 792 {
		t.Errorf("partial size = %vx%v", w, h)
	}
}

func TestUpload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/documents" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if string(data) != strings.Repeat("x", 4096) {
			t.Errorf("uploaded %d bytes", len(data))
		}
		if header.Filename != "report.pdf" {
			t.Errorf("filename = %q", header.Filename)
		}
		w.Write([]byte(`{"document_id":"new","status":"processing"}`))
	})

	var reports []int
	res, err := client.Upload(context.Background(), "report.pdf",
		strings.NewReader(strings.Repeat("x", 4096)), 4096,
		func(p int) { reports = append(reports, p) })
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if res.DocumentID != "new" || res.Status != "processing" {
		t.Errorf("result = %+v", res)
	}
	if len(reports) == 0 || reports[len(reports)-1] != 100 {
		t.Errorf("progress reports = %v, want to end at 100", reports)
	}
	for i := 1; i < len(reports); i++ {
		if reports[i] <= reports[i-1] {
			t.Errorf("progress not increasing: %v", reports)
		}
	}
}

func TestFilterDocuments(t *testing.T) {
	docs := []Document{
		{ID: "1", Name: "Annual_Report_2024.pdf", Status: "complete"},
		{ID: "2", Name: "invoice.pdf", Status: "Processing"},
		{ID: "3", Name: "report-draft.pdf", Status: "failed"},
	}

	tests := []struct {
		search, status string
		want           []string
	}{
		{"", "all", []string{"1", "2", "3"}},
		{"REPORT", "", []string{"1", "3"}},
		{"report", "failed", []string{"3"}},
		{"", "processing", []string{"2"}},
	}
	for _, tt := range tests {
		got := FilterDocuments(docs, tt.search, tt.status)
		var ids []string
		for _, d := range got {
			ids = append(ids, d.ID)
		}
		if strings.Join(ids, ",") != strings.Join(tt.want, ",") {
			t.Errorf("FilterDocuments(%q, %q) = %v, want %v", tt.search, tt.status, ids, tt.want)
		}
	}
}

func TestHumanFileSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0.0 B"},
		{512, "512.0 B"},
		{2048, "2.0 KB"},
		{2516582, "2.4 MB"},
		{-1, "N/A"},
	}
	for _, tt := range tests {
		if got := HumanFileSize(tt.in); got != tt.want {
			t.Errorf("HumanFileSize(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

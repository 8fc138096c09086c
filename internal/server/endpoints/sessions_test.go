package endpoints

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackzampolin/layerscope/internal/viewer"
)

func (e *testEnv) createSession(t *testing.T, body any) viewer.State {
	t.Helper()
	rec := e.do(t, "POST", "/api/sessions", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: status = %d, body %s", rec.Code, rec.Body)
	}
	return decodeBody[viewer.State](t, rec)
}

func (e *testEnv) post(t *testing.T, path string) viewer.State {
	t.Helper()
	rec := e.do(t, "POST", path, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST %s: status = %d, body %s", path, rec.Code, rec.Body)
	}
	return decodeBody[viewer.State](t, rec)
}

func TestCreateSession(t *testing.T) {
	env := newTestEnv(t)

	t.Run("empty", func(t *testing.T) {
		st := env.createSession(t, nil)
		if st.ID == "" || st.DocumentID != "" || len(st.Layers) != 0 {
			t.Errorf("state = %+v", st)
		}
	})

	t.Run("with document opens page 1", func(t *testing.T) {
		st := env.createSession(t, CreateSessionRequest{DocumentID: "d1"})
		if st.DocumentID != "d1" || st.Page != 1 {
			t.Errorf("loaded %s#%d", st.DocumentID, st.Page)
		}
		if len(st.Layers) != 2 || !st.Layers[0].Visible || !st.Layers[1].Visible {
			t.Errorf("layers = %+v", st.Layers)
		}
		if !st.Flags.AllLayers || st.Flags.OutlineObjects {
			t.Errorf("flags = %+v", st.Flags)
		}
	})

	t.Run("unknown document", func(t *testing.T) {
		before := env.services.Sessions.Len()
		rec := env.do(t, "POST", "/api/sessions", CreateSessionRequest{DocumentID: "missing"})
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
		if env.services.Sessions.Len() != before {
			t.Error("failed session was kept")
		}
	})

	t.Run("negative page", func(t *testing.T) {
		rec := env.do(t, "POST", "/api/sessions", CreateSessionRequest{DocumentID: "d1", Page: -1})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	st := env.createSession(t, CreateSessionRequest{DocumentID: "d1"})
	base := "/api/sessions/" + st.ID

	list := decodeBody[ListSessionsResponse](t, env.do(t, "GET", "/api/sessions", nil))
	if len(list.Sessions) != 1 || list.Sessions[0].ID != st.ID {
		t.Fatalf("sessions = %+v", list.Sessions)
	}

	if rec := env.do(t, "GET", base, nil); rec.Code != http.StatusOK {
		t.Fatalf("get: status = %d", rec.Code)
	}

	if rec := env.do(t, "DELETE", base, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d", rec.Code)
	}
	if rec := env.do(t, "GET", base, nil); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: status = %d, want 404", rec.Code)
	}
	if rec := env.do(t, "DELETE", base, nil); rec.Code != http.StatusNotFound {
		t.Errorf("second delete: status = %d, want 404", rec.Code)
	}
}

func TestSessionToggles(t *testing.T) {
	env := newTestEnv(t)
	base := "/api/sessions/" + env.createSession(t, CreateSessionRequest{DocumentID: "d1"}).ID

	// Hiding layer 2 breaks the all-layers consensus.
	st := env.post(t, base+"/layers/2/visibility")
	if st.Flags.AllLayers || st.Layers[1].Visible || !st.Layers[0].Visible {
		t.Fatalf("after hiding layer 2: flags %+v layers %+v", st.Flags, st.Layers)
	}

	plan := decodeBody[viewer.Plan](t, env.do(t, "GET", base+"/plan", nil))
	if plan.Mode != viewer.ModeLayers || len(plan.Layers) != 1 || plan.Layers[0].ZIndex != 1 {
		t.Fatalf("plan = %+v", plan)
	}

	// Outlining only reaches visible layers.
	st = env.post(t, base+"/outlines/toggle")
	if !st.Flags.OutlineObjects || !st.Layers[0].Outlined || st.Layers[1].Outlined {
		t.Fatalf("after outlining: flags %+v layers %+v", st.Flags, st.Layers)
	}

	// Outlining a hidden layer is a no-op.
	st = env.post(t, base+"/layers/2/outline")
	if st.Layers[1].Outlined {
		t.Error("hidden layer was outlined")
	}

	st = env.post(t, base+"/layers/1/outline")
	if st.Layers[0].Outlined {
		t.Error("layer 1 outline should be off")
	}

	st = env.post(t, base+"/layers/toggle-all")
	if !st.Flags.AllLayers || !st.Layers[1].Visible {
		t.Errorf("after toggle-all: flags %+v layers %+v", st.Flags, st.Layers)
	}

	st = env.post(t, base+"/markers/toggle")
	if !st.ShowZeroAreaMarkers {
		t.Error("markers should be shown")
	}
	plan = decodeBody[viewer.Plan](t, env.do(t, "GET", base+"/plan", nil))
	if len(plan.Markers) != 1 || plan.Markers[0].ObjectID != "h" || plan.Markers[0].Glyph != "H" {
		t.Errorf("markers = %+v", plan.Markers)
	}
	if len(plan.Anomalies) != 1 || plan.Anomalies[0].Count != 1 {
		t.Errorf("anomalies = %+v", plan.Anomalies)
	}

	st = env.post(t, base+"/reset")
	if !st.Flags.AllLayers || st.Flags.OutlineObjects || st.ShowZeroAreaMarkers {
		t.Errorf("after reset: %+v", st)
	}
	for _, l := range st.Layers {
		if !l.Visible || l.Outlined {
			t.Errorf("after reset: layer %d = %+v", l.ZIndex, l)
		}
	}
	plan = decodeBody[viewer.Plan](t, env.do(t, "GET", base+"/plan", nil))
	if plan.Mode != viewer.ModeFullRaster {
		t.Errorf("Mode = %q, want full raster", plan.Mode)
	}
}

func TestSessionToggles_BadRequests(t *testing.T) {
	env := newTestEnv(t)
	base := "/api/sessions/" + env.createSession(t, nil).ID

	tests := []struct {
		name     string
		path     string
		wantCode int
	}{
		{"non-numeric z-index", base + "/layers/top/visibility", http.StatusBadRequest},
		{"unknown session", "/api/sessions/nope/outlines/toggle", http.StatusNotFound},
		{"unknown session layer", "/api/sessions/nope/layers/1/outline", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := env.do(t, "POST", tt.path, nil); rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}

	// Toggling a layer no bundle mentions still records an override.
	st := env.post(t, base+"/layers/7/visibility")
	if v, ok := st.Flags.Visibility["layer_7"]; !ok || v {
		t.Errorf("visibility = %v", st.Flags.Visibility)
	}
}

func TestSetPage(t *testing.T) {
	env := newTestEnv(t)
	st := env.createSession(t, CreateSessionRequest{DocumentID: "d1"})
	base := "/api/sessions/" + st.ID

	// Overrides survive a page change within the document.
	env.post(t, base+"/layers/2/visibility")
	rec := env.do(t, "PUT", base+"/page", SetPageRequest{Page: 2})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	st = decodeBody[viewer.State](t, rec)
	if st.Page != 2 || st.DocumentID != "d1" {
		t.Errorf("loaded %s#%d", st.DocumentID, st.Page)
	}
	if st.Layers[1].Visible {
		t.Error("layer 2 override lost on page change")
	}

	tests := []struct {
		name     string
		path     string
		body     any
		wantCode int
	}{
		{"page zero", base + "/page", SetPageRequest{Page: 0}, http.StatusBadRequest},
		{"missing body", base + "/page", nil, http.StatusBadRequest},
		{"unknown document", base + "/page", SetPageRequest{DocumentID: "missing", Page: 1}, http.StatusNotFound},
		{"unknown session", "/api/sessions/nope/page", SetPageRequest{Page: 1}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := env.do(t, "PUT", tt.path, tt.body); rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.wantCode, rec.Body)
			}
		})
	}

	t.Run("session without document", func(t *testing.T) {
		empty := env.createSession(t, nil)
		rec := env.do(t, "PUT", "/api/sessions/"+empty.ID+"/page", SetPageRequest{Page: 1})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestSetPage_LastRequestWins(t *testing.T) {
	env := newTestEnv(t)
	base := "/api/sessions/" + env.createSession(t, CreateSessionRequest{DocumentID: "d1"}).ID
	hits := env.backend.PageHits()

	gate := env.backend.Gate("d1", 2)
	slow := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		slow <- env.do(t, "PUT", base+"/page", SetPageRequest{Page: 2})
	}()

	// Wait for the page 2 request to reach the backend.
	deadline := time.Now().Add(5 * time.Second)
	for env.backend.PageHits() == hits {
		if time.Now().After(deadline) {
			t.Fatal("page 2 request never reached the backend")
		}
		time.Sleep(5 * time.Millisecond)
	}

	rec := env.do(t, "PUT", base+"/page", SetPageRequest{Page: 3})
	if rec.Code != http.StatusOK {
		t.Fatalf("page 3: status = %d, body %s", rec.Code, rec.Body)
	}

	close(gate)
	rec = <-slow
	if rec.Code != http.StatusConflict {
		t.Errorf("superseded page 2: status = %d, want 409", rec.Code)
	}

	st := decodeBody[viewer.State](t, env.do(t, "GET", base, nil))
	if st.Page != 3 || st.Loading {
		t.Errorf("state = page %d loading %v, want page 3", st.Page, st.Loading)
	}
}

func TestOverlay(t *testing.T) {
	env := newTestEnv(t)
	base := "/api/sessions/" + env.createSession(t, CreateSessionRequest{DocumentID: "d1"}).ID
	env.post(t, base+"/outlines/toggle")

	rec := env.do(t, "GET", base+"/overlay.svg", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{`viewBox="0 0 600 800"`, "http://img.test/full.png", `stroke-dasharray="4 3"`} {
		if !strings.Contains(body, want) {
			t.Errorf("overlay missing %q", want)
		}
	}

	if rec := env.do(t, "GET", "/api/sessions/nope/overlay.svg", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown session: status = %d", rec.Code)
	}
}

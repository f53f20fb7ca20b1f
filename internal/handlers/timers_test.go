package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chefwhisper/recipe-viewer/internal/interpreter"
	"github.com/chefwhisper/recipe-viewer/internal/models"
	"github.com/chefwhisper/recipe-viewer/internal/registry"
)

func doJSON(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rd *bytes.Buffer
	if body != "" {
		rd = bytes.NewBufferString(body)
	} else {
		rd = bytes.NewBuffer(nil)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer valid")
	r.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestTimerHandlers_CreateAndRead(t *testing.T) {
	s, _ := newTimerBackend(t)
	r := newTestRouter(s)

	w, out := doJSON(t, r, http.MethodPost, "/api/v1/timers",
		`{"name":"Sauce","duration":600}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status=%d, body=%s", w.Code, w.Body.String())
	}
	id, _ := out["id"].(string)
	if id == "" {
		t.Fatalf("expected an id, got %v", out)
	}

	w, out = doJSON(t, r, http.MethodGet, "/api/v1/timers/"+id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get status=%d", w.Code)
	}
	timer, _ := out["timer"].(map[string]any)
	if timer["name"] != "Sauce" || timer["status"] != string(models.StatusIdle) {
		t.Fatalf("unexpected timer: %v", timer)
	}

	w, out = doJSON(t, r, http.MethodGet, "/api/v1/timers", "")
	if w.Code != http.StatusOK || out["count"].(float64) != 1 {
		t.Fatalf("list status=%d, body=%s", w.Code, w.Body.String())
	}

	w, _ = doJSON(t, r, http.MethodGet, "/api/v1/timers/nope", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", w.Code)
	}
}

func TestTimerHandlers_DuplicateCreateConflicts(t *testing.T) {
	s, _ := newTimerBackend(t)
	r := newTestRouter(s)

	body := `{"name":"Sauce","duration":600,"metadata":{"stepId":"s1","source":"simmer for 10 minutes","matchIndex":11}}`
	if w, _ := doJSON(t, r, http.MethodPost, "/api/v1/timers", body); w.Code != http.StatusCreated {
		t.Fatalf("first create status=%d", w.Code)
	}
	if w, _ := doJSON(t, r, http.MethodPost, "/api/v1/timers", body); w.Code != http.StatusConflict {
		t.Fatalf("duplicate create status=%d, want 409", w.Code)
	}
}

func TestTimerHandlers_ControlLifecycle(t *testing.T) {
	s, _ := newTimerBackend(t)
	r := newTestRouter(s)

	_, out := doJSON(t, r, http.MethodPost, "/api/v1/timers", `{"name":"Rice","duration":300}`)
	id := out["id"].(string)

	w, out := doJSON(t, r, http.MethodPost, "/api/v1/timers/"+id+"/start", "")
	if w.Code != http.StatusOK {
		t.Fatalf("start status=%d", w.Code)
	}
	if timer := out["timer"].(map[string]any); timer["status"] != string(models.StatusRunning) {
		t.Fatalf("expected running, got %v", timer["status"])
	}

	if w, out = doJSON(t, r, http.MethodPost, "/api/v1/timers/"+id+"/pause", ""); w.Code != http.StatusOK {
		t.Fatalf("pause status=%d", w.Code)
	}
	if timer := out["timer"].(map[string]any); timer["status"] != string(models.StatusPaused) {
		t.Fatalf("expected paused, got %v", timer["status"])
	}

	if w, _ = doJSON(t, r, http.MethodPost, "/api/v1/timers/"+id+"/reset", ""); w.Code != http.StatusOK {
		t.Fatalf("reset status=%d", w.Code)
	}

	if w, _ = doJSON(t, r, http.MethodPut, "/api/v1/timers/"+id+"/name", `{"name":"Basmati"}`); w.Code != http.StatusOK {
		t.Fatalf("rename status=%d", w.Code)
	}
	if snap, _ := s.Reader.Get(id); snap.Name != "Basmati" {
		t.Fatalf("rename not applied: %q", snap.Name)
	}

	if w, _ = doJSON(t, r, http.MethodPut, "/api/v1/timers/"+id+"/metadata", `{"metadata":{"phase":"resting"}}`); w.Code != http.StatusOK {
		t.Fatalf("metadata status=%d", w.Code)
	}

	if w, _ = doJSON(t, r, http.MethodDelete, "/api/v1/timers/"+id, ""); w.Code != http.StatusOK {
		t.Fatalf("delete status=%d", w.Code)
	}
	if w, _ = doJSON(t, r, http.MethodDelete, "/api/v1/timers/"+id, ""); w.Code != http.StatusNotFound {
		t.Fatalf("second delete status=%d, want 404", w.Code)
	}

	if w, _ = doJSON(t, r, http.MethodPost, "/api/v1/timers/nope/start", ""); w.Code != http.StatusNotFound {
		t.Fatalf("start unknown status=%d, want 404", w.Code)
	}
}

func TestTimerHandlers_BatchAndClear(t *testing.T) {
	s, _ := newTimerBackend(t)
	r := newTestRouter(s)

	doJSON(t, r, http.MethodPost, "/api/v1/timers", `{"name":"A","duration":300}`)
	doJSON(t, r, http.MethodPost, "/api/v1/timers", `{"name":"B","duration":300}`)

	w, out := doJSON(t, r, http.MethodPost, "/api/v1/timers/start-all", "")
	if w.Code != http.StatusOK || out["count"].(float64) != 2 {
		t.Fatalf("start-all: status=%d body=%s", w.Code, w.Body.String())
	}
	if w, out = doJSON(t, r, http.MethodPost, "/api/v1/timers/pause-all", ""); out["count"].(float64) != 2 {
		t.Fatalf("pause-all: body=%s", w.Body.String())
	}
	if w, out = doJSON(t, r, http.MethodPost, "/api/v1/timers/reset-all", ""); out["count"].(float64) != 2 {
		t.Fatalf("reset-all: body=%s", w.Body.String())
	}
	if w, out = doJSON(t, r, http.MethodDelete, "/api/v1/timers", ""); out["count"].(float64) != 2 {
		t.Fatalf("clear: body=%s", w.Body.String())
	}
	if len(s.Reader.GetAll()) != 0 {
		t.Fatalf("timers survived clear")
	}
}

func TestCommandHandler(t *testing.T) {
	s, b := newTimerBackend(t)
	r := newTestRouter(s)

	// The interpreter rides the same bus with its own client.
	in := interpreter.New(b, registry.NewClient(b), nil)
	in.Start()
	defer in.Stop()

	w, out := doJSON(t, r, http.MethodPost, "/api/v1/commands",
		`{"command":"boil the pasta for 8 minutes"}`)
	if w.Code != http.StatusOK || out["recognized"] != true {
		t.Fatalf("command: status=%d body=%s", w.Code, w.Body.String())
	}
	all := s.Reader.GetAll()
	if len(all) != 1 || all[0].Duration != 480 {
		t.Fatalf("interpreted creation missing: %+v", all)
	}

	w, out = doJSON(t, r, http.MethodPost, "/api/v1/commands", `{"command":"gibberish"}`)
	if w.Code != http.StatusOK || out["recognized"] != false {
		t.Fatalf("unrecognized command: status=%d body=%s", w.Code, w.Body.String())
	}

	if w, _ = doJSON(t, r, http.MethodPost, "/api/v1/commands", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("empty command status=%d, want 400", w.Code)
	}
}

func TestTimerHandlers_RequireAuth(t *testing.T) {
	s, _ := newTimerBackend(t)
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/timers", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", w.Code)
	}
}

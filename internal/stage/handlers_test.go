package stage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

type fakeFinisher struct {
	calls int
	err   error
}

func (f *fakeFinisher) FinishStage(_ context.Context, _ Stage, _ Summary) error {
	f.calls++
	return f.err
}

func newTestApp(finisher Finisher) (*fiber.App, *Recorder) {
	rec := NewRecorder(Options{RouteName: "finke", DayNumber: 1, TrackingInterval: time.Minute}, nil)
	app := fiber.New()
	RegisterRoutes(app.Group("/stage"), rec, finisher)
	return app, rec
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()
	var buf []byte
	if body != nil {
		buf, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	return resp
}

func TestStageHandlersLifecycle(t *testing.T) {
	finisher := &fakeFinisher{}
	app, _ := newTestApp(finisher)

	req := httptest.NewRequest(http.MethodGet, "/stage/", nil)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 while idle, got %d", resp.StatusCode)
	}

	resp = postJSON(t, app, "/stage/start", fiber.Map{"lat": -34.9285, "lng": 138.6007})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start status %d", resp.StatusCode)
	}
	var st Stage
	_ = json.NewDecoder(resp.Body).Decode(&st)
	if st.Name != "finke-D1-SS1" {
		t.Fatalf("unexpected stage name %q", st.Name)
	}

	resp = postJSON(t, app, "/stage/start", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second start should conflict, got %d", resp.StatusCode)
	}

	resp = postJSON(t, app, "/stage/end", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("end status %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	var ended struct {
		Archived bool    `json:"archived"`
		Summary  Summary `json:"summary"`
	}
	if err := json.Unmarshal(body, &ended); err != nil {
		t.Fatalf("decode end response: %v", err)
	}
	if !ended.Archived || finisher.calls != 1 {
		t.Fatalf("expected finisher call, archived=%v calls=%d", ended.Archived, finisher.calls)
	}

	resp = postJSON(t, app, "/stage/end", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("double end should conflict, got %d", resp.StatusCode)
	}
}

func TestStageHandlersArchiveFailureIsolated(t *testing.T) {
	finisher := &fakeFinisher{err: errors.New("db down")}
	app, _ := newTestApp(finisher)

	postJSON(t, app, "/stage/start", fiber.Map{"lat": -34.9, "lng": 138.6})
	resp := postJSON(t, app, "/stage/end", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("end should still succeed, got %d", resp.StatusCode)
	}
	var ended struct {
		Archived bool `json:"archived"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&ended)
	if ended.Archived {
		t.Fatalf("expected archived=false when finisher fails")
	}
}

func TestStageHandlersWaypoints(t *testing.T) {
	app, _ := newTestApp(nil)

	postJSON(t, app, "/stage/start", fiber.Map{"lat": -34.9285, "lng": 138.6007})

	resp := postJSON(t, app, "/stage/waypoints", fiber.Map{"name": "gate"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("add without fix should 400, got %d", resp.StatusCode)
	}

	resp = postJSON(t, app, "/stage/fix", fiber.Map{"lat": -34.9285, "lng": 138.6007, "accuracy_m": 4.0})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("fix status %d", resp.StatusCode)
	}

	resp = postJSON(t, app, "/stage/waypoints", fiber.Map{"name": "gate", "note": "rusty"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("waypoint status %d", resp.StatusCode)
	}
	var w Waypoint
	_ = json.NewDecoder(resp.Body).Decode(&w)
	if w.Name != "gate" || w.DistanceKm != 0 {
		t.Fatalf("unexpected waypoint %+v", w)
	}

	req := httptest.NewRequest(http.MethodPut, "/stage/waypoints/0", bytes.NewReader([]byte(`{"name":"farm gate"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("edit status %d", resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodPut, "/stage/waypoints/7", bytes.NewReader([]byte(`{"name":"x"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("edit out of range should 404, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodDelete, "/stage/waypoints", bytes.NewReader([]byte(`{"indices":[0]}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status %d", resp.StatusCode)
	}
	var deleted struct {
		Removed int `json:"removed"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&deleted)
	if deleted.Removed != 1 {
		t.Fatalf("expected 1 removed, got %d", deleted.Removed)
	}

	req = httptest.NewRequest(http.MethodDelete, "/stage/waypoints", bytes.NewReader([]byte(`{"indices":[]}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty indices should 400, got %d", resp.StatusCode)
	}
}

func TestStageHandlersFixError(t *testing.T) {
	app, rec := newTestApp(nil)

	postJSON(t, app, "/stage/fix", fiber.Map{"lat": -34.9, "lng": 138.6})
	if _, ok := rec.CurrentFix(); !ok {
		t.Fatalf("expected fix held")
	}

	postJSON(t, app, "/stage/fix", fiber.Map{"error": "position_unavailable"})
	if _, ok := rec.CurrentFix(); ok {
		t.Fatalf("expected fix cleared on error report")
	}
}

func TestStageHandlersTracking(t *testing.T) {
	app, _ := newTestApp(nil)

	resp := postJSON(t, app, "/stage/tracking/start", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("tracking before start should conflict, got %d", resp.StatusCode)
	}

	postJSON(t, app, "/stage/start", fiber.Map{"lat": -34.9, "lng": 138.6})

	resp = postJSON(t, app, "/stage/tracking/start", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("tracking start status %d", resp.StatusCode)
	}
	resp = postJSON(t, app, "/stage/tracking/stop", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("tracking stop status %d", resp.StatusCode)
	}
}

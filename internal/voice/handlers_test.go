package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backend-rallynotes/internal/stage"
	"backend-rallynotes/internal/transcript"

	"github.com/gofiber/fiber/v2"
)

type fakeFinisher struct {
	calls int
}

func (f *fakeFinisher) FinishStage(_ context.Context, _ stage.Stage, _ stage.Summary) error {
	f.calls++
	return nil
}

func newVoiceApp(finisher stage.Finisher) (*fiber.App, *stage.Recorder) {
	rec := stage.NewRecorder(stage.Options{RouteName: "finke", DayNumber: 2, TrackingInterval: time.Minute}, nil)
	app := fiber.New()
	RegisterRoutes(app.Group("/stage"), rec, finisher)
	return app, rec
}

func postTranscript(t *testing.T, app *fiber.App, raw string) *http.Response {
	t.Helper()
	body, _ := json.Marshal(fiber.Map{"transcript": raw})
	req := httptest.NewRequest(http.MethodPost, "/stage/waypoints/voice", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	return resp
}

func TestVoiceCommandLifecycle(t *testing.T) {
	finisher := &fakeFinisher{}
	app, rec := newVoiceApp(finisher)

	resp := postTranscript(t, app, "stage start")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("voice start status %d", resp.StatusCode)
	}
	if _, ok := rec.Snapshot(); !ok {
		t.Fatalf("expected recording after voice start")
	}

	resp = postTranscript(t, app, "stage end")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("voice end status %d", resp.StatusCode)
	}
	if finisher.calls != 1 {
		t.Fatalf("expected finisher call, got %d", finisher.calls)
	}
	if _, ok := rec.Snapshot(); ok {
		t.Fatalf("expected idle after voice end")
	}
}

func TestVoiceWaypointRequiresFix(t *testing.T) {
	app, rec := newVoiceApp(nil)
	if _, err := rec.Start(nil); err != nil {
		t.Fatalf("start: %v", err)
	}

	resp := postTranscript(t, app, "caution washout")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without fix, got %d", resp.StatusCode)
	}
}

func TestVoiceWaypointCreated(t *testing.T) {
	app, rec := newVoiceApp(nil)
	if _, err := rec.Start(nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	rec.SetFix(stage.Fix{Lat: -34.9285, Lng: 138.6007, AccuracyM: 5})

	resp := postTranscript(t, app, "caution severe wash out ahead")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("voice waypoint status %d", resp.StatusCode)
	}
	var w stage.Waypoint
	_ = json.NewDecoder(resp.Body).Decode(&w)
	if !w.VoiceCreated {
		t.Fatalf("expected voice-created waypoint")
	}
	if w.Category != transcript.CategorySafety {
		t.Fatalf("expected safety, got %s", w.Category)
	}
	if w.RawTranscript != "caution severe wash out ahead" {
		t.Fatalf("raw transcript not preserved: %q", w.RawTranscript)
	}
	if len(rec.Waypoints()) != 1 {
		t.Fatalf("waypoint not appended to ledger")
	}
}

func TestVoiceWaypointWhenIdle(t *testing.T) {
	app, rec := newVoiceApp(nil)
	rec.SetFix(stage.Fix{Lat: -34.9, Lng: 138.6})

	resp := postTranscript(t, app, "caution washout")
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 when idle, got %d", resp.StatusCode)
	}
}

func TestVoiceEndWhenIdle(t *testing.T) {
	app, _ := newVoiceApp(nil)
	resp := postTranscript(t, app, "stage end")
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

package stage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"backend-rallynotes/internal/stream"
	"backend-rallynotes/internal/transcript"

	"github.com/google/uuid"
)

var (
	ErrAlreadyRecording = errors.New("a stage is already recording")
	ErrNotRecording     = errors.New("no stage is recording")
	ErrNoFix            = errors.New("no gps fix available")
	ErrIndexOutOfRange  = errors.New("waypoint index out of range")
	ErrVoiceIncomplete  = errors.New("voice waypoint missing transcript or category")
	ErrTrackingActive   = errors.New("tracking already running")
)

// Options configures a Recorder.
type Options struct {
	RouteName        string
	DayNumber        int
	TrackingInterval time.Duration
}

// Recorder owns the single open stage. All mutations are serialized
// through its mutex so waypoint order matches capture order even when
// the sampler tick and a manual add land together.
type Recorder struct {
	mu       sync.Mutex
	opts     Options
	stageNum int

	recording bool
	stage     *Stage
	lastFix   *Fix

	samplerStop chan struct{}
	samplerDone chan struct{}

	hub *stream.Hub
	now func() time.Time
}

// NewRecorder returns an idle recorder. hub may be nil.
func NewRecorder(opts Options, hub *stream.Hub) *Recorder {
	if opts.TrackingInterval <= 0 {
		opts.TrackingInterval = 20 * time.Second
	}
	if opts.RouteName == "" {
		opts.RouteName = "route"
	}
	if opts.DayNumber <= 0 {
		opts.DayNumber = 1
	}
	return &Recorder{
		opts:     opts,
		stageNum: 1,
		hub:      hub,
		now:      time.Now,
	}
}

// SetFix stores the latest GPS reading. While recording, the first
// fix also becomes the stage start coordinate if none was captured.
func (r *Recorder) SetFix(f Fix) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if f.At.IsZero() {
		f.At = r.now()
	}
	r.lastFix = &f
	if r.recording && r.stage.Start == nil {
		r.stage.Start = &Coordinate{Lat: f.Lat, Lng: f.Lng}
	}
}

// ClearFix drops the held fix after the device reports a location
// failure (permission_denied, position_unavailable, timeout).
func (r *Recorder) ClearFix(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFix = nil
	if reason != "" {
		log.Printf("gps fix lost: %s", reason)
	}
}

// CurrentFix returns the latest GPS reading, if any.
func (r *Recorder) CurrentFix() (Fix, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastFix == nil {
		return Fix{}, false
	}
	return *r.lastFix, true
}

// Start opens a new stage. The start coordinate comes from the
// argument if given, else from the held fix, else it is filled by the
// first fix that arrives while recording.
func (r *Recorder) Start(at *Coordinate) (Stage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		return Stage{}, ErrAlreadyRecording
	}

	start := at
	if start == nil && r.lastFix != nil {
		start = &Coordinate{Lat: r.lastFix.Lat, Lng: r.lastFix.Lng}
	}

	r.stage = &Stage{
		ID:        uuid.NewString(),
		Name:      fmt.Sprintf("%s-D%d-SS%d", r.opts.RouteName, r.opts.DayNumber, r.stageNum),
		Start:     start,
		StartedAt: r.now(),
	}
	r.recording = true
	return r.snapshotLocked(), nil
}

// End closes the open stage, stops the sampler, freezes the summary
// and bumps the stage counter. The returned stage is a detached copy.
func (r *Recorder) End() (Stage, Summary, error) {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return Stage{}, Summary{}, ErrNotRecording
	}
	r.mu.Unlock()

	// The sampler is drained before the summary freezes, so no
	// breadcrumb can land in a closed stage.
	r.StopTracking()

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return Stage{}, Summary{}, ErrNotRecording
	}

	closed := r.snapshotLocked()
	summary := summarize(&closed, r.now())

	r.recording = false
	r.stage = nil
	r.stageNum++
	return closed, summary, nil
}

// Snapshot returns a detached copy of the open stage.
func (r *Recorder) Snapshot() (Stage, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return Stage{}, false
	}
	return r.snapshotLocked(), true
}

// Waypoints returns a copy of the open stage's waypoint sequence, in
// capture order. Empty when idle.
func (r *Recorder) Waypoints() []Waypoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return nil
	}
	return append([]Waypoint(nil), r.stage.Waypoints...)
}

// RecentSamples returns up to the last two tracking points as speed
// estimation samples.
func (r *Recorder) RecentSamples() []transcript.Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return nil
	}
	pts := r.stage.TrackingPoints
	if len(pts) > 2 {
		pts = pts[len(pts)-2:]
	}
	samples := make([]transcript.Sample, 0, len(pts))
	for _, p := range pts {
		samples = append(samples, transcript.Sample{Lat: p.Lat, Lng: p.Lng, At: p.RecordedAt})
	}
	return samples
}

// AddWaypoint appends a fully built waypoint. The append is atomic:
// a refused add leaves the ledger untouched.
func (r *Recorder) AddWaypoint(w Waypoint) (Waypoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return Waypoint{}, ErrNotRecording
	}
	if w.VoiceCreated && (w.RawTranscript == "" || w.Category == "") {
		return Waypoint{}, ErrVoiceIncomplete
	}
	if w.CapturedAt.IsZero() {
		w.CapturedAt = r.now()
	}
	if w.Timestamp == "" {
		w.Timestamp = w.CapturedAt.Format("15:04:05")
	}

	r.stage.Waypoints = append(r.stage.Waypoints, w)
	r.broadcastLocked("waypoint", w)
	return w, nil
}

// AddManualWaypoint logs a waypoint at the held fix. Name defaults to
// "Unnamed" or the picked icon's label.
func (r *Recorder) AddManualWaypoint(name, icon, note string) (Waypoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return Waypoint{}, ErrNotRecording
	}
	if r.lastFix == nil {
		return Waypoint{}, ErrNoFix
	}
	if name == "" {
		name = icon
	}
	if name == "" {
		name = "Unnamed"
	}

	capturedAt := r.now()
	w := Waypoint{
		Lat:        r.lastFix.Lat,
		Lng:        r.lastFix.Lng,
		Name:       name,
		Timestamp:  capturedAt.Format("15:04:05"),
		CapturedAt: capturedAt,
		DistanceKm: RoundKm(CumulativeKm(r.stage.Waypoints, r.lastFix.Lat, r.lastFix.Lng)),
		Note:       note,
		Icon:       icon,
	}
	r.stage.Waypoints = append(r.stage.Waypoints, w)
	r.broadcastLocked("waypoint", w)
	return w, nil
}

// AddTrackingPoint appends a breadcrumb to the open stage.
func (r *Recorder) AddTrackingPoint(p TrackingPoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addTrackingPointLocked(p)
}

func (r *Recorder) addTrackingPointLocked(p TrackingPoint) error {
	if !r.recording {
		return ErrNotRecording
	}
	if p.RecordedAt.IsZero() {
		p.RecordedAt = r.now()
	}
	r.stage.TrackingPoints = append(r.stage.TrackingPoints, p)
	r.broadcastLocked("tracking_point", p)
	return nil
}

// DeleteWaypoints removes the given indices in one batch. Any index
// out of range refuses the whole batch.
func (r *Recorder) DeleteWaypoints(indices []int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return 0, ErrNotRecording
	}
	for _, idx := range indices {
		if idx < 0 || idx >= len(r.stage.Waypoints) {
			return 0, ErrIndexOutOfRange
		}
	}

	// Remove from the highest index down so earlier removals don't
	// shift the later ones.
	sorted := append([]int(nil), indices...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
	removed := 0
	for i, idx := range sorted {
		if i > 0 && idx == sorted[i-1] {
			continue
		}
		r.stage.Waypoints = append(r.stage.Waypoints[:idx], r.stage.Waypoints[idx+1:]...)
		removed++
	}
	return removed, nil
}

// EditWaypoint patches name and note in place. Distance and capture
// time never change on edit.
func (r *Recorder) EditWaypoint(index int, name, note string) (Waypoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return Waypoint{}, ErrNotRecording
	}
	if index < 0 || index >= len(r.stage.Waypoints) {
		return Waypoint{}, ErrIndexOutOfRange
	}
	if name != "" {
		r.stage.Waypoints[index].Name = name
	}
	if note != "" {
		r.stage.Waypoints[index].Note = note
	}
	return r.stage.Waypoints[index], nil
}

func (r *Recorder) snapshotLocked() Stage {
	snap := *r.stage
	snap.Waypoints = append([]Waypoint(nil), r.stage.Waypoints...)
	snap.TrackingPoints = append([]TrackingPoint(nil), r.stage.TrackingPoints...)
	if r.stage.Start != nil {
		start := *r.stage.Start
		snap.Start = &start
	}
	return snap
}

func (r *Recorder) broadcastLocked(event string, payload any) {
	if r.hub == nil {
		return
	}
	msg, err := json.Marshal(map[string]any{"event": event, "data": payload})
	if err != nil {
		return
	}
	r.hub.Broadcast(r.stage.ID, msg)
}

func summarize(s *Stage, endedAt time.Time) Summary {
	sum := Summary{
		StageID:            s.ID,
		Name:               s.Name,
		WaypointCount:      len(s.Waypoints),
		TrackingPointCount: len(s.TrackingPoints),
		TotalDistanceKm:    s.TotalDistanceKm(),
		StartedAt:          s.StartedAt,
		EndedAt:            endedAt,
	}

	seen := map[string]struct{}{}
	for _, w := range s.Waypoints {
		if w.VoiceCreated {
			sum.VoiceWaypointCount++
		} else {
			sum.ManualWaypointCount++
		}
		if w.Note != "" {
			if _, dup := seen[w.Note]; !dup {
				seen[w.Note] = struct{}{}
				sum.Notes = append(sum.Notes, w.Note)
			}
		}
	}
	if len(s.Waypoints) > 0 {
		sum.FirstCaptureAt = s.Waypoints[0].CapturedAt
		sum.LastCaptureAt = s.Waypoints[len(s.Waypoints)-1].CapturedAt
	}
	return sum
}

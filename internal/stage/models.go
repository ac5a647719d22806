package stage

import (
	"math"
	"time"

	"backend-rallynotes/internal/shared/geo"
	"backend-rallynotes/internal/transcript"
)

// Coordinate is a WGS-84 position.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Fix is a GPS reading delivered by the device's location watcher.
type Fix struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	AccuracyM float64   `json:"accuracy_m"`
	At        time.Time `json:"at"`
}

// Waypoint is a point of interest logged during a stage, either by
// hand or from a voice note. Voice-created waypoints always carry the
// original transcript and a category; the recorder refuses them
// otherwise.
type Waypoint struct {
	Lat           float64             `json:"lat"`
	Lng           float64             `json:"lng"`
	Name          string              `json:"name"`
	Timestamp     string              `json:"timestamp"`
	CapturedAt    time.Time           `json:"captured_at"`
	DistanceKm    float64             `json:"distance_from_start_km"`
	Note          string              `json:"note,omitempty"`
	Icon          string              `json:"icon,omitempty"`
	Category      transcript.Category `json:"category,omitempty"`
	VoiceCreated  bool                `json:"voice_created"`
	RawTranscript string              `json:"raw_transcript,omitempty"`
	SpeedContext  transcript.Speed    `json:"speed_context,omitempty"`
}

// TrackingPoint is an automatically sampled breadcrumb, unnamed.
type TrackingPoint struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Stage is one recorded driving segment between start and end triggers.
type Stage struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Start          *Coordinate     `json:"start,omitempty"`
	StartedAt      time.Time       `json:"started_at"`
	Waypoints      []Waypoint      `json:"waypoints"`
	TrackingPoints []TrackingPoint `json:"tracking_points"`
}

// TotalDistanceKm is the cumulative distance of the last waypoint, or
// 0 for an empty stage.
func (s *Stage) TotalDistanceKm() float64 {
	if len(s.Waypoints) == 0 {
		return 0
	}
	return s.Waypoints[len(s.Waypoints)-1].DistanceKm
}

// Summary is the frozen aggregate of a closed stage.
type Summary struct {
	StageID             string    `json:"stage_id"`
	Name                string    `json:"name"`
	WaypointCount       int       `json:"waypoint_count"`
	VoiceWaypointCount  int       `json:"voice_waypoint_count"`
	ManualWaypointCount int       `json:"manual_waypoint_count"`
	TrackingPointCount  int       `json:"tracking_point_count"`
	FirstCaptureAt      time.Time `json:"first_capture_at,omitempty"`
	LastCaptureAt       time.Time `json:"last_capture_at,omitempty"`
	TotalDistanceKm     float64   `json:"total_distance_km"`
	Notes               []string  `json:"notes,omitempty"`
	StartedAt           time.Time `json:"started_at"`
	EndedAt             time.Time `json:"ended_at"`
}

// CumulativeKm walks the prior waypoints in capture order and adds the
// leg to the current position. Recomputed from scratch on purpose:
// waypoints can be edited or deleted, and a cached running total would
// silently drift.
func CumulativeKm(prior []Waypoint, lat, lng float64) float64 {
	if len(prior) == 0 {
		return 0
	}
	points := make([]geo.LatLng, 0, len(prior)+1)
	for _, w := range prior {
		points = append(points, geo.LatLng{Lat: w.Lat, Lng: w.Lng})
	}
	points = append(points, geo.LatLng{Lat: lat, Lng: lng})
	return geo.PathKm(points)
}

// RoundKm rounds a distance to the 2 decimals stored on waypoints.
func RoundKm(km float64) float64 {
	return math.Round(km*100) / 100
}

package archive

import (
	"time"

	"backend-rallynotes/internal/stage"
)

// ArchivedStage is a closed stage at rest.
type ArchivedStage struct {
	ID                  string                `json:"id"`
	Name                string                `json:"name"`
	Start               *stage.Coordinate     `json:"start,omitempty"`
	StartedAt           time.Time             `json:"started_at"`
	EndedAt             time.Time             `json:"ended_at"`
	TotalDistanceKm     float64               `json:"total_distance_km"`
	WaypointCount       int                   `json:"waypoint_count"`
	VoiceWaypointCount  int                   `json:"voice_waypoint_count"`
	ManualWaypointCount int                   `json:"manual_waypoint_count"`
	TrackingPointCount  int                   `json:"tracking_point_count"`
	Notes               []string              `json:"notes,omitempty"`
	Waypoints           []stage.Waypoint      `json:"waypoints,omitempty"`
	TrackingPoints      []stage.TrackingPoint `json:"tracking_points,omitempty"`
	CreatedAt           time.Time             `json:"created_at"`
}

// ExportDocument is a rendered export saved alongside its stage.
type ExportDocument struct {
	ID          string    `json:"id"`
	StageID     string    `json:"stage_id"`
	Format      string    `json:"format"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Document    string    `json:"document"`
	CreatedAt   time.Time `json:"created_at"`
}

package export

import (
	"encoding/json"
	"time"

	"backend-rallynotes/internal/shared/geo"
	"backend-rallynotes/internal/stage"
	"backend-rallynotes/internal/transcript"
)

// TrackingInterval is the sampler cadence advertised in the tracking
// block. The server overwrites it from config at construction; the
// default matches the recorder's.
var TrackingInterval = 20 * time.Second

type jsonExport struct {
	Metadata  jsonMetadata   `json:"metadata"`
	Waypoints []jsonWaypoint `json:"waypoints"`
	Tracking  jsonTracking   `json:"tracking"`
}

type jsonMetadata struct {
	Stage           string         `json:"stage"`
	ExportedAt      string         `json:"exported_at"`
	TotalWaypoints  int            `json:"total_waypoints"`
	VoiceWaypoints  int            `json:"voice_waypoints"`
	ManualWaypoints int            `json:"manual_waypoints"`
	Categories      map[string]int `json:"categories"`
	TotalDistanceKm float64        `json:"total_distance_km"`
}

type jsonWaypoint struct {
	ID            int     `json:"id"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	Name          string  `json:"name"`
	Timestamp     string  `json:"timestamp"`
	CapturedAt    string  `json:"captured_at"`
	DistanceKm    float64 `json:"distance_from_start_km"`
	Category      string  `json:"category,omitempty"`
	Priority      string  `json:"priority"`
	Symbol        string  `json:"symbol"`
	HeadingDeg    float64 `json:"heading_deg,omitempty"`
	CreatedBy     string  `json:"created_by"`
	RawTranscript string  `json:"raw_transcript,omitempty"`
	SpeedContext  string  `json:"speed_context,omitempty"`
	Note          string  `json:"note,omitempty"`
}

type jsonTracking struct {
	Enabled  bool                  `json:"enabled"`
	Interval string                `json:"interval"`
	Points   []stage.TrackingPoint `json:"points"`
}

// JSON renders a stage as the tool's own interchange document:
// metadata, one normalized record per waypoint in capture order, and
// the raw tracking block.
func JSON(waypoints []stage.Waypoint, trackingPoints []stage.TrackingPoint, stageName string) (string, error) {
	doc := jsonExport{
		Metadata: jsonMetadata{
			Stage:          stageName,
			ExportedAt:     time.Now().UTC().Format(time.RFC3339),
			TotalWaypoints: len(waypoints),
			Categories:     map[string]int{},
		},
		Waypoints: []jsonWaypoint{},
		Tracking: jsonTracking{
			Enabled:  len(trackingPoints) > 0,
			Interval: TrackingInterval.String(),
			Points:   append([]stage.TrackingPoint{}, trackingPoints...),
		},
	}

	for i, w := range waypoints {
		createdBy := "manual"
		if w.VoiceCreated {
			createdBy = "voice"
			doc.Metadata.VoiceWaypoints++
		} else {
			doc.Metadata.ManualWaypoints++
		}
		category := w.Category
		if category == "" {
			category = transcript.CategoryGeneral
		}
		doc.Metadata.Categories[string(category)]++

		sym, _ := symbolFor(w.Category, w.Name)
		record := jsonWaypoint{
			ID:            i + 1,
			Lat:           w.Lat,
			Lng:           w.Lng,
			Name:          w.Name,
			Timestamp:     w.Timestamp,
			CapturedAt:    w.CapturedAt.UTC().Format(time.RFC3339),
			DistanceKm:    w.DistanceKm,
			Category:      string(w.Category),
			Priority:      priorityFor(w.Category, w.Name),
			Symbol:        sym,
			CreatedBy:     createdBy,
			RawTranscript: w.RawTranscript,
			SpeedContext:  string(w.SpeedContext),
			Note:          w.Note,
		}
		if i > 0 {
			prev := waypoints[i-1]
			record.HeadingDeg = geo.BearingDeg(prev.Lat, prev.Lng, w.Lat, w.Lng)
		}
		doc.Waypoints = append(doc.Waypoints, record)
	}

	if len(waypoints) > 0 {
		doc.Metadata.TotalDistanceKm = waypoints[len(waypoints)-1].DistanceKm
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

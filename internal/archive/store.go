package archive

import (
	"context"
	"encoding/json"
	"log"

	"backend-rallynotes/internal/db"
	"backend-rallynotes/internal/export"
	"backend-rallynotes/internal/stage"

	"github.com/google/uuid"
)

type Store struct {
	db db.Querier
}

func NewStore(db db.Querier) *Store {
	return &Store{db: db}
}

// FinishStage persists a closed stage and renders every export
// format. A failed format is logged and skipped; the other formats
// and the stage row do not cascade-fail with it.
func (s *Store) FinishStage(ctx context.Context, st stage.Stage, sum stage.Summary) error {
	if err := s.SaveStage(ctx, st, sum); err != nil {
		return err
	}
	for _, format := range export.Formats {
		doc, filename, contentType, err := export.Encode(format, st)
		if err != nil {
			log.Printf("%s export failed for stage %s: %v", format, st.ID, err)
			continue
		}
		if _, err := s.SaveExport(ctx, st.ID, format, filename, contentType, doc); err != nil {
			log.Printf("saving %s export failed for stage %s: %v", format, st.ID, err)
		}
	}
	return nil
}

func (s *Store) SaveStage(ctx context.Context, st stage.Stage, sum stage.Summary) error {
	waypoints, err := json.Marshal(st.Waypoints)
	if err != nil {
		return err
	}
	trackPoints, err := json.Marshal(st.TrackingPoints)
	if err != nil {
		return err
	}
	notes, err := json.Marshal(sum.Notes)
	if err != nil {
		return err
	}

	var startLng, startLat *float64
	if st.Start != nil {
		startLng, startLat = &st.Start.Lng, &st.Start.Lat
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO stages (id, name, start_point, started_at, ended_at, total_distance_km,
		                    waypoint_count, voice_waypoint_count, manual_waypoint_count,
		                    tracking_point_count, notes, waypoints, track_points)
		VALUES ($1,$2, ST_SetSRID(ST_MakePoint($3,$4), 4326)::geography, $5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`, st.ID, st.Name, startLng, startLat, sum.StartedAt, sum.EndedAt, sum.TotalDistanceKm,
		sum.WaypointCount, sum.VoiceWaypointCount, sum.ManualWaypointCount,
		sum.TrackingPointCount, notes, waypoints, trackPoints)
	return err
}

func (s *Store) SaveExport(ctx context.Context, stageID, format, filename, contentType, document string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(ctx, `
		INSERT INTO stage_exports (id, stage_id, format, filename, content_type, document)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, id, stageID, format, filename, contentType, document)
	if err != nil {
		return "", err
	}
	return id, nil
}

// ListStages returns archived stage summaries, newest first.
func (s *Store) ListStages(ctx context.Context) ([]ArchivedStage, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, ST_Y(start_point::geometry), ST_X(start_point::geometry),
		       started_at, ended_at, total_distance_km, waypoint_count,
		       voice_waypoint_count, manual_waypoint_count, tracking_point_count, created_at
		FROM stages
		ORDER BY ended_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stages []ArchivedStage
	for rows.Next() {
		var a ArchivedStage
		var lat, lng *float64
		if err := rows.Scan(&a.ID, &a.Name, &lat, &lng, &a.StartedAt, &a.EndedAt,
			&a.TotalDistanceKm, &a.WaypointCount, &a.VoiceWaypointCount,
			&a.ManualWaypointCount, &a.TrackingPointCount, &a.CreatedAt); err != nil {
			return nil, err
		}
		if lat != nil && lng != nil {
			a.Start = &stage.Coordinate{Lat: *lat, Lng: *lng}
		}
		stages = append(stages, a)
	}
	return stages, nil
}

// GetStage loads one archived stage with its point data. Corrupt
// entries inside the stored waypoint and track documents are dropped
// instead of failing the whole load.
func (s *Store) GetStage(ctx context.Context, id string) (ArchivedStage, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, ST_Y(start_point::geometry), ST_X(start_point::geometry),
		       started_at, ended_at, total_distance_km, waypoint_count,
		       voice_waypoint_count, manual_waypoint_count, tracking_point_count,
		       notes, waypoints, track_points, created_at
		FROM stages WHERE id=$1
	`, id)

	var a ArchivedStage
	var lat, lng *float64
	var notes, waypoints, trackPoints []byte
	if err := row.Scan(&a.ID, &a.Name, &lat, &lng, &a.StartedAt, &a.EndedAt,
		&a.TotalDistanceKm, &a.WaypointCount, &a.VoiceWaypointCount,
		&a.ManualWaypointCount, &a.TrackingPointCount,
		&notes, &waypoints, &trackPoints, &a.CreatedAt); err != nil {
		return ArchivedStage{}, err
	}
	if lat != nil && lng != nil {
		a.Start = &stage.Coordinate{Lat: *lat, Lng: *lng}
	}
	_ = json.Unmarshal(notes, &a.Notes)
	a.Waypoints = decodeElements[stage.Waypoint](waypoints, a.ID, "waypoint")
	a.TrackingPoints = decodeElements[stage.TrackingPoint](trackPoints, a.ID, "track point")
	return a, nil
}

// GetExport returns the stored export document for a stage and format.
func (s *Store) GetExport(ctx context.Context, stageID, format string) (ExportDocument, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, stage_id, format, filename, content_type, document, created_at
		FROM stage_exports
		WHERE stage_id=$1 AND format=$2
		ORDER BY created_at DESC
		LIMIT 1
	`, stageID, format)

	var doc ExportDocument
	if err := row.Scan(&doc.ID, &doc.StageID, &doc.Format, &doc.Filename,
		&doc.ContentType, &doc.Document, &doc.CreatedAt); err != nil {
		return ExportDocument{}, err
	}
	return doc, nil
}

// decodeElements unmarshals a stored JSON array element by element so
// one corrupt entry does not lose the rest.
func decodeElements[T any](data []byte, stageID, kind string) []T {
	if len(data) == 0 {
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Printf("stage %s: %s document unreadable: %v", stageID, kind, err)
		return nil
	}
	out := make([]T, 0, len(raw))
	for _, el := range raw {
		var v T
		if err := json.Unmarshal(el, &v); err != nil {
			log.Printf("stage %s: dropping corrupt %s entry: %v", stageID, kind, err)
			continue
		}
		out = append(out, v)
	}
	return out
}

package export

import (
	"encoding/xml"
	"time"

	"backend-rallynotes/internal/stage"
)

const gpxNamespace = "http://www.topografix.com/GPX/1/1"

type gpxDoc struct {
	XMLName  xml.Name     `xml:"gpx"`
	Version  string       `xml:"version,attr"`
	Creator  string       `xml:"creator,attr"`
	Xmlns    string       `xml:"xmlns,attr"`
	Metadata *gpxMetadata `xml:"metadata,omitempty"`
	Wpts     []gpxWpt     `xml:"wpt"`
	Rte      *gpxRte      `xml:"rte,omitempty"`
	Trk      *gpxTrk      `xml:"trk,omitempty"`
}

type gpxMetadata struct {
	Name string `xml:"name,omitempty"`
	Time string `xml:"time,omitempty"`
}

type gpxWpt struct {
	Lat  float64 `xml:"lat,attr"`
	Lon  float64 `xml:"lon,attr"`
	Time string  `xml:"time,omitempty"`
	Name string  `xml:"name,omitempty"`
	Desc string  `xml:"desc,omitempty"`
	Sym  string  `xml:"sym,omitempty"`
	Type string  `xml:"type,omitempty"`
}

type gpxRte struct {
	Name string     `xml:"name,omitempty"`
	Pts  []gpxRtePt `xml:"rtept"`
}

type gpxRtePt struct {
	Lat  float64 `xml:"lat,attr"`
	Lon  float64 `xml:"lon,attr"`
	Name string  `xml:"name,omitempty"`
}

type gpxTrk struct {
	Name string      `xml:"name,omitempty"`
	Segs []gpxTrkSeg `xml:"trkseg"`
}

type gpxTrkSeg struct {
	Pts []gpxTrkPt `xml:"trkpt"`
}

type gpxTrkPt struct {
	Lat  float64 `xml:"lat,attr"`
	Lon  float64 `xml:"lon,attr"`
	Time string  `xml:"time,omitempty"`
}

// GPX renders a stage as a GPX 1.1 document: one wpt per waypoint in
// capture order, a route when there are at least two waypoints, and a
// single-segment track when breadcrumbs exist.
func GPX(waypoints []stage.Waypoint, trackingPoints []stage.TrackingPoint, stageName string) (string, error) {
	doc := gpxDoc{
		Version: "1.1",
		Creator: "rallynotes",
		Xmlns:   gpxNamespace,
		Metadata: &gpxMetadata{
			Name: stageName,
			Time: time.Now().UTC().Format(time.RFC3339),
		},
	}

	for _, w := range waypoints {
		sym, gpxType := symbolFor(w.Category, w.Name)
		doc.Wpts = append(doc.Wpts, gpxWpt{
			Lat:  w.Lat,
			Lon:  w.Lng,
			Time: w.CapturedAt.UTC().Format(time.RFC3339),
			Name: w.Name,
			Desc: w.Note,
			Sym:  sym,
			Type: gpxType,
		})
	}

	if len(waypoints) >= 2 {
		rte := &gpxRte{Name: stageName}
		for _, w := range waypoints {
			rte.Pts = append(rte.Pts, gpxRtePt{Lat: w.Lat, Lon: w.Lng, Name: w.Name})
		}
		doc.Rte = rte
	}

	if len(trackingPoints) > 0 {
		seg := gpxTrkSeg{}
		for _, p := range trackingPoints {
			seg.Pts = append(seg.Pts, gpxTrkPt{
				Lat:  p.Lat,
				Lon:  p.Lng,
				Time: p.RecordedAt.UTC().Format(time.RFC3339),
			})
		}
		doc.Trk = &gpxTrk{Name: stageName + " track", Segs: []gpxTrkSeg{seg}}
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return xml.Header + string(out), nil
}

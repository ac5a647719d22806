package export

import (
	"encoding/xml"
	"strconv"
	"strings"

	"backend-rallynotes/internal/stage"
)

const kmlNamespace = "http://www.opengis.net/kml/2.2"

type kmlRoot struct {
	XMLName  xml.Name    `xml:"kml"`
	Xmlns    string      `xml:"xmlns,attr"`
	Document kmlDocument `xml:"Document"`
}

type kmlDocument struct {
	Name    string      `xml:"name"`
	Folders []kmlFolder `xml:"Folder"`
}

type kmlFolder struct {
	Name       string         `xml:"name"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlPlacemark struct {
	Name        string         `xml:"name,omitempty"`
	Description string         `xml:"description,omitempty"`
	TimeStamp   *kmlTimeStamp  `xml:"TimeStamp,omitempty"`
	Point       *kmlPoint      `xml:"Point,omitempty"`
	LineString  *kmlLineString `xml:"LineString,omitempty"`
}

type kmlTimeStamp struct {
	When string `xml:"when"`
}

type kmlPoint struct {
	Coordinates string `xml:"coordinates"`
}

type kmlLineString struct {
	Tessellate  int    `xml:"tessellate"`
	Coordinates string `xml:"coordinates"`
}

// KML renders a stage as a KML 2.2 document with a Waypoints folder
// and, when breadcrumbs exist, a GPS Track folder holding one
// LineString. KML wants lon,lat order.
func KML(waypoints []stage.Waypoint, trackingPoints []stage.TrackingPoint, stageName string) (string, error) {
	doc := kmlRoot{
		Xmlns:    kmlNamespace,
		Document: kmlDocument{Name: stageName},
	}

	wptFolder := kmlFolder{Name: "Waypoints"}
	for _, w := range waypoints {
		wptFolder.Placemarks = append(wptFolder.Placemarks, kmlPlacemark{
			Name:        w.Name,
			Description: w.Note,
			TimeStamp:   &kmlTimeStamp{When: w.CapturedAt.UTC().Format("2006-01-02T15:04:05Z")},
			Point:       &kmlPoint{Coordinates: kmlCoordinate(w.Lng, w.Lat)},
		})
	}
	doc.Document.Folders = append(doc.Document.Folders, wptFolder)

	if len(trackingPoints) > 0 {
		coords := make([]string, 0, len(trackingPoints))
		for _, p := range trackingPoints {
			coords = append(coords, kmlCoordinate(p.Lng, p.Lat))
		}
		doc.Document.Folders = append(doc.Document.Folders, kmlFolder{
			Name: "GPS Track",
			Placemarks: []kmlPlacemark{{
				Name: stageName + " track",
				LineString: &kmlLineString{
					Tessellate:  1,
					Coordinates: strings.Join(coords, "\n"),
				},
			}},
		})
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return xml.Header + string(out), nil
}

func kmlCoordinate(lng, lat float64) string {
	return strconv.FormatFloat(lng, 'f', -1, 64) + "," + strconv.FormatFloat(lat, 'f', -1, 64) + ",0"
}

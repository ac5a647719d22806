package export

import (
	"errors"
	"strings"

	"backend-rallynotes/internal/stage"

	"github.com/gofiber/fiber/v2"
)

var ErrUnknownFormat = errors.New("unknown export format")

// Formats lists the supported export formats.
var Formats = []string{"gpx", "kml", "json"}

// Encode renders a stage in the named format and returns the document
// with its filename and content type.
func Encode(format string, st stage.Stage) (doc, filename, contentType string, err error) {
	base := filenameBase(st.Name)
	switch format {
	case "gpx":
		doc, err = GPX(st.Waypoints, st.TrackingPoints, st.Name)
		return doc, base + ".gpx", "application/gpx+xml", err
	case "kml":
		doc, err = KML(st.Waypoints, st.TrackingPoints, st.Name)
		return doc, base + ".kml", "application/vnd.google-earth.kml+xml", err
	case "json":
		doc, err = JSON(st.Waypoints, st.TrackingPoints, st.Name)
		return doc, base + ".json", "application/json", err
	}
	return "", "", "", ErrUnknownFormat
}

func filenameBase(stageName string) string {
	name := strings.ToLower(strings.TrimSpace(stageName))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		}
		return -1
	}, name)
	if name == "" {
		name = "stage"
	}
	return name
}

// RegisterRoutes serves exports of the currently open stage.
func RegisterRoutes(r fiber.Router, rec *stage.Recorder) {
	r.Get("/:format", func(c *fiber.Ctx) error {
		st, ok := rec.Snapshot()
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no stage is recording")
		}
		doc, filename, contentType, err := Encode(c.Params("format"), st)
		if errors.Is(err, ErrUnknownFormat) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		c.Set(fiber.HeaderContentType, contentType)
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
		return c.SendString(doc)
	})
}

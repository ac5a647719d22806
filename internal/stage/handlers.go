package stage

import (
	"context"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
)

// Finisher persists a closed stage and its export documents.
type Finisher interface {
	FinishStage(ctx context.Context, st Stage, sum Summary) error
}

func RegisterRoutes(r fiber.Router, rec *Recorder, finisher Finisher) {
	r.Post("/start", func(c *fiber.Ctx) error {
		var body struct {
			Lat *float64 `json:"lat"`
			Lng *float64 `json:"lng"`
		}
		if err := c.BodyParser(&body); err != nil && len(c.Body()) > 0 {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		var at *Coordinate
		if body.Lat != nil && body.Lng != nil {
			at = &Coordinate{Lat: *body.Lat, Lng: *body.Lng}
		}
		st, err := rec.Start(at)
		if err != nil {
			return statusError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(st)
	})

	r.Post("/end", func(c *fiber.Ctx) error {
		closed, summary, err := rec.End()
		if err != nil {
			return statusError(err)
		}

		archived := false
		if finisher != nil {
			if err := finisher.FinishStage(c.Context(), closed, summary); err != nil {
				log.Printf("stage archive failed: %v", err)
			} else {
				archived = true
			}
		}
		return c.JSON(fiber.Map{"summary": summary, "archived": archived})
	})

	r.Get("/", func(c *fiber.Ctx) error {
		st, ok := rec.Snapshot()
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no stage is recording")
		}
		return c.JSON(st)
	})

	r.Post("/fix", func(c *fiber.Ctx) error {
		var body struct {
			Lat       float64 `json:"lat"`
			Lng       float64 `json:"lng"`
			AccuracyM float64 `json:"accuracy_m"`
			Error     string  `json:"error"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if body.Error != "" {
			rec.ClearFix(body.Error)
		} else {
			rec.SetFix(Fix{Lat: body.Lat, Lng: body.Lng, AccuracyM: body.AccuracyM})
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/waypoints", func(c *fiber.Ctx) error {
		var body struct {
			Name string `json:"name"`
			Icon string `json:"icon"`
			Note string `json:"note"`
		}
		if err := c.BodyParser(&body); err != nil && len(c.Body()) > 0 {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		w, err := rec.AddManualWaypoint(body.Name, body.Icon, body.Note)
		if err != nil {
			return statusError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(w)
	})

	r.Put("/waypoints/:index", func(c *fiber.Ctx) error {
		index, err := c.ParamsInt("index")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "index must be an integer")
		}
		var body struct {
			Name string `json:"name"`
			Note string `json:"note"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		w, err := rec.EditWaypoint(index, body.Name, body.Note)
		if err != nil {
			return statusError(err)
		}
		return c.JSON(w)
	})

	r.Delete("/waypoints", func(c *fiber.Ctx) error {
		var body struct {
			Indices []int `json:"indices"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if len(body.Indices) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "indices required")
		}
		removed, err := rec.DeleteWaypoints(body.Indices)
		if err != nil {
			return statusError(err)
		}
		return c.JSON(fiber.Map{"removed": removed})
	})

	r.Post("/tracking/start", func(c *fiber.Ctx) error {
		if err := rec.StartTracking(); err != nil {
			return statusError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/tracking/stop", func(c *fiber.Ctx) error {
		rec.StopTracking()
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func statusError(err error) error {
	switch {
	case errors.Is(err, ErrNotRecording), errors.Is(err, ErrAlreadyRecording), errors.Is(err, ErrTrackingActive):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrNoFix):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrIndexOutOfRange):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}

package voice

import (
	"errors"
	"log"

	"backend-rallynotes/internal/stage"
	"backend-rallynotes/internal/transcript"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes adds the voice intake to the stage surface. A
// transcript either drives the stage lifecycle or becomes a waypoint.
func RegisterRoutes(r fiber.Router, rec *stage.Recorder, finisher stage.Finisher) {
	r.Post("/waypoints/voice", func(c *fiber.Ctx) error {
		var body struct {
			Transcript string `json:"transcript"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if cmd, ok := Command(body.Transcript); ok {
			return runCommand(c, rec, finisher, cmd)
		}

		fix, ok := rec.CurrentFix()
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, stage.ErrNoFix.Error())
		}

		speed := transcript.SpeedContext(rec.RecentSamples())
		w, err := Build(body.Transcript, fix, rec.Waypoints(), speed)
		if errors.Is(err, ErrEmptyTranscript) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		added, err := rec.AddWaypoint(w)
		if errors.Is(err, stage.ErrNotRecording) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(added)
	})
}

func runCommand(c *fiber.Ctx, rec *stage.Recorder, finisher stage.Finisher, cmd string) error {
	switch cmd {
	case "start":
		st, err := rec.Start(nil)
		if errors.Is(err, stage.ErrAlreadyRecording) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"command": cmd, "stage": st})
	case "end":
		closed, summary, err := rec.End()
		if errors.Is(err, stage.ErrNotRecording) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if finisher != nil {
			if err := finisher.FinishStage(c.Context(), closed, summary); err != nil {
				log.Printf("stage archive failed: %v", err)
			}
		}
		return c.JSON(fiber.Map{"command": cmd, "summary": summary})
	}
	return fiber.NewError(fiber.StatusBadRequest, "unknown command")
}

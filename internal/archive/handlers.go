package archive

import (
	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, store *Store) {
	r.Get("/stages", func(c *fiber.Ctx) error {
		stages, err := store.ListStages(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if stages == nil {
			stages = []ArchivedStage{}
		}
		return c.JSON(stages)
	})

	r.Get("/stages/:id", func(c *fiber.Ctx) error {
		st, err := store.GetStage(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "stage not found")
		}
		return c.JSON(st)
	})

	r.Get("/stages/:id/export/:format", func(c *fiber.Ctx) error {
		doc, err := store.GetExport(c.Context(), c.Params("id"), c.Params("format"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "export not found")
		}
		c.Set(fiber.HeaderContentType, doc.ContentType)
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+doc.Filename+`"`)
		return c.SendString(doc.Document)
	})
}

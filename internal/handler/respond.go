package handler

import (
	"go-agritrace/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

// respondError maps a service error to an HTTP response carrying both the
// human-readable message and the machine error kind.
func respondError(c *fiber.Ctx, err error) error {
	kind := apperr.KindOf(err)
	return c.Status(apperr.HTTPStatus(kind)).JSON(fiber.Map{
		"error": apperr.MessageOf(err),
		"kind":  kind,
	})
}

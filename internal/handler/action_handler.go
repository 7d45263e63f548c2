package handler

import (
	"go-agritrace/internal/middleware"
	"go-agritrace/internal/model"
	"go-agritrace/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ActionHandler struct {
	actions service.ActionService
}

func NewActionHandler(actions service.ActionService) *ActionHandler {
	return &ActionHandler{actions: actions}
}

// Submit relays one business action to the ledger and syncs the mirror.
// POST /api/v1/transactions
func (h *ActionHandler) Submit(c *fiber.Ctx) error {
	var req model.ActionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON", "kind": "validation"})
	}

	actor := middleware.CurrentUser(c)
	if actor == nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized", "kind": "unauthorized"})
	}

	result, err := h.actions.Dispatch(c.UserContext(), &req, actor)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"txHash":        result.TxHash,
		"mirror_synced": result.MirrorSynced,
	})
}

// History lists confirmed actions newest first.
// GET /api/v1/transactions
func (h *ActionHandler) History(c *fiber.Ctx) error {
	entries, err := h.actions.History()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": entries})
}

package handler

import (
	"go-agritrace/internal/repository"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	logRepo repository.ActionLogRepository
}

func NewDashboardHandler(logRepo repository.ActionLogRepository) *DashboardHandler {
	return &DashboardHandler{logRepo: logRepo}
}

// Stats returns the mirror overview for moderators and admins.
// GET /api/v1/dashboard/stats
func (h *DashboardHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.logRepo.GetDashboardStats()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

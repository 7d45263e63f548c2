package handler

import (
	"go-agritrace/internal/middleware"
	"go-agritrace/internal/service"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	users  service.UserService
	notify service.NotifyService
}

func NewUserHandler(users service.UserService, notify service.NotifyService) *UserHandler {
	return &UserHandler{users: users, notify: notify}
}

// UpdateWallet links a ledger wallet address to the account.
// POST /api/v1/auth/update-wallet
func (h *UserHandler) UpdateWallet(c *fiber.Ctx) error {
	var req struct {
		WalletAddress string `json:"walletAddress"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON", "kind": "validation"})
	}

	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized", "kind": "unauthorized"})
	}

	wallet, err := h.users.UpdateWallet(user.ID, req.WalletAddress)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "walletAddress": wallet})
}

// UpdateProfile changes display fields (name, company, avatar).
// POST /api/v1/auth/update-profile
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	var req service.ProfileUpdate
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON", "kind": "validation"})
	}

	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized", "kind": "unauthorized"})
	}

	updated, err := h.users.UpdateProfile(user.ID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "user": updated})
}

// UpdateFCMToken stores the device push token.
// POST /api/v1/auth/fcm-token
func (h *UserHandler) UpdateFCMToken(c *fiber.Ctx) error {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON", "kind": "validation"})
	}

	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized", "kind": "unauthorized"})
	}

	if err := h.users.UpdateFCMToken(user.ID, req.Token); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// Farmers is the public farmer directory.
// GET /api/v1/auth/farmers
func (h *UserHandler) Farmers(c *fiber.Ctx) error {
	farmers, err := h.users.Farmers()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": farmers})
}

// Notifications lists the authenticated user's notifications newest first.
// GET /api/v1/auth/notifications
func (h *UserHandler) Notifications(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized", "kind": "unauthorized"})
	}

	notifications, err := h.notify.ListForUser(user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": notifications})
}

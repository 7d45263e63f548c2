package handler

import (
	"go-agritrace/internal/middleware"
	"go-agritrace/internal/model"
	"go-agritrace/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	products service.ProductService
}

func NewProductHandler(products service.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// MyProducts lists the authenticated farmer's products from the mirror.
// GET /api/v1/products/my-products
func (h *ProductHandler) MyProducts(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil || user.Role != model.RoleFarmer {
		return c.Status(403).JSON(fiber.Map{"error": "Farmers only", "kind": "forbidden"})
	}

	views, err := h.products.MyProducts(user.Phone)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"products": views})
}

// PendingRequests lists the moderation queue.
// GET /api/v1/products/pending-requests
func (h *ProductHandler) PendingRequests(c *fiber.Ctx) error {
	data, err := h.products.PendingRequests()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": data})
}

// ModeratedRequests lists already-reviewed requests read from the ledger.
// GET /api/v1/products/moderated-requests
func (h *ProductHandler) ModeratedRequests(c *fiber.Ctx) error {
	data, err := h.products.ModeratedRequests(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": data})
}

// MyShipments lists cargo assigned to the authenticated transporter.
// GET /api/v1/products/my-shipments
func (h *ProductHandler) MyShipments(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized", "kind": "unauthorized"})
	}

	views, err := h.products.MyShipments(user.DisplayName())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": views})
}

// RetailerProducts lists delivered products for the store.
// GET /api/v1/products/retailer-products
func (h *ProductHandler) RetailerProducts(c *fiber.Ctx) error {
	views, err := h.products.RetailerProducts()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": views})
}

// OnShelf publicly lists the newest priced products straight off the ledger.
// GET /api/v1/products/on-shelf
func (h *ProductHandler) OnShelf(c *fiber.Ctx) error {
	items, err := h.products.OnShelf(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}

// ByFarmer publicly lists one farmer's growing products.
// GET /api/v1/products/by-farmer/:phone
func (h *ProductHandler) ByFarmer(c *fiber.Ctx) error {
	views, err := h.products.ByFarmer(c.Params("phone"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": views})
}

// Detail returns the merged trace + mirror view with care logs.
// GET /api/v1/products/:id
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	detail, err := h.products.Detail(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": detail})
}

// Reconcile rebuilds one mirror row from ledger truth.
// POST /api/v1/products/:id/reconcile
func (h *ProductHandler) Reconcile(c *fiber.Ctx) error {
	product, err := h.products.Reconcile(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": product})
}

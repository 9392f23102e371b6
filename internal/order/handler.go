package order

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/storefront/internal/graphql"
	"github.com/wichananm65/storefront/internal/user"
)

// Handler exposes the caller's order history. Orders are placed through the
// checkout confirmation route, not here.
type Handler struct {
	creator *Creator
}

func NewHandler(c *Creator) *Handler {
	return &Handler{creator: c}
}

func (h *Handler) RegisterProtectedRoutes(app fiber.Router) {
	app.Get("/api/v1/orders", h.getOrders)
	app.Get("/api/v1/orders/:id", h.getOrder)
}

func (h *Handler) getOrders(c *fiber.Ctx) error {
	if !user.IsAuthenticated(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	orders, err := h.creator.Orders(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(orders)
}

func (h *Handler) getOrder(c *fiber.Ctx) error {
	if !user.IsAuthenticated(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	ord, err := h.creator.Order(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(ord)
}

func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "order not found"})
	case graphql.IsRemote(err):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": "order service unavailable"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
}

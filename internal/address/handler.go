package address

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/storefront/internal/graphql"
	"github.com/wichananm65/storefront/internal/user"
)

// Handler delegates address operations to the address service.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(app fiber.Router) {
	app.Get("/api/v1/address", h.getAddresses)
}

func (h *Handler) getAddresses(c *fiber.Ctx) error {
	if !user.IsAuthenticated(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	addrs, err := h.service.GetAddresses(c.UserContext())
	if err != nil {
		if graphql.IsRemote(err) {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": "address service unavailable"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}

	out := fiber.Map{"addresses": addrs}
	if def, ok := Default(addrs); ok {
		out["default_id"] = def.ID
	}
	return c.JSON(out)
}

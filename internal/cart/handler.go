package cart

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/wichananm65/storefront/internal/graphql"
	"github.com/wichananm65/storefront/internal/user"
)

const (
	GuestCookie = "guest_id"
	GuestHeader = "X-Guest-ID"

	guestCookieTTL = 30 * 24 * time.Hour
)

// Handler serves cart routes to guests and signed-in users alike.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

// RegisterRoutes mounts the cart endpoints behind auth, which is expected to
// accept anonymous requests.
func (h *Handler) RegisterRoutes(app fiber.Router, auth fiber.Handler) {
	app.Get("/api/v1/cart", auth, h.getCart)
	app.Post("/api/v1/cart/reconcile", auth, h.getCart)
	app.Post("/api/v1/cart/items", auth, h.addItems)
	app.Post("/api/v1/cart/items/:id/reduce", auth, h.reduceItem)
	app.Delete("/api/v1/cart/items/:id", auth, h.removeItem)
}

type addRequest struct {
	ProductID string `json:"product_id"`
	Quantity  *int   `json:"quantity,omitempty"`
	Products  []Line `json:"products,omitempty"`
}

type reduceRequest struct {
	Quantity int `json:"quantity,omitempty"`
}

func (h *Handler) getCart(c *fiber.Ctx) error {
	view, err := h.service.Reconcile(c.UserContext(), ownerFromCtx(c, false))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(view)
}

func (h *Handler) addItems(c *fiber.Ctx) error {
	payload := new(addRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	lines := payload.Products
	if payload.ProductID != "" {
		qty := 1
		if payload.Quantity != nil {
			qty = *payload.Quantity
		}
		lines = append(lines, Line{ProductID: payload.ProductID, Quantity: qty})
	}
	if len(lines) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": ErrInvalidProduct.Error()})
	}

	view, err := h.service.Add(c.UserContext(), ownerFromCtx(c, true), lines...)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(view)
}

func (h *Handler) reduceItem(c *fiber.Ctx) error {
	payload := new(reduceRequest)
	if len(c.Body()) > 0 {
		if err := c.BodyParser(payload); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
		}
	}
	n := payload.Quantity
	if n == 0 {
		n = 1
	}
	view, err := h.service.Reduce(c.UserContext(), ownerFromCtx(c, false), c.Params("id"), n)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(view)
}

func (h *Handler) removeItem(c *fiber.Ctx) error {
	view, err := h.service.Remove(c.UserContext(), ownerFromCtx(c, false), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(view)
}

// ownerFromCtx reads the user id from verified claims and the guest id from
// the cookie or header. With mint set, an anonymous request without a guest id
// gets a fresh one and the cookie is issued.
func ownerFromCtx(c *fiber.Ctx, mint bool) Owner {
	o := Owner{GuestID: c.Cookies(GuestCookie)}
	if o.GuestID == "" {
		o.GuestID = c.Get(GuestHeader)
	}
	if id, err := user.GetUserIDFromCtx(c); err == nil {
		o.UserID = id
		return o
	}
	if o.GuestID == "" && mint {
		o.GuestID = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     GuestCookie,
			Value:    o.GuestID,
			Path:     "/",
			Expires:  time.Now().Add(guestCookieTTL),
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		c.Set(GuestHeader, o.GuestID)
	}
	return o
}

func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidProduct):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, ErrNoOwner):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "guest id required"})
	case graphql.IsRemote(err):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": "cart service unavailable"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
}

package checkout

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/storefront/internal/address"
	"github.com/wichananm65/storefront/internal/graphql"
	"github.com/wichananm65/storefront/internal/order"
	"github.com/wichananm65/storefront/internal/payment"
	"github.com/wichananm65/storefront/internal/user"
)

const IdempotencyHeader = "Idempotency-Key"

// Handler serves the checkout flow to signed-in users.
type Handler struct {
	service  *Service
	cartPage string
}

func NewHandler(s *Service, cartPage string) *Handler {
	return &Handler{service: s, cartPage: cartPage}
}

func (h *Handler) RegisterProtectedRoutes(app fiber.Router) {
	app.Post("/api/v1/checkout", h.start)
	app.Get("/api/v1/checkout", h.current)
	app.Put("/api/v1/checkout/address", h.selectAddress)
	app.Post("/api/v1/checkout/continue", h.advance)
	app.Post("/api/v1/checkout/back", h.back)
	app.Post("/api/v1/checkout/payment", h.confirmPayment)
	app.Get("/api/v1/checkout/confirmation", h.confirmation)
}

type startRequest struct {
	CartID string `json:"cart_id"`
}

type addressRequest struct {
	AddressID string `json:"address_id"`
}

func (h *Handler) start(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	payload := new(startRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	sess, err := h.service.Start(c.UserContext(), userID, payload.CartID)
	return h.respond(c, sess, err)
}

func (h *Handler) current(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	sess, err := h.service.Current(userID)
	return h.respond(c, sess, err)
}

func (h *Handler) selectAddress(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	payload := new(addressRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	sess, err := h.service.SelectAddress(c.UserContext(), userID, payload.AddressID)
	return h.respond(c, sess, err)
}

func (h *Handler) advance(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	sess, err := h.service.Continue(c.UserContext(), userID)
	return h.respond(c, sess, err)
}

func (h *Handler) back(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	sess, err := h.service.Back(userID)
	return h.respond(c, sess, err)
}

func (h *Handler) confirmPayment(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	payload := new(PaymentResult)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	sess, err := h.service.ConfirmPayment(userID, *payload)
	return h.respond(c, sess, err)
}

// confirmation is where the payment gateway redirects back to. Without both
// cart_id and address_id the shopper is sent back to the cart page.
func (h *Handler) confirmation(c *fiber.Ctx) error {
	req := order.Request{
		CartID:          c.Query("cart_id"),
		AddressID:       c.Query("address_id"),
		PaymentIntentID: c.Query("payment_intent"),
		PaymentMethod:   c.Query("payment_method"),
		IdempotencyKey:  c.Get(IdempotencyHeader),
	}
	if req.CartID == "" || req.AddressID == "" {
		return c.Redirect(h.cartPage, fiber.StatusSeeOther)
	}
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	ord, err := h.service.Complete(c.UserContext(), userID, req)
	if err != nil {
		if errors.Is(err, order.ErrMissingParams) {
			return c.Redirect(h.cartPage, fiber.StatusSeeOther)
		}
		return h.respond(c, nil, err)
	}
	return c.JSON(fiber.Map{"step": StepConfirmation, "order": ord})
}

func (h *Handler) respond(c *fiber.Ctx, sess *Session, err error) error {
	if err == nil {
		return c.JSON(sess)
	}
	var pe *payment.Error
	switch {
	case errors.As(err, &pe):
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"message": pe.Message, "session": sess})
	case errors.Is(err, ErrAddressRequired), errors.Is(err, ErrCartRequired), errors.Is(err, address.ErrNotFound),
		errors.Is(err, order.ErrIntentRequired):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"message": err.Error(), "session": sess})
	case errors.Is(err, ErrInvalidStep), errors.Is(err, order.ErrKeyReused):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error(), "session": sess})
	case errors.Is(err, ErrNoSession):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, payment.ErrSettleTimeout):
		return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{"message": "payment is still settling, try again shortly"})
	case graphql.IsRemote(err):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": "checkout service unavailable", "session": sess})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
}

package payment

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

const SignatureHeader = "Stripe-Signature"

// WebhookHandler receives gateway events and turns payment intent outcomes
// into settlement signals.
type WebhookHandler struct {
	secret      string
	settlements *Settlements
	log         *logrus.Logger
}

func NewWebhookHandler(secret string, settlements *Settlements, log *logrus.Logger) *WebhookHandler {
	return &WebhookHandler{secret: secret, settlements: settlements, log: log}
}

func (h *WebhookHandler) RegisterPublicRoutes(app fiber.Router) {
	app.Post("/webhooks/payment", h.receive)
}

func (h *WebhookHandler) receive(c *fiber.Ctx) error {
	event, err := webhook.ConstructEventWithOptions(c.Body(), c.Get(SignatureHeader), h.secret, webhook.ConstructEventOptions{
		Tolerance:                webhook.DefaultTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		h.log.WithError(err).Warn("rejecting payment webhook")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid signature"})
	}

	var status Status
	switch event.Type {
	case "payment_intent.succeeded":
		status = StatusSucceeded
	case "payment_intent.payment_failed":
		status = StatusFailed
	default:
		h.log.WithField("type", event.Type).Debug("ignoring payment webhook event")
		return c.SendStatus(fiber.StatusOK)
	}

	var intent stripe.PaymentIntent
	if event.Data == nil || json.Unmarshal(event.Data.Raw, &intent) != nil || intent.ID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "malformed payment intent"})
	}
	h.settlements.Signal(intent.ID, status)
	h.log.WithFields(logrus.Fields{"intent": intent.ID, "status": status}).Info("payment settled")
	return c.SendStatus(fiber.StatusOK)
}

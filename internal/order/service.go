package order

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/wichananm65/storefront/internal/idempotency"
	"github.com/wichananm65/storefront/internal/payment"
)

const DefaultPaymentMethod = "card"

var (
	ErrMissingParams = errors.New("cart_id and address_id are required")
	// ErrIntentRequired is returned when settlement is enforced and the
	// request names no payment intent to wait for.
	ErrIntentRequired = errors.New("payment_intent is required")
	// ErrKeyReused is returned when an idempotency key already placed an
	// order for a different cart.
	ErrKeyReused = errors.New("idempotency key already used for another cart")
)

// Settlement is the part of payment.Settlements the creator waits on.
type Settlement interface {
	Wait(ctx context.Context, intentID string) (payment.Status, error)
	Forget(intentID string)
}

// Request carries what the confirmation page received after the payment
// redirect.
type Request struct {
	UserID          string
	CartID          string
	AddressID       string
	PaymentMethod   string
	PaymentIntentID string
	IdempotencyKey  string
}

// Key is the idempotency key for r. A client-supplied key is scoped to the
// user; without one the key is derived from the cart, address and intent.
func (r Request) Key() string {
	if r.IdempotencyKey != "" {
		return idempotency.Derive(idempotency.ScopeCreateOrder, r.UserID, "client", r.IdempotencyKey)
	}
	return idempotency.Derive(idempotency.ScopeCreateOrder, r.UserID, r.CartID, r.AddressID, r.PaymentIntentID)
}

// placed is what gets recorded under a key.
type placed struct {
	CartID string `json:"cart_id"`
	Order  Order  `json:"order"`
}

// Creator places orders once per completed checkout.
type Creator struct {
	repo        Repository
	settlements Settlement
	keys        idempotency.Store
	flight      singleflight.Group
	log         *logrus.Logger
}

// NewCreator builds a Creator. settlements may be nil, in which case orders
// are placed without waiting for the payment webhook.
func NewCreator(repo Repository, settlements Settlement, keys idempotency.Store, log *logrus.Logger) *Creator {
	return &Creator{repo: repo, settlements: settlements, keys: keys, log: log}
}

// Create waits for the payment to settle, then calls createOrder. A request
// whose key already produced an order gets that order back.
func (c *Creator) Create(ctx context.Context, req Request) (Order, error) {
	if req.CartID == "" || req.AddressID == "" {
		return Order{}, ErrMissingParams
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = DefaultPaymentMethod
	}
	key := req.Key()
	log := c.log.WithFields(logrus.Fields{"user_id": req.UserID, "cart_id": req.CartID, "intent": req.PaymentIntentID, "key": key})

	v, err, _ := c.flight.Do(key, func() (any, error) {
		if prev, ok := c.replay(ctx, key, log); ok {
			if prev.CartID != req.CartID {
				log.WithField("stored_cart_id", prev.CartID).Warn("idempotency key reused for another cart")
				return Order{}, ErrKeyReused
			}
			log.Info("order already created for key, replaying")
			return prev.Order, nil
		}

		if err := c.awaitSettlement(ctx, req.PaymentIntentID, log); err != nil {
			return Order{}, err
		}

		ord, err := c.repo.Create(ctx, Input{AddressID: req.AddressID, CartID: req.CartID, PaymentMethod: req.PaymentMethod}, key)
		if err != nil {
			log.WithError(err).Error("createOrder failed")
			return Order{}, err
		}
		if raw, err := json.Marshal(placed{CartID: req.CartID, Order: ord}); err == nil {
			if err := c.keys.Put(ctx, idempotency.ScopeCreateOrder, key, raw); err != nil {
				log.WithError(err).Warn("recording order failed")
			}
		}
		if c.settlements != nil && req.PaymentIntentID != "" {
			c.settlements.Forget(req.PaymentIntentID)
		}
		log.WithField("order_id", ord.ID).Info("order created")
		return ord, nil
	})
	if err != nil {
		return Order{}, err
	}
	return v.(Order), nil
}

func (c *Creator) replay(ctx context.Context, key string, log *logrus.Entry) (placed, bool) {
	rec, ok, err := c.keys.Get(ctx, idempotency.ScopeCreateOrder, key)
	if err != nil {
		log.WithError(err).Warn("idempotency lookup failed")
		return placed{}, false
	}
	if !ok {
		return placed{}, false
	}
	var prev placed
	if err := json.Unmarshal(rec.Response, &prev); err != nil {
		log.WithError(err).Warn("stored order unreadable")
		return placed{}, false
	}
	return prev, true
}

// awaitSettlement blocks until the webhook reports intentID. With settlements
// configured an order is never placed without an intent to wait on.
func (c *Creator) awaitSettlement(ctx context.Context, intentID string, log *logrus.Entry) error {
	if c.settlements == nil {
		log.Warn("no settlement source configured, placing order unconfirmed")
		return nil
	}
	if intentID == "" {
		log.Warn("no payment intent on request, refusing to place order")
		return ErrIntentRequired
	}
	status, err := c.settlements.Wait(ctx, intentID)
	if err != nil {
		log.WithError(err).Warn("payment did not settle")
		return err
	}
	if status != payment.StatusSucceeded {
		return &payment.Error{IntentID: intentID, Message: "payment was not completed"}
	}
	return nil
}

// Orders lists the caller's orders.
func (c *Creator) Orders(ctx context.Context) ([]Order, error) {
	return c.repo.List(ctx)
}

// Order returns one of the caller's orders.
func (c *Creator) Order(ctx context.Context, id string) (Order, error) {
	return c.repo.Get(ctx, id)
}

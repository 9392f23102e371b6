package checkout

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/wichananm65/storefront/internal/address"
	"github.com/wichananm65/storefront/internal/order"
	"github.com/wichananm65/storefront/internal/payment"
)

// AddressBook is the address lookup checkout needs.
type AddressBook interface {
	GetAddresses(ctx context.Context) ([]address.Address, error)
}

// OrderPlacer places the order on confirmation.
type OrderPlacer interface {
	Create(ctx context.Context, req order.Request) (order.Order, error)
}

// PaymentResult is what the payment form reports after confirming with the
// gateway SDK. A non-empty Error means the gateway rejected the payment.
type PaymentResult struct {
	IntentID string `json:"payment_intent_id"`
	Error    string `json:"error"`
}

type Service struct {
	sessions  SessionStore
	addresses AddressBook
	gateway   payment.Gateway
	orders    OrderPlacer
	log       *logrus.Logger
}

func NewService(sessions SessionStore, addresses AddressBook, gateway payment.Gateway, orders OrderPlacer, log *logrus.Logger) *Service {
	return &Service{sessions: sessions, addresses: addresses, gateway: gateway, orders: orders, log: log}
}

// Start opens (or restarts) checkout for cartID, preselecting the default
// address when the address book can be read.
func (s *Service) Start(ctx context.Context, userID, cartID string) (*Session, error) {
	if cartID == "" {
		return nil, ErrCartRequired
	}
	sess := NewSession(userID, cartID)
	addrs, err := s.addresses.GetAddresses(ctx)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("address book unavailable, no address preselected")
	} else if def, ok := address.Default(addrs); ok {
		sess.SelectedAddressID = def.ID
	}
	s.sessions.Put(sess)
	return sess, nil
}

func (s *Service) Current(userID string) (*Session, error) {
	sess, ok := s.sessions.Get(userID)
	if !ok {
		return nil, ErrNoSession
	}
	return sess, nil
}

// SelectAddress sets the shipping address after checking it belongs to the user.
func (s *Service) SelectAddress(ctx context.Context, userID, addressID string) (*Session, error) {
	sess, err := s.Current(userID)
	if err != nil {
		return nil, err
	}
	if addressID == "" {
		return sess, ErrAddressRequired
	}
	addrs, err := s.addresses.GetAddresses(ctx)
	if err != nil {
		return sess, err
	}
	if !containsAddress(addrs, addressID) {
		return sess, address.ErrNotFound
	}
	if err := sess.SelectAddress(addressID); err != nil {
		return sess, err
	}
	s.sessions.Put(sess)
	return sess, nil
}

// Continue moves from address selection to review, opening a payment intent
// for the cart. Nothing changes if the address is missing or the intent
// cannot be created.
func (s *Service) Continue(ctx context.Context, userID string) (*Session, error) {
	sess, err := s.Current(userID)
	if err != nil {
		return nil, err
	}
	if err := sess.CanAdvance(); err != nil {
		return sess, err
	}
	intent, err := s.gateway.CreatePaymentIntent(ctx, sess.CartID)
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"user_id": userID, "cart_id": sess.CartID}).Error("creating payment intent failed")
		return sess, err
	}
	if err := sess.EnterReview(intent); err != nil {
		return sess, err
	}
	s.sessions.Put(sess)
	return sess, nil
}

func (s *Service) Back(userID string) (*Session, error) {
	sess, err := s.Current(userID)
	if err != nil {
		return nil, err
	}
	if err := sess.Back(); err != nil {
		return sess, err
	}
	s.sessions.Put(sess)
	return sess, nil
}

// ConfirmPayment records the payment form's outcome. A gateway error keeps the
// session on review and is returned as a *payment.Error; it is not retried.
func (s *Service) ConfirmPayment(userID string, res PaymentResult) (*Session, error) {
	sess, err := s.Current(userID)
	if err != nil {
		return nil, err
	}
	if res.Error != "" {
		if err := sess.FailPayment(res.Error); err != nil {
			return sess, err
		}
		s.sessions.Put(sess)
		return sess, &payment.Error{IntentID: sess.PaymentIntentID, Message: res.Error}
	}
	if err := sess.Confirm(res.IntentID); err != nil {
		return sess, err
	}
	s.sessions.Put(sess)
	return sess, nil
}

// Complete places the order for a confirmation page visit and ends the
// session. The request comes from the redirect URL, so it works even when no
// session is held for the user.
func (s *Service) Complete(ctx context.Context, userID string, req order.Request) (order.Order, error) {
	if req.CartID == "" || req.AddressID == "" {
		return order.Order{}, order.ErrMissingParams
	}
	if sess, ok := s.sessions.Get(userID); ok && req.PaymentIntentID == "" {
		req.PaymentIntentID = sess.PaymentIntentID
	}
	req.UserID = userID
	ord, err := s.orders.Create(ctx, req)
	if err != nil {
		return order.Order{}, err
	}
	s.sessions.Delete(userID)
	return ord, nil
}

func containsAddress(addrs []address.Address, id string) bool {
	for _, a := range addrs {
		if a.ID == id {
			return true
		}
	}
	return false
}
